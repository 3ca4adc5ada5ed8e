package config

import "fmt"

// Normalize converts the nested map[interface{}]interface{} of a YAML
// document into map[string]interface{}, so that the merged settings can be
// encoded as JSON.
func Normalize(input map[string]interface{}) map[string]interface{} {
	normalized := make(map[string]interface{}, len(input))
	for k, v := range input {
		normalized[k] = normalizeValue(v)
	}
	return normalized
}

func normalizeValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		return Normalize(v)
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(v))
		for k, val := range v {
			m[fmt.Sprintf("%v", k)] = normalizeValue(val)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(v))
		for i, val := range v {
			s[i] = normalizeValue(val)
		}
		return s
	default:
		return v
	}
}
