package config

import (
	"math"
	"reflect"
	"strconv"
)

// numericFuncsMap are the functions available in the configuration file
// templates, for example to size an avatar from an environment variable:
//
//	font_size: {{ div .Env.AVATAR_WIDTH 2 }}
var numericFuncsMap = map[string]interface{}{
	"add": func(i ...interface{}) int64 {
		var a int64
		for _, b := range i {
			a += toInt64(b)
		}
		return a
	},
	"sub": func(a, b interface{}) int64 { return toInt64(a) - toInt64(b) },
	"mul": func(a interface{}, v ...interface{}) int64 {
		val := toInt64(a)
		for _, b := range v {
			val *= toInt64(b)
		}
		return val
	},
	"div": func(a, b interface{}) int64 {
		d := toInt64(b)
		if d == 0 {
			return 0
		}
		return toInt64(a) / d
	},
}

// toInt64 converts the numbers, booleans and numeric strings.
func toInt64(v interface{}) int64 {
	if str, ok := v.(string); ok {
		iv, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return 0
		}
		return iv
	}

	val := reflect.Indirect(reflect.ValueOf(v))
	switch val.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
		return val.Int()
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(val.Uint())
	case reflect.Uint, reflect.Uint64:
		if tv := val.Uint(); tv <= math.MaxInt64 {
			return int64(tv)
		}
		return math.MaxInt64
	case reflect.Float32, reflect.Float64:
		return int64(val.Float())
	case reflect.Bool:
		if val.Bool() {
			return 1
		}
		return 0
	default:
		return 0
	}
}
