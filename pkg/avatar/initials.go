package avatar

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// getInitials returns the first letter of the first and last words of the
// name. The name is split on every single space: leading, trailing or
// repeated spaces give empty words, which have no first letter.
func getInitials(name string, policy Case) string {
	parts := strings.Split(name, " ")
	var initials string
	if len(parts) == 1 {
		initials = firstChar(parts[0])
	} else {
		initials = firstChar(parts[0]) + firstChar(parts[len(parts)-1])
	}
	return policy.apply(initials)
}

func firstChar(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return s[:size]
}

func (c Case) apply(s string) string {
	switch c {
	case CaseUpper:
		return cases.Upper(language.Und).String(s)
	case CaseLower:
		return cases.Lower(language.Und).String(s)
	default:
		return s
	}
}
