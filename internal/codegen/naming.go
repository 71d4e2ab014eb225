package codegen

import (
	"strings"
	"unicode"

	"appforge/internal/spec"
)

// Pluralize lowercases a model name and applies the fixed suffix rule used
// for collection, route, and file naming. The rule is deliberately simple
// and deterministic, not a linguistics library.
func Pluralize(name string) string {
	n := snake(name)
	switch {
	case n == "":
		return ""
	case strings.HasSuffix(n, "s"), strings.HasSuffix(n, "x"), strings.HasSuffix(n, "z"),
		strings.HasSuffix(n, "ch"), strings.HasSuffix(n, "sh"):
		return n + "es"
	case strings.HasSuffix(n, "y") && len(n) > 1 && !isVowel(rune(n[len(n)-2])):
		return n[:len(n)-1] + "ies"
	default:
		return n + "s"
	}
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// snake converts "Deal Stage" / "DealStage" to "deal_stage".
func snake(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	prevLower := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		default:
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
				b.WriteByte('_')
			}
			prevLower = false
		}
	}
	return strings.Trim(b.String(), "_")
}

// pascal converts "deal stage" / "deal_stage" to "DealStage".
func pascal(name string) string {
	parts := strings.FieldsFunc(strings.TrimSpace(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, p := range parts {
		r := []rune(p)
		b.WriteRune(unicode.ToUpper(r[0]))
		b.WriteString(string(r[1:]))
	}
	return b.String()
}

// pyType maps a field type to the generated Python annotation.
func pyType(t spec.FieldType) (string, bool) {
	switch t {
	case spec.FieldString, spec.FieldURL, spec.FieldReference:
		return "str", true
	case spec.FieldEmail:
		return "EmailStr", true
	case spec.FieldNumber:
		return "float", true
	case spec.FieldBoolean:
		return "bool", true
	case spec.FieldDate, spec.FieldDatetime:
		return "datetime", true
	case spec.FieldJSON:
		return "dict", true
	case spec.FieldArray:
		return "list", true
	}
	return "", false
}
