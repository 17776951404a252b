// Package nationalid normalizes locale-specific digits and validates Iranian
// national identification numbers (kod-e melli).
package nationalid

import "strings"

const (
	persianZero = '۰'
	arabicZero  = '٠'
)

// ToDisplayDigits replaces every ASCII digit with its Persian counterpart.
// Any other rune is copied unchanged.
func ToDisplayDigits(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return persianZero + (r - '0')
		}
		return r
	}, value)
}

// ToASCIIDigits maps Persian and Arabic-Indic digits to ASCII, keeps ASCII
// digits and drops every other rune.
func ToASCIIDigits(value string) string {
	return strings.Map(asciiDigit, value)
}

// DigitsOnly is the search-side normalization: it extracts ASCII digits from a
// free-text query so that Persian or Arabic input matches stored identifiers.
func DigitsOnly(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, ToASCIIDigits(value))
}

func asciiDigit(r rune) rune {
	switch {
	case r >= '0' && r <= '9':
		return r
	case r >= persianZero && r <= persianZero+9:
		return '0' + (r - persianZero)
	case r >= arabicZero && r <= arabicZero+9:
		return '0' + (r - arabicZero)
	default:
		return -1
	}
}
