package services

import (
	"errors"
	"unicode"
)

const MinAdminPasswordLength = 10

var ErrWeakPassword = errors.New("weak password")

// ValidatePasswordStrength accepts letters and digits from any script, so a
// Persian passphrase with Persian digits qualifies.
func ValidatePasswordStrength(password string) error {
	if len([]rune(password)) < MinAdminPasswordLength {
		return ErrWeakPassword
	}

	hasLetter := false
	hasDigit := false
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}

	if hasLetter && hasDigit {
		return nil
	}
	return ErrWeakPassword
}
