package nationalid

import (
	"errors"
	"strings"
)

const (
	Length    = 10
	minDigits = 8
)

var ErrInvalidNationalID = errors.New("invalid national id")

// Reason explains why an identifier was rejected.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonLength
	ReasonRepeatedDigits
	ReasonChecksum
)

func (reason Reason) String() string {
	switch reason {
	case ReasonNone:
		return "valid"
	case ReasonLength:
		return "wrong digit count"
	case ReasonRepeatedDigits:
		return "repeated digits"
	case ReasonChecksum:
		return "checksum mismatch"
	default:
		return "unknown"
	}
}

// Check runs the full pipeline and returns the canonical 10-digit form together
// with ReasonNone, or an empty string and the stage that rejected the input.
//
// Inputs with 8 or 9 digits are left-padded with zeros before the checksum is
// computed.
func Check(value string) (string, Reason) {
	digits := DigitsOnly(value)
	if len(digits) < minDigits || len(digits) > Length {
		return "", ReasonLength
	}

	padded := strings.Repeat("0", Length-len(digits)) + digits
	if strings.Count(padded, padded[:1]) == Length {
		return "", ReasonRepeatedDigits
	}
	if !checksumMatches(padded) {
		return "", ReasonChecksum
	}
	return padded, ReasonNone
}

// Validate reports whether value holds a valid national id in any supported
// digit script.
func Validate(value string) bool {
	_, reason := Check(value)
	return reason == ReasonNone
}

// Normalize returns the canonical 10-digit ASCII form of value or
// ErrInvalidNationalID.
func Normalize(value string) (string, error) {
	canonical, reason := Check(value)
	if reason != ReasonNone {
		return "", ErrInvalidNationalID
	}
	return canonical, nil
}

// checksumMatches expects exactly Length ASCII digits.
func checksumMatches(padded string) bool {
	sum := 0
	for index := 0; index < Length-1; index++ {
		sum += int(padded[index]-'0') * (Length - index)
	}

	check := int(padded[Length-1] - '0')
	remainder := sum % 11
	if remainder < 2 {
		return check == remainder
	}
	return check == 11-remainder
}
