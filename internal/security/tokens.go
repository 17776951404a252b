package security

import (
	"crypto/rand"
	"errors"
)

// UploadSuffixAlphabet keeps stored file names lowercase and shell friendly.
const (
	UploadSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	UploadSuffixLength   = 6
)

var errTokenAlphabet = errors.New("token alphabet must hold between 1 and 256 symbols")

// NewUploadSuffix returns the random part that keeps two uploads saved in the
// same millisecond from colliding.
func NewUploadSuffix() (string, error) {
	return randomToken(UploadSuffixLength, UploadSuffixAlphabet)
}

// randomToken maps crypto/rand bytes onto alphabet, rejecting bytes above the
// largest multiple of len(alphabet) so every symbol is equally likely.
func randomToken(length int, alphabet string) (string, error) {
	size := len(alphabet)
	if size == 0 || size > 256 {
		return "", errTokenAlphabet
	}
	if length <= 0 {
		return "", nil
	}

	limit := 256 - 256%size
	token := make([]byte, 0, length)
	chunk := make([]byte, length)
	for len(token) < length {
		if _, err := rand.Read(chunk); err != nil {
			return "", err
		}
		for _, b := range chunk {
			if int(b) >= limit {
				continue
			}
			token = append(token, alphabet[int(b)%size])
			if len(token) == length {
				break
			}
		}
	}
	return string(token), nil
}
