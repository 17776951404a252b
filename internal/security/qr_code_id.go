package security

// QRCodeIDAlphabet is URL-safe so generated ids can be used as path segments.
const QRCodeIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"

const QRCodeIDLength = 12

func NewQRCodeID() (string, error) {
	return randomToken(QRCodeIDLength, QRCodeIDAlphabet)
}

// IsQRCodeID reports whether value could have been produced by NewQRCodeID.
func IsQRCodeID(value string) bool {
	if len(value) != QRCodeIDLength {
		return false
	}
	for index := 0; index < len(value); index++ {
		char := value[index]
		switch {
		case char >= '0' && char <= '9', char >= 'A' && char <= 'Z', char >= 'a' && char <= 'z', char == '_', char == '-':
		default:
			return false
		}
	}
	return true
}
