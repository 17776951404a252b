package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/terraincognita07/diabeticqr/internal/services"
)

var (
	errPasswordMismatch = errors.New("passwords do not match")
	errNoTerminal       = errors.New("stdin is not a terminal")
)

// RunHashPasswordCommand asks for the admin password twice and prints a bcrypt
// hash suitable for ADMIN_PASSWORD_HASH.
func RunHashPasswordCommand(stdin *os.File, stdout io.Writer, stderr io.Writer) error {
	reader := bufio.NewReader(stdin)

	password, err := promptAdminPassword(stdin, reader, stderr, "Admin password: ")
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	confirmation, err := promptAdminPassword(stdin, reader, stderr, "Repeat password: ")
	if err != nil {
		return fmt.Errorf("read password confirmation: %w", err)
	}

	hash, err := hashConfirmedPassword(password, confirmation)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, hash)
	fmt.Fprintln(stderr, "Set ADMIN_PASSWORD_HASH to the value above.")
	return nil
}

func hashConfirmedPassword(password string, confirmation string) (string, error) {
	if password != confirmation {
		return "", errPasswordMismatch
	}
	if err := services.ValidatePasswordStrength(password); err != nil {
		return "", fmt.Errorf("password needs at least %d characters with letters and digits: %w", services.MinAdminPasswordLength, err)
	}
	return services.HashAdminPassword(password)
}

// promptAdminPassword reads one line from reader, hiding it when stdin is a
// terminal. Piped input is read as is so scripts can feed the password.
func promptAdminPassword(stdin *os.File, reader *bufio.Reader, prompt io.Writer, label string) (string, error) {
	fmt.Fprint(prompt, label)

	if restore, err := disableEcho(stdin); err == nil {
		defer func() {
			restore()
			fmt.Fprintln(prompt)
		}()
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if err != nil && line == "" {
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimRight(line, "\r\n"), nil
}
