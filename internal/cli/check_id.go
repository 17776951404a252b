package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/terraincognita07/diabeticqr/internal/nationalid"
)

var (
	errNoNationalIDs      = errors.New("usage: diabeticqr check-id <national-id>...")
	errInvalidNationalIDs = errors.New("one or more national ids are invalid")
)

// RunCheckIDCommand prints one line per argument: the canonical ten-digit id
// or the reason it was rejected.
func RunCheckIDCommand(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errNoNationalIDs
	}

	invalid := 0
	for _, arg := range args {
		canonical, reason := nationalid.Check(arg)
		if reason != nationalid.ReasonNone {
			invalid++
			fmt.Fprintf(stdout, "%s\tinvalid: %s\n", arg, reason)
			continue
		}
		fmt.Fprintf(stdout, "%s\t%s\n", arg, canonical)
	}

	if invalid > 0 {
		return errInvalidNationalIDs
	}
	return nil
}
