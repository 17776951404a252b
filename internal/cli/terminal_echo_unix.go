//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package cli

import (
	"os"

	"golang.org/x/sys/unix"
)

// disableEcho turns off terminal echo on stdin and returns the func that
// restores it. It fails for pipes and regular files.
func disableEcho(stdin *os.File) (func(), error) {
	if stdin == nil {
		return nil, errNoTerminal
	}

	fd := int(stdin.Fd())
	state, err := unix.IoctlGetTermios(fd, termiosGetRequest)
	if err != nil {
		return nil, err
	}
	original := *state
	state.Lflag &^= unix.ECHO
	if err := unix.IoctlSetTermios(fd, termiosSetRequest, state); err != nil {
		return nil, err
	}
	return func() { _ = unix.IoctlSetTermios(fd, termiosSetRequest, &original) }, nil
}
