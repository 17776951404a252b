//go:build !windows && !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package cli

import "os"

func disableEcho(_ *os.File) (func(), error) {
	return nil, errNoTerminal
}
