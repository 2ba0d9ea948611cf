//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package cli

import "os"

// IsTerminal always reports false where termios is unavailable, so output
// falls back to the compact encoding.
func IsTerminal(f *os.File) bool {
	return false
}
