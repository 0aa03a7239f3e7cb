//go:build unix

package progress

import (
	"os"

	"golang.org/x/sys/unix"
)

const defaultWidth = 80

// TerminalWidth returns the column count of the terminal on stdout, or 80
// when stdout is not a terminal.
func TerminalWidth() int {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return defaultWidth
	}
	return int(ws.Col)
}
