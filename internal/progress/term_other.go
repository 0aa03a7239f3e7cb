//go:build !unix

package progress

const defaultWidth = 80

func TerminalWidth() int {
	return defaultWidth
}
