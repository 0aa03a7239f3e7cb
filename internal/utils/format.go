package utils

import (
	"fmt"
	"strings"
)

// Infinity is shown when a duration is unknown or too far away to matter.
const Infinity = "∞"

const maxETASeconds = 86400 * 365

const (
	colorFilled = "\033[32m"
	colorEmpty  = "\033[90m"
	colorReset  = "\033[0m"
)

// FormatTime renders seconds as "1h 2m 3s", dropping leading zero units.
// Negative values and values beyond a year render as Infinity.
func FormatTime(seconds int64) string {
	if seconds < 0 || seconds > maxETASeconds {
		return Infinity
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// ETA returns the whole seconds needed to move remaining bytes at rate
// bytes/sec, or -1 when that cannot be known.
func ETA(remaining, rate int64) int64 {
	if rate <= 0 {
		return -1
	}
	if remaining <= 0 {
		return 0
	}
	return remaining / rate
}

// FilledCells returns how many of width cells a bar at progress covers.
func FilledCells(progress float64, width int) int {
	if width <= 0 {
		return 0
	}
	if progress < 0 || progress != progress {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	filled := int(progress * float64(width))
	if filled > width {
		filled = width
	}
	return filled
}

// ProgressBar draws a bracketed bar of exactly width glyphs between the
// brackets: '#' for the filled part, a '|' boundary, then dimmed spaces.
// A full bar has no boundary glyph.
func ProgressBar(progress float64, width int) string {
	filled := FilledCells(progress, width)

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(colorFilled)
	b.WriteString(strings.Repeat("#", filled))
	if filled < width {
		b.WriteString("|")
		b.WriteString(colorEmpty)
		b.WriteString(strings.Repeat(" ", width-filled-1))
	}
	b.WriteString(colorReset)
	b.WriteString("]")
	return b.String()
}
