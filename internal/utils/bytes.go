package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// maxUnit is the index of the largest unit; values beyond it stay in TB.
const maxUnit = 4

var sizePattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*([kKmMgGtT]?[bB]?)?\s*$`)

// ParseBytes parses a byte size string like "4MB", "500KB", "2GB"
func ParseBytes(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid size: %s", s)
	}

	val, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, err
	}

	unit := strings.ToLower(matches[2])
	multiplier := int64(1)

	switch unit {
	case "k", "kb":
		multiplier = 1024
	case "m", "mb":
		multiplier = 1024 * 1024
	case "g", "gb":
		multiplier = 1024 * 1024 * 1024
	case "t", "tb":
		multiplier = 1024 * 1024 * 1024 * 1024
	}

	return int64(val * float64(multiplier)), nil
}

// SizeUnit returns the index of the largest unit that keeps n below 1024,
// capped at TB.
func SizeUnit(n int64) int {
	i := 0
	val := float64(n)
	for val >= 1024 && i < maxUnit {
		val /= 1024
		i++
	}
	return i
}

// UnitName returns the suffix for a unit index returned by SizeUnit.
func UnitName(unit int) string {
	if unit < 0 {
		unit = 0
	}
	if unit > maxUnit {
		unit = maxUnit
	}
	return sizeUnits[unit]
}

// FormatSize converts bytes to human-readable format, e.g. "1.5 MB".
func FormatSize(n int64) string {
	return FormatSizeIn(n, SizeUnit(n))
}

// FormatSizeIn formats n in a fixed unit so that two values can be shown
// side by side with the same suffix.
func FormatSizeIn(n int64, unit int) string {
	name := UnitName(unit)
	val := float64(n)
	for i := 0; i < unit && i < maxUnit; i++ {
		val /= 1024
	}
	return fmt.Sprintf("%.1f %s", val, name)
}

// FormatPair formats done and total in the unit chosen for the larger of the two.
func FormatPair(done, total int64) (string, string) {
	larger := total
	if done > larger {
		larger = done
	}
	unit := SizeUnit(larger)
	return FormatSizeIn(done, unit), FormatSizeIn(total, unit)
}

// IsMagnet reports whether src is a magnet URI.
func IsMagnet(src string) bool {
	return strings.HasPrefix(src, "magnet:")
}

// IsTorrentLike checks if source is a torrent (magnet or .torrent file)
func IsTorrentLike(src string) bool {
	if IsMagnet(src) {
		return true
	}
	if strings.HasSuffix(strings.ToLower(src), ".torrent") {
		return true
	}
	return false
}
