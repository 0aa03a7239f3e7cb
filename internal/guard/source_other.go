//go:build !linux

package guard

func defaultSource() StateSource {
	return FlagsSource{}
}
