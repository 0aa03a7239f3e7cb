// Package guard implements the kill-switch check: a stateless poll of a
// network interface's operational state.
package guard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultSysfsRoot is where Linux exposes per-interface state.
const DefaultSysfsRoot = "/sys/class/net"

// StateSource reads the operational state of an interface, e.g. "up",
// "down", "dormant" or "unknown".
type StateSource interface {
	OperState(name string) (string, error)
}

// Guard reports whether an interface is usable. It keeps no memory between
// calls; every IsUp reads the state fresh.
type Guard struct {
	source StateSource
}

// New returns a Guard reading from the platform's default state source.
func New() *Guard {
	return &Guard{source: defaultSource()}
}

// NewWithSource returns a Guard backed by src.
func NewWithSource(src StateSource) *Guard {
	return &Guard{source: src}
}

// IsUp treats "up" and "unknown" as usable. Any other state, or failure to
// read one, counts as down.
func (g *Guard) IsUp(name string) bool {
	if name == "" {
		return false
	}
	state, err := g.source.OperState(name)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "IsUp",
			"interface": name,
			"error":     err.Error(),
		}).Debug("Failed to read interface state, treating as down")
		return false
	}
	return usable(state)
}

func usable(state string) bool {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "up", "unknown":
		return true
	default:
		return false
	}
}

// SysfsSource reads <Root>/<name>/operstate.
type SysfsSource struct {
	Root string
}

func (s SysfsSource) OperState(name string) (string, error) {
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid interface name %q", name)
	}
	root := s.Root
	if root == "" {
		root = DefaultSysfsRoot
	}
	data, err := os.ReadFile(filepath.Join(root, name, "operstate"))
	if err != nil {
		return "", err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return "", fmt.Errorf("empty operstate for %s", name)
	}
	return fields[0], nil
}
