// Package config assembles a run's Options from built-in defaults, the
// per-user config file and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrConfiguration wraps every malformed flag or config value.
var ErrConfiguration = errors.New("configuration error")

const (
	DefaultOutputDir = "."
	DefaultSeedRatio = 2.0
	DefaultLogLevel  = "warn"
)

// Options contains everything one run needs. It is not modified once the
// transfer starts.
type Options struct {
	Identifier    string
	OutputDir     string
	Interface     string
	SeedRatio     float64
	NoSeed        bool
	Quiet         bool
	UploadLimit   int64
	DownloadLimit int64
	LogLevel      string
	MetricsAddr   string
}

func Defaults() Options {
	return Options{
		OutputDir: DefaultOutputDir,
		SeedRatio: DefaultSeedRatio,
		LogLevel:  DefaultLogLevel,
	}
}

// Validate checks the fields that flags and the config file cannot reject
// on their own.
func (o Options) Validate() error {
	if o.Identifier == "" {
		return fmt.Errorf("%w: no input specified", ErrConfiguration)
	}
	if err := checkRatio(o.SeedRatio); err != nil {
		return err
	}
	if o.UploadLimit < 0 || o.DownloadLimit < 0 {
		return fmt.Errorf("%w: rate limits must not be negative", ErrConfiguration)
	}
	if _, err := logrus.ParseLevel(o.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func checkRatio(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r < 0 {
		return fmt.Errorf("%w: invalid ratio %v", ErrConfiguration, r)
	}
	return nil
}

// HomeDir returns $HOME, or /tmp when it is unset.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return "/tmp"
}

// ConfigPath is the per-user config file location.
func ConfigPath() string {
	return filepath.Join(HomeDir(), ".config", "curlent", "config")
}

// StatePath is where the engine session is persisted between runs.
func StatePath() string {
	return filepath.Join(HomeDir(), ".cache", "curlent", "session_state")
}

// ExpandTilde replaces a leading "~" with the home directory.
func ExpandTilde(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home := os.Getenv("HOME")
	if home == "" {
		return path
	}
	return home + strings.TrimPrefix(path, "~")
}
