package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/accelara/curlent/internal/utils"
)

// LoadFile applies the key=value file at path to opts. A missing file is
// not an error.
func LoadFile(path string, opts *Options) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	if err := Parse(f, opts); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Parse reads key=value lines. Blank lines, '#' comments and lines without
// '=' are skipped; unknown keys are logged and ignored.
func Parse(r io.Reader, opts *Options) error {
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := apply(opts, key, value); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func apply(opts *Options, key, value string) error {
	switch key {
	case "output":
		opts.OutputDir = ExpandTilde(value)
	case "interface":
		opts.Interface = value
	case "ratio":
		r, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: invalid ratio %q", ErrConfiguration, value)
		}
		if err := checkRatio(r); err != nil {
			return err
		}
		opts.SeedRatio = r
	case "no-seed":
		opts.NoSeed = parseBool(value)
	case "quiet":
		opts.Quiet = parseBool(value)
	case "upload-limit":
		n, err := utils.ParseBytes(value)
		if err != nil {
			return fmt.Errorf("%w: upload-limit: %v", ErrConfiguration, err)
		}
		opts.UploadLimit = n
	case "download-limit":
		n, err := utils.ParseBytes(value)
		if err != nil {
			return fmt.Errorf("%w: download-limit: %v", ErrConfiguration, err)
		}
		opts.DownloadLimit = n
	case "log-level":
		opts.LogLevel = strings.ToLower(value)
	case "metrics-addr":
		opts.MetricsAddr = value
	default:
		logrus.WithFields(logrus.Fields{
			"function": "Parse",
			"key":      key,
		}).Warn("Ignoring unknown config key")
	}
	return nil
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}
