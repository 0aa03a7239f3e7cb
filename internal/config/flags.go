package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/accelara/curlent/internal/utils"
)

// ErrHelp is returned by ParseArgs when -h or --help was given.
var ErrHelp = errors.New("help requested")

// Usage returns the help text.
func Usage(prog string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s <magnet_link_or_torrent_file> [OPTIONS]\n", prog)
	b.WriteString("\n")
	b.WriteString("Options:\n")
	b.WriteString("  -o, --output DIR         Output directory (default: current directory)\n")
	b.WriteString("  -i, --interface IF       Bind to network interface with kill switch (e.g. tun0, wg0)\n")
	b.WriteString("  -r, --ratio RATIO        Seed ratio target (default: 2.0)\n")
	b.WriteString("  -n, --no-seed            Exit after download, don't seed\n")
	b.WriteString("  -q, --quiet              Quiet mode - minimal output\n")
	b.WriteString("      --upload-limit SIZE   Upload rate limit, e.g. 500KB\n")
	b.WriteString("      --download-limit SIZE Download rate limit, e.g. 4MB\n")
	b.WriteString("      --log-level LEVEL    Diagnostic log level (default: warn)\n")
	b.WriteString("      --metrics-addr ADDR  Serve Prometheus metrics on ADDR\n")
	b.WriteString("  -h, --help               Show this help\n")
	b.WriteString("\n")
	b.WriteString("Config file: ~/.config/curlent/config\n")
	return b.String()
}

// ParseArgs applies command-line arguments on top of opts. The identifier
// may appear anywhere among the flags.
func ParseArgs(args []string, opts *Options) error {
	fs := flag.NewFlagSet("curlent", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		help          bool
		uploadLimit   string
		downloadLimit string
	)

	fs.StringVar(&opts.OutputDir, "o", opts.OutputDir, "Output directory")
	fs.StringVar(&opts.OutputDir, "output", opts.OutputDir, "Output directory")
	fs.StringVar(&opts.Interface, "i", opts.Interface, "Kill-switch interface")
	fs.StringVar(&opts.Interface, "interface", opts.Interface, "Kill-switch interface")
	fs.Float64Var(&opts.SeedRatio, "r", opts.SeedRatio, "Seed ratio target")
	fs.Float64Var(&opts.SeedRatio, "ratio", opts.SeedRatio, "Seed ratio target")
	fs.BoolVar(&opts.NoSeed, "n", opts.NoSeed, "Exit after download")
	fs.BoolVar(&opts.NoSeed, "no-seed", opts.NoSeed, "Exit after download")
	fs.BoolVar(&opts.Quiet, "q", opts.Quiet, "Quiet mode")
	fs.BoolVar(&opts.Quiet, "quiet", opts.Quiet, "Quiet mode")
	fs.StringVar(&uploadLimit, "upload-limit", "", "Upload rate limit")
	fs.StringVar(&downloadLimit, "download-limit", "", "Download rate limit")
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Diagnostic log level")
	fs.StringVar(&opts.MetricsAddr, "metrics-addr", opts.MetricsAddr, "Prometheus listen address")
	fs.BoolVar(&help, "h", false, "Show help")
	fs.BoolVar(&help, "help", false, "Show help")

	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		positional = append(positional, rest[0])
		rest = rest[1:]
	}

	if help {
		return ErrHelp
	}

	switch {
	case len(positional) > 1:
		return fmt.Errorf("%w: unexpected argument: %s", ErrConfiguration, positional[1])
	case len(positional) == 1:
		opts.Identifier = positional[0]
	}

	opts.OutputDir = ExpandTilde(opts.OutputDir)
	opts.LogLevel = strings.ToLower(opts.LogLevel)

	if uploadLimit != "" {
		n, err := utils.ParseBytes(uploadLimit)
		if err != nil {
			return fmt.Errorf("%w: upload-limit: %v", ErrConfiguration, err)
		}
		opts.UploadLimit = n
	}
	if downloadLimit != "" {
		n, err := utils.ParseBytes(downloadLimit)
		if err != nil {
			return fmt.Errorf("%w: download-limit: %v", ErrConfiguration, err)
		}
		opts.DownloadLimit = n
	}
	return nil
}

// Load builds Options for a run: defaults, then the file at configPath,
// then args.
func Load(configPath string, args []string) (Options, error) {
	opts := Defaults()
	if err := LoadFile(configPath, &opts); err != nil {
		return opts, err
	}
	if err := ParseArgs(args, &opts); err != nil {
		return opts, err
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}
