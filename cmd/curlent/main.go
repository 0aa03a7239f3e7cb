package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/accelara/curlent/internal/config"
	"github.com/accelara/curlent/internal/downloader"
	"github.com/accelara/curlent/internal/engine/anacrolix"
	"github.com/accelara/curlent/internal/guard"
	"github.com/accelara/curlent/internal/metrics"
	"github.com/accelara/curlent/internal/progress"
	"github.com/accelara/curlent/internal/statestore"
)

const prog = "curlent"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := config.Load(config.ConfigPath(), args)
	if errors.Is(err, config.ErrHelp) {
		fmt.Fprint(stdout, config.Usage(prog))
		return downloader.ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n%s", err, config.Usage(prog))
		return downloader.ExitFailure
	}

	setupLogging(opts.LogLevel, stderr)

	netGuard := guard.New()
	if opts.Interface != "" && !netGuard.IsUp(opts.Interface) {
		fmt.Fprintf(stderr, "Error: interface %s is not up\n", opts.Interface)
		return downloader.ExitFailure
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		fmt.Fprintf(stderr, "Error: failed to create output directory: %v\n", err)
		return downloader.ExitFailure
	}
	outputDir, err := filepath.Abs(opts.OutputDir)
	if err != nil {
		fmt.Fprintf(stderr, "Error resolving output path: %v\n", err)
		return downloader.ExitFailure
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	cfg := anacrolix.Config{
		DataDir:       outputDir,
		Seed:          !opts.NoSeed,
		UploadLimit:   opts.UploadLimit,
		DownloadLimit: opts.DownloadLimit,
	}
	if opts.Interface != "" {
		addrs, err := guard.InterfaceAddrs(ctx, opts.Interface)
		if err != nil {
			fmt.Fprintf(stderr, "Error: cannot bind to interface %s: %v\n", opts.Interface, err)
			return downloader.ExitFailure
		}
		cfg.BindIPv4 = addrs.IPv4
		cfg.BindIPv6 = addrs.IPv6
	}

	store := statestore.NewFileStore(config.StatePath())
	if blob, ok := store.Load(); ok {
		if cfg, err = anacrolix.RestoreConfig(blob, cfg); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "run",
				"path":     store.Path(),
				"error":    err.Error(),
			}).Debug("Ignoring saved session state")
		}
	}

	eng, err := anacrolix.New(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return downloader.ExitFailure
	}
	defer eng.Close()

	var observer downloader.Observer
	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics.Register(reg)
		go func() {
			if err := metrics.Serve(ctx, opts.MetricsAddr, reg); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "run",
					"addr":     opts.MetricsAddr,
					"error":    err.Error(),
				}).Warn("Metrics server stopped")
			}
		}()
		observer = metrics.Observer{}
	}

	ctl := &downloader.Controller{
		Engine:   eng,
		Guard:    netGuard,
		Store:    store,
		Reporter: progress.New(opts.Quiet),
		Observer: observer,
	}
	out := ctl.Run(ctx, downloader.Session{
		Identifier: opts.Identifier,
		OutputDir:  outputDir,
		SeedRatio:  opts.SeedRatio,
		Interface:  opts.Interface,
		Quiet:      opts.Quiet,
		NoSeed:     opts.NoSeed,
	})

	if out.Kind == downloader.EngineError && out.Err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", out.Err)
	}
	return out.ExitCode()
}

func setupLogging(level string, w io.Writer) {
	logrus.SetOutput(w)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logrus.SetLevel(lvl)
	}
}
