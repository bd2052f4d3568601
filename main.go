// bar-pulse is a family of long-running waybar status agents behind one
// binary. Each invocation runs a single module that periodically
// collects a value (system metric, web API, subprocess) and prints one
// waybar JSON record per line on stdout.
//
// SIGHUP forces an immediate refetch and redraw; SIGUSR1 redraws using
// the next display mode (or target) without refetching.
//
// Usage:
//
//	bar-pulse -module NAME [flags]
//
// Flags:
//
//	-module string    Module to run (cpu|memory|filesystem|network|weather|stocks|quakes|updates)
//	-config string    Path to configuration file (default: XDG search)
//	-label string     Instance label, for running the same module twice
//	-target value     Override the module's target list (repeatable)
//	-interval duration Override the refresh interval
//	-test             Fetch and render once, then exit
//	-debug            Enable debug logging
//	-version          Print version and exit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"gitlab.com/tinyland/lab/bar-pulse/pkg/config"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules/cpu"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules/filesystem"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules/memory"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules/network"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules/quakes"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules/stocks"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules/updates"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/modules/weather"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/statefile"
	"gitlab.com/tinyland/lab/bar-pulse/pkg/status"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

// stringList is a repeatable -target flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func newRegistry() *modules.Registry {
	reg := modules.NewRegistry()
	for name, factory := range map[string]modules.Factory{
		"cpu":        cpu.Factory,
		"memory":     memory.Factory,
		"filesystem": filesystem.Factory,
		"network":    network.Factory,
		"weather":    weather.Factory,
		"stocks":     stocks.Factory,
		"quakes":     quakes.Factory,
		"updates":    updates.Factory,
	} {
		if err := reg.Register(name, factory); err != nil {
			panic(err)
		}
	}
	return reg
}

func main() {
	var targets stringList
	var (
		moduleName  = flag.String("module", "", "Module to run")
		configPath  = flag.String("config", "", "Path to configuration file")
		label       = flag.String("label", "", "Instance label, for running the same module twice")
		interval    = flag.Duration("interval", 0, "Override the refresh interval")
		testMode    = flag.Bool("test", false, "Fetch and render once, then exit")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Var(&targets, "target", "Override the module's target list (repeatable)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("bar-pulse %s (%s) built %s\n", version, commit, date)
		os.Exit(0)
	}

	reg := newRegistry()
	if *moduleName == "" {
		fmt.Fprintf(os.Stderr, "missing -module (available: %v)\n", reg.Names())
		os.Exit(1)
	}

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, logFile, err := setupLogging(cfg, *moduleName, *label, *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	// stdout is the waybar protocol stream; everything else goes to the
	// logger.
	emitter := status.NewEmitter(os.Stdout)

	opts := modules.Options{
		Label:    *label,
		Targets:  targets,
		Interval: *interval,
		Emitter:  emitter,
		Logger:   logger,
		Config:   cfg,
	}

	var state *statefile.File
	if !*testMode {
		state, err = statefile.Open(cfg.General.CacheDir, *moduleName, *label)
		if errors.Is(err, statefile.ErrLocked) {
			fmt.Fprintf(os.Stderr, "another %s instance is already running\n", *moduleName)
			os.Exit(1)
		}
		if err != nil {
			logger.Warn("statefile unavailable, display mode will not persist", "error", err)
		} else {
			defer state.Close()
			opts.InitialFormat = state.Index()
			opts.OnFormatChange = func(idx int) {
				if err := state.SetIndex(idx); err != nil {
					logger.Warn("failed to persist display mode", "error", err)
				}
			}
		}
	}

	runner, err := reg.New(*moduleName, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	if *testMode {
		if err := runner.RunOnce(ctx); err != nil {
			logger.Error("one-shot run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("starting module",
		"module", *moduleName,
		"label", *label,
		"version", version,
	)
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("module failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging writes to both stderr and a per-module logfile, keeping
// stdout clean for the protocol stream.
func setupLogging(cfg *config.Config, module, label string, debug bool) (*slog.Logger, *os.File, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	} else {
		switch cfg.General.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	name := "bar-pulse-" + module
	if label != "" {
		name += "-" + label
	}
	logPath := filepath.Join(cfg.General.LogDir, name+".log")

	var w io.Writer = os.Stderr
	logFile, err := openLogFile(logPath)
	if err == nil {
		w = io.MultiWriter(os.Stderr, logFile)
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	if err != nil {
		logger.Warn("logfile unavailable, logging to stderr only", "path", logPath, "error", err)
	}
	return logger, logFile, nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}
