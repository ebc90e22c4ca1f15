// Package main is the entry point for taptrack, a tap gesture recognizer
// that reads raw pointer events from a trace or the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/taptrack/internal/app"
	"github.com/dshills/taptrack/internal/config"
	"github.com/dshills/taptrack/internal/logging"
	"github.com/dshills/taptrack/internal/terminal"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	configPath  string
	logLevel    string
	logFile     string
	follow      bool
	scriptPath  string
	recordPath  string
	useTerminal bool
	touch       bool
	shared      bool
	emulate     bool
	printConfig bool
	trace       string

	// set records which flags were given explicitly.
	set map[string]bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(config.Options{
		Path:      opts.configPath,
		Overrides: opts.overrides(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		return 1
	}

	if opts.printConfig {
		if err := cfg.WriteTOML(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	logger, closeLog, err := newLogger(opts, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()
	if cfg.Source != "" {
		logger.Debug("loaded config from %s", cfg.Source)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appOpts := app.Options{
		Config:     cfg,
		Logger:     logger,
		ScriptPath: opts.scriptPath,
	}
	if !opts.useTerminal {
		appOpts.Output = os.Stdout
	}
	if opts.recordPath != "" {
		f, err := os.Create(opts.recordPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: creating record file: %v\n", err)
			return 1
		}
		defer f.Close()
		appOpts.Record = f
	}

	application, err := app.New(ctx, appOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()

	if err := dispatch(ctx, application, opts, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// dispatch runs the input loop selected on the command line.
func dispatch(ctx context.Context, application *app.Application, opts cliOptions, cfg *config.Config) error {
	switch {
	case opts.useTerminal:
		term, err := terminal.NewTerminal(terminal.WithTouch(opts.emulate))
		if err != nil {
			return err
		}
		if err := term.Init(); err != nil {
			return err
		}
		defer term.Shutdown()
		return application.RunTerminal(ctx, term)

	case opts.trace == "" || opts.trace == "-":
		return application.Replay(ctx, os.Stdin)

	case cfg.Trace.Follow:
		return application.Follow(ctx, opts.trace)

	default:
		f, err := os.Open(opts.trace)
		if err != nil {
			return err
		}
		defer f.Close()
		return application.Replay(ctx, f)
	}
}

// newLogger builds the logger at the configured level. Terminal mode
// owns the screen, so its logs go to -log-file or nowhere.
func newLogger(opts cliOptions, cfg *config.Config) (*logging.Logger, func(), error) {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Logging.Level

	closeFn := func() {}
	switch {
	case opts.logFile != "":
		f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		lc.Output = f
		closeFn = func() { f.Close() }
	case opts.useTerminal:
		lc.Output = io.Discard
	}
	return logging.New(lc), closeFn, nil
}

// overrides maps explicitly set flags onto config paths.
func (o cliOptions) overrides() map[string]any {
	m := make(map[string]any)
	if o.set["log-level"] {
		config.Set(m, "logging.level", o.logLevel)
	}
	if o.set["follow"] || o.set["f"] {
		config.Set(m, "trace.follow", o.follow)
	}
	if o.set["touch"] {
		config.Set(m, "input.touch", o.touch)
	}
	if o.set["shared"] {
		config.Set(m, "input.perSource", !o.shared)
	}
	return m
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.logFile, "log-file", "", "Write logs to a file instead of stderr")
	flag.BoolVar(&opts.follow, "follow", false, "Keep reading the trace file as it grows")
	flag.BoolVar(&opts.follow, "f", false, "Keep reading the trace file as it grows (shorthand)")
	flag.StringVar(&opts.scriptPath, "script", "", "Lua script defining on_tap(tap)")
	flag.StringVar(&opts.recordPath, "record", "", "Write accepted raw events to a trace file")
	flag.BoolVar(&opts.useTerminal, "terminal", false, "Read mouse input from the terminal")
	flag.BoolVar(&opts.touch, "touch", true, "Handle touch events")
	flag.BoolVar(&opts.shared, "shared", false, "Share one gesture state across input sources")
	flag.BoolVar(&opts.emulate, "emulate-touch", false, "Report terminal mouse input as touch events")
	flag.BoolVar(&opts.printConfig, "print-config", false, "Print the effective configuration and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "taptrack - tap gesture recognizer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: taptrack [options] [trace.jsonl]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  taptrack events.jsonl          Replay a trace, one tap record per line\n")
		fmt.Fprintf(os.Stderr, "  taptrack -f events.jsonl       Follow a growing trace\n")
		fmt.Fprintf(os.Stderr, "  taptrack -terminal             Tap with the mouse in this terminal\n")
		fmt.Fprintf(os.Stderr, "  cat events.jsonl | taptrack    Read a trace from stdin\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("taptrack %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if _, err := logging.ParseLevel(opts.logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	opts.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	switch args := flag.Args(); len(args) {
	case 0:
	case 1:
		opts.trace = args[0]
	default:
		fmt.Fprintf(os.Stderr, "Error: expected at most one trace file, got %d\n", len(args))
		os.Exit(1)
	}

	if opts.follow && (opts.trace == "" || opts.trace == "-") {
		fmt.Fprintf(os.Stderr, "Error: -follow needs a trace file\n")
		os.Exit(1)
	}

	return opts
}
