package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tinytelemetry/httop/internal/clock"
	"github.com/tinytelemetry/httop/internal/ingest"
	"github.com/tinytelemetry/httop/internal/render"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

// flagKeys maps every flag that mirrors a config key, short aliases included.
var flagKeys = map[string]string{
	"delay":          "delay",
	"d":              "delay",
	"entries":        "entries",
	"n":              "entries",
	"window":         "window",
	"w":              "window",
	"log-format":     "log-format",
	"l":              "log-format",
	"custom-pattern": "custom-pattern",
	"r":              "custom-pattern",
	"display":        "display",
	"api-addr":       "api-addr",
}

type cliOptions struct {
	configPath  string
	showVersion bool
	overrides   map[string]any
	files       []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "httop: %v\n", err)
		return 1
	}

	if opts.showVersion {
		fmt.Fprintf(stdout, "httop - Live Log Top\n")
		fmt.Fprintf(stdout, "  Version:    %s\n", version)
		fmt.Fprintf(stdout, "  Commit:     %s\n", commit)
		fmt.Fprintf(stdout, "  Built:      %s\n", buildTime)
		fmt.Fprintf(stdout, "  Go version: %s\n", goVersion)
		return 0
	}

	if len(opts.files) == 0 {
		fmt.Fprintf(stderr, "httop: at least one source is required (a file, - for stdin, or tcp://HOST:PORT)\n")
		return 1
	}

	cfg, err := loadConfig(opts.configPath, opts.overrides)
	if err != nil {
		fmt.Fprintf(stderr, "httop: %v\n", err)
		return 1
	}
	cfg.Files = opts.files

	cleanupLogger := configureRuntimeLogger(cfg.LogFile)
	defer cleanupLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runMonitor(ctx, cfg, runtimeDeps{
		clock: clock.NewRealClock(),
		out:   os.Stdout,
		size:  render.TerminalSize(os.Stdout),
	})
	if err != nil {
		fmt.Fprintf(stderr, "httop: %v\n", err)
		return 1
	}
	return 0
}

// parseArgs accepts flags before, between and after the file arguments.
func parseArgs(args []string, stderr io.Writer) (cliOptions, error) {
	opts := cliOptions{overrides: make(map[string]any)}

	fs := flag.NewFlagSet("httop", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		delay, entries, window              int
		logFormat, custom, display, apiAddr string
	)
	fs.IntVar(&delay, "delay", 0, "seconds between screen refreshes (default 1)")
	fs.IntVar(&delay, "d", 0, "shorthand for -delay")
	fs.IntVar(&entries, "entries", 0, "number of keys to show (default 10)")
	fs.IntVar(&entries, "n", 0, "shorthand for -entries")
	fs.IntVar(&window, "window", 0, "seconds of history to count (default 60)")
	fs.IntVar(&window, "w", 0, "shorthand for -window")
	fs.StringVar(&logFormat, "log-format", "", "log format: "+strings.Join(ingest.FormatNames(), ", ")+" (default apache)")
	fs.StringVar(&logFormat, "l", "", "shorthand for -log-format")
	fs.StringVar(&custom, "custom-pattern", "", "regular expression whose first group is the key; overrides -log-format")
	fs.StringVar(&custom, "r", "", "shorthand for -custom-pattern")
	fs.StringVar(&display, "display", "", "display mode: plain or dashboard (default plain)")
	fs.StringVar(&apiAddr, "api-addr", "", "serve the top keys as JSON on this address (disabled when empty)")
	fs.StringVar(&opts.configPath, "config", "", "config file (default is $HOME/.config/httop/config.yml)")
	fs.BoolVar(&opts.showVersion, "version", false, "print version information")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: httop [flags] SOURCE [SOURCE...]\n\nA SOURCE is a log file path, - for stdin, or tcp://HOST:PORT to listen for lines.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return opts, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		opts.files = append(opts.files, rest[0])
		rest = rest[1:]
	}

	values := map[string]any{
		"delay":          delay,
		"entries":        entries,
		"window":         window,
		"log-format":     logFormat,
		"custom-pattern": custom,
		"display":        display,
		"api-addr":       apiAddr,
	}
	fs.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			opts.overrides[key] = values[key]
		}
	})
	return opts, nil
}
