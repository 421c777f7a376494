package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tinytelemetry/httop/internal/logsource"
	"github.com/tinytelemetry/httop/internal/tcpserver"
)

const (
	// stdinPath selects standard input instead of a file.
	stdinPath = "-"
	// tcpScheme prefixes a listen address for lines shipped over TCP.
	tcpScheme = "tcp://"
)

// NamedLogSource aliases the shared source abstraction to keep app-layer APIs explicit.
type NamedLogSource = logsource.LogSource

// InputSourcePlugin is a small plugin primitive for wiring log inputs.
type InputSourcePlugin interface {
	Name() string
	Enabled() bool
	Build(ctx context.Context) (NamedLogSource, error)
}

// InputPluginConfig defines runtime input selection.
type InputPluginConfig struct {
	Paths        []string
	PollInterval time.Duration
	// OnError receives unrecoverable errors from running sources.
	OnError func(error)
}

// buildInputPlugins returns one plugin per path, in argument order.
func buildInputPlugins(cfg InputPluginConfig) []InputSourcePlugin {
	plugins := make([]InputSourcePlugin, 0, len(cfg.Paths))
	for _, path := range cfg.Paths {
		if path == stdinPath {
			plugins = append(plugins, stdinInputPlugin{})
			continue
		}
		if addr, ok := strings.CutPrefix(path, tcpScheme); ok {
			plugins = append(plugins, tcpInputPlugin{addr: addr})
			continue
		}
		plugins = append(plugins, fileInputPlugin{
			path:         path,
			pollInterval: cfg.PollInterval,
			onError:      cfg.OnError,
		})
	}
	return plugins
}

type fileInputPlugin struct {
	path         string
	pollInterval time.Duration
	onError      func(error)
}

func (p fileInputPlugin) Name() string { return "file:" + p.path }

func (p fileInputPlugin) Enabled() bool { return true }

func (p fileInputPlugin) Build(ctx context.Context) (NamedLogSource, error) {
	return logsource.NewFileSource(ctx, p.path, logsource.FileConfig{
		PollInterval: p.pollInterval,
		OnError:      p.onError,
	})
}

type stdinInputPlugin struct{}

func (p stdinInputPlugin) Name() string { return "stdin" }

func (p stdinInputPlugin) Enabled() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func (p stdinInputPlugin) Build(ctx context.Context) (NamedLogSource, error) {
	return logsource.NewStdinSource(ctx), nil
}

type tcpInputPlugin struct {
	addr string
}

func (p tcpInputPlugin) Name() string { return tcpScheme + p.addr }

func (p tcpInputPlugin) Enabled() bool { return true }

func (p tcpInputPlugin) Build(_ context.Context) (NamedLogSource, error) {
	server := tcpserver.NewServer(p.addr)
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("%w: start tcp server: %w", logsource.ErrSourceUnavailable, err)
	}
	return logsource.NewTCPSource(server), nil
}
