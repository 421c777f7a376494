package main

import (
	"context"
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/httop/internal/clock"
	"github.com/tinytelemetry/httop/internal/httpserver"
	"github.com/tinytelemetry/httop/internal/ingest"
	"github.com/tinytelemetry/httop/internal/model"
	"github.com/tinytelemetry/httop/internal/render"
	"github.com/tinytelemetry/httop/internal/shutdown"
	"github.com/tinytelemetry/httop/internal/tui"
	"github.com/tinytelemetry/httop/internal/window"
)

// runtimeDeps holds what runMonitor reads from its environment.
type runtimeDeps struct {
	clock clock.Clock
	out   io.Writer
	size  render.SizeFunc
	// afterProcess, when set, observes every ingested line.
	afterProcess func(ingest.ProcessResult)
}

// runMonitor tails the configured sources and renders the top keys until ctx
// is done, the operator quits, or a source fails. It returns nil on a normal
// shutdown and the first fatal error otherwise.
func runMonitor(ctx context.Context, cfg appConfig, deps runtimeDeps) error {
	pattern, err := ingest.Resolve(cfg.LogFormat, cfg.CustomPattern)
	if err != nil {
		return err
	}
	extractor, err := ingest.NewExtractor(pattern)
	if err != nil {
		return err
	}
	if deps.clock == nil {
		deps.clock = clock.NewRealClock()
	}

	coord := shutdown.New(ctx)
	agg := window.New()
	processor := ingest.NewProcessor(extractor, agg, deps.clock)

	if cfg.APIAddr != "" {
		api := httpserver.NewServer(cfg.APIAddr, agg, httpserver.Config{
			Window:   cfg.window(),
			Label:    pattern.Label,
			DefaultN: cfg.Entries,
			Clock:    deps.clock,
			Stats:    processor.Stats,
		})
		if err := api.Start(); err != nil {
			return fmt.Errorf("starting HTTP API on %s: %w", cfg.APIAddr, err)
		}
		defer func() {
			if err := api.Stop(); err != nil {
				log.Printf("httop: stopping HTTP API: %v", err)
			}
		}()
		log.Printf("httop: HTTP API listening on %s", api.Addr())
	}

	plugins := buildInputPlugins(InputPluginConfig{
		Paths:        cfg.Files,
		PollInterval: model.DefaultPollInterval,
		OnError:      coord.Trigger,
	})

	sources := make([]NamedLogSource, 0, len(plugins))
	usesStdin := false
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			log.Printf("httop: skipping input %q: not readable", plugin.Name())
			continue
		}
		src, err := plugin.Build(coord.Context())
		if err != nil {
			coord.Trigger(err)
			for _, built := range sources {
				built.Stop()
			}
			return coord.Cause()
		}
		if _, ok := plugin.(stdinInputPlugin); ok {
			usesStdin = true
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no readable log sources")
	}

	mux := NewSourceMultiplexer(coord.Context(), sources, cfg.MuxBufferSize)
	mux.Start()
	log.Printf("httop: following %d source(s) with %s (processor %s)", len(sources), pattern.Name, processor.Name())

	g, gctx := errgroup.WithContext(coord.Context())
	g.Go(func() error {
		var err error
		switch cfg.Display {
		case displayDashboard:
			err = runDashboard(gctx, cfg, deps, agg, processor, coord, pattern.Label, usesStdin)
		default:
			err = render.New(agg, deps.clock, deps.out, deps.size, render.Config{
				Delay:   cfg.delay(),
				Entries: cfg.Entries,
				Window:  cfg.window(),
				Label:   pattern.Label,
			}).Run(gctx)
		}
		coord.Trigger(err)
		return err
	})

	lines := mux.Lines()
ingestLoop:
	for {
		select {
		case <-coord.Done():
			break ingestLoop
		case env, ok := <-lines:
			if !ok {
				// Every source ended (stdin EOF); keep showing the window.
				lines = nil
				continue
			}
			if coord.Fired() {
				// select picks randomly when both cases are ready.
				break ingestLoop
			}
			res := processor.ProcessEnvelope(env)
			if deps.afterProcess != nil {
				deps.afterProcess(res)
			}
		}
	}

	coord.Trigger(nil)
	mux.Stop()
	if err := g.Wait(); err != nil {
		log.Printf("httop: renderer exited with error: %v", err)
	}

	stats := processor.Stats()
	log.Printf("httop: shutting down after %d lines (%d parse misses)", stats.Lines, stats.ParseMisses)
	return coord.Cause()
}

func runDashboard(
	ctx context.Context,
	cfg appConfig,
	deps runtimeDeps,
	agg *window.Aggregator,
	processor *ingest.Processor,
	coord *shutdown.Coordinator,
	label string,
	usesStdin bool,
) error {
	skin, err := tui.LoadSkin(cfg.Skin, cfg.ConfigDir)
	if err != nil {
		log.Printf("httop: failed to load skin %q: %v (using default)", cfg.Skin, err)
	}

	app := tui.NewApp(agg, tui.Config{
		Delay:   cfg.delay(),
		Window:  cfg.window(),
		Entries: cfg.Entries,
		Label:   label,
		Skin:    skin,
		Clock:   deps.clock,
		Stats:   processor.Stats,
		OnQuit:  func() { coord.Trigger(nil) },
	})

	opts := []tea.ProgramOption{tea.WithOutput(deps.out)}
	if usesStdin {
		// Keys come from the terminal while log lines arrive on stdin.
		opts = append(opts, tea.WithInputTTY())
	}
	return tui.Run(ctx, app, opts...)
}
