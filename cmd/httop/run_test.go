package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tinytelemetry/httop/internal/clock"
	"github.com/tinytelemetry/httop/internal/ingest"
	"github.com/tinytelemetry/httop/internal/logsource"
	"github.com/tinytelemetry/httop/internal/render"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// frameBuffer collects renderer output while runMonitor is writing it.
type frameBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *frameBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *frameBuffer) frames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	parts := strings.Split(b.buf.String(), "\033c")
	return parts[1:]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(time.Millisecond):
		}
	}
}

func emptyLog(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			t.Fatalf("append log: %v", err)
		}
	}
}

func testConfig(files ...string) appConfig {
	return appConfig{
		Delay:     1,
		Entries:   2,
		Window:    5,
		LogFormat: "apache",
		Display:   displayPlain,
		Files:     files,
	}
}

type monitorHarness struct {
	vc        *clock.VirtualClock
	out       *frameBuffer
	processed atomic.Int64
	cancel    context.CancelFunc
	done      chan error
}

func startMonitor(t *testing.T, cfg appConfig) *monitorHarness {
	t.Helper()

	h := &monitorHarness{
		vc:   clock.NewVirtualClock(epoch),
		out:  &frameBuffer{},
		done: make(chan error, 1),
	}
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	t.Cleanup(cancel)

	go func() {
		h.done <- runMonitor(ctx, cfg, runtimeDeps{
			clock:        h.vc,
			out:          h.out,
			size:         render.FixedSize(render.Size{Width: 80, Height: 25}),
			afterProcess: func(ingest.ProcessResult) { h.processed.Add(1) },
		})
	}()
	return h
}

// tick advances one second once the renderer is asleep and waits for the
// frame it produces.
func (h *monitorHarness) tick(t *testing.T) string {
	t.Helper()
	before := len(h.out.frames())
	waitFor(t, "renderer to sleep", func() bool { return h.vc.Waiters() == 1 })
	h.vc.Advance(time.Second)
	waitFor(t, "next frame", func() bool { return len(h.out.frames()) > before })
	frames := h.out.frames()
	return frames[len(frames)-1]
}

func (h *monitorHarness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("runMonitor did not return")
	}
	return nil
}

func TestRunMonitor_TopKeysAcrossFilesThenExpiry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := emptyLog(t, dir, "a.log")
	b := emptyLog(t, dir, "b.log")
	h := startMonitor(t, testConfig(a, b))

	waitFor(t, "first frame", func() bool { return len(h.out.frames()) == 1 })

	appendLines(t, a,
		`1.1.1.1 - - [01/Jan/2024:00:00:00 +0000] "GET / HTTP/1.1" 200 12`,
		`1.1.1.1 - - [01/Jan/2024:00:00:00 +0000] "GET /a HTTP/1.1" 200 12`,
		`1.1.1.1 - - [01/Jan/2024:00:00:00 +0000] "GET /b HTTP/1.1" 404 0`,
	)
	appendLines(t, b, `2.2.2.2 - - [01/Jan/2024:00:00:00 +0000] "GET / HTTP/1.1" 200 12`)
	waitFor(t, "lines to be ingested", func() bool { return h.processed.Load() == 4 })

	frame := h.tick(t)
	for _, want := range []string{
		"delay: 1s  entries: 2  collect window: 5s",
		"             IP    Hits",
		"        1.1.1.1:      3 ###",
		"        2.2.2.2:      1 #",
	} {
		if !strings.Contains(frame, want) {
			t.Fatalf("frame missing %q:\n%s", want, frame)
		}
	}
	if strings.Index(frame, "1.1.1.1") > strings.Index(frame, "2.2.2.2") {
		t.Fatalf("rows out of order:\n%s", frame)
	}

	for i := 0; i < 6; i++ {
		frame = h.tick(t)
	}
	if strings.Contains(frame, "1.1.1.1") || strings.Contains(frame, "2.2.2.2") {
		t.Fatalf("expired keys still shown after 7s:\n%s", frame)
	}

	h.cancel()
	if err := h.wait(t); err != nil {
		t.Fatalf("runMonitor() = %v, want nil on interrupt", err)
	}
}

func TestRunMonitor_CountsParseErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := emptyLog(t, dir, "a.log")
	cfg := testConfig(path)
	cfg.CustomPattern = `^client=(\d+\.\d+\.\d+\.\d+) `
	h := startMonitor(t, cfg)

	waitFor(t, "first frame", func() bool { return len(h.out.frames()) == 1 })
	appendLines(t, path, "client=10.0.0.1 GET /", "garbage", "")
	waitFor(t, "lines to be ingested", func() bool { return h.processed.Load() == 3 })

	frame := h.tick(t)
	if !strings.Contains(frame, "    PARSE ERROR:      2 ##") {
		t.Fatalf("frame missing parse errors:\n%s", frame)
	}
	if !strings.Contains(frame, "            Key    Hits") {
		t.Fatalf("custom pattern should use the generic label:\n%s", frame)
	}
	h.cancel()
	h.wait(t)
}

func TestRunMonitor_StopsPromptly(t *testing.T) {
	t.Parallel()

	path := emptyLog(t, t.TempDir(), "a.log")
	h := startMonitor(t, testConfig(path))
	waitFor(t, "renderer to sleep", func() bool { return h.vc.Waiters() == 1 })

	start := time.Now()
	h.cancel()
	if err := h.wait(t); err != nil {
		t.Fatalf("runMonitor() = %v, want nil", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("shutdown took %v, want < 200ms", elapsed)
	}
}

func TestRunMonitor_MissingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := emptyLog(t, dir, "a.log")
	h := startMonitor(t, testConfig(good, filepath.Join(dir, "missing.log")))

	err := h.wait(t)
	if !errors.Is(err, logsource.ErrSourceUnavailable) {
		t.Fatalf("runMonitor() = %v, want ErrSourceUnavailable", err)
	}
	if n := len(h.out.frames()); n != 0 {
		t.Fatalf("painted %d frames before failing, want 0", n)
	}
}

func TestRunMonitor_FileRemovedMidRun(t *testing.T) {
	t.Parallel()

	path := emptyLog(t, t.TempDir(), "a.log")
	h := startMonitor(t, testConfig(path))
	waitFor(t, "first frame", func() bool { return len(h.out.frames()) == 1 })

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove log: %v", err)
	}
	if err := h.wait(t); !errors.Is(err, logsource.ErrSourceUnavailable) {
		t.Fatalf("runMonitor() = %v, want ErrSourceUnavailable", err)
	}
}

func TestRunMonitor_BadPattern(t *testing.T) {
	t.Parallel()

	cfg := testConfig("unused.log")
	cfg.CustomPattern = `no groups here`
	h := startMonitor(t, cfg)
	if err := h.wait(t); !errors.Is(err, ingest.ErrInvalidPattern) {
		t.Fatalf("runMonitor() = %v, want ErrInvalidPattern", err)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func TestRunMonitor_ServesTopOverHTTP(t *testing.T) {
	t.Parallel()

	path := emptyLog(t, t.TempDir(), "a.log")
	cfg := testConfig(path)
	cfg.APIAddr = freeAddr(t)
	h := startMonitor(t, cfg)

	waitFor(t, "first frame", func() bool { return len(h.out.frames()) == 1 })
	appendLines(t, path, "9.9.9.9 - - x", "9.9.9.9 - - y", "8.8.8.8 - - z")
	waitFor(t, "lines to be ingested", func() bool { return h.processed.Load() == 3 })

	resp, err := http.Get("http://" + cfg.APIAddr + "/api/top?n=1")
	if err != nil {
		t.Fatalf("GET /api/top: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Label string `json:"label"`
		Rows  []struct {
			Key  string `json:"key"`
			Hits int    `json:"hits"`
		} `json:"rows"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Label != "IP" || len(body.Rows) != 1 || body.Rows[0].Key != "9.9.9.9" || body.Rows[0].Hits != 2 {
		t.Fatalf("body = %+v, want IP label and 9.9.9.9 with 2 hits", body)
	}

	h.cancel()
	if err := h.wait(t); err != nil {
		t.Fatalf("runMonitor() = %v, want nil", err)
	}
}

func TestRunMonitor_APIAddrInUse(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()

	cfg := testConfig(emptyLog(t, t.TempDir(), "a.log"))
	cfg.APIAddr = l.Addr().String()
	h := startMonitor(t, cfg)
	if err := h.wait(t); err == nil || !strings.Contains(err.Error(), "starting HTTP API") {
		t.Fatalf("runMonitor() = %v, want HTTP API start error", err)
	}
}

func TestRunMonitor_NoIngestAfterShutdown(t *testing.T) {
	t.Parallel()

	const (
		trials   = 10
		stopAt   = 10
		buffered = 200
	)
	lines := make([]string, buffered)
	for i := range lines {
		lines[i] = "10.0.0.1 - - x"
	}

	for trial := 0; trial < trials; trial++ {
		path := emptyLog(t, t.TempDir(), "a.log")
		ctx, cancel := context.WithCancel(context.Background())

		var processed, late atomic.Int64
		out := &frameBuffer{}
		done := make(chan error, 1)
		go func() {
			done <- runMonitor(ctx, testConfig(path), runtimeDeps{
				clock: clock.NewVirtualClock(epoch),
				out:   out,
				size:  render.FixedSize(render.Size{Width: 80, Height: 25}),
				afterProcess: func(ingest.ProcessResult) {
					if ctx.Err() != nil {
						late.Add(1)
					}
					if processed.Add(1) == stopAt {
						cancel()
					}
				},
			})
		}()

		waitFor(t, "first frame", func() bool { return len(out.frames()) == 1 })
		appendLines(t, path, lines...)

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("trial %d: runMonitor() = %v, want nil", trial, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("trial %d: runMonitor did not return", trial)
		}
		cancel()

		if n := late.Load(); n != 0 {
			t.Fatalf("trial %d: %d lines processed after shutdown, want 0", trial, n)
		}
		if n := processed.Load(); n != stopAt {
			t.Fatalf("trial %d: processed %d lines, want %d", trial, n, stopAt)
		}
	}
}
