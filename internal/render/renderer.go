package render

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tinytelemetry/httop/internal/clock"
	"github.com/tinytelemetry/httop/internal/model"
)

// maxSleepSlice bounds how long the renderer sleeps before rechecking
// for shutdown.
const maxSleepSlice = time.Second

// Window is the part of the aggregator the renderer drives.
type Window interface {
	Snapshot(n int) []model.Row
	Evict(window time.Duration, now time.Time) int
}

// Config controls what a renderer paints and how often.
type Config struct {
	Delay   time.Duration
	Entries int
	Window  time.Duration
	Label   string
}

// Renderer periodically paints the top keys and evicts stale hits.
type Renderer struct {
	win   Window
	clock clock.Clock
	out   io.Writer
	size  SizeFunc
	conf  Config
}

// New creates a plain-text Renderer writing frames to out.
func New(win Window, c clock.Clock, out io.Writer, size SizeFunc, conf Config) *Renderer {
	if c == nil {
		c = clock.NewRealClock()
	}
	if size == nil {
		size = FixedSize(FallbackSize)
	}
	if conf.Label == "" {
		conf.Label = "Key"
	}
	return &Renderer{win: win, clock: c, out: out, size: size, conf: conf}
}

// Cycle paints one frame then evicts hits that fell out of the window.
// Eviction runs even when painting fails.
func (r *Renderer) Cycle() error {
	frame := Frame{
		Now:     r.clock.Now(),
		Width:   r.size().Width,
		Delay:   r.conf.Delay,
		Entries: r.conf.Entries,
		Window:  r.conf.Window,
		Label:   r.conf.Label,
		Rows:    r.win.Snapshot(r.conf.Entries),
	}
	_, err := frame.WriteTo(r.out)
	r.win.Evict(r.conf.Window, r.clock.Now())
	if err != nil {
		return fmt.Errorf("paint frame: %w", err)
	}
	return nil
}

// Run repeats Cycle every Delay until ctx is done.
func (r *Renderer) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		if err := r.Cycle(); err != nil {
			return err
		}
		if !r.sleep(ctx) {
			break
		}
	}
	return nil
}

// sleep waits out the delay in bounded slices. It returns false when ctx
// finished first.
func (r *Renderer) sleep(ctx context.Context) bool {
	for remaining := r.conf.Delay; remaining > 0; {
		slice := min(remaining, maxSleepSlice)
		select {
		case <-ctx.Done():
			return false
		case <-r.clock.After(slice):
		}
		remaining -= slice
	}
	return ctx.Err() == nil
}
