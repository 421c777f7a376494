package tui

import (
	"time"

	"github.com/tinytelemetry/httop/internal/model"
)

// Page represents a top-level screen of the dashboard.
type Page interface {
	ID() string
	Title() string
	View(ctx ViewContext) string
}

// Sample is what one tick read from the aggregator, before eviction.
type Sample struct {
	At    time.Time
	Rows  []model.Row
	Keys  int
	Hits  int
	Stats model.IngestStats
}

// ViewContext carries everything a page needs to draw itself.
type ViewContext struct {
	Sample  Sample
	History []int
	Label   string
	Window  time.Duration
	Entries int
	Paused  bool
	Width   int
	Height  int

	styles styles
}
