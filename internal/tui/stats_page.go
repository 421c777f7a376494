package tui

import (
	"fmt"
	"strings"

	"github.com/tinytelemetry/httop/internal/render"
)

// StatsPage shows ingestion counters and window occupancy.
type StatsPage struct{}

// NewStatsPage creates the stats page.
func NewStatsPage() *StatsPage { return &StatsPage{} }

func (p *StatsPage) ID() string    { return "stats" }
func (p *StatsPage) Title() string { return "Stats" }

func (p *StatsPage) View(ctx ViewContext) string {
	st := ctx.styles
	s := ctx.Sample

	missRate := 0.0
	if s.Stats.Lines > 0 {
		missRate = float64(s.Stats.ParseMisses) / float64(s.Stats.Lines) * 100
	}

	lines := []struct {
		label string
		value string
	}{
		{"lines read", fmt.Sprintf("%d", s.Stats.Lines)},
		{"parse misses", fmt.Sprintf("%d (%.1f%%)", s.Stats.ParseMisses, missRate)},
		{"distinct keys", fmt.Sprintf("%d", s.Keys)},
		{"hits in window", fmt.Sprintf("%d", s.Hits)},
		{"peak hits", fmt.Sprintf("%d", peak(ctx.History))},
		{"collect window", render.Seconds(ctx.Window) + "s"},
	}

	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(st.muted.Render(fmt.Sprintf("%-16s", l.label)))
		b.WriteString(st.hits.Render(l.value))
	}
	return b.String()
}
