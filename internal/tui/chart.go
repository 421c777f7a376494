package tui

import (
	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
)

// renderHistory draws the in-window hit totals of recent ticks, newest on
// the right. Older ticks scroll off when the chart is too narrow.
func renderHistory(history []int, width, height int, barStyle lipgloss.Style) string {
	if width < 4 || height < 2 || len(history) == 0 {
		return ""
	}

	// Each bar is one cell wide plus a one-cell gap.
	maxBars := width / 2
	start := max(0, len(history)-maxBars)
	padding := maxBars - (len(history) - start)

	bc := barchart.New(width, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)
	for i := 0; i < padding; i++ {
		bc.Push(barchart.BarData{
			Values: []barchart.BarValue{{Name: "hits", Value: 0, Style: barStyle}},
		})
	}
	for _, total := range history[start:] {
		bc.Push(barchart.BarData{
			Values: []barchart.BarValue{{Name: "hits", Value: float64(total), Style: barStyle}},
		})
	}
	bc.Draw()
	return bc.View()
}

func peak(history []int) int {
	p := 0
	for _, v := range history {
		p = max(p, v)
	}
	return p
}
