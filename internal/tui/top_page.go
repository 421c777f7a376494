package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/httop/internal/render"
)

const (
	chartHeight    = 6
	minChartHeight = 16
)

// TopPage shows the hit history chart and the top keys table.
type TopPage struct{}

// NewTopPage creates the top keys page.
func NewTopPage() *TopPage { return &TopPage{} }

func (p *TopPage) ID() string    { return "top" }
func (p *TopPage) Title() string { return "Top" }

func (p *TopPage) View(ctx ViewContext) string {
	st := ctx.styles
	tableHeight := ctx.Height

	var parts []string
	if ctx.Height >= minChartHeight {
		// section border and padding take 4 columns and 2 rows
		innerWidth := ctx.Width - 4
		title := fmt.Sprintf("hits in window  now: %d  peak: %d", ctx.Sample.Hits, peak(ctx.History))
		chart := renderHistory(ctx.History, innerWidth, chartHeight, st.chartBar)
		box := st.section.Width(ctx.Width - 2).Render(
			lipgloss.JoinVertical(lipgloss.Left, st.muted.Render(title), chart),
		)
		parts = append(parts, box)
		tableHeight -= lipgloss.Height(box)
	}

	parts = append(parts, renderTable(ctx, tableHeight))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderTable lays out rows like the plain renderer, styled, and cut to
// the rows that fit in height.
func renderTable(ctx ViewContext, height int) string {
	st := ctx.styles
	var b strings.Builder
	b.WriteString(st.header.Render(fmt.Sprintf("%15s  %6s", ctx.Label, "Hits")))

	rows := ctx.Sample.Rows
	if fit := height - 1; fit < len(rows) {
		rows = rows[:max(0, fit)]
	}
	if len(rows) == 0 {
		b.WriteString("\n")
		b.WriteString(st.muted.Render("no hits in window"))
		return b.String()
	}

	budget := render.BarBudget(ctx.Width)
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(st.key.Render(fmt.Sprintf("%15s", row.Key)))
		b.WriteString(": ")
		b.WriteString(st.hits.Render(fmt.Sprintf("%6d", row.Hits)))
		b.WriteString(" ")
		b.WriteString(st.bar.Render(render.Bar(row.Hits, budget)))
	}
	return b.String()
}
