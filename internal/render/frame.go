package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/httop/internal/model"
)

const (
	clearScreen     = "\033c"
	timestampLayout = "2006-01-02 15:04:05"

	// rowOverhead is the width taken by "%15s: %6d " in front of a bar.
	rowOverhead = 24
)

// BarBudget is the number of cells left for bars on a terminal width wide.
func BarBudget(width int) int {
	return max(0, width-rowOverhead)
}

// Bar draws hits as '#' characters, capped at budget.
func Bar(hits, budget int) string {
	n := min(budget, hits)
	if n <= 0 {
		return ""
	}
	return strings.Repeat("#", n)
}

// Frame is one full-screen paint of the top-N table.
type Frame struct {
	Now     time.Time
	Width   int
	Delay   time.Duration
	Entries int
	Window  time.Duration
	Label   string
	Rows    []model.Row
}

// WriteTo paints the frame to w in a single write.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	b.WriteString(clearScreen)
	b.WriteString(lipgloss.PlaceHorizontal(f.Width, lipgloss.Right, f.Now.Format(timestampLayout)))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "delay: %ss  entries: %d  collect window: %ss\n\n",
		Seconds(f.Delay), f.Entries, Seconds(f.Window))
	fmt.Fprintf(&b, "%15s  %6s\n", f.Label, "Hits")

	budget := BarBudget(f.Width)
	for _, row := range f.Rows {
		fmt.Fprintf(&b, "%15s: %6d %s\n", row.Key, row.Hits, Bar(row.Hits, budget))
	}
	return b.WriteTo(w)
}

// Seconds formats d as a plain number of seconds ("1", "0.5").
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
