package window

import (
	"container/heap"
	"sort"

	"github.com/tinytelemetry/httop/internal/model"
)

// ranksBelow reports whether a ranks below b: fewer hits, or equal hits and a
// lexicographically larger key.
func ranksBelow(a, b model.Row) bool {
	if a.Hits != b.Hits {
		return a.Hits < b.Hits
	}
	return a.Key > b.Key
}

// rowHeap is a min-heap by rank; its root is the weakest row kept so far.
type rowHeap []model.Row

func (h rowHeap) Len() int           { return len(h) }
func (h rowHeap) Less(i, j int) bool { return ranksBelow(h[i], h[j]) }
func (h rowHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *rowHeap) Push(x any)        { *h = append(*h, x.(model.Row)) }

func (h *rowHeap) Pop() any {
	old := *h
	n := len(old)
	row := old[n-1]
	*h = old[:n-1]
	return row
}

// topK keeps the n best rows offered to it using a size-n heap.
type topK struct {
	n    int
	rows rowHeap
}

func newTopK(n int) *topK {
	return &topK{n: n, rows: make(rowHeap, 0, n)}
}

func (t *topK) Offer(row model.Row) {
	if t.n <= 0 {
		return
	}
	if len(t.rows) < t.n {
		heap.Push(&t.rows, row)
		return
	}
	if ranksBelow(t.rows[0], row) {
		t.rows[0] = row
		heap.Fix(&t.rows, 0)
	}
}

// Result returns the kept rows, best first.
func (t *topK) Result() []model.Row {
	out := make([]model.Row, len(t.rows))
	copy(out, t.rows)
	sort.Slice(out, func(i, j int) bool { return ranksBelow(out[j], out[i]) })
	return out
}
