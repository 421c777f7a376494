package window

import (
	"sync"
	"time"

	"github.com/tinytelemetry/httop/internal/model"
)

// Aggregator counts hits per key inside a trailing time window.
//
// Record, Evict and Snapshot share one mutex guarding the whole map, so a
// snapshot never observes a half-applied append or eviction.
type Aggregator struct {
	mu   sync.Mutex
	hits map[string]*deque
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{hits: make(map[string]*deque)}
}

// Record appends ts to key's hit sequence, creating it when absent.
//
// Timestamps are expected in arrival order. A timestamp older than the newest
// one already recorded for key is clamped to it so each sequence stays
// non-decreasing and eviction can trim from the head.
func (a *Aggregator) Record(key string, ts time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	seq, ok := a.hits[key]
	if !ok {
		seq = &deque{}
		a.hits[key] = seq
	} else if back := seq.Back(); ts.Before(back) {
		ts = back
	}
	seq.Push(ts)
}

// Evict drops every hit older than window relative to now and removes keys
// left without hits. It returns the number of hits dropped.
func (a *Aggregator) Evict(window time.Duration, now time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	evicted := 0
	for key, seq := range a.hits {
		for seq.Len() > 0 && now.Sub(seq.Front()) > window {
			seq.Pop()
			evicted++
		}
		if seq.Len() == 0 {
			delete(a.hits, key)
		}
	}
	return evicted
}

// Snapshot returns up to n keys with the most hits, ordered by hits
// descending and then by key ascending.
func (a *Aggregator) Snapshot(n int) []model.Row {
	if n <= 0 {
		return []model.Row{}
	}

	a.mu.Lock()
	top := newTopK(n)
	for key, seq := range a.hits {
		top.Offer(model.Row{Key: key, Hits: seq.Len()})
	}
	a.mu.Unlock()

	return top.Result()
}

// Len returns the number of distinct keys currently held.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.hits)
}

// Total returns the number of hits currently held across all keys.
func (a *Aggregator) Total() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := 0
	for _, seq := range a.hits {
		total += seq.Len()
	}
	return total
}
