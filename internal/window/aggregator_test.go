package window

import (
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tinytelemetry/httop/internal/model"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func at(seconds float64) time.Time {
	return epoch.Add(time.Duration(seconds * float64(time.Second)))
}

func TestAggregator_EvictKeepsOnlyHitsInsideWindow(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 50; iter++ {
		agg := New()
		want := map[string]int{}

		window := time.Duration(1+rng.Intn(10)) * time.Second
		now := at(30)
		ts := 0.0
		for i := 0; i < 200; i++ {
			ts += rng.Float64() * 0.15
			key := fmt.Sprintf("10.0.0.%d", rng.Intn(5))
			stamp := at(ts)
			agg.Record(key, stamp)
			if now.Sub(stamp) <= window {
				want[key]++
			}
		}

		agg.Evict(window, now)

		got := map[string]int{}
		for _, row := range agg.Snapshot(100) {
			got[row.Key] = row.Hits
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("iteration %d: after Evict(%v) got %v, want %v", iter, window, got, want)
		}
	}
}

func TestAggregator_EvictBoundaryIsInclusive(t *testing.T) {
	t.Parallel()

	agg := New()
	agg.Record("a", at(0))
	agg.Record("a", at(1))

	if n := agg.Evict(5*time.Second, at(5)); n != 0 {
		t.Fatalf("Evict at exactly the window edge removed %d hits, want 0", n)
	}
	if n := agg.Evict(5*time.Second, at(5.5)); n != 1 {
		t.Fatalf("Evict removed %d hits, want 1", n)
	}
	if got := agg.Total(); got != 1 {
		t.Fatalf("Total() = %d, want 1", got)
	}
}

func TestAggregator_EvictRemovesEmptyKeys(t *testing.T) {
	t.Parallel()

	agg := New()
	agg.Record("old", at(0))
	agg.Record("old", at(1))
	agg.Record("fresh", at(9))

	agg.Evict(5*time.Second, at(10))

	rows := agg.Snapshot(10)
	want := []model.Row{{Key: "fresh", Hits: 1}}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("Snapshot() = %+v, want %+v", rows, want)
	}
	if got := agg.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	for _, row := range rows {
		if row.Hits == 0 {
			t.Fatalf("snapshot contains zero-count row %+v", row)
		}
	}
}

func TestAggregator_SnapshotTopNDeterministic(t *testing.T) {
	t.Parallel()

	agg := New()
	for key, count := range map[string]int{"A": 5, "B": 5, "C": 3} {
		for i := 0; i < count; i++ {
			agg.Record(key, at(float64(i)))
		}
	}

	for i := 0; i < 20; i++ {
		got := agg.Snapshot(2)
		want := []model.Row{{Key: "A", Hits: 5}, {Key: "B", Hits: 5}}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Snapshot(2) = %+v, want %+v", got, want)
		}
	}
}

func TestAggregator_SnapshotOrdering(t *testing.T) {
	t.Parallel()

	agg := New()
	counts := map[string]int{"d": 1, "c": 7, "b": 7, "a": 2, "e": 9}
	for key, count := range counts {
		for i := 0; i < count; i++ {
			agg.Record(key, at(0))
		}
	}

	tests := []struct {
		name string
		n    int
		want []model.Row
	}{
		{"zero", 0, []model.Row{}},
		{"negative", -3, []model.Row{}},
		{"one", 1, []model.Row{{Key: "e", Hits: 9}}},
		{"three", 3, []model.Row{{Key: "e", Hits: 9}, {Key: "b", Hits: 7}, {Key: "c", Hits: 7}}},
		{"more than keys", 50, []model.Row{{Key: "e", Hits: 9}, {Key: "b", Hits: 7}, {Key: "c", Hits: 7}, {Key: "a", Hits: 2}, {Key: "d", Hits: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := agg.Snapshot(tt.n); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Snapshot(%d) = %+v, want %+v", tt.n, got, tt.want)
			}
		})
	}
}

func TestAggregator_EmptySnapshot(t *testing.T) {
	t.Parallel()

	agg := New()
	rows := agg.Snapshot(10)
	if rows == nil || len(rows) != 0 {
		t.Fatalf("Snapshot() on empty aggregator = %#v, want empty slice", rows)
	}
	if n := agg.Evict(time.Second, at(0)); n != 0 {
		t.Fatalf("Evict() on empty aggregator = %d, want 0", n)
	}
}

func TestAggregator_RecordClampsOutOfOrderTimestamps(t *testing.T) {
	t.Parallel()

	agg := New()
	agg.Record("a", at(10))
	agg.Record("a", at(2))

	// Both hits now carry t=10, so neither is evicted at t=14.
	agg.Evict(5*time.Second, at(14))
	if got := agg.Total(); got != 2 {
		t.Fatalf("Total() = %d, want 2", got)
	}
}

func TestAggregator_ConcurrentRecordEvictSnapshot(t *testing.T) {
	t.Parallel()

	agg := New()
	var wg sync.WaitGroup
	const writers = 4
	const perWriter = 2000

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				agg.Record(fmt.Sprintf("k%d", i%13), at(float64(i)/1000))
			}
		}(w)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			for _, row := range agg.Snapshot(5) {
				if row.Hits <= 0 {
					t.Errorf("snapshot row %+v has no hits", row)
				}
			}
			agg.Evict(time.Hour, at(0))
		}
	}()

	wg.Wait()
	<-done

	if got := agg.Total(); got != writers*perWriter {
		t.Fatalf("Total() = %d, want %d", got, writers*perWriter)
	}
}
