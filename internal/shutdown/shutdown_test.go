package shutdown

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCoordinator_TriggerIsIdempotentAndFirstCauseWins(t *testing.T) {
	t.Parallel()

	c := New(context.Background())
	if c.Fired() {
		t.Fatal("Fired() = true before Trigger")
	}

	first := errors.New("logs/a.log vanished")
	var wg sync.WaitGroup
	c.Trigger(first)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Trigger(errors.New("later"))
			c.Trigger(nil)
		}()
	}
	wg.Wait()

	if !c.Fired() {
		t.Fatal("Fired() = false after Trigger")
	}
	if got := c.Cause(); !errors.Is(got, first) {
		t.Fatalf("Cause() = %v, want %v", got, first)
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("Done() not closed after Trigger")
	}
}

func TestCoordinator_NormalShutdownHasNoCause(t *testing.T) {
	t.Parallel()

	c := New(context.Background())
	c.Trigger(nil)
	c.Trigger(errors.New("too late"))

	if got := c.Cause(); got != nil {
		t.Fatalf("Cause() = %v, want nil", got)
	}
	if c.Context().Err() == nil {
		t.Fatal("Context() not cancelled after Trigger")
	}
}

func TestCoordinator_ParentCancellationIsNormal(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	c := New(parent)
	cancel()

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("coordinator did not observe parent cancellation")
	}
	if got := c.Cause(); got != nil {
		t.Fatalf("Cause() = %v, want nil", got)
	}
}

func TestCoordinator_CauseBeforeFireIsNil(t *testing.T) {
	t.Parallel()

	c := New(context.Background())
	if got := c.Cause(); got != nil {
		t.Fatalf("Cause() = %v, want nil", got)
	}
}
