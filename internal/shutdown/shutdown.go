// Package shutdown provides the process-wide cooperative cancellation signal.
//
// A Coordinator is set at most once. The first call to Trigger wins and
// records why the process is stopping: nil for an operator interrupt or a
// normal quit, an error for a fatal condition such as a vanished log file.
// Every later call is a no-op. Workers observe the signal through Done or
// Context and are expected to poll it at bounded intervals.
package shutdown

import (
	"context"
	"errors"
	"sync"
)

// errNormal marks a shutdown that was requested rather than caused by a failure.
var errNormal = errors.New("shutdown requested")

// Coordinator is a settable-once cancellation signal with a recorded cause.
type Coordinator struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	once   sync.Once
}

// New returns a Coordinator derived from parent. Cancelling parent (for
// example on SIGINT) fires the coordinator as a normal shutdown.
func New(parent context.Context) *Coordinator {
	ctx, cancel := context.WithCancelCause(parent)
	return &Coordinator{ctx: ctx, cancel: cancel}
}

// Trigger fires the signal. Only the first call records its cause.
func (c *Coordinator) Trigger(err error) {
	c.once.Do(func() {
		if err == nil {
			err = errNormal
		}
		c.cancel(err)
	})
}

// Done is closed once the signal has fired.
func (c *Coordinator) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Fired reports whether the signal has fired.
func (c *Coordinator) Fired() bool {
	return c.ctx.Err() != nil
}

// Context returns a context cancelled when the signal fires.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// Cause returns the fatal error that fired the signal, or nil when the
// signal has not fired or fired for a normal reason.
func (c *Coordinator) Cause() error {
	cause := context.Cause(c.ctx)
	if cause == nil || errors.Is(cause, errNormal) || errors.Is(cause, context.Canceled) {
		return nil
	}
	return cause
}
