package interpret

import (
	"context"
	"errors"
	"io"
	"sync"
)

// errReleased is the context cause after a run ends on its own. It is
// distinct from ErrCanceled so a released handle never looks user-cancelled.
var errReleased = errors.New("interpretation run released")

// Canceler binds a single stop signal to a single in-flight request. Each
// run gets a fresh Canceler; handles are never shared or reused.
//
// Cancel may be called from any goroutine, any number of times. The read
// loop asks Owns whether an error it received is the result of that signal.
type Canceler struct {
	ctx    context.Context
	cancel context.CancelCauseFunc

	mu       sync.Mutex
	canceled bool
	released bool
	stops    []func() bool
}

// NewCanceler derives a cancellable context from parent.
func NewCanceler(parent context.Context) *Canceler {
	ctx, cancel := context.WithCancelCause(parent)
	return &Canceler{ctx: ctx, cancel: cancel}
}

// Context returns the context the request must be issued with.
func (c *Canceler) Context() context.Context {
	return c.ctx
}

// Bind closes closer as soon as the context is done, so a read blocked on
// the transport returns and the connection is released. Binding after the
// context is done closes closer immediately.
func (c *Canceler) Bind(closer io.Closer) {
	stop := context.AfterFunc(c.ctx, func() { _ = closer.Close() })
	c.mu.Lock()
	c.stops = append(c.stops, stop)
	c.mu.Unlock()
}

// Cancel fires the stop signal. It reports whether this call fired it;
// cancelling an already cancelled or released handle is a no-op.
func (c *Canceler) Cancel() bool {
	c.mu.Lock()
	if c.canceled || c.released {
		c.mu.Unlock()
		return false
	}
	c.canceled = true
	c.mu.Unlock()
	c.cancel(ErrCanceled)
	return true
}

// Canceled reports whether Cancel fired.
func (c *Canceler) Canceled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canceled
}

// Owns reports whether err is the result of this handle's own Cancel. The
// check is by identity of the context cause, never by error text.
func (c *Canceler) Owns(err error) bool {
	if errors.Is(err, ErrCanceled) {
		return true
	}
	return c.Canceled() && errors.Is(context.Cause(c.ctx), ErrCanceled)
}

// Interrupted reports whether the parent context ended the run before it
// was released, for example on process shutdown.
func (c *Canceler) Interrupted() bool {
	c.mu.Lock()
	released := c.released
	c.mu.Unlock()
	return !released && c.ctx.Err() != nil && !errors.Is(context.Cause(c.ctx), ErrCanceled)
}

// Release frees the context once the run has ended on its own. Bound
// closers are detached first so they do not fire. Release after Cancel is a
// no-op.
func (c *Canceler) Release() {
	c.mu.Lock()
	if c.canceled || c.released {
		c.mu.Unlock()
		return
	}
	c.released = true
	stops := c.stops
	c.stops = nil
	c.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	c.cancel(errReleased)
}
