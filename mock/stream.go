package mock

import "github.com/fwojciec/interpret"

// Interface compliance check.
var _ interpret.Stream = (*Stream)(nil)

// Stream is a test double for interpret.Stream.
// NextFn panics when nil to catch missing setup. CloseFn is nil-safe (no-op)
// because the session always closes the stream it opened.
type Stream struct {
	NextFn  func() (interpret.Event, error)
	CloseFn func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (interpret.Event, error) {
	return s.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
