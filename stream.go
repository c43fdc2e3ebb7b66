package interpret

import "context"

// Stream uses a pull-based iterator pattern. Cancellation flows through the
// context passed to Client.Stream and through Close.
//
// Next returns events in arrival order and io.EOF when the server closes
// the body. Malformed frames are dropped by the implementation and never
// reach the caller. Close may be called concurrently with a blocked Next to
// unblock it, and more than once.
type Stream interface {
	Next() (Event, error)
	Close() error
}

// Client opens interpretation streams. A non-2xx response or a missing body
// is reported by Stream as an error wrapping ErrTransport before any event
// is produced.
type Client interface {
	Stream(ctx context.Context, req Request) (Stream, error)
}
