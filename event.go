package interpret

// Event is a sealed interface representing one parsed stream event.
// Transport errors come from Stream.Next's error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventStart signals the server has begun producing output.
type EventStart struct{}

func (EventStart) event() {}

// EventChunk carries one fragment of output text to append.
type EventChunk struct {
	Content string
}

func (EventChunk) event() {}

// EventError is a terminal failure reported by the server. Message is
// human-readable and shown to the user verbatim.
type EventError struct {
	Message string
}

func (EventError) event() {}

// EventComplete signals the server finished normally.
type EventComplete struct{}

func (EventComplete) event() {}

// Interface compliance checks.
var (
	_ Event = EventStart{}
	_ Event = EventChunk{}
	_ Event = EventError{}
	_ Event = EventComplete{}
)
