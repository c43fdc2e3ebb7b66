package interpret

// Status is the lifecycle state of a Session.
//
// Transitions: Idle → Loading → Streaming → Complete | Error. Close returns
// a session to Idle from any state.
type Status int

const (
	StatusIdle      Status = iota // No session, or the panel was closed.
	StatusLoading                 // Request issued, nothing received yet.
	StatusStreaming               // At least one start or chunk event applied.
	StatusComplete                // Finished normally, or stopped by the user.
	StatusError                   // Validation, transport, or server failure.
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusStreaming:
		return "streaming"
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Active reports whether a stream is in flight.
func (s Status) Active() bool {
	return s == StatusLoading || s == StatusStreaming
}

// Terminal reports whether the status is Complete or Error.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}
