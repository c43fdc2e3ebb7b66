package interpret

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates the request payload was empty or invalid.
	// No network call is made when a session fails validation.
	ErrValidation = errors.New("validation error")

	// ErrTransport indicates the stream could not be opened or read: a
	// network failure, a non-2xx response, or a missing response body.
	ErrTransport = errors.New("transport error")

	// ErrServer indicates the server reported a failure with an error event.
	ErrServer = errors.New("server error")

	// ErrCanceled is the cancellation cause attached to a run stopped by
	// Cancel or Close. It is never surfaced as an Error status.
	ErrCanceled = errors.New("interpretation canceled")

	// ErrDisabled indicates interpretation is switched off for this
	// session. The capability flag is injected with WithEnabled.
	ErrDisabled = errors.New("interpretation disabled")
)

// User-facing messages for the Error status.
const (
	MessageNoContent      = "No content to interpret."
	MessageInvalidRequest = "The interpretation request is invalid."
	MessageTransport      = "Failed to get interpretation. Please try again later."
	MessageServerError    = "The interpretation service reported an error."
)
