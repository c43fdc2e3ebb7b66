package frame

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/interpret"
	"github.com/tidwall/gjson"
)

// Prefix is stripped from the start of a frame when present.
const Prefix = "data: "

// ErrMalformed is returned for a frame whose payload is not valid JSON. It
// is recoverable: callers log it and keep reading.
var ErrMalformed = errors.New("malformed frame")

// maxExcerpt bounds how much of a bad frame ends up in an error message.
const maxExcerpt = 64

// Parse converts one frame into an event. Blank frames, frames with an
// unknown or missing type, and JSON values that are not objects yield a nil
// event and a nil error.
func Parse(raw string) (interpret.Event, error) {
	data := strings.TrimPrefix(raw, Prefix)
	if strings.TrimSpace(data) == "" {
		return nil, nil
	}
	if !gjson.Valid(data) {
		return nil, fmt.Errorf("frame: %q: %w", excerpt(data), ErrMalformed)
	}

	res := gjson.GetMany(data, "type", "content")
	switch res[0].String() {
	case "start":
		return interpret.EventStart{}, nil
	case "chunk":
		return interpret.EventChunk{Content: res[1].String()}, nil
	case "error":
		return interpret.EventError{Message: res[1].String()}, nil
	case "complete":
		return interpret.EventComplete{}, nil
	default:
		return nil, nil
	}
}

func excerpt(s string) string {
	if len(s) <= maxExcerpt {
		return s
	}
	return strings.ToValidUTF8(s[:maxExcerpt], "") + "..."
}
