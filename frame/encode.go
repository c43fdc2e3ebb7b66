package frame

import (
	"encoding/json"

	"github.com/fwojciec/interpret"
)

type wireEvent struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// Encode renders evt as one delimited frame, the way the server writes it.
func Encode(evt interpret.Event) string {
	var w wireEvent
	switch e := evt.(type) {
	case interpret.EventStart:
		w.Type = "start"
	case interpret.EventChunk:
		w.Type, w.Content = "chunk", e.Content
	case interpret.EventError:
		w.Type, w.Content = "error", e.Message
	case interpret.EventComplete:
		w.Type = "complete"
	default:
		return ""
	}
	// A struct of two strings always marshals.
	data, _ := json.Marshal(w)
	return Prefix + string(data) + Delimiter
}
