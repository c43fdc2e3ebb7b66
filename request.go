package interpret

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Request is one interpretation call: a feature-specific JSON body posted to
// a feature-specific endpoint path. It is not modified once a session starts.
type Request struct {
	Path string
	Body json.RawMessage
}

// Validate checks universal constraints on Request.
func (r Request) Validate() error {
	if !strings.HasPrefix(r.Path, "/") {
		return fmt.Errorf("path must be absolute, got %q: %w", r.Path, ErrValidation)
	}
	if len(r.Body) == 0 {
		return fmt.Errorf("empty request body: %w", ErrValidation)
	}
	if !json.Valid(r.Body) {
		return fmt.Errorf("request body is not valid JSON: %w", ErrValidation)
	}
	return nil
}

// NewRequest encodes payload as the JSON body for path.
func NewRequest[P Payload](path string, payload P) (Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("encode payload: %w", err)
	}
	req := Request{Path: path, Body: body}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}
