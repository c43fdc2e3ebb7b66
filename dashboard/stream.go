package dashboard

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fwojciec/interpret"
	"github.com/fwojciec/interpret/frame"
)

// Interface compliance check.
var _ interpret.Stream = (*stream)(nil)

// stream implements [interpret.Stream] over a response body. Events decoded
// from one read are queued and handed out one per Next call before the body
// is read again.
type stream struct {
	body    io.ReadCloser
	dec     *frame.Decoder
	buf     []byte
	pending []interpret.Event
	logger  *slog.Logger
	err     error // terminal: io.EOF or a read failure
}

func newStream(body io.ReadCloser, logger *slog.Logger) *stream {
	return &stream{
		body:   body,
		dec:    frame.NewDecoder(),
		buf:    make([]byte, readSize),
		logger: logger,
	}
}

// Next returns the next event. It returns io.EOF once the body is exhausted
// and every decoded event has been returned.
func (s *stream) Next() (interpret.Event, error) {
	for {
		if len(s.pending) > 0 {
			evt := s.pending[0]
			s.pending = s.pending[1:]
			return evt, nil
		}
		if s.err != nil {
			return nil, s.err
		}

		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.consume(s.buf[:n])
		}
		switch {
		case errors.Is(err, io.EOF):
			s.finish()
			s.err = io.EOF
		case err != nil:
			s.err = fmt.Errorf("dashboard: read body: %w: %w", interpret.ErrTransport, err)
		}
	}
}

// Close closes the response body. It may be called from another goroutine
// to unblock a pending Next.
func (s *stream) Close() error {
	return s.body.Close()
}

func (s *stream) consume(chunk []byte) {
	for _, raw := range s.dec.Decode(chunk) {
		evt, err := frame.Parse(raw)
		if err != nil {
			s.logger.Warn("skipping frame", "error", err)
			continue
		}
		if evt != nil {
			s.pending = append(s.pending, evt)
		}
	}
}

// finish drops text that never saw a closing delimiter. Servers always end
// the last frame, so leftover text is a truncated frame, not an event.
func (s *stream) finish() {
	if rest := s.dec.Flush(); strings.TrimSpace(rest) != "" {
		s.logger.Debug("discarding unterminated frame", "bytes", len(rest))
	}
}
