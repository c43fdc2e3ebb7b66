package interpret

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Snapshot is a read-only view of a Session, handed to observers after every
// mutation.
type Snapshot struct {
	ID           string // run ID; empty when idle or when validation failed
	Status       Status
	Content      string
	ErrorMessage string // set only when Status is StatusError
	Chunks       int    // number of chunk events applied
}

// Observer is called after every state change, in mutation order. Observers
// may call Snapshot but must not call Start, Cancel, or Close synchronously.
type Observer func(Snapshot)

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	enabled   bool
	logger    *slog.Logger
	observers []Observer
}

// WithEnabled injects the capability flag. A disabled session refuses to
// start with ErrDisabled. Sessions are enabled by default.
func WithEnabled(enabled bool) Option {
	return func(c *sessionConfig) { c.enabled = enabled }
}

// WithLogger sets the logger for lifecycle and failure messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *sessionConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(c *sessionConfig) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// Session drives one feature's streaming interpretation. It is generic over
// the feature payload; each feature supplies only its payload type and
// endpoint path.
//
// Start blocks while the stream is read. Cancel, Close, and Snapshot may be
// called from other goroutines. Only the most recently started run ever
// mutates the session; starting a new run cancels the previous one first.
type Session[P Payload] struct {
	client Client
	path   string
	cfg    sessionConfig

	// notifyMu serializes mutations with their delivery so observers see
	// snapshots in mutation order. Lock order is notifyMu, then mu.
	notifyMu sync.Mutex

	mu      sync.Mutex
	id      string
	status  Status
	content strings.Builder
	chunks  int
	errMsg  string
	run     *run
}

// run is one Start call: one request, one cancellation handle.
type run struct {
	id  string
	ctl *Canceler
}

// NewSession creates an idle Session posting to path through client.
func NewSession[P Payload](client Client, path string, opts ...Option) *Session[P] {
	cfg := sessionConfig{
		enabled: true,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Session[P]{client: client, path: path, cfg: cfg}
}

// NewYAMLSession creates a Session for the YAML interpret panel.
func NewYAMLSession(client Client, opts ...Option) *Session[YAMLPayload] {
	return NewSession[YAMLPayload](client, DefaultYAMLPath, opts...)
}

// NewIssuesSession creates a Session for the top issues interpret panel.
func NewIssuesSession(client Client, opts ...Option) *Session[AuditPayload] {
	return NewSession[AuditPayload](client, DefaultIssuesPath, opts...)
}

// Path returns the endpoint path the session posts to.
func (s *Session[P]) Path() string { return s.path }

// Snapshot returns the current state.
func (s *Session[P]) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Status returns the current status.
func (s *Session[P]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Content returns the text accumulated so far.
func (s *Session[P]) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content.String()
}

// Start cancels any previous run, validates payload, and streams the
// interpretation until the server completes, fails, or the run is
// cancelled. It returns nil on completion and on cancellation. Failures
// wrap ErrValidation, ErrTransport, or ErrServer; in each case the session
// is left in StatusError.
func (s *Session[P]) Start(ctx context.Context, payload P) error {
	if !s.cfg.enabled {
		return ErrDisabled
	}

	s.lock()
	if prev := s.run; prev != nil {
		s.run = nil
		prev.ctl.Cancel()
		s.cfg.logger.Debug("superseding interpretation run", "path", s.path, "run", prev.id)
	}

	req, err := s.request(payload)
	if err != nil {
		s.resetLocked()
		s.status = StatusError
		s.errMsg = MessageInvalidRequest
		if payload.Empty() {
			s.errMsg = MessageNoContent
		}
		s.publish()
		s.cfg.logger.Warn("interpretation not started", "path", s.path, "error", err)
		return fmt.Errorf("interpret: %w", err)
	}

	r := &run{id: uuid.NewString(), ctl: NewCanceler(ctx)}
	s.resetLocked()
	s.id = r.id
	s.run = r
	s.status = StatusLoading
	s.publish()
	s.cfg.logger.Debug("interpretation started", "path", s.path, "run", r.id)

	return s.read(r, req)
}

// Cancel stops the in-flight run. An active session resolves to
// StatusComplete with its content kept and no error message. Cancelling an
// idle, finished, or already cancelled session is a no-op.
func (s *Session[P]) Cancel() {
	s.lock()
	r := s.run
	if r == nil {
		s.unlock()
		return
	}
	s.run = nil
	if s.status.Active() {
		s.status = StatusComplete
	}
	r.ctl.Cancel()
	s.publish()
	s.cfg.logger.Debug("interpretation cancelled", "path", s.path, "run", r.id)
}

// Close discards the session: any run is cancelled and the session returns
// to StatusIdle with no content and no error message.
func (s *Session[P]) Close() {
	s.lock()
	r := s.run
	s.run = nil
	if r != nil {
		r.ctl.Cancel()
	}
	s.resetLocked()
	s.status = StatusIdle
	s.publish()
}

func (s *Session[P]) request(payload P) (Request, error) {
	if payload.Empty() {
		return Request{}, fmt.Errorf("%s: empty payload: %w", s.path, ErrValidation)
	}
	return NewRequest(s.path, payload)
}

// read is the run's read loop: it suspends only in Next and applies each
// event before asking for the next one.
func (s *Session[P]) read(r *run, req Request) error {
	defer r.ctl.Release()

	stream, err := s.client.Stream(r.ctl.Context(), req)
	if err != nil {
		return s.fail(r, err)
	}
	r.ctl.Bind(stream)
	defer stream.Close()

	for {
		evt, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return s.finish(r)
		}
		if err != nil {
			return s.fail(r, err)
		}
		if done, err := s.apply(r, evt); done {
			return err
		}
	}
}

// apply performs the transition for one event. It reports whether the read
// loop must stop, together with the error Start should return.
func (s *Session[P]) apply(r *run, evt Event) (bool, error) {
	s.lock()
	if s.run != r || r.ctl.Canceled() {
		s.unlock()
		return true, nil
	}

	var (
		done bool
		err  error
	)
	switch e := evt.(type) {
	case EventStart:
		if s.status != StatusLoading {
			s.unlock()
			return false, nil
		}
		s.status = StatusStreaming
	case EventChunk:
		s.content.WriteString(e.Content)
		s.chunks++
		s.status = StatusStreaming
	case EventError:
		msg := e.Message
		if strings.TrimSpace(msg) == "" {
			msg = MessageServerError
		}
		s.status = StatusError
		s.errMsg = msg
		s.run = nil
		done = true
		err = fmt.Errorf("interpret: %s: %w", msg, ErrServer)
	case EventComplete:
		s.status = StatusComplete
		s.run = nil
		done = true
	default:
		s.unlock()
		return false, nil
	}
	s.publish()
	return done, err
}

// finish handles the server closing the body without a terminal event,
// which counts as success.
func (s *Session[P]) finish(r *run) error {
	s.lock()
	if s.run != r {
		s.unlock()
		return nil
	}
	s.status = StatusComplete
	s.run = nil
	s.publish()
	s.cfg.logger.Debug("stream ended without complete event", "path", s.path, "run", r.id)
	return nil
}

// fail handles an error from opening or reading the stream. Errors caused
// by this run's own cancellation change nothing; the caller's context
// ending is treated the same as Cancel.
func (s *Session[P]) fail(r *run, err error) error {
	s.lock()
	if s.run != r || r.ctl.Owns(err) {
		s.unlock()
		return nil
	}
	s.run = nil
	if r.ctl.Interrupted() {
		s.status = StatusComplete
		s.publish()
		return nil
	}
	s.status = StatusError
	s.errMsg = MessageTransport
	s.publish()
	s.cfg.logger.Error("interpretation stream failed", "path", s.path, "run", r.id, "error", err)
	if errors.Is(err, ErrTransport) {
		return fmt.Errorf("interpret: %w", err)
	}
	return fmt.Errorf("interpret: %w: %w", ErrTransport, err)
}

func (s *Session[P]) resetLocked() {
	s.id = ""
	s.content.Reset()
	s.chunks = 0
	s.errMsg = ""
}

func (s *Session[P]) snapshotLocked() Snapshot {
	return Snapshot{
		ID:           s.id,
		Status:       s.status,
		Content:      s.content.String(),
		ErrorMessage: s.errMsg,
		Chunks:       s.chunks,
	}
}

// lock is taken by every path that mutates the session.
func (s *Session[P]) lock() {
	s.notifyMu.Lock()
	s.mu.Lock()
}

func (s *Session[P]) unlock() {
	s.mu.Unlock()
	s.notifyMu.Unlock()
}

// publish must be called with both locks held. It releases mu, delivers the
// current snapshot to every observer, then releases notifyMu. Observers run
// without mu, so they may call Snapshot.
func (s *Session[P]) publish() {
	snap := s.snapshotLocked()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()
	for _, o := range s.cfg.observers {
		o(snap)
	}
}
