package interpret_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/interpret"
	"github.com/fwojciec/interpret/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted returns a stream that yields events in order, then io.EOF.
func scripted(events ...interpret.Event) *mock.Stream {
	var (
		mu sync.Mutex
		i  int
	)
	return &mock.Stream{
		NextFn: func() (interpret.Event, error) {
			mu.Lock()
			defer mu.Unlock()
			if i >= len(events) {
				return nil, io.EOF
			}
			e := events[i]
			i++
			return e, nil
		},
	}
}

// blockingStream delivers events pushed by the test and blocks in Next
// until the next push or until Close.
type blockingStream struct {
	events chan interpret.Event
	closed chan struct{}
	once   sync.Once
}

func newBlockingStream() *blockingStream {
	return &blockingStream{
		events: make(chan interpret.Event, 16),
		closed: make(chan struct{}),
	}
}

func (s *blockingStream) Next() (interpret.Event, error) {
	select {
	case <-s.closed:
		return nil, errors.New("read on closed response body")
	default:
	}
	select {
	case e, ok := <-s.events:
		if !ok {
			return nil, io.EOF
		}
		return e, nil
	case <-s.closed:
		return nil, errors.New("read on closed response body")
	}
}

func (s *blockingStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *blockingStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func clientFor(s interpret.Stream) *mock.Client {
	return &mock.Client{
		StreamFn: func(ctx context.Context, req interpret.Request) (interpret.Stream, error) {
			return s, nil
		},
	}
}

// recorder collects every snapshot delivered to an observer.
type recorder struct {
	mu    sync.Mutex
	snaps []interpret.Snapshot
}

func (r *recorder) observe(s interpret.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) statuses() []interpret.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interpret.Status, len(r.snaps))
	for i, s := range r.snaps {
		out[i] = s.Status
	}
	return out
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recorder) last() interpret.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snaps[len(r.snaps)-1]
}

var yamlPayload = interpret.YAMLPayload{YAML: "a: 1", Language: "en"}

func TestSession_Start(t *testing.T) {
	t.Parallel()

	t.Run("streams to complete", func(t *testing.T) {
		t.Parallel()
		var gotReq interpret.Request
		client := &mock.Client{
			StreamFn: func(ctx context.Context, req interpret.Request) (interpret.Stream, error) {
				gotReq = req
				return scripted(
					interpret.EventStart{},
					interpret.EventChunk{Content: "The "},
					interpret.EventChunk{Content: "value is 1."},
					interpret.EventComplete{},
				), nil
			},
		}
		rec := &recorder{}
		s := interpret.NewYAMLSession(client, interpret.WithObserver(rec.observe))

		err := s.Start(context.Background(), yamlPayload)

		require.NoError(t, err)
		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusComplete, snap.Status)
		assert.Equal(t, "The value is 1.", snap.Content)
		assert.Empty(t, snap.ErrorMessage)
		assert.Equal(t, 2, snap.Chunks)
		assert.NotEmpty(t, snap.ID)
		assert.Equal(t, interpret.DefaultYAMLPath, gotReq.Path)
		assert.JSONEq(t, `{"yaml":"a: 1","language":"en"}`, string(gotReq.Body))
		assert.Equal(t, []interpret.Status{
			interpret.StatusLoading,
			interpret.StatusStreaming,
			interpret.StatusStreaming,
			interpret.StatusStreaming,
			interpret.StatusComplete,
		}, rec.statuses())
	})

	t.Run("server error event", func(t *testing.T) {
		t.Parallel()
		s := interpret.NewYAMLSession(clientFor(scripted(
			interpret.EventError{Message: "model unavailable"},
		)))

		err := s.Start(context.Background(), yamlPayload)

		require.ErrorIs(t, err, interpret.ErrServer)
		assert.Contains(t, err.Error(), "model unavailable")
		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusError, snap.Status)
		assert.Equal(t, "model unavailable", snap.ErrorMessage)
		assert.Equal(t, "", snap.Content)
	})

	t.Run("server error event without message", func(t *testing.T) {
		t.Parallel()
		s := interpret.NewYAMLSession(clientFor(scripted(
			interpret.EventStart{},
			interpret.EventError{},
		)))

		err := s.Start(context.Background(), yamlPayload)

		require.ErrorIs(t, err, interpret.ErrServer)
		assert.Equal(t, interpret.MessageServerError, s.Snapshot().ErrorMessage)
	})

	t.Run("empty payload fails without a network call", func(t *testing.T) {
		t.Parallel()
		client := &mock.Client{
			StreamFn: func(ctx context.Context, req interpret.Request) (interpret.Stream, error) {
				t.Error("unexpected network call")
				return nil, errors.New("unexpected")
			},
		}
		s := interpret.NewIssuesSession(client)

		err := s.Start(context.Background(), interpret.AuditPayload{Language: "en"})

		require.ErrorIs(t, err, interpret.ErrValidation)
		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusError, snap.Status)
		assert.Equal(t, interpret.MessageNoContent, snap.ErrorMessage)
		assert.Empty(t, snap.Content)
	})

	t.Run("unbuildable request is a validation error", func(t *testing.T) {
		t.Parallel()
		client := &mock.Client{
			StreamFn: func(ctx context.Context, req interpret.Request) (interpret.Stream, error) {
				t.Error("unexpected network call")
				return nil, errors.New("unexpected")
			},
		}
		s := interpret.NewSession[interpret.YAMLPayload](client, "api/interpret")

		err := s.Start(context.Background(), yamlPayload)

		require.ErrorIs(t, err, interpret.ErrValidation)
		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusError, snap.Status)
		assert.Equal(t, interpret.MessageInvalidRequest, snap.ErrorMessage)
	})

	t.Run("disabled session refuses to start", func(t *testing.T) {
		t.Parallel()
		s := interpret.NewYAMLSession(&mock.Client{}, interpret.WithEnabled(false))

		err := s.Start(context.Background(), yamlPayload)

		require.ErrorIs(t, err, interpret.ErrDisabled)
		assert.Equal(t, interpret.StatusIdle, s.Status())
	})

	t.Run("chunk without start is an implicit start", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		s := interpret.NewYAMLSession(clientFor(scripted(
			interpret.EventChunk{Content: "hello"},
			interpret.EventComplete{},
		)), interpret.WithObserver(rec.observe))

		require.NoError(t, s.Start(context.Background(), yamlPayload))

		statuses := rec.statuses()
		require.Len(t, statuses, 3)
		assert.Equal(t, interpret.StatusLoading, statuses[0])
		assert.Equal(t, interpret.StatusStreaming, statuses[1])
		assert.Equal(t, "hello", s.Content())
	})

	t.Run("stream end without complete resolves to complete", func(t *testing.T) {
		t.Parallel()
		s := interpret.NewYAMLSession(clientFor(scripted(
			interpret.EventStart{},
			interpret.EventChunk{Content: "one "},
			interpret.EventChunk{Content: "two "},
			interpret.EventChunk{Content: "three"},
		)))

		require.NoError(t, s.Start(context.Background(), yamlPayload))

		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusComplete, snap.Status)
		assert.Equal(t, "one two three", snap.Content)
		assert.Empty(t, snap.ErrorMessage)
	})

	t.Run("stops reading after complete", func(t *testing.T) {
		t.Parallel()
		var calls int
		events := []interpret.Event{
			interpret.EventChunk{Content: "done"},
			interpret.EventComplete{},
			interpret.EventChunk{Content: " extra"},
		}
		closed := false
		stream := &mock.Stream{
			NextFn: func() (interpret.Event, error) {
				e := events[calls]
				calls++
				return e, nil
			},
			CloseFn: func() error {
				closed = true
				return nil
			},
		}
		s := interpret.NewYAMLSession(clientFor(stream))

		require.NoError(t, s.Start(context.Background(), yamlPayload))

		assert.Equal(t, 2, calls)
		assert.True(t, closed)
		assert.Equal(t, "done", s.Content())
	})

	t.Run("open failure is a transport error", func(t *testing.T) {
		t.Parallel()
		client := &mock.Client{
			StreamFn: func(ctx context.Context, req interpret.Request) (interpret.Stream, error) {
				return nil, errors.New("connection refused")
			},
		}
		s := interpret.NewYAMLSession(client)

		err := s.Start(context.Background(), yamlPayload)

		require.ErrorIs(t, err, interpret.ErrTransport)
		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusError, snap.Status)
		assert.Equal(t, interpret.MessageTransport, snap.ErrorMessage)
	})

	t.Run("read failure keeps content and reports transport error", func(t *testing.T) {
		t.Parallel()
		var calls int
		stream := &mock.Stream{
			NextFn: func() (interpret.Event, error) {
				calls++
				if calls == 1 {
					return interpret.EventChunk{Content: "partial"}, nil
				}
				return nil, errors.New("connection reset by peer")
			},
		}
		s := interpret.NewYAMLSession(clientFor(stream))

		err := s.Start(context.Background(), yamlPayload)

		require.ErrorIs(t, err, interpret.ErrTransport)
		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusError, snap.Status)
		assert.Equal(t, interpret.MessageTransport, snap.ErrorMessage)
		assert.Equal(t, "partial", snap.Content)
	})

	t.Run("parent context cancellation is not a failure", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		stream := newBlockingStream()
		stream.events <- interpret.EventChunk{Content: "a"}
		rec := &recorder{}
		s := interpret.NewYAMLSession(clientFor(stream), interpret.WithObserver(func(snap interpret.Snapshot) {
			rec.observe(snap)
			if snap.Chunks == 1 && snap.Status == interpret.StatusStreaming {
				cancel()
			}
		}))

		err := s.Start(ctx, yamlPayload)

		require.NoError(t, err)
		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusComplete, snap.Status)
		assert.Empty(t, snap.ErrorMessage)
		assert.Equal(t, "a", snap.Content)
	})
}

func TestSession_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("mid-stream cancel is silent and freezes content", func(t *testing.T) {
		t.Parallel()
		stream := newBlockingStream()
		streaming := make(chan struct{})
		var once sync.Once
		s := interpret.NewYAMLSession(clientFor(stream), interpret.WithObserver(func(snap interpret.Snapshot) {
			if snap.Chunks == 1 {
				once.Do(func() { close(streaming) })
			}
		}))

		done := make(chan error, 1)
		go func() { done <- s.Start(context.Background(), yamlPayload) }()

		stream.events <- interpret.EventStart{}
		stream.events <- interpret.EventChunk{Content: "first"}
		<-streaming

		s.Cancel()
		stream.events <- interpret.EventChunk{Content: " second"}

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Start did not return after Cancel")
		}
		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusComplete, snap.Status)
		assert.Empty(t, snap.ErrorMessage)
		assert.Equal(t, "first", snap.Content)
		assert.Eventually(t, stream.isClosed, time.Second, 10*time.Millisecond)
	})

	t.Run("events already decoded are not applied after cancel", func(t *testing.T) {
		t.Parallel()
		var s *interpret.Session[interpret.YAMLPayload]
		var calls int
		stream := &mock.Stream{
			NextFn: func() (interpret.Event, error) {
				calls++
				switch calls {
				case 1:
					return interpret.EventChunk{Content: "kept"}, nil
				case 2:
					// The user stops while the next event is already in hand.
					s.Cancel()
					return interpret.EventChunk{Content: " dropped"}, nil
				default:
					return interpret.EventChunk{Content: " never"}, nil
				}
			},
		}
		s = interpret.NewYAMLSession(clientFor(stream))

		require.NoError(t, s.Start(context.Background(), yamlPayload))

		assert.Equal(t, 2, calls)
		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusComplete, snap.Status)
		assert.Equal(t, "kept", snap.Content)
		assert.Empty(t, snap.ErrorMessage)
	})

	t.Run("cancel while loading", func(t *testing.T) {
		t.Parallel()
		opened := make(chan struct{})
		client := &mock.Client{
			StreamFn: func(ctx context.Context, req interpret.Request) (interpret.Stream, error) {
				close(opened)
				<-ctx.Done()
				return nil, context.Cause(ctx)
			},
		}
		s := interpret.NewYAMLSession(client)

		done := make(chan error, 1)
		go func() { done <- s.Start(context.Background(), yamlPayload) }()
		<-opened
		s.Cancel()

		require.NoError(t, <-done)
		assert.Equal(t, interpret.StatusComplete, s.Status())
		assert.Empty(t, s.Snapshot().ErrorMessage)
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		t.Parallel()
		rec := &recorder{}
		s := interpret.NewYAMLSession(clientFor(scripted(interpret.EventComplete{})), interpret.WithObserver(rec.observe))

		s.Cancel()
		assert.Equal(t, 0, rec.len())
		assert.Equal(t, interpret.StatusIdle, s.Status())

		require.NoError(t, s.Start(context.Background(), yamlPayload))
		n := rec.len()
		s.Cancel()
		s.Cancel()
		assert.Equal(t, n, rec.len())
		assert.Equal(t, interpret.StatusComplete, s.Status())
	})

	t.Run("cancel does not resurrect an error", func(t *testing.T) {
		t.Parallel()
		s := interpret.NewYAMLSession(clientFor(scripted(interpret.EventError{Message: "boom"})))

		require.Error(t, s.Start(context.Background(), yamlPayload))
		s.Cancel()

		assert.Equal(t, interpret.StatusError, s.Status())
		assert.Equal(t, "boom", s.Snapshot().ErrorMessage)
	})
}

func TestSession_ObserverReadsSnapshot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stop   func(s *interpret.Session[interpret.YAMLPayload])
		status interpret.Status
	}{
		{
			name:   "while cancel waits",
			stop:   func(s *interpret.Session[interpret.YAMLPayload]) { s.Cancel() },
			status: interpret.StatusComplete,
		},
		{
			name:   "while close waits",
			stop:   func(s *interpret.Session[interpret.YAMLPayload]) { s.Close() },
			status: interpret.StatusIdle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			stream := newBlockingStream()
			observing := make(chan struct{})
			read := make(chan interpret.Snapshot, 1)
			var (
				s    *interpret.Session[interpret.YAMLPayload]
				once sync.Once
			)
			s = interpret.NewYAMLSession(clientFor(stream), interpret.WithObserver(func(snap interpret.Snapshot) {
				if snap.Chunks != 1 || snap.Status != interpret.StatusStreaming {
					return
				}
				once.Do(func() {
					close(observing)
					// Give the stop call time to queue up behind this observer.
					time.Sleep(50 * time.Millisecond)
					read <- s.Snapshot()
				})
			}))

			done := make(chan error, 1)
			go func() { done <- s.Start(context.Background(), yamlPayload) }()
			stream.events <- interpret.EventChunk{Content: "first"}
			<-observing

			stopped := make(chan struct{})
			go func() {
				tt.stop(s)
				close(stopped)
			}()

			select {
			case <-stopped:
			case <-time.After(5 * time.Second):
				t.Fatal("stop blocked while an observer read the session")
			}
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("Start did not return after stop")
			}
			assert.Equal(t, "first", (<-read).Content)
			assert.Equal(t, tt.status, s.Status())
		})
	}
}

func TestSession_Close(t *testing.T) {
	t.Parallel()

	t.Run("close mid-stream discards the session", func(t *testing.T) {
		t.Parallel()
		stream := newBlockingStream()
		streaming := make(chan struct{})
		var once sync.Once
		rec := &recorder{}
		s := interpret.NewYAMLSession(clientFor(stream), interpret.WithObserver(func(snap interpret.Snapshot) {
			rec.observe(snap)
			if snap.Chunks == 1 {
				once.Do(func() { close(streaming) })
			}
		}))

		done := make(chan error, 1)
		go func() { done <- s.Start(context.Background(), yamlPayload) }()
		stream.events <- interpret.EventChunk{Content: "text"}
		<-streaming

		s.Close()

		require.NoError(t, <-done)
		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusIdle, snap.Status)
		assert.Empty(t, snap.Content)
		assert.Empty(t, snap.ErrorMessage)
		assert.Empty(t, snap.ID)
		assert.Equal(t, interpret.StatusIdle, rec.last().Status)
		assert.Eventually(t, stream.isClosed, time.Second, 10*time.Millisecond)
	})

	t.Run("close clears an error", func(t *testing.T) {
		t.Parallel()
		s := interpret.NewYAMLSession(&mock.Client{})

		require.Error(t, s.Start(context.Background(), interpret.YAMLPayload{}))
		s.Close()

		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusIdle, snap.Status)
		assert.Empty(t, snap.ErrorMessage)
	})
}

func TestSession_Restart(t *testing.T) {
	t.Parallel()

	t.Run("new start cancels the previous run", func(t *testing.T) {
		t.Parallel()
		first := newBlockingStream()
		second := scripted(
			interpret.EventChunk{Content: "second run"},
			interpret.EventComplete{},
		)
		var opens int
		var mu sync.Mutex
		client := &mock.Client{
			StreamFn: func(ctx context.Context, req interpret.Request) (interpret.Stream, error) {
				mu.Lock()
				defer mu.Unlock()
				opens++
				if opens == 1 {
					return first, nil
				}
				return second, nil
			},
		}
		streaming := make(chan struct{})
		var once sync.Once
		s := interpret.NewYAMLSession(client, interpret.WithObserver(func(snap interpret.Snapshot) {
			if snap.Content == "first run" {
				once.Do(func() { close(streaming) })
			}
		}))

		firstDone := make(chan error, 1)
		go func() { firstDone <- s.Start(context.Background(), yamlPayload) }()
		first.events <- interpret.EventChunk{Content: "first run"}
		<-streaming

		require.NoError(t, s.Start(context.Background(), yamlPayload))
		require.NoError(t, <-firstDone)

		first.events <- interpret.EventChunk{Content: " late"}
		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusComplete, snap.Status)
		assert.Equal(t, "second run", snap.Content)
		assert.True(t, first.isClosed())
	})

	t.Run("restart after error clears the message", func(t *testing.T) {
		t.Parallel()
		var opens int
		client := &mock.Client{
			StreamFn: func(ctx context.Context, req interpret.Request) (interpret.Stream, error) {
				opens++
				if opens == 1 {
					return scripted(interpret.EventError{Message: "busy"}), nil
				}
				return scripted(interpret.EventChunk{Content: "ok"}), nil
			},
		}
		s := interpret.NewYAMLSession(client)

		require.Error(t, s.Start(context.Background(), yamlPayload))
		require.NoError(t, s.Start(context.Background(), yamlPayload))

		snap := s.Snapshot()
		assert.Equal(t, interpret.StatusComplete, snap.Status)
		assert.Equal(t, "ok", snap.Content)
		assert.Empty(t, snap.ErrorMessage)
	})
}
