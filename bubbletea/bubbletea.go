// Package bubbletea provides the Bubble Tea interpretation panel.
package bubbletea

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/interpret"
)

// Controller is the part of a session the panel drives from key presses.
// *interpret.Session satisfies it.
type Controller interface {
	Cancel()
	Close()
}

// StartFunc starts the interpretation and blocks until it ends. It is run
// off the UI goroutine.
type StartFunc func() error

// Run creates and runs the Bubble Tea program. It blocks until the program
// exits. When ctx is cancelled, the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// SnapshotMsg delivers the latest session state to the model.
type SnapshotMsg struct {
	Snapshot interpret.Snapshot
}

// DoneMsg signals that StartFunc returned.
type DoneMsg struct {
	Err error
}

// Feed carries session snapshots to the panel. Snapshots are complete
// states, so only the latest one is kept: a slow UI skips intermediate
// states but always sees the last.
type Feed struct {
	mu     sync.Mutex
	latest interpret.Snapshot
	signal chan struct{}
}

// NewFeed creates an empty Feed.
func NewFeed() *Feed {
	return &Feed{signal: make(chan struct{}, 1)}
}

// Observe is an [interpret.Observer]. It never blocks.
func (f *Feed) Observe(s interpret.Snapshot) {
	f.mu.Lock()
	f.latest = s
	f.mu.Unlock()
	select {
	case f.signal <- struct{}{}:
	default:
	}
}

// Next blocks until a snapshot newer than the last one returned is
// available.
func (f *Feed) Next() interpret.Snapshot {
	<-f.signal
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

func listen(f *Feed) tea.Cmd {
	return func() tea.Msg {
		return SnapshotMsg{Snapshot: f.Next()}
	}
}

func start(fn StartFunc) tea.Cmd {
	return func() tea.Msg {
		return DoneMsg{Err: fn()}
	}
}
