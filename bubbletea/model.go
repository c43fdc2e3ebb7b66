package bubbletea

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/interpret"
	"github.com/fwojciec/interpret/markdown"
	"github.com/fwojciec/interpret/sanitize"
	rw "github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

// Layout rows outside the viewport: title, status line, and the newlines
// between sections.
const (
	titleHeight  = 1
	statusHeight = 1
	borderHeight = 2
)

type keyMap struct {
	Stop  key.Binding
	Close key.Binding
}

var keys = keyMap{
	Stop:  key.NewBinding(key.WithKeys("ctrl+c", "s"), key.WithHelp("s", "stop")),
	Close: key.NewBinding(key.WithKeys("esc", "q"), key.WithHelp("q", "close")),
}

// Option configures a Model.
type Option func(*Model)

// WithMarkdown toggles markdown rendering of the content. When off, the
// content is soft-wrapped plain text.
func WithMarkdown(on bool) Option {
	return func(m *Model) { m.markdown = on }
}

// WithTheme sets the panel colors.
func WithTheme(t interpret.Theme) Option {
	return func(m *Model) {
		m.theme = t
		m.styles = NewStyles(t)
	}
}

// Model is the interpretation panel: a title, the streamed content in a
// scrolling viewport, and a status line.
type Model struct {
	// Viewport is the scrollable content area. Exported for test access.
	Viewport viewport.Model

	title    string
	ctl      Controller
	run      StartFunc
	feed     *Feed
	theme    interpret.Theme
	styles   Styles
	markdown bool
	wrap     *wrapCache

	snap   interpret.Snapshot
	done   bool
	closed bool
	err    error
	ready  bool
}

// New creates a panel. run is started by Init; feed must be registered as
// an observer of the session behind ctl.
func New(title string, ctl Controller, run StartFunc, feed *Feed, opts ...Option) Model {
	theme := interpret.DefaultTheme()
	m := Model{
		title:    title,
		ctl:      ctl,
		run:      run,
		feed:     feed,
		theme:    theme,
		styles:   NewStyles(theme),
		markdown: true,
		wrap:     newWrapCache(),
		snap:     interpret.Snapshot{Status: interpret.StatusLoading},
	}
	for _, o := range opts {
		o(&m)
	}
	return m
}

// Snapshot returns the last session state the panel received.
func (m Model) Snapshot() interpret.Snapshot { return m.snap }

// Done reports whether the interpretation run has returned.
func (m Model) Done() bool { return m.done }

// Closed reports whether the user closed the panel.
func (m Model) Closed() bool { return m.closed }

// Err returns the error the run ended with, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(start(m.run), listen(m.feed))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		if m.closed {
			return m, nil
		}
		m.snap = msg.Snapshot
		m = m.refresh()
		return m, listen(m.feed)

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	vpHeight := max(msg.Height-titleHeight-statusHeight-borderHeight, 1)
	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	return m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Stop):
		if m.snap.Status.Active() {
			m.ctl.Cancel()
			return m, nil
		}
		if msg.Type == tea.KeyCtrlC {
			return m.close()
		}
		return m, nil

	case key.Matches(msg, keys.Close):
		return m.close()
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

func (m Model) close() (tea.Model, tea.Cmd) {
	m.ctl.Close()
	m.closed = true
	m.snap = interpret.Snapshot{}
	return m, tea.Quit
}

// refresh re-renders the content for the current width and scrolls to the
// end.
func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	var b strings.Builder
	if text := sanitize.Text(m.snap.Content); text != "" {
		if m.markdown {
			b.WriteString(markdown.Render(text, m.Viewport.Width, m.theme))
		} else {
			b.WriteString(m.wrap.wrapText(text, m.Viewport.Width))
		}
	}
	if m.snap.Status == interpret.StatusError {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.styles.Error.Render(sanitize.Text(m.snap.ErrorMessage)))
	}
	return b.String()
}

func (m Model) statusLine() string {
	var s string
	switch m.snap.Status {
	case interpret.StatusLoading:
		s = "Interpreting... s to stop"
	case interpret.StatusStreaming:
		s = "Streaming... s to stop"
	case interpret.StatusComplete:
		s = "Done. q to close"
	case interpret.StatusError:
		s = "Failed. q to close"
	default:
		s = "q to close"
	}
	if w := m.Viewport.Width; w > 0 {
		s = rw.Truncate(s, w, "…")
	}
	return m.styles.Status(m.snap.Status).Render(s)
}
