package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/interpret"
)

// Styles maps a Theme to lipgloss styles for the panel.
type Styles struct {
	Title   lipgloss.Style
	Loading lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	ErrorBg lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t interpret.Theme) Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Foreground(ansiColor(t.Title)).Bold(true),
		Loading: lipgloss.NewStyle().Foreground(ansiColor(t.Loading)),
		Error:   lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success: lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:   lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:  lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		ErrorBg: lipgloss.NewStyle().Background(ansiColor(t.Error)).PaddingLeft(1).PaddingRight(1),
	}
}

// Status returns the style of the status line for st.
func (s Styles) Status(st interpret.Status) lipgloss.Style {
	switch st {
	case interpret.StatusLoading, interpret.StatusStreaming:
		return s.Loading
	case interpret.StatusComplete:
		return s.Success
	case interpret.StatusError:
		return s.Error
	default:
		return s.Muted
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
