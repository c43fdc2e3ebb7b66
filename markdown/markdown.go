// Package markdown renders interpretation text to terminal output using
// goldmark for parsing and lipgloss for styling.
//
// Interpretations arrive incrementally, so Render is called on partial
// documents many times per run. Unterminated constructs (an open code fence,
// an unclosed emphasis) render as whatever goldmark makes of them at that
// point and settle once the rest of the text arrives.
package markdown

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/interpret"
	"github.com/muesli/termenv"
)

// DefaultWidth is used when the caller passes a non-positive width.
const DefaultWidth = 80

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs, quotes, and list items are word-wrapped to width. Code blocks
// are rendered without reflow.
func Render(source string, width int, theme interpret.Theme) string {
	return render(lipgloss.DefaultRenderer(), source, width, theme)
}

// Plain renders source with the same layout as Render but without any
// escape sequences, for logs, pipes, and dumb terminals.
func Plain(source string, width int) string {
	r := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.Ascii))
	return render(r, source, width, interpret.DefaultTheme())
}

func render(lr *lipgloss.Renderer, source string, width int, theme interpret.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = DefaultWidth
	}
	return newRenderer(lr, theme).render([]byte(source), width)
}
