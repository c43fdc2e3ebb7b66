// Package sanitize makes server-supplied text safe to write to a terminal.
//
// Interpretation content is shown verbatim in the panel and on stdout, so a
// hostile or broken backend must not be able to move the cursor, retitle
// the window, or reorder text with bidi controls.
package sanitize

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Text strips ANSI escape sequences, C0 control characters other than tab
// and newline, DEL, C1 controls, and bidi override characters. CRLF becomes
// LF and a lone CR is dropped.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = ansi.Strip(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keep(r rune) bool {
	switch {
	case r == '\t' || r == '\n':
		return true
	case r <= 0x1F, r == 0x7F:
		return false
	case r >= 0x80 && r <= 0x9F:
		return false
	case r >= 0x202A && r <= 0x202E, r >= 0x2066 && r <= 0x2069:
		return false
	}
	return true
}
