package sanitize_test

import (
	"testing"

	"github.com/fwojciec/interpret/sanitize"
	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text unchanged", in: "replicas: 3", want: "replicas: 3"},
		{name: "empty", in: "", want: ""},
		{name: "markdown unchanged", in: "## Summary\n\n- **bold** `code`\n", want: "## Summary\n\n- **bold** `code`\n"},
		{name: "non-ASCII unchanged", in: "Zażółć 👍 日本語", want: "Zażółć 👍 日本語"},
		{name: "strips colour codes", in: "\x1b[31mred\x1b[0m", want: "red"},
		{name: "strips cursor movement", in: "a\x1b[2J\x1b[Hb", want: "ab"},
		{name: "strips OSC title", in: "\x1b]0;pwned\x07text", want: "text"},
		{name: "keeps tabs and newlines", in: "a\tb\nc", want: "a\tb\nc"},
		{name: "removes control characters", in: "a\x01b\x02c\x07", want: "abc"},
		{name: "removes DEL", in: "a\x7fb", want: "ab"},
		{name: "normalizes CRLF", in: "a\r\nb\r\n", want: "a\nb\n"},
		{name: "drops lone CR", in: "safe\rrm -rf", want: "saferm -rf"},
		{name: "removes bidi overrides", in: "abc\u202edef\u2066x\u2069", want: "abcdefx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitize.Text(tt.in))
		})
	}
}
