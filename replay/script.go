package replay

import (
	"strings"

	"github.com/fwojciec/interpret"
	"github.com/fwojciec/interpret/frame"
	"github.com/rivo/uniseg"
)

// Script is what the server answers to every interpretation request.
type Script struct {
	// Chunks are sent as chunk events, in order.
	Chunks []string
	// Fail, when set, ends the stream with an error event carrying it.
	Fail string
	// OmitStart skips the leading start event.
	OmitStart bool
	// OmitTerminal ends the body without a complete or error event.
	OmitTerminal bool
	// Raw, when set, is written verbatim instead of the frames above.
	Raw []byte
}

// TextScript splits text into chunks of at most size characters, never
// breaking a grapheme cluster.
func TextScript(text string, size int) Script {
	return Script{Chunks: Split(text, size)}
}

// Split cuts text into pieces of at most size grapheme clusters.
func Split(text string, size int) []string {
	if size <= 0 {
		size = 1
	}
	var (
		chunks []string
		b      strings.Builder
		n      int
	)
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		b.WriteString(g.Str())
		n++
		if n == size {
			chunks = append(chunks, b.String())
			b.Reset()
			n = 0
		}
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}

// Body renders the script in wire format, one string per write.
func (s Script) Body(writeSize int) []string {
	if s.Raw != nil {
		return splitBytes(s.Raw, writeSize)
	}
	var out []string
	if !s.OmitStart {
		out = append(out, frame.Encode(interpret.EventStart{}))
	}
	for _, c := range s.Chunks {
		out = append(out, frame.Encode(interpret.EventChunk{Content: c}))
	}
	switch {
	case s.OmitTerminal:
	case s.Fail != "":
		out = append(out, frame.Encode(interpret.EventError{Message: s.Fail}))
	default:
		out = append(out, frame.Encode(interpret.EventComplete{}))
	}
	return out
}

func splitBytes(b []byte, size int) []string {
	if size <= 0 || size >= len(b) {
		return []string{string(b)}
	}
	out := make([]string, 0, len(b)/size+1)
	for len(b) > 0 {
		n := min(size, len(b))
		out = append(out, string(b[:n]))
		b = b[n:]
	}
	return out
}
