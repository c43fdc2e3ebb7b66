// Package frame turns a streamed interpretation response body into events.
//
// The body is UTF-8 text made of frames separated by a blank line. Each
// frame is "data: " followed by a JSON object with a "type" field.
package frame

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Delimiter separates frames in the decoded text.
const Delimiter = "\n\n"

// Decoder splits a byte stream into frames. Bytes may arrive in chunks of
// any size: a multi-byte code point or a delimiter split across two chunks
// is reassembled. Invalid bytes decode to U+FFFD. A Decoder is not safe for
// concurrent use.
type Decoder struct {
	text bytes.Buffer
	w    *transform.Writer
}

// NewDecoder returns a Decoder with an empty carry-over.
func NewDecoder() *Decoder {
	d := &Decoder{}
	d.reset()
	return d
}

func (d *Decoder) reset() {
	d.text.Reset()
	d.w = transform.NewWriter(&d.text, unicode.UTF8.NewDecoder())
}

// Decode appends chunk to the carry-over and returns every complete frame
// in order. The text after the last delimiter is kept for the next call.
func (d *Decoder) Decode(chunk []byte) []string {
	// Writes into a bytes.Buffer through a replacing decoder cannot fail.
	_, _ = d.w.Write(chunk)
	if !bytes.Contains(d.text.Bytes(), []byte(Delimiter)) {
		return nil
	}
	parts := strings.Split(d.text.String(), Delimiter)
	d.text.Reset()
	d.text.WriteString(parts[len(parts)-1])
	return parts[:len(parts)-1]
}

// Pending returns the carry-over text without consuming it.
func (d *Decoder) Pending() string {
	return d.text.String()
}

// Flush ends the stream. It returns whatever text never saw a closing
// delimiter, including any incomplete trailing code point as U+FFFD, and
// leaves the Decoder empty. The returned text is not a frame.
func (d *Decoder) Flush() string {
	_ = d.w.Close()
	rest := d.text.String()
	d.reset()
	return rest
}
