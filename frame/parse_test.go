package frame_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/interpret"
	"github.com/fwojciec/interpret/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want interpret.Event
	}{
		{"start", `data: {"type":"start"}`, interpret.EventStart{}},
		{"chunk", `data: {"type":"chunk","content":"The "}`, interpret.EventChunk{Content: "The "}},
		{"chunk with escapes", `data: {"type":"chunk","content":"line\nnext \"q\""}`, interpret.EventChunk{Content: "line\nnext \"q\""}},
		{"chunk without content", `data: {"type":"chunk"}`, interpret.EventChunk{}},
		{"error", `data: {"type":"error","content":"model unavailable"}`, interpret.EventError{Message: "model unavailable"}},
		{"complete", `data: {"type":"complete"}`, interpret.EventComplete{}},
		{"without prefix", `{"type":"complete"}`, interpret.EventComplete{}},
		{"extra fields", `data: {"type":"chunk","content":"x","index":3}`, interpret.EventChunk{Content: "x"}},
		{"empty", ``, nil},
		{"prefix only", `data: `, nil},
		{"whitespace", "data:   \n\t", nil},
		{"unknown type", `data: {"type":"usage","tokens":12}`, nil},
		{"missing type", `data: {"content":"orphan"}`, nil},
		{"not an object", `data: [1,2,3]`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := frame.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"truncated object", `data: {"type":"chunk","content":"ha`},
		{"plain text", `data: hello`},
		{"prefix without space", `data:{"type":"start"}`},
		{"long garbage", "data: " + strings.Repeat("x", 500)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := frame.Parse(tt.raw)
			require.ErrorIs(t, err, frame.ErrMalformed)
			assert.Nil(t, got)
			assert.Less(t, len(err.Error()), 120)
		})
	}
}

func TestDecodeAndParse(t *testing.T) {
	t.Parallel()
	body := "data: {\"type\":\"start\"}\n\n" +
		"data: {\"type\":\"chunk\",\"content\":\"The \"}\n\n" +
		"data: {\"type\":\"chunk\",\"content\":\"value is 1.\"}\n\n" +
		"data: {\"type\":\"complete\"}\n\n"
	d := frame.NewDecoder()

	var events []interpret.Event
	for i := 0; i < len(body); i += 7 {
		end := min(i+7, len(body))
		for _, f := range d.Decode([]byte(body[i:end])) {
			evt, err := frame.Parse(f)
			require.NoError(t, err)
			if evt != nil {
				events = append(events, evt)
			}
		}
	}

	assert.Equal(t, []interpret.Event{
		interpret.EventStart{},
		interpret.EventChunk{Content: "The "},
		interpret.EventChunk{Content: "value is 1."},
		interpret.EventComplete{},
	}, events)
	assert.Empty(t, d.Flush())
}

func TestEncode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "data: {\"type\":\"start\"}\n\n", frame.Encode(interpret.EventStart{}))
	assert.Equal(t, "data: {\"type\":\"chunk\",\"content\":\"a\\nb\"}\n\n", frame.Encode(interpret.EventChunk{Content: "a\nb"}))
	assert.Equal(t, "data: {\"type\":\"error\",\"content\":\"model unavailable\"}\n\n", frame.Encode(interpret.EventError{Message: "model unavailable"}))
	assert.Equal(t, "data: {\"type\":\"complete\"}\n\n", frame.Encode(interpret.EventComplete{}))
	assert.Empty(t, frame.Encode(nil))

	d := frame.NewDecoder()
	frames := d.Decode([]byte(frame.Encode(interpret.EventChunk{Content: "x\n\ny"})))
	require.Len(t, frames, 1)
	evt, err := frame.Parse(frames[0])
	require.NoError(t, err)
	assert.Equal(t, interpret.EventChunk{Content: "x\n\ny"}, evt)
}
