package bubbletea

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// wrapCache memoizes wrapped paragraphs. Streaming only ever extends the
// last paragraph, so every earlier one is a hit. All entries are dropped
// when the width changes.
type wrapCache struct {
	entries map[string]string
	width   int
}

func newWrapCache() *wrapCache {
	return &wrapCache{entries: make(map[string]string)}
}

// wrapText soft-wraps plain text to width, paragraph by paragraph. Existing
// line breaks are kept.
func (c *wrapCache) wrapText(s string, width int) string {
	if width != c.width {
		c.entries = make(map[string]string)
		c.width = width
	}
	paras := strings.Split(s, "\n")
	for i, p := range paras {
		if w, ok := c.entries[p]; ok {
			paras[i] = w
			continue
		}
		w := strings.Join(wrap(p, width), "\n")
		c.entries[p] = w
		paras[i] = w
	}
	return strings.Join(paras, "\n")
}

// wrap fills lines greedily up to width cells, breaking at runs of
// whitespace. Leading indentation is kept; whitespace at a break is dropped.
// A word wider than width is split between grapheme clusters, so no line is
// wider than width unless a single cluster is.
func wrap(s string, width int) []string {
	if width <= 0 {
		return []string{s}
	}

	var (
		lines []string
		line  strings.Builder
		lineW int
		gap   string
	)
	put := func(tok string, w int) {
		line.WriteString(tok)
		lineW += w
	}
	newline := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineW = 0
	}

	for i, tok := range tokens(s) {
		if isBlank(tok) && i > 0 {
			gap = tok
			continue
		}
		w := uniseg.StringWidth(tok)
		gapW := 0
		if lineW > 0 {
			gapW = uniseg.StringWidth(gap)
		}
		switch {
		case lineW+gapW+w <= width:
			if lineW > 0 {
				put(gap, gapW)
			}
			put(tok, w)
		case w <= width:
			newline()
			put(tok, w)
		default:
			if lineW > 0 {
				newline()
			}
			state := -1
			for rest := tok; rest != ""; {
				var (
					cluster string
					cw      int
				)
				cluster, rest, cw, state = uniseg.FirstGraphemeClusterInString(rest, state)
				if lineW > 0 && lineW+cw > width {
					newline()
				}
				put(cluster, cw)
			}
		}
		gap = ""
	}
	lines = append(lines, strings.TrimRightFunc(line.String(), unicode.IsSpace))
	return lines
}

// tokens splits s into alternating runs of whitespace and non-whitespace
// grapheme clusters.
func tokens(s string) []string {
	var (
		out   []string
		start int
		blank bool
	)
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		from, _ := g.Positions()
		sp := unicode.IsSpace(g.Runes()[0])
		if from > 0 && sp != blank {
			out = append(out, s[start:from])
			start = from
		}
		blank = sp
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func isBlank(tok string) bool {
	return strings.TrimLeftFunc(tok, unicode.IsSpace) == ""
}
