package rasterize

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"go.jacobcolvin.com/glyphcast/glyph"
)

// Cell is one parsed glyph with the colors in effect when it was printed.
type Cell struct {
	FG, BG glyph.RGB
	Rune   rune
}

// sgrState tracks the current colors while scanning rendered text.
type sgrState struct {
	fg, bg       glyph.RGB
	defFG, defBG glyph.RGB
}

func (s *sgrState) reset() {
	s.fg, s.bg = s.defFG, s.defBG
}

// apply interprets the parameter list of one SGR sequence. Unknown
// parameters are skipped.
func (s *sgrState) apply(params string) {
	if params == "" {
		s.reset()

		return
	}

	fields := strings.Split(params, ";")

	num := func(i int) (int, bool) {
		if i >= len(fields) {
			return 0, false
		}

		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return 0, false
		}

		return n, true
	}

	for i := 0; i < len(fields); i++ {
		code, ok := num(i)
		if !ok {
			if fields[i] == "" {
				s.reset()
			}

			continue
		}

		switch code {
		case 0:
			s.reset()
		case 39:
			s.fg = s.defFG
		case 49:
			s.bg = s.defBG
		case 38, 48:
			c, consumed, ok := extendedColor(num, i+1)
			i += consumed

			if !ok {
				continue
			}

			if code == 38 {
				s.fg = c
			} else {
				s.bg = c
			}
		}
	}
}

// extendedColor decodes "5;N" or "2;R;G;B" starting at field i and reports
// how many fields it consumed.
func extendedColor(num func(int) (int, bool), i int) (glyph.RGB, int, bool) {
	kind, ok := num(i)
	if !ok {
		return glyph.RGB{}, 0, false
	}

	switch kind {
	case 5:
		n, ok := num(i + 1)
		if !ok || n < 0 || n > 255 {
			return glyph.RGB{}, 2, false
		}

		return glyph.Palette256(uint8(n)), 2, true
	case 2:
		r, okR := num(i + 1)
		g, okG := num(i + 2)
		b, okB := num(i + 3)

		if !okR || !okG || !okB {
			return glyph.RGB{}, 4, false
		}

		return glyph.RGB{R: clamp8(r), G: clamp8(g), B: clamp8(b)}, 4, true
	}

	return glyph.RGB{}, 1, false
}

func clamp8(v int) uint8 {
	return uint8(max(0, min(255, v)))
}

// Parse splits rendered text into lines of colored cells. SGR sequences
// update the current colors; other escape sequences are dropped. The state
// starts at (and resets to) fg and bg.
func Parse(text []byte, fg, bg glyph.RGB) [][]Cell {
	st := sgrState{fg: fg, bg: bg, defFG: fg, defBG: bg}

	var (
		lines [][]Cell
		line  []Cell
	)

	for i := 0; i < len(text); {
		b := text[i]

		switch {
		case b == '\x1b':
			i = skipEscape(text, i, &st)

			continue
		case b == '\n':
			lines = append(lines, line)
			line = nil
			i++

			continue
		case b == '\r':
			i++

			continue
		}

		r, size := utf8.DecodeRune(text[i:])
		i += size

		line = append(line, Cell{Rune: r, FG: st.fg, BG: st.bg})
	}

	if len(line) > 0 {
		lines = append(lines, line)
	}

	return lines
}

// skipEscape consumes the escape sequence at text[i], applying it when it is
// an SGR, and returns the index after it.
func skipEscape(text []byte, i int, st *sgrState) int {
	if i+1 >= len(text) || text[i+1] != '[' {
		return i + 1
	}

	j := i + 2
	for j < len(text) && text[j] >= 0x30 && text[j] <= 0x3F {
		j++
	}

	// Intermediate bytes.
	for j < len(text) && text[j] >= 0x20 && text[j] <= 0x2F {
		j++
	}

	if j >= len(text) {
		return j
	}

	if text[j] == 'm' {
		st.apply(string(text[i+2 : j]))
	}

	return j + 1
}
