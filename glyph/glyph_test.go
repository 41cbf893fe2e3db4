package glyph_test

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/glyphcast/glyph"
)

func TestBraille(t *testing.T) {
	t.Parallel()

	for p := range 256 {
		enc := glyph.Braille(uint8(p))

		r, size := utf8.DecodeRune(enc[:])
		require.Equal(t, 3, size)
		assert.Equal(t, rune(glyph.BrailleBase+p), r)

		got, ok := glyph.BraillePattern(r)
		require.True(t, ok)
		assert.Equal(t, uint8(p), got)
	}

	_, ok := glyph.BraillePattern('a')
	assert.False(t, ok)
}

func TestDotBits(t *testing.T) {
	t.Parallel()

	var all uint8

	for row := range glyph.BrailleDotsY {
		for col := range glyph.BrailleDotsX {
			bit := glyph.DotBits[row][col]
			assert.Zero(t, all&bit, "bit reused at (%d,%d)", row, col)

			all |= bit
		}
	}

	assert.Equal(t, uint8(0xFF), all)
	assert.Equal(t, uint8(0x40), glyph.DotBits[3][0])
	assert.Equal(t, uint8(0x08), glyph.DotBits[0][1])
}

func TestAppendSGR(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		fn   func([]byte) []byte
		want string
	}{
		"fg truecolor": {
			fn:   func(b []byte) []byte { return glyph.AppendFG(b, glyph.RGB{R: 255, G: 7, B: 10}) },
			want: "\x1b[38;2;255;7;10m",
		},
		"bg truecolor": {
			fn:   func(b []byte) []byte { return glyph.AppendBG(b, glyph.RGB{}) },
			want: "\x1b[48;2;0;0;0m",
		},
		"fg 256": {
			fn:   func(b []byte) []byte { return glyph.AppendFG256(b, 232) },
			want: "\x1b[38;5;232m",
		},
		"bg 256": {
			fn:   func(b []byte) []byte { return glyph.AppendBG256(b, 9) },
			want: "\x1b[48;5;9m",
		},
		"row end": {
			fn:   glyph.AppendRowEnd,
			want: "\x1b[0m\n",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := tc.fn([]byte("x"))
			assert.Equal(t, "x"+tc.want, string(got))
		})
	}
}

//nolint:paralleltest // AllocsPerRun counts process-wide allocations.
func TestAppendNoAlloc(t *testing.T) {
	buf := make([]byte, 0, 256)
	allocs := testing.AllocsPerRun(100, func() {
		b := buf[:0]
		b = glyph.AppendFG(b, glyph.RGB{R: 1, G: 22, B: 133})
		b = glyph.AppendBG256(b, 200)
		b = glyph.AppendBraille(b, 0x43)
		_ = glyph.AppendRowEnd(b)
	})

	assert.Zero(t, allocs)
}

func TestGray(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in   glyph.RGB
		want uint8
	}{
		"black": {in: glyph.RGB{}, want: 0},
		"white": {in: glyph.White, want: 255},
		"red":   {in: glyph.RGB{R: 255}, want: 76},
		"green": {in: glyph.RGB{G: 255}, want: 149},
		"blue":  {in: glyph.RGB{B: 255}, want: 28},
		"mid":   {in: glyph.GrayRGB(128), want: 128},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.in.Gray())
		})
	}
}

func TestPalette256(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		index uint8
		want  glyph.RGB
	}{
		"basic black":  {index: 0, want: glyph.RGB{}},
		"basic silver": {index: 7, want: glyph.RGB{R: 192, G: 192, B: 192}},
		"basic white":  {index: 15, want: glyph.White},
		"cube origin":  {index: 16, want: glyph.RGB{}},
		"cube blue 1":  {index: 17, want: glyph.RGB{B: 95}},
		"cube red max": {index: 196, want: glyph.RGB{R: 255}},
		"cube white":   {index: 231, want: glyph.White},
		"gray ramp lo": {index: 232, want: glyph.GrayRGB(8)},
		"gray ramp hi": {index: 255, want: glyph.GrayRGB(238)},
		"cube mixed":   {index: 16 + 36*1 + 6*2 + 3, want: glyph.RGB{R: 95, G: 135, B: 175}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, glyph.Palette256(tc.index))
		})
	}
}

func TestBlend(t *testing.T) {
	t.Parallel()

	assert.Equal(t, glyph.GrayRGB(128), glyph.Blend(glyph.White, glyph.Black, 128))
	assert.Equal(t, glyph.GrayRGB(64), glyph.Blend(glyph.White, glyph.Black, 64))
	assert.Equal(t, glyph.White, glyph.Blend(glyph.White, glyph.Black, 255))
	assert.Equal(t, uint8(232), glyph.Gray256(0))
	assert.Equal(t, uint8(255), glyph.Gray256(255))
}
