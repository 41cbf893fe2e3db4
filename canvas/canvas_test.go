package canvas_test

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/glyph"
	"go.jacobcolvin.com/glyphcast/raster"
	"go.jacobcolvin.com/glyphcast/stringtest"
)

func noise(w, h int, f raster.Format) *raster.Frame {
	fr := raster.New(w, h, f)

	seed := uint32(7)
	for i := range fr.Pix {
		seed = seed*1664525 + 1013904223
		fr.Pix[i] = byte(seed >> 24)
	}

	return fr
}

func uniform(w, h int, c glyph.RGB) *raster.Frame {
	fr := raster.New(w, h, raster.RGB24)
	for i := 0; i < len(fr.Pix); i += 3 {
		fr.Pix[i], fr.Pix[i+1], fr.Pix[i+2] = c.R, c.G, c.B
	}

	return fr
}

func TestRenderShape(t *testing.T) {
	t.Parallel()

	sizes := map[string]struct {
		w, h int
	}{
		"aligned":   {w: 16, h: 16},
		"odd width": {w: 15, h: 16},
		"odd rows":  {w: 16, h: 13},
		"tiny":      {w: 1, h: 1},
	}

	for _, mode := range canvas.Modes() {
		for sizeName, size := range sizes {
			t.Run(mode+"/"+sizeName, func(t *testing.T) {
				t.Parallel()

				m, err := canvas.ParseMode(mode)
				require.NoError(t, err)

				c, err := canvas.New(m, canvas.Options{Truecolor: true})
				require.NoError(t, err)

				require.NoError(t, c.LoadFrame(noise(size.w, size.h, m.PixelFormat()), canvas.DefaultParams()))

				wantW := (size.w + m.DotsX() - 1) / m.DotsX()
				wantH := (size.h + m.DotsY() - 1) / m.DotsY()
				assert.Equal(t, wantW, c.CharWidth())
				assert.Equal(t, wantH, c.CharHeight())

				out := string(c.Render(nil))
				rows := stringtest.Rows(out)
				require.Len(t, rows, wantH)

				for _, row := range rows {
					assert.Regexp(t, "\x1b\\[0m$", row)
					assert.Equal(t, wantW, utf8.RuneCountInString(stringtest.StripSGR(row)))
				}
			})
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	for _, mode := range canvas.Modes() {
		t.Run(mode, func(t *testing.T) {
			t.Parallel()

			m := canvas.Mode(mode)
			f := noise(20, 12, m.PixelFormat())

			a, err := canvas.New(m, canvas.Options{})
			require.NoError(t, err)

			b, err := canvas.New(m, canvas.Options{})
			require.NoError(t, err)

			require.NoError(t, a.LoadFrame(f, canvas.DefaultParams()))
			require.NoError(t, b.LoadFrame(f.Clone(), canvas.DefaultParams()))

			first := a.Render(nil)
			assert.Equal(t, first, b.Render(nil))

			// Reloading the same frame reuses the grid and gives the same bytes.
			require.NoError(t, a.LoadFrame(f, canvas.DefaultParams()))
			assert.Equal(t, first, a.Render(nil))
		})
	}
}

func TestBrailleRender(t *testing.T) {
	t.Parallel()

	f := raster.New(4, 4, raster.Gray8)
	for i := range f.Pix {
		f.Pix[i] = 80
	}

	c, err := canvas.New(canvas.ModeBWDithered, canvas.Options{})
	require.NoError(t, err)
	require.NoError(t, c.LoadFrame(f, canvas.DefaultParams()))

	assert.Equal(t, "⡃⡃\x1b[0m\n", string(c.Render(nil)))
}

func TestDitheringOverride(t *testing.T) {
	t.Parallel()

	f := raster.New(2, 4, raster.Gray8)
	for i := range f.Pix {
		f.Pix[i] = 80
	}

	tcs := map[string]struct {
		dithering canvas.Dithering
		want      uint8
	}{
		"none thresholds": {dithering: canvas.DitherNone, want: 0x00},
		"ordered":         {dithering: canvas.DitherOrdered, want: 0x43},
		"floyd":           {dithering: canvas.DitherFloydSteinberg, want: 0},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := canvas.NewBrailleCanvas(canvas.ModeBWDithered, false, false)

			p := canvas.DefaultParams()
			p.Dithering = tc.dithering

			require.NoError(t, c.LoadFrame(f, p))

			got := c.Pattern(0, 0)
			if tc.dithering == canvas.DitherFloydSteinberg {
				// 80/255 of eight dots rounds to two or three lit dots.
				assert.InDelta(t, 2.5, float64(popcount(got)), 1)

				return
			}

			assert.Equal(t, tc.want, got)
		})
	}
}

func popcount(v uint8) int {
	n := 0
	for ; v != 0; v &= v - 1 {
		n++
	}

	return n
}

func TestShadedRunLength(t *testing.T) {
	t.Parallel()

	f := raster.New(8, 4, raster.Gray8)
	for i := range f.Pix {
		f.Pix[i] = 200
	}

	tcs := map[string]struct {
		truecolor bool
		wantSGR   string
	}{
		"truecolor": {truecolor: true, wantSGR: "\x1b[38;2;200;200;200m"},
		"ansi 256":  {truecolor: false, wantSGR: "\x1b[38;5;250m"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c, err := canvas.New(canvas.ModeFloodDot, canvas.Options{Truecolor: tc.truecolor})
			require.NoError(t, err)
			require.NoError(t, c.LoadFrame(f, canvas.DefaultParams()))

			out := string(c.Render(nil))
			assert.Equal(t, tc.wantSGR+"⣿⣿⣿⣿\x1b[0m\n", out)
		})
	}
}

func TestColoredBrailleRunLength(t *testing.T) {
	t.Parallel()

	f := uniform(8, 8, glyph.RGB{R: 200, G: 10, B: 10})

	c, err := canvas.New(canvas.ModeFloodDotColored, canvas.Options{})
	require.NoError(t, err)
	require.NoError(t, c.LoadFrame(f, canvas.DefaultParams()))

	out := string(c.Render(nil))
	// One color SGR and one reset per row.
	assert.Equal(t, 4, stringtest.CountSGR(out))
	assert.Equal(t, stringtest.JoinLF(
		"\x1b[38;2;200;10;10m⣿⣿⣿⣿\x1b[0m",
		"\x1b[38;2;200;10;10m⣿⣿⣿⣿\x1b[0m",
	)+"\n", out)
}

func TestColoredDot(t *testing.T) {
	t.Parallel()

	f := raster.New(2, 4, raster.RGB24)
	copy(f.Pix, []byte{250, 250, 250})

	c := canvas.NewColoredBrailleCanvas(canvas.ModeColoredDot)
	require.NoError(t, c.LoadFrame(f, canvas.DefaultParams()))

	p, fg := c.Cell(0, 0)
	assert.Equal(t, uint8(0x01), p)
	assert.Equal(t, glyph.GrayRGB(250), fg)
}

func TestHalfBlockGray(t *testing.T) {
	t.Parallel()

	f := raster.New(2, 3, raster.Gray8)
	copy(f.Pix, []byte{0, 255, 128, 128, 10, 20})

	tcs := map[string]struct {
		truecolor bool
		invert    bool
		want      string
	}{
		"ansi 256": {
			want: stringtest.JoinLF(
				"\x1b[38;5;232m\x1b[48;5;243m▀\x1b[38;5;255m▀\x1b[0m",
				"\x1b[38;5;232m\x1b[48;5;232m▀\x1b[38;5;233m▀\x1b[0m",
			) + "\n",
		},
		"truecolor": {
			truecolor: true,
			want: stringtest.JoinLF(
				"\x1b[38;2;0;0;0m\x1b[48;2;128;128;128m▀\x1b[38;2;255;255;255m▀\x1b[0m",
				"\x1b[38;2;10;10;10m\x1b[48;2;0;0;0m▀\x1b[38;2;20;20;20m▀\x1b[0m",
			) + "\n",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := canvas.NewHalfBlockGrayCanvas(tc.truecolor)
			require.NoError(t, c.LoadFrame(f, canvas.Params{Invert: tc.invert}))

			assert.Equal(t, tc.want, string(c.Render(nil)))
			assert.Equal(t, canvas.GrayPair{Top: 0, Bottom: 128}, c.Cells()[0])
		})
	}
}

func TestHalfBlockColor(t *testing.T) {
	t.Parallel()

	f := raster.New(2, 2, raster.RGB24)
	copy(f.Pix, []byte{
		1, 2, 3, 1, 2, 3,
		4, 5, 6, 7, 8, 9,
	})

	c := canvas.NewHalfBlockColorCanvas()
	require.NoError(t, c.LoadFrame(f, canvas.Params{}))

	want := "\x1b[38;2;1;2;3m\x1b[48;2;4;5;6m▀\x1b[48;2;7;8;9m▀\x1b[0m\n"
	assert.Equal(t, want, string(c.Render(nil)))
}

func TestShardedAcceleratorMatchesSerial(t *testing.T) {
	t.Parallel()

	f := noise(64, 49, raster.RGB24)

	serial := canvas.NewHalfBlockColorCanvas()
	require.NoError(t, serial.LoadFrame(f, canvas.Params{}))

	cells := make([]canvas.ColorPair, len(serial.Cells()))
	a := &canvas.ShardedAccelerator{Workers: 3}
	a.LoadColorPairs(f, cells, serial.CharWidth(), serial.CharHeight())

	assert.Equal(t, serial.Cells(), cells)
}

func TestLoadFrameErrors(t *testing.T) {
	t.Parallel()

	c, err := canvas.New(canvas.ModeBWDot, canvas.Options{})
	require.NoError(t, err)

	err = c.LoadFrame(&raster.Frame{Width: 2, Height: 2, Format: raster.Gray8, Pix: make([]byte, 3)}, canvas.Params{})
	require.ErrorIs(t, err, raster.ErrSize)

	err = c.LoadFrame(nil, canvas.Params{})
	require.ErrorIs(t, err, raster.ErrSize)

	_, err = canvas.New("nope", canvas.Options{})
	require.ErrorIs(t, err, canvas.ErrUnknownMode)
}

func TestParse(t *testing.T) {
	t.Parallel()

	m, err := canvas.ParseMode("COLORED_DOT")
	require.NoError(t, err)
	assert.Equal(t, canvas.ModeColoredDot, m)
	assert.True(t, m.Colored())
	assert.False(t, m.HalfBlock())
	assert.Equal(t, raster.RGB24, m.PixelFormat())

	assert.True(t, canvas.ModeBW.HalfBlock())
	assert.Equal(t, raster.Gray8, canvas.ModeBW.PixelFormat())
	assert.Equal(t, 2, canvas.ModeBW.DotsY())

	d, err := canvas.ParseDithering("floyd_steinberg")
	require.NoError(t, err)
	assert.Equal(t, canvas.DitherFloydSteinberg, d)

	_, err = canvas.ParseDithering("random")
	require.ErrorIs(t, err, canvas.ErrUnknownDithering)
	assert.Len(t, canvas.Modes(), 9)
}
