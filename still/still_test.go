package still_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/glyph"
	"go.jacobcolvin.com/glyphcast/media"
	"go.jacobcolvin.com/glyphcast/raster"
	"go.jacobcolvin.com/glyphcast/still"
	"go.jacobcolvin.com/glyphcast/stringtest"
)

func writePGM(t *testing.T, dir string, w, h int, px func(x, y int) uint8) string {
	t.Helper()

	f := raster.New(w, h, raster.Gray8)
	for y := range h {
		for x := range w {
			f.Pix[y*w+x] = px(x, y)
		}
	}

	var buf bytes.Buffer

	require.NoError(t, raster.EncodeNetpbm(&buf, f))

	path := filepath.Join(dir, "img.pgm")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	return path
}

func TestRenderUniformOrdered(t *testing.T) {
	t.Parallel()

	path := writePGM(t, t.TempDir(), 8, 8, func(_, _ int) uint8 { return 80 })

	r := still.NewRenderer(still.NativeLoader{}, canvas.ModeBWDithered, 4)

	out, err := r.Render(t.Context(), path)
	require.NoError(t, err)

	rows := stringtest.Rows(string(out))
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.Equal(t, strings.Repeat("⡃", 4), stringtest.StripSGR(row))
		assert.True(t, strings.HasSuffix(row, "\x1b[0m"))
	}
}

func TestRenderThresholdGradient(t *testing.T) {
	t.Parallel()

	// Columns 0-3 dark, 4-7 bright: the left two cells are blank and the
	// right two are fully lit.
	path := writePGM(t, t.TempDir(), 8, 4, func(x, _ int) uint8 {
		if x < 4 {
			return 10
		}

		return 250
	})

	r := still.NewRenderer(still.NativeLoader{}, canvas.ModeBWDot, 4)

	out, err := r.Render(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, "⠀⠀⣿⣿\x1b[0m\n", string(out))
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "grad.png")

	img := image.NewNRGBA(image.Rect(0, 0, 40, 24))
	for y := range 24 {
		for x := range 40 {
			img.Set(x, y, color.NRGBA{R: uint8(x * 6), G: uint8(y * 10), B: 128, A: 255})
		}
	}

	fh, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(fh, img))
	require.NoError(t, fh.Close())

	for _, mode := range canvas.Modes() {
		t.Run(mode, func(t *testing.T) {
			t.Parallel()

			m, err := canvas.ParseMode(mode)
			require.NoError(t, err)

			r := still.NewRenderer(still.NativeLoader{}, m, 20)

			a, err := r.Render(t.Context(), path)
			require.NoError(t, err)

			b, err := r.Render(t.Context(), path)
			require.NoError(t, err)

			assert.Equal(t, a, b)

			f, err := r.Load(t.Context(), path)
			require.NoError(t, err)
			assert.Equal(t, 20*m.DotsX(), f.Width)
			assert.Equal(t, m.PixelFormat(), f.Format)

			rows := stringtest.Rows(string(a))
			assert.Len(t, rows, (f.Height+m.DotsY()-1)/m.DotsY())
		})
	}
}

func TestRenderContainer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writePGM(t, dir, 4, 4, func(_, _ int) uint8 { return 255 })
	packed := filepath.Join(dir, "img.pi")
	require.NoError(t, media.Pack(path, packed))

	r := still.NewRenderer(still.NativeLoader{}, canvas.ModeBWDot, 2)

	out, err := r.Render(t.Context(), packed)
	require.NoError(t, err)
	assert.Equal(t, "⣿⣿\x1b[0m\n", string(out))
}

func TestRenderErrors(t *testing.T) {
	t.Parallel()

	r := still.NewRenderer(still.NativeLoader{}, canvas.ModeBWDot, 10)

	_, err := r.Render(t.Context(), filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorIs(t, err, still.ErrLoad)

	bad := filepath.Join(t.TempDir(), "bad.pgm")
	require.NoError(t, os.WriteFile(bad, []byte("P5\n"), 0o600))

	_, err = r.Render(t.Context(), bad)
	require.ErrorIs(t, err, still.ErrLoad)

	conv := still.ConvertLoader{Bin: "glyphcast-no-such-convert"}
	_, err = conv.Load(t.Context(), bad, 10, raster.Gray8)
	require.ErrorIs(t, err, media.ErrToolMissing)
}

func TestConvertArgs(t *testing.T) {
	t.Parallel()

	l := still.ConvertLoader{Bin: "convert"}

	assert.Equal(t,
		[]string{"in.jpg", "-resize", "160x", "-depth", "8", "ppm:-"},
		l.Args("in.jpg", 160))
	assert.Equal(t,
		[]string{"in.jpg", "-resize", "80x", "-depth", "8", "ppm:-"},
		l.Args("in.jpg", 80))
}

// writeFakeConvert installs a convert stand-in that ignores its arguments
// and prints a 2x4 pure red PPM.
func writeFakeConvert(t *testing.T, dir string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	script := "#!/bin/sh\n" +
		"printf 'P6\\n2 4\\n255\\n'\n" +
		"i=0\n" +
		"while [ $i -lt 8 ]; do printf '\\377\\000\\000'; i=$((i+1)); done\n"

	path := filepath.Join(dir, "fake-convert")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o700)) //nolint:gosec // Test helper must be executable.

	return path
}

// redLoader serves an in-memory RGB frame in the requested format.
type redLoader struct{}

func (redLoader) Load(_ context.Context, _ string, width int, format raster.Format) (*raster.Frame, error) {
	f := raster.New(width, 4, raster.RGB24)
	for i := 0; i < len(f.Pix); i += 3 {
		f.Pix[i] = 255
	}

	return f.Convert(format), nil
}

func TestGrayFromColorInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	red := filepath.Join(dir, "red.png")
	img := image.NewNRGBA(image.Rect(0, 0, 2, 4))
	for y := range 4 {
		for x := range 2 {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}

	fh, err := os.Create(red)
	require.NoError(t, err)
	require.NoError(t, png.Encode(fh, img))
	require.NoError(t, fh.Close())

	// (77*255 + 150*0 + 29*0) >> 8; Rec.709 luma would give 54.
	want := glyph.Gray(255, 0, 0)
	require.Equal(t, uint8(76), want)

	tcs := map[string]struct {
		loader func(t *testing.T) still.Loader
	}{
		"convert": {
			loader: func(t *testing.T) still.Loader {
				t.Helper()

				return still.ConvertLoader{Bin: writeFakeConvert(t, t.TempDir())}
			},
		},
		"native": {
			loader: func(*testing.T) still.Loader { return still.NativeLoader{} },
		},
		"in memory": {
			loader: func(*testing.T) still.Loader { return redLoader{} },
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := still.NewRenderer(tc.loader(t), canvas.ModeBWDot, 1)

			f, err := r.Load(t.Context(), red)
			require.NoError(t, err)
			require.Equal(t, raster.Gray8, f.Format)
			assert.Equal(t, bytes.Repeat([]byte{want}, 8), f.Pix)

			r.Params.Threshold = want

			out, err := r.Render(t.Context(), red)
			require.NoError(t, err)
			assert.Equal(t, "⣿\x1b[0m\n", string(out))

			r.Params.Threshold = want + 1

			out, err = r.Render(t.Context(), red)
			require.NoError(t, err)
			assert.Equal(t, "⠀\x1b[0m\n", string(out))
		})
	}
}

func TestRenderDiagonalGradient(t *testing.T) {
	t.Parallel()

	const size = 160

	level := func(x, y int) uint8 { return uint8((x + y) % 256) }

	f := raster.New(size, size, raster.RGB24)
	for y := range size {
		for x := range size {
			v := level(x, y)
			i := (y*size + x) * 3
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = v, v, v
		}
	}

	var buf bytes.Buffer

	require.NoError(t, raster.EncodeNetpbm(&buf, f))

	path := filepath.Join(t.TempDir(), "diagonal.ppm")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	r := still.NewRenderer(still.NativeLoader{}, canvas.ModeBWDot, 80)

	out, err := r.Render(t.Context(), path)
	require.NoError(t, err)

	rows := stringtest.Rows(string(out))
	require.Len(t, rows, 40)

	for cy, row := range rows {
		cells := []rune(stringtest.StripSGR(row))
		require.Len(t, cells, 80, "row %d", cy)

		for cx, got := range cells {
			var p uint8

			for dy := range glyph.BrailleDotsY {
				for dx := range glyph.BrailleDotsX {
					if level(cx*2+dx, cy*4+dy) >= 128 {
						p |= glyph.DotBits[dy][dx]
					}
				}
			}

			require.Equal(t, rune(glyph.BrailleBase+int(p)), got, "cell (%d,%d)", cx, cy)
		}
	}

	// Sums 126..130 straddle the threshold; past 255 the levels wrap dark.
	first := []rune(stringtest.StripSGR(rows[0]))
	assert.Equal(t, '⠀', first[0])
	assert.Equal(t, rune(0x28F4), first[63])
	assert.Equal(t, '⠀', []rune(stringtest.StripSGR(rows[39]))[79])
}

func TestNewLoader(t *testing.T) {
	t.Parallel()

	assert.IsType(t, still.NativeLoader{}, still.NewLoader(still.ParserOpenCV))
	assert.IsType(t, still.ConvertLoader{}, still.NewLoader(still.ParserDefault))
	assert.Equal(t, []string{"default", "opencv"}, still.Parsers())
}
