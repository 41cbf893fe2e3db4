package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/glyphcast/config"
	"go.jacobcolvin.com/glyphcast/media"
)

// run executes the root command with args and returns stdout, stderr and
// the command error.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	a := newApp(os.Stdin, &stdout, &stderr)
	a.getenv = func(string) string { return "" }

	root := a.command()
	root.SetArgs(args)

	err := root.ExecuteContext(t.Context())
	require.NoError(t, a.shutdown())

	return stdout.String(), stderr.String(), err
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)

	defer f.Close()

	require.NoError(t, png.Encode(f, img))
}

func TestResolveType(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		typ  string
		arg  string
		want string
	}{
		"camera index": {
			typ:  config.TypeAutoDetect,
			arg:  "0",
			want: config.TypeWebcam,
		},
		"camera device": {
			typ:  config.TypeAutoDetect,
			arg:  "/dev/video2",
			want: config.TypeWebcam,
		},
		"video extension": {
			typ:  config.TypeAutoDetect,
			arg:  "clip.MKV",
			want: config.TypeVideo,
		},
		"gif plays": {
			typ:  config.TypeAutoDetect,
			arg:  "loop.gif",
			want: config.TypeVideo,
		},
		"video container": {
			typ:  config.TypeAutoDetect,
			arg:  "clip.pv",
			want: config.TypeVideo,
		},
		"image extension": {
			typ:  config.TypeAutoDetect,
			arg:  "photo.jpg",
			want: config.TypeImage,
		},
		"unknown falls back to image": {
			typ:  config.TypeAutoDetect,
			arg:  "README",
			want: config.TypeImage,
		},
		"explicit type wins": {
			typ:  config.TypeVideoInfo,
			arg:  "clip.mp4",
			want: config.TypeVideoInfo,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, resolveType(tc.typ, tc.arg))
		})
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in   float64
		want string
	}{
		"unknown":  {in: 0, want: "unknown"},
		"seconds":  {in: 1.5, want: "0:00:01.500"},
		"minutes":  {in: 83.4567, want: "0:01:23.457"},
		"hours":    {in: 3723, want: "1:02:03.000"},
		"negative": {in: -2, want: "unknown"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, formatDuration(tc.in))
		})
	}
}

func TestPlayEnd(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		end      float64
		duration float64
		want     float64
	}{
		"unset uses duration":     {end: -1, duration: 12.5, want: 12.5},
		"zero uses duration":      {end: 0, duration: 12.5, want: 12.5},
		"inside duration":         {end: 4, duration: 12.5, want: 4},
		"past duration clamps":    {end: 30, duration: 12.5, want: 12.5},
		"unknown duration keeps":  {end: 4, duration: 0, want: 4},
		"unknown and unset stays": {end: -1, duration: 0, want: -1},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tc.want, playEnd(tc.end, tc.duration), 1e-9)
		})
	}
}

func TestWriteInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	err := writeInfo(&buf, "clip.mp4", media.Info{
		Width:    1920,
		Height:   1080,
		FPS:      30,
		Duration: 2,
		HasAudio: true,
	})
	require.NoError(t, err)

	want := "File:       clip.mp4\n" +
		"Resolution: 1920x1080\n" +
		"FPS:        30.000\n" +
		"Duration:   0:00:02.000\n" +
		"Frames:     60\n" +
		"Audio:      yes\n"
	assert.Equal(t, want, buf.String())
}

func TestTextCommand(t *testing.T) {
	t.Parallel()

	t.Run("literal", func(t *testing.T) {
		t.Parallel()

		out, _, err := run(t, "--type", "text", "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello\n", out)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "note.txt")
		require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0o600))

		out, _, err := run(t, "--type", "text", path)
		require.NoError(t, err)
		assert.Equal(t, "line one\nline two\n", out)
	})
}

func TestImageCommand(t *testing.T) {
	t.Parallel()

	t.Run("renders", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "white.png")
		writePNG(t, path, 8, 8, color.White)

		out, _, err := run(t, "image", "--parser", "opencv", "--mode", "bw_dot", "--max-width", "4", path)
		require.NoError(t, err)
		assert.Contains(t, out, "⣿")
		assert.NotContains(t, out, "Error:")
	})

	t.Run("error is rendered", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "missing.png")

		out, _, err := run(t, "image", "--parser", "opencv", path)
		require.Error(t, err)

		var reported *reportedError
		require.ErrorAs(t, err, &reported)
		assert.Contains(t, out, "Error: ")
	})
}

func TestExportRejectsWebcam(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, "export", "--format", "image", "webcam:0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "live source")
}

func TestSchemaCommand(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, "schema")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "properties")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Regexp(t, `^glyphcast \S+ \(`, out)
}

func TestConfigWarningsAreLogged(t *testing.T) {
	t.Parallel()

	_, stderr, err := run(t, "--type", "text", "--fps", "240", "--log-format", "logfmt", "hi")
	require.NoError(t, err)
	assert.Contains(t, stderr, "adjusted configuration")
}

func TestBadLogLevel(t *testing.T) {
	t.Parallel()

	_, _, err := run(t, "--log-level", "loud", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configure logging")
}
