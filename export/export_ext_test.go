package export_test

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/export"
	"go.jacobcolvin.com/glyphcast/media"
	"go.jacobcolvin.com/glyphcast/rasterize"
	"go.jacobcolvin.com/glyphcast/still"
)

func writeGray(t *testing.T, path string, w, h int, v uint8) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}

	require.NoError(t, rasterize.WritePNG(path, img))
}

func readPNG(t *testing.T, path string) image.Image {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)

	defer func() { require.NoError(t, f.Close()) }()

	img, err := png.Decode(f)
	require.NoError(t, err)

	return img
}

func newEngine(t *testing.T) *export.Engine {
	t.Helper()

	e := export.New(media.DefaultTools(), still.NativeLoader{})
	e.TempRoot = t.TempDir()

	return e
}

func TestNewPlan(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		info media.Info
		job  export.Job
		want export.Plan
	}{
		"source rate": {
			info: media.Info{FPS: 30, Duration: 5},
			job:  export.Job{Start: -1, End: -1},
			want: export.Plan{FPS: 30, Period: time.Second / 30, Duration: 5, Frames: 150},
		},
		"explicit rate and clip": {
			info: media.Info{FPS: 30, Duration: 60},
			job:  export.Job{FPS: 10, Start: 10, End: 12.5},
			want: export.Plan{FPS: 10, Period: 100 * time.Millisecond, Duration: 2.5, Frames: 25},
		},
		"end past duration": {
			info: media.Info{FPS: 25, Duration: 2},
			job:  export.Job{Start: -1, End: 10},
			want: export.Plan{FPS: 25, Period: 40 * time.Millisecond, Duration: 2, Frames: 50},
		},
		"unknown rate and duration": {
			job:  export.Job{Start: -1, End: -1},
			want: export.Plan{FPS: export.DefaultFPS, Period: time.Second / 30},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, export.NewPlan(tc.info, tc.job))
		})
	}
}

func TestTempRoot(t *testing.T) {
	t.Parallel()

	assert.Equal(t, os.TempDir(), export.TempRoot(0))
	assert.Equal(t, os.TempDir(), export.TempRoot(5000))

	short := export.TempRoot(10)
	if runtime.GOOS == "linux" {
		if st, err := os.Stat("/dev/shm"); err == nil && st.IsDir() {
			assert.Equal(t, "/dev/shm", short)

			return
		}
	}

	assert.Equal(t, os.TempDir(), short)
}

func TestParseEncoders(t *testing.T) {
	t.Parallel()

	out := []byte(`Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC
 V....D h264_qsv             H.264 / AVC / MPEG-4 AVC (Intel Quick Sync Video acceleration)
 V....D h264_vaapi           H.264/AVC (VAAPI)
 A....D aac                  AAC (Advanced Audio Coding)
`)

	got := export.ParseEncoders(out)
	assert.True(t, got["libx264"])
	assert.True(t, got["h264_qsv"])
	assert.True(t, got["aac"])
	assert.False(t, got["="])
	assert.False(t, got["h264_nvenc"])

	assert.Equal(t, "h264_qsv", export.PickEncoder(got))
	assert.Equal(t, "h264_nvenc", export.PickEncoder(map[string]bool{"h264_nvenc": true, "h264_qsv": true}))
	assert.Equal(t, export.SoftwareEncoder, export.PickEncoder(map[string]bool{"libx264": true}))
}

func TestExtractArgs(t *testing.T) {
	t.Parallel()

	got := export.ExtractArgs("in.mp4", "/tmp/job", 24, media.TrimArgs(2, 4))
	assert.Equal(t, []string{
		"-nostdin", "-v", "error", "-y",
		"-ss", "2.000", "-t", "2.000",
		"-i", "in.mp4", "-an", "-vf", "fps=24",
		"-start_number", "1", "/tmp/job/frame_%05d.png",
	}, got)
}

func TestEncodeArgs(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		opts export.EncodeOptions
		want string
	}{
		"software": {
			opts: export.EncodeOptions{Dir: "/d", FPS: 29.97, Codec: "libx264", Output: "o.mp4"},
			want: "-nostdin -v error -y -framerate 29.97 -i /d/ascii_%05d.png " +
				"-vf scale=trunc(iw/2)*2:trunc(ih/2)*2 -c:v libx264 -pix_fmt yuv420p o.mp4",
		},
		"audio": {
			opts: export.EncodeOptions{
				Dir: "/d", FPS: 30, Codec: "h264_nvenc", Output: "o.mp4",
				AudioInput: "in.mkv", AudioTrim: []string{"-ss", "1.000"},
			},
			want: "-nostdin -v error -y -framerate 30 -i /d/ascii_%05d.png " +
				"-ss 1.000 -i in.mkv -map 0:v:0 -map 1:a:0? " +
				"-vf scale=trunc(iw/2)*2:trunc(ih/2)*2 -c:v h264_nvenc -pix_fmt yuv420p " +
				"-c:a aac -shortest o.mp4",
		},
		"vaapi": {
			opts: export.EncodeOptions{Dir: "/d", FPS: 30, Codec: "h264_vaapi", Output: "o.mp4"},
			want: "-nostdin -v error -y -vaapi_device /dev/dri/renderD128 -framerate 30 -i /d/ascii_%05d.png " +
				"-vf scale=trunc(iw/2)*2:trunc(ih/2)*2,format=nv12,hwupload -c:v h264_vaapi o.mp4",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, strings.Join(export.EncodeArgs(tc.opts), " "))
		})
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := export.ParseFormat("Video")
	require.NoError(t, err)
	assert.Equal(t, export.FormatVideo, f)

	_, err = export.ParseFormat("gif")
	require.ErrorIs(t, err, export.ErrFormat)

	assert.Equal(t, []string{"text", "image", "video", "pythonic"}, export.Formats())
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		job  export.Job
		want string
	}{
		"explicit": {job: export.Job{Input: "a.png", Output: "b.txt", Format: export.FormatImage}, want: "b.txt"},
		"text":     {job: export.Job{Input: "dir/a.png", Format: export.FormatText}, want: "dir/a.txt"},
		"image":    {job: export.Job{Input: "a.jpg", Format: export.FormatImage}, want: "a.png"},
		"video":    {job: export.Job{Input: "a.mp4", Format: export.FormatVideo}, want: "a_glyph.mp4"},
		"pi":       {job: export.Job{Input: "a.jpg", Format: export.FormatPythonic}, want: "a.pi"},
		"pv":       {job: export.Job{Input: "a.mp4", Format: export.FormatPythonic}, want: "a.pv"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.job.OutputPath())
		})
	}
}

func TestCountFrames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for i := 1; i <= 3; i++ {
		writeGray(t, filepath.Join(dir, fmt.Sprintf("frame_%05d.png", i)), 2, 2, 0)
	}

	writeGray(t, filepath.Join(dir, "ascii_00001.png"), 2, 2, 0)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_notes.txt"), nil, 0o600))

	n, err := export.CountFrames(dir, "frame_")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = export.CountFrames(filepath.Join(dir, "missing"), "frame_")
	require.Error(t, err)
}

func TestRenderFramesFastPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	levels := []uint8{0, 60, 120, 180, 240}

	for i, v := range levels {
		writeGray(t, filepath.Join(dir, fmt.Sprintf("frame_%05d.png", i+1)), 8, 8, v)
	}

	e := newEngine(t)
	e.RenderWorkers = 3
	e.RasterWorkers = 2

	job := export.Job{
		Mode:     canvas.ModeBW,
		Params:   canvas.DefaultParams(),
		MaxWidth: 8,
		DotSize:  1,
		Density:  1,
	}

	require.NoError(t, e.RenderFrames(t.Context(), job, dir, len(levels)))

	for i, v := range levels {
		img := readPNG(t, filepath.Join(dir, fmt.Sprintf("ascii_%05d.png", i+1)))
		assert.Equal(t, image.Rect(0, 0, 8, 8), img.Bounds())

		g := color.GrayModel.Convert(img.At(3, 5)).(color.Gray)
		assert.Equal(t, v, g.Y, "frame %d", i+1)
	}
}

func TestRenderFramesBraille(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for i := 1; i <= 4; i++ {
		writeGray(t, filepath.Join(dir, fmt.Sprintf("frame_%05d.png", i)), 16, 16, 255)
	}

	e := newEngine(t)
	job := export.Job{
		Mode:     canvas.ModeBWDot,
		Params:   canvas.DefaultParams(),
		MaxWidth: 4,
	}

	require.NoError(t, e.RenderFrames(t.Context(), job, dir, 4))

	n, err := export.CountFrames(dir, "ascii_")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	// 4x2 Braille cells at the default 12x24 cell size.
	img := readPNG(t, filepath.Join(dir, "ascii_00004.png"))
	assert.Equal(t, image.Rect(0, 0, 48, 48), img.Bounds())
}

func TestRenderFramesMissingFrame(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeGray(t, filepath.Join(dir, "frame_00001.png"), 8, 8, 0)

	e := newEngine(t)
	job := export.Job{Mode: canvas.ModeBW, Params: canvas.DefaultParams(), MaxWidth: 8}

	err := e.RenderFrames(t.Context(), job, dir, 3)
	require.ErrorIs(t, err, still.ErrLoad)
}

func TestRunStill(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	writeGray(t, src, 8, 8, 200)

	e := newEngine(t)

	r := still.NewRenderer(still.NativeLoader{}, canvas.ModeBWDot, 4)
	want, err := r.Render(t.Context(), src)
	require.NoError(t, err)

	tcs := map[string]struct {
		check  func(t *testing.T, path string)
		format export.Format
		mode   canvas.Mode
	}{
		"text": {
			format: export.FormatText,
			mode:   canvas.ModeBWDot,
			check: func(t *testing.T, path string) {
				t.Helper()

				got, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Equal(t, string(want), string(got))
			},
		},
		"image": {
			format: export.FormatImage,
			mode:   canvas.ModeBWDot,
			check: func(t *testing.T, path string) {
				t.Helper()

				assert.Equal(t, image.Rect(0, 0, 48, 48), readPNG(t, path).Bounds())
			},
		},
		"image fast path": {
			format: export.FormatImage,
			mode:   canvas.ModeBW,
			check: func(t *testing.T, path string) {
				t.Helper()

				// 4x2 cells, each 6 pixels wide and 12 tall.
				assert.Equal(t, image.Rect(0, 0, 24, 24), readPNG(t, path).Bounds())
			},
		},
		"pythonic": {
			format: export.FormatPythonic,
			mode:   canvas.ModeBWDot,
			check: func(t *testing.T, path string) {
				t.Helper()

				data, err := os.ReadFile(path)
				require.NoError(t, err)

				c, err := media.DecodeContainer(data)
				require.NoError(t, err)
				assert.Equal(t, ".png", c.Ext)
				assert.False(t, c.Video)
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out := filepath.Join(t.TempDir(), "out")
			got, err := e.Run(t.Context(), export.Job{
				Input:    src,
				Output:   out,
				Format:   tc.format,
				Mode:     tc.mode,
				Params:   canvas.DefaultParams(),
				MaxWidth: 4,
			})
			require.NoError(t, err)
			assert.Equal(t, out, got)

			tc.check(t, out)
		})
	}
}

func TestRunFormatErrors(t *testing.T) {
	t.Parallel()

	e := newEngine(t)

	tcs := map[string]export.Job{
		"video from image": {Input: "a.png", Format: export.FormatVideo},
		"text from video":  {Input: "a.mp4", Format: export.FormatText},
		"webcam":           {Input: "webcam:0", Format: export.FormatVideo},
	}

	for name, job := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := e.Run(t.Context(), job)
			require.ErrorIs(t, err, export.ErrFormat)
		})
	}
}
