package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/media"
	"go.jacobcolvin.com/glyphcast/rasterize"
)

const (
	// DefaultFPS is used when neither the job nor the source has a rate.
	DefaultFPS = 30
	// tmpfsFrameLimit is the estimated frame count below which job
	// directories go to shared memory.
	tmpfsFrameLimit = 1000
	shmDir          = "/dev/shm"
	monitorInterval = 200 * time.Millisecond
	maxRenderers    = 16
)

// Plan is the frame schedule of a video export.
type Plan struct {
	FPS float64
	// Period is the time per output frame.
	Period time.Duration
	// Duration is the exported clip length in seconds; zero when unknown.
	Duration float64
	// Frames estimates the number of extracted frames.
	Frames int
}

// NewPlan derives the schedule of job from the probed source.
func NewPlan(info media.Info, job Job) Plan {
	fps := job.FPS
	if fps <= 0 {
		fps = info.FPS
	}

	if fps <= 0 {
		fps = DefaultFPS
	}

	start := max(job.Start, 0)
	end := info.Duration

	if job.End > 0 && (end <= 0 || job.End < end) {
		end = job.End
	}

	p := Plan{
		FPS:    fps,
		Period: time.Duration(float64(time.Second) / fps),
	}

	if end > start {
		p.Duration = end - start
		p.Frames = int(math.Ceil(p.Duration * fps))
	}

	return p
}

// TempRoot returns the directory for a job of about frames frames: shared
// memory for short clips when available, the system temp directory
// otherwise.
func TempRoot(frames int) string {
	if frames > 0 && frames < tmpfsFrameLimit {
		st, err := os.Stat(shmDir)
		if err == nil && st.IsDir() {
			return shmDir
		}
	}

	return os.TempDir()
}

// CountFrames counts the PNG files in dir whose names start with prefix.
func CountFrames(dir, prefix string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}

	n := 0

	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".png") {
			n++
		}
	}

	return n, nil
}

func renderWorkers(override, frames int) int {
	w := override
	if w <= 0 {
		w = min(max(runtime.NumCPU()-2, 1), maxRenderers)
	}

	return max(min(w, frames), 1)
}

func rasterWorkers(override, frames int) int {
	w := override
	if w <= 0 {
		w = min(max(runtime.NumCPU()/2, 4), 6)
	}

	return max(min(w, frames), 1)
}

func (e *Engine) runVideo(ctx context.Context, job Job, input, out string) error {
	info, err := e.Tools.Probe(ctx, input)
	if err != nil {
		return err
	}

	plan := NewPlan(info, job)

	dir, err := e.jobDir(plan.Frames)
	if err != nil {
		return err
	}

	defer func() {
		err := os.RemoveAll(dir)
		if err != nil {
			e.logger().Warn("removing job directory", slog.String("dir", dir), slog.Any("error", err))
		}
	}()

	e.logger().DebugContext(ctx, "export plan",
		slog.String("dir", dir),
		slog.Float64("fps", plan.FPS),
		slog.Float64("duration", plan.Duration),
		slog.Int("frames", plan.Frames),
	)

	n, err := e.extract(ctx, job, input, dir, plan)
	if err != nil {
		return err
	}

	err = e.renderFrames(ctx, job, dir, n)
	if err != nil {
		return err
	}

	target := out
	if job.Format == FormatPythonic {
		target = filepath.Join(dir, "export.mp4")
	}

	err = e.encode(ctx, job, input, dir, plan.FPS, target, info.HasAudio)
	if err != nil {
		return err
	}

	if job.Format == FormatPythonic {
		return media.Pack(target, out)
	}

	return nil
}

func (e *Engine) jobDir(frames int) (string, error) {
	root := e.TempRoot
	if root == "" {
		root = TempRoot(frames)
	}

	dir := filepath.Join(root, "glyphcast-"+uuid.NewString())

	err := os.Mkdir(dir, 0o700)
	if err != nil {
		return "", fmt.Errorf("creating job directory: %w", err)
	}

	return dir, nil
}

func (e *Engine) ffmpeg() (string, error) {
	bin, err := exec.LookPath(e.Tools.FFmpeg)
	if err != nil {
		return "", fmt.Errorf("%w: %s: install it or add it to PATH", media.ErrToolMissing, e.Tools.FFmpeg)
	}

	return bin, nil
}

func runFFmpeg(ctx context.Context, bin string, args []string) error {
	//nolint:gosec // Arguments are built from the job, not from a shell.
	cmd := exec.CommandContext(ctx, bin, args...)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}

		return err
	}

	return nil
}

// extract writes the clip's frames into dir and returns how many were
// written.
func (e *Engine) extract(ctx context.Context, job Job, input, dir string, plan Plan) (int, error) {
	bin, err := e.ffmpeg()
	if err != nil {
		return 0, err
	}

	e.reporter().Phase("decoding", 0)

	monCtx, stop := context.WithCancel(ctx)

	var wg sync.WaitGroup

	wg.Go(func() {
		e.monitor(monCtx, dir, plan.Frames)
	})

	err = runFFmpeg(ctx, bin, ExtractArgs(input, dir, plan.FPS, media.TrimArgs(job.Start, job.End)))

	stop()
	wg.Wait()

	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	n, err := CountFrames(dir, "frame_")
	if err != nil {
		return 0, err
	}

	if n == 0 {
		return 0, ErrNoFrames
	}

	e.logger().InfoContext(ctx, "extracted frames", slog.Int("frames", n))

	return n, nil
}

// monitor advances the decode phase as frame files appear. The phase
// turns determinate once the first frame lands.
func (e *Engine) monitor(ctx context.Context, dir string, estimate int) {
	t := time.NewTicker(monitorInterval)
	defer t.Stop()

	rep := e.reporter()
	seen := 0
	determinate := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		n, err := CountFrames(dir, "frame_")
		if err != nil {
			continue
		}

		if n > 0 && !determinate && estimate > 0 {
			rep.SetTotal(estimate)

			determinate = true
		}

		if n > seen {
			rep.Add(n - seen)
			seen = n
		}
	}
}

// renderFrames turns frame_%05d.png 1..n into ascii_%05d.png. Render
// workers quantize frames and hand them to rasterize workers over a
// bounded channel.
func (e *Engine) renderFrames(ctx context.Context, job Job, dir string, n int) error {
	r := e.renderer(job)
	rz := e.rasterizer(job)
	renderers := renderWorkers(e.RenderWorkers, n)
	rasters := rasterWorkers(e.RasterWorkers, n)
	rep := e.reporter()

	rep.Phase("rendering", n)

	e.logger().DebugContext(ctx, "rendering frames",
		slog.Int("frames", n),
		slog.Int("render_workers", renderers),
		slog.Int("raster_workers", rasters),
	)

	g, gctx := errgroup.WithContext(ctx)
	indices := make(chan int)
	results := make(chan rendered, rasters*2)

	g.Go(func() error {
		defer close(indices)

		for i := 1; i <= n; i++ {
			select {
			case indices <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		return nil
	})

	var active sync.WaitGroup

	for range renderers {
		active.Add(1)
		g.Go(func() error {
			defer active.Done()

			c, err := canvas.New(job.Mode, r.Options)
			if err != nil {
				return err
			}

			for i := range indices {
				res, err := renderOne(gctx, r, c, filepath.Join(dir, fmt.Sprintf(framePattern, i)))
				if err != nil {
					return err
				}

				res.index = i

				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}

			return nil
		})
	}

	g.Go(func() error {
		active.Wait()
		close(results)

		return nil
	})

	for range rasters {
		g.Go(func() error {
			for res := range results {
				if err := gctx.Err(); err != nil {
					return err
				}

				path := filepath.Join(dir, fmt.Sprintf(outputPattern, res.index))

				err := rasterize.WritePNG(path, paint(rz, res))
				if err != nil {
					return err
				}

				rep.Add(1)
			}

			return nil
		})
	}

	return g.Wait()
}

// encode writes the rendered frames in dir to target.
func (e *Engine) encode(ctx context.Context, job Job, input, dir string, fps float64, target string, hasAudio bool) error {
	bin, err := e.ffmpeg()
	if err != nil {
		return err
	}

	opts := EncodeOptions{
		Dir:    dir,
		FPS:    fps,
		Codec:  SoftwareEncoder,
		Output: target,
	}

	if job.UseGPU {
		available, err := probeEncoders(ctx, bin)
		if err != nil {
			e.logger().WarnContext(ctx, "probing hardware encoders", slog.Any("error", err))
		} else {
			opts.Codec = PickEncoder(available)
		}
	}

	if job.Audio {
		if hasAudio {
			opts.AudioInput = input
			opts.AudioTrim = media.TrimArgs(job.Start, job.End)
		} else {
			e.logger().WarnContext(ctx, "source has no audio track", slog.String("input", input))
		}
	}

	e.reporter().Phase("encoding ("+opts.Codec+")", 0)

	err = runFFmpeg(ctx, bin, EncodeArgs(opts))
	if err != nil && opts.Codec != SoftwareEncoder && ctx.Err() == nil {
		e.logger().WarnContext(ctx, "hardware encoder failed, using software encoder",
			slog.String("encoder", opts.Codec),
			slog.Any("error", err),
		)

		opts.Codec = SoftwareEncoder
		e.reporter().Phase("encoding ("+opts.Codec+")", 0)

		err = runFFmpeg(ctx, bin, EncodeArgs(opts))
	}

	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return nil
}
