package export

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"slices"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/media"
	"go.jacobcolvin.com/glyphcast/progress"
	"go.jacobcolvin.com/glyphcast/rasterize"
	"go.jacobcolvin.com/glyphcast/still"
)

// Engine runs export jobs.
type Engine struct {
	Loader   still.Loader
	Reporter progress.Reporter
	Logger   *slog.Logger
	Tools    media.Tools
	// TempRoot overrides the directory job directories are created in.
	TempRoot string
	// RenderWorkers and RasterWorkers override the pool sizes.
	RenderWorkers int
	RasterWorkers int
}

// New returns an Engine that loads frames with loader.
func New(tools media.Tools, loader still.Loader) *Engine {
	return &Engine{
		Tools:    tools,
		Loader:   loader,
		Reporter: progress.Nop{},
		Logger:   slog.Default(),
	}
}

// Run executes job and returns the path written.
func (e *Engine) Run(ctx context.Context, job Job) (string, error) {
	out := job.OutputPath()
	kind := media.Classify(job.Input)

	switch kind {
	case media.KindWebcam:
		return "", fmt.Errorf("%w: cannot export live source %s", ErrFormat, job.Input)
	case media.KindVideo:
		if job.Format != FormatVideo && job.Format != FormatPythonic {
			return "", fmt.Errorf("%w: %s output from video input", ErrFormat, job.Format)
		}
	default:
		if job.Format == FormatVideo {
			return "", fmt.Errorf("%w: video output from image input", ErrFormat)
		}
	}

	input, cleanup, err := media.Resolve(job.Input)
	if err != nil {
		return "", err
	}
	defer cleanup()

	e.logger().InfoContext(ctx, "exporting",
		slog.String("input", job.Input),
		slog.String("output", out),
		slog.String("format", string(job.Format)),
		slog.String("mode", string(job.Mode)),
	)

	if kind == media.KindVideo {
		err = e.runVideo(ctx, job, input, out)
	} else {
		err = e.runStill(ctx, job, input, out)
	}

	if err != nil {
		return "", err
	}

	return out, nil
}

func (e *Engine) runStill(ctx context.Context, job Job, input, out string) error {
	if job.Format == FormatPythonic {
		return media.Pack(input, out)
	}

	r := e.renderer(job)

	c, err := canvas.New(job.Mode, r.Options)
	if err != nil {
		return err
	}

	res, err := renderOne(ctx, r, c, input)
	if err != nil {
		return err
	}

	if job.Format == FormatText {
		if res.text == nil {
			res.text = c.Render(nil)
		}

		//nolint:gosec // Output files are meant to be readable.
		err = os.WriteFile(out, res.text, 0o644)
		if err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}

		return nil
	}

	return rasterize.WritePNG(out, paint(e.rasterizer(job), res))
}

func (e *Engine) renderer(job Job) *still.Renderer {
	r := still.NewRenderer(e.Loader, job.Mode, job.MaxWidth)
	r.Params = job.Params
	r.Options = canvas.Options{Truecolor: job.Truecolor}
	r.Logger = e.logger()

	return r
}

func (e *Engine) rasterizer(job Job) *rasterize.Renderer {
	opts := rasterize.DefaultOptions()
	if job.DotSize > 0 {
		opts.DotSize = job.DotSize
	}

	if job.Density > 0 {
		opts.Density = job.Density
	}

	return rasterize.New(opts)
}

// rendered is one frame between the render and rasterize phases. Grayscale
// half-block frames carry their cells instead of text.
type rendered struct {
	text         []byte
	cells        []canvas.GrayPair
	index        int
	charW, charH int
}

// renderOne loads path onto c. The half-block grayscale canvas hands over
// its cells; every other canvas renders text.
func renderOne(ctx context.Context, r *still.Renderer, c canvas.Canvas, path string) (rendered, error) {
	f, err := r.Load(ctx, path)
	if err != nil {
		return rendered{}, err
	}

	err = c.LoadFrame(f, r.Params)
	if err != nil {
		return rendered{}, fmt.Errorf("quantizing %s: %w", path, err)
	}

	if gc, ok := c.(*canvas.HalfBlockGrayCanvas); ok {
		return rendered{
			cells: slices.Clone(gc.Cells()),
			charW: gc.CharWidth(),
			charH: gc.CharHeight(),
		}, nil
	}

	return rendered{text: c.Render(nil)}, nil
}

func paint(rz *rasterize.Renderer, res rendered) image.Image {
	if res.cells != nil {
		return rz.RenderGrayCells(res.cells, res.charW, res.charH)
	}

	return rz.Render(res.text)
}

func (e *Engine) reporter() progress.Reporter {
	if e.Reporter == nil {
		return progress.Nop{}
	}

	return e.Reporter
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}

	return e.Logger
}
