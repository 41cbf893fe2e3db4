package still

import (
	"context"
	"fmt"
	"log/slog"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/media"
	"go.jacobcolvin.com/glyphcast/raster"
)

// Renderer turns image files into terminal text. A Renderer is safe for
// concurrent use; every call quantizes onto its own canvas.
type Renderer struct {
	Loader   Loader
	Logger   *slog.Logger
	Mode     canvas.Mode
	Params   canvas.Params
	Options  canvas.Options
	MaxWidth int
}

// NewRenderer returns a Renderer for mode using loader.
func NewRenderer(loader Loader, mode canvas.Mode, maxWidth int) *Renderer {
	return &Renderer{
		Loader:   loader,
		Logger:   slog.Default(),
		Mode:     mode,
		Params:   canvas.DefaultParams(),
		MaxWidth: maxWidth,
	}
}

// PixelWidth returns the width images are loaded at.
func (r *Renderer) PixelWidth() int {
	return max(r.MaxWidth, 1) * r.Mode.DotsX()
}

// Load reads path at the renderer's pixel width and format. Container
// files are extracted first.
func (r *Renderer) Load(ctx context.Context, path string) (*raster.Frame, error) {
	resolved, cleanup, err := media.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer cleanup()

	f, err := r.Loader.Load(ctx, resolved, r.PixelWidth(), r.Mode.PixelFormat())
	if err != nil {
		return nil, err
	}

	r.logger().DebugContext(ctx, "loaded image",
		slog.String("path", path),
		slog.Int("width", f.Width),
		slog.Int("height", f.Height),
		slog.String("format", f.Format.String()),
	)

	return f, nil
}

// Canvas loads path and quantizes it onto a new canvas.
func (r *Renderer) Canvas(ctx context.Context, path string) (canvas.Canvas, error) {
	f, err := r.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	return r.Quantize(f)
}

// Quantize loads f onto a new canvas for the renderer's mode.
func (r *Renderer) Quantize(f *raster.Frame) (canvas.Canvas, error) {
	c, err := canvas.New(r.Mode, r.Options)
	if err != nil {
		return nil, err
	}

	err = c.LoadFrame(f, r.Params)
	if err != nil {
		return nil, fmt.Errorf("quantizing: %w", err)
	}

	return c, nil
}

// Render returns the terminal text for the image at path.
func (r *Renderer) Render(ctx context.Context, path string) ([]byte, error) {
	c, err := r.Canvas(ctx, path)
	if err != nil {
		return nil, err
	}

	return c.Render(nil), nil
}

// RenderFrame returns the terminal text for an already loaded frame.
func (r *Renderer) RenderFrame(f *raster.Frame) ([]byte, error) {
	c, err := r.Quantize(f)
	if err != nil {
		return nil, err
	}

	return c.Render(nil), nil
}

func (r *Renderer) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}

	return r.Logger
}
