// Package canvas maps raster frames onto grids of terminal glyph cells and
// serializes them as ANSI text.
//
// Four canvases cover the nine render modes: [BrailleCanvas] and
// [ColoredBrailleCanvas] quantize 2x4 pixel blocks into Braille patterns,
// while [HalfBlockGrayCanvas] and [HalfBlockColorCanvas] map 1x2 pixel
// blocks onto the upper half block glyph. Each canvas selects its per-cell
// loop once per kernel, so the inner loops never branch on the mode.
//
// Rendering emits an SGR sequence only when a cell's color differs from the
// previous cell in the same row, and closes every row with a reset and a
// newline.
package canvas

import (
	"fmt"

	"go.jacobcolvin.com/glyphcast/raster"
)

// Canvas is a reusable glyph grid. Grids are resized on demand, so one
// canvas serves every frame of a run.
type Canvas interface {
	// LoadFrame quantizes f into the grid.
	LoadFrame(f *raster.Frame, p Params) error
	// Render appends the ANSI text of the grid to dst.
	Render(dst []byte) []byte
	// CharWidth and CharHeight return the grid size in terminal cells.
	CharWidth() int
	CharHeight() int
	// Mode returns the mode the canvas was built for.
	Mode() Mode
}

// Params tune the kernels of a [Canvas].
type Params struct {
	// Dithering overrides the kernel of the dithered modes.
	Dithering Dithering
	// Threshold is the lit level for thresholding kernels.
	Threshold uint8
	// Invert mirrors gray levels before dot decisions.
	Invert bool
}

// DefaultParams returns threshold 128 with ordered dithering.
func DefaultParams() Params {
	return Params{
		Threshold: 128,
		Dithering: DitherOrdered,
	}
}

// Options configure canvas construction.
type Options struct {
	// Truecolor selects 24-bit gray SGR for the shaded grayscale canvases;
	// otherwise they use the 256-color gray ramp.
	Truecolor bool
}

// New returns the canvas for mode.
func New(mode Mode, opts Options) (Canvas, error) {
	switch mode {
	case ModeBWDot, ModeBWDithered:
		return NewBrailleCanvas(mode, false, opts.Truecolor), nil
	case ModeGrayscaleDot, ModeFloodDot:
		return NewBrailleCanvas(mode, true, opts.Truecolor), nil
	case ModeColoredDot, ModeFloodDotColored, ModeColoredDithered:
		return NewColoredBrailleCanvas(mode), nil
	case ModeBW:
		return NewHalfBlockGrayCanvas(opts.Truecolor), nil
	case ModeColored:
		return NewHalfBlockColorCanvas(), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// cellGrid tracks grid and pixel dimensions shared by all canvases.
type cellGrid struct {
	charW, charH   int
	pixelW, pixelH int
}

func (g *cellGrid) CharWidth() int  { return g.charW }
func (g *cellGrid) CharHeight() int { return g.charH }

// PixelWidth and PixelHeight return the size of the last loaded frame.
func (g *cellGrid) PixelWidth() int  { return g.pixelW }
func (g *cellGrid) PixelHeight() int { return g.pixelH }

// resize updates dimensions for a frame of w x h pixels and reports the new
// cell count.
func (g *cellGrid) resize(w, h, dotsX, dotsY int) int {
	g.pixelW, g.pixelH = w, h
	g.charW = (w + dotsX - 1) / dotsX
	g.charH = (h + dotsY - 1) / dotsY

	return g.charW * g.charH
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}

	return s[:n]
}

func checkFrame(f *raster.Frame) error {
	if f == nil || f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: empty frame", raster.ErrSize)
	}

	if len(f.Pix) != raster.FrameSize(f.Width, f.Height, f.Format) {
		return fmt.Errorf("%w: %d bytes for %dx%d %v", raster.ErrSize, len(f.Pix), f.Width, f.Height, f.Format)
	}

	if f.Format.BytesPerPixel() == 0 {
		return fmt.Errorf("%w: %v", raster.ErrFormat, f.Format)
	}

	return nil
}
