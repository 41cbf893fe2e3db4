package canvas

import (
	"go.jacobcolvin.com/glyphcast/glyph"
	"go.jacobcolvin.com/glyphcast/kernel"
	"go.jacobcolvin.com/glyphcast/raster"
)

// ColoredBrailleCanvas renders Braille patterns with a truecolor foreground
// per cell.
type ColoredBrailleCanvas struct {
	load      func(c *ColoredBrailleCanvas, f *raster.Frame, p Params)
	patterns  []uint8
	colors    []glyph.RGB
	mode      Mode
	dithering Dithering
	cellGrid
}

// NewColoredBrailleCanvas creates a canvas for one of the colored dot modes.
func NewColoredBrailleCanvas(mode Mode) *ColoredBrailleCanvas {
	return &ColoredBrailleCanvas{mode: mode}
}

// Mode implements [Canvas].
func (c *ColoredBrailleCanvas) Mode() Mode { return c.mode }

// Cell returns the pattern and foreground of cell (x, y).
func (c *ColoredBrailleCanvas) Cell(x, y int) (uint8, glyph.RGB) {
	i := y*c.charW + x

	return c.patterns[i], c.colors[i]
}

// LoadFrame implements [Canvas].
func (c *ColoredBrailleCanvas) LoadFrame(f *raster.Frame, p Params) error {
	err := checkFrame(f)
	if err != nil {
		return err
	}

	n := c.resize(f.Width, f.Height, glyph.BrailleDotsX, glyph.BrailleDotsY)
	c.patterns = grow(c.patterns, n)
	c.colors = grow(c.colors, n)

	if c.load == nil || p.Dithering != c.dithering {
		c.load = coloredLoader(c.mode, p.Dithering)
		c.dithering = p.Dithering
	}

	c.load(c, f, p)

	return nil
}

// cellKernel is a colored kernel that only needs the block.
type cellKernel func(b *kernel.Block) (uint8, glyph.RGB)

func coloredLoader(mode Mode, d Dithering) func(*ColoredBrailleCanvas, *raster.Frame, Params) {
	switch mode {
	case ModeFloodDotColored:
		return loadColoredWith(kernel.FloodColored)
	case ModeColoredDithered:
		switch d {
		case DitherNone:
			return loadColoredThreshold
		case DitherFloydSteinberg:
			return loadColoredDiffused
		}

		return loadColoredWith(kernel.OrderedColored)
	}

	return loadColoredThreshold
}

func loadColoredWith(k cellKernel) func(*ColoredBrailleCanvas, *raster.Frame, Params) {
	return func(c *ColoredBrailleCanvas, f *raster.Frame, p Params) {
		var b kernel.Block

		for cy := range c.charH {
			off := cy * c.charW
			for cx := range c.charW {
				b.LoadRGB(f, cx, cy, p.Invert)
				c.patterns[off+cx], c.colors[off+cx] = k(&b)
			}
		}
	}
}

func loadColoredThreshold(c *ColoredBrailleCanvas, f *raster.Frame, p Params) {
	var b kernel.Block

	for cy := range c.charH {
		off := cy * c.charW
		for cx := range c.charW {
			b.LoadRGB(f, cx, cy, p.Invert)
			c.patterns[off+cx], c.colors[off+cx] = kernel.ThresholdColored(&b, p.Threshold)
		}
	}
}

func loadColoredDiffused(c *ColoredBrailleCanvas, f *raster.Frame, p Params) {
	d := diffuse(f, p.Invert)

	var b kernel.Block

	for cy := range c.charH {
		off := cy * c.charW
		for cx := range c.charW {
			b.LoadRGB(f, cx, cy, false)
			b.LoadGray(d, cx, cy, false)
			c.patterns[off+cx], c.colors[off+cx] = kernel.DiffusedColored(&b)
		}
	}
}

// Render implements [Canvas].
func (c *ColoredBrailleCanvas) Render(dst []byte) []byte {
	for cy := range c.charH {
		off := cy * c.charW

		var last glyph.RGB

		for cx := range c.charW {
			fg := c.colors[off+cx]
			if cx == 0 || fg != last {
				dst = glyph.AppendFG(dst, fg)
				last = fg
			}

			dst = glyph.AppendBraille(dst, c.patterns[off+cx])
		}

		dst = glyph.AppendRowEnd(dst)
	}

	return dst
}
