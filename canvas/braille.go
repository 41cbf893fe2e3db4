package canvas

import (
	"go.jacobcolvin.com/glyphcast/glyph"
	"go.jacobcolvin.com/glyphcast/kernel"
	"go.jacobcolvin.com/glyphcast/raster"
)

// BrailleCanvas renders monochrome Braille patterns. Shaded canvases also
// keep a per-cell gray used as the dot color.
type BrailleCanvas struct {
	load      func(c *BrailleCanvas, f *raster.Frame, p Params)
	patterns  []uint8
	shades    []uint8
	mode      Mode
	dithering Dithering
	cellGrid
	shaded    bool
	truecolor bool
}

// NewBrailleCanvas creates a Braille canvas for one of the monochrome dot
// modes. When shaded is set each cell is colored with a gray level.
func NewBrailleCanvas(mode Mode, shaded, truecolor bool) *BrailleCanvas {
	return &BrailleCanvas{
		mode:      mode,
		shaded:    shaded,
		truecolor: truecolor,
	}
}

// Mode implements [Canvas].
func (c *BrailleCanvas) Mode() Mode { return c.mode }

// Pattern returns the dot mask of cell (x, y).
func (c *BrailleCanvas) Pattern(x, y int) uint8 {
	return c.patterns[y*c.charW+x]
}

// Shade returns the gray level of cell (x, y), or 0 for unshaded canvases.
func (c *BrailleCanvas) Shade(x, y int) uint8 {
	if !c.shaded {
		return 0
	}

	return c.shades[y*c.charW+x]
}

// LoadFrame implements [Canvas].
func (c *BrailleCanvas) LoadFrame(f *raster.Frame, p Params) error {
	err := checkFrame(f)
	if err != nil {
		return err
	}

	n := c.resize(f.Width, f.Height, glyph.BrailleDotsX, glyph.BrailleDotsY)
	c.patterns = grow(c.patterns, n)

	if c.shaded {
		c.shades = grow(c.shades, n)
	}

	if c.load == nil || p.Dithering != c.dithering {
		c.load = brailleLoader(c.mode, p.Dithering)
		c.dithering = p.Dithering
	}

	c.load(c, f, p)

	return nil
}

func brailleLoader(mode Mode, d Dithering) func(*BrailleCanvas, *raster.Frame, Params) {
	switch mode {
	case ModeBWDithered:
		switch d {
		case DitherNone:
			return loadBrailleThreshold
		case DitherFloydSteinberg:
			return loadBrailleDiffused
		}

		return loadBrailleOrdered
	case ModeGrayscaleDot:
		return loadBrailleOrderedGray
	case ModeFloodDot:
		return loadBrailleFlood
	}

	return loadBrailleThreshold
}

func loadBrailleThreshold(c *BrailleCanvas, f *raster.Frame, p Params) {
	var b kernel.Block

	for cy := range c.charH {
		row := c.patterns[cy*c.charW:]
		for cx := range c.charW {
			b.LoadGray(f, cx, cy, p.Invert)
			row[cx] = kernel.Threshold(&b, p.Threshold)
		}
	}
}

func loadBrailleOrdered(c *BrailleCanvas, f *raster.Frame, p Params) {
	var b kernel.Block

	for cy := range c.charH {
		row := c.patterns[cy*c.charW:]
		for cx := range c.charW {
			b.LoadGray(f, cx, cy, p.Invert)
			row[cx] = kernel.Ordered(&b)
		}
	}
}

func loadBrailleDiffused(c *BrailleCanvas, f *raster.Frame, p Params) {
	d := diffuse(f, p.Invert)

	var b kernel.Block

	for cy := range c.charH {
		row := c.patterns[cy*c.charW:]
		for cx := range c.charW {
			b.LoadGray(d, cx, cy, false)
			row[cx] = kernel.Diffused(&b)
		}
	}
}

func loadBrailleOrderedGray(c *BrailleCanvas, f *raster.Frame, p Params) {
	var b kernel.Block

	for cy := range c.charH {
		row := c.patterns[cy*c.charW:]
		shades := c.shades[cy*c.charW:]

		for cx := range c.charW {
			b.LoadGray(f, cx, cy, p.Invert)

			var fg glyph.RGB

			row[cx], fg = kernel.OrderedGray(&b)
			shades[cx] = fg.R
		}
	}
}

func loadBrailleFlood(c *BrailleCanvas, f *raster.Frame, p Params) {
	var b kernel.Block

	for cy := range c.charH {
		row := c.patterns[cy*c.charW:]
		shades := c.shades[cy*c.charW:]

		for cx := range c.charW {
			b.LoadGray(f, cx, cy, p.Invert)

			var fg glyph.RGB

			row[cx], fg = kernel.Flood(&b)
			shades[cx] = fg.R
		}
	}
}

// diffuse returns the error-diffused gray version of f.
func diffuse(f *raster.Frame, invert bool) *raster.Frame {
	g := f.Convert(raster.Gray8)
	src := g.Pix

	if invert {
		src = make([]byte, len(g.Pix))
		for i, v := range g.Pix {
			src[i] = 255 - v
		}
	}

	return &raster.Frame{
		Pix:    kernel.FloydSteinberg(src, f.Width, f.Height),
		Width:  f.Width,
		Height: f.Height,
		Format: raster.Gray8,
	}
}

// Render implements [Canvas].
func (c *BrailleCanvas) Render(dst []byte) []byte {
	if !c.shaded {
		for cy := range c.charH {
			for _, p := range c.patterns[cy*c.charW : (cy+1)*c.charW] {
				dst = glyph.AppendBraille(dst, p)
			}

			dst = glyph.AppendRowEnd(dst)
		}

		return dst
	}

	for cy := range c.charH {
		start := cy * c.charW
		last := -1

		for cx := range c.charW {
			s := c.shades[start+cx]
			if !c.truecolor {
				s = glyph.Gray256(s)
			}

			if int(s) != last {
				dst = c.appendShade(dst, s)
				last = int(s)
			}

			dst = glyph.AppendBraille(dst, c.patterns[start+cx])
		}

		dst = glyph.AppendRowEnd(dst)
	}

	return dst
}

// appendShade emits s as a truecolor gray or, when truecolor is off, as an
// already mapped 256-color index.
func (c *BrailleCanvas) appendShade(dst []byte, s uint8) []byte {
	if c.truecolor {
		return glyph.AppendFG(dst, glyph.GrayRGB(s))
	}

	return glyph.AppendFG256(dst, s)
}
