package canvas

import (
	"go.jacobcolvin.com/glyphcast/glyph"
	"go.jacobcolvin.com/glyphcast/raster"
)

// GrayPair is the content of a grayscale half-block cell.
type GrayPair struct {
	Top, Bottom uint8
}

// HalfBlockGrayCanvas renders "▀" cells whose foreground is the upper pixel
// and background the lower pixel, in gray.
type HalfBlockGrayCanvas struct {
	cells []GrayPair
	cellGrid
	truecolor bool
}

// NewHalfBlockGrayCanvas creates the canvas for [ModeBW].
func NewHalfBlockGrayCanvas(truecolor bool) *HalfBlockGrayCanvas {
	return &HalfBlockGrayCanvas{truecolor: truecolor}
}

// Mode implements [Canvas].
func (c *HalfBlockGrayCanvas) Mode() Mode { return ModeBW }

// Cells exposes the cell grid in row-major order. The slice is overwritten
// by the next LoadFrame.
func (c *HalfBlockGrayCanvas) Cells() []GrayPair {
	return c.cells
}

// LoadFrame implements [Canvas]. A missing lower pixel on odd-height frames
// is black.
func (c *HalfBlockGrayCanvas) LoadFrame(f *raster.Frame, p Params) error {
	err := checkFrame(f)
	if err != nil {
		return err
	}

	n := c.resize(f.Width, f.Height, 1, 2)
	c.cells = grow(c.cells, n)

	for cy := range c.charH {
		top := cy * 2
		bottom := top + 1
		row := c.cells[cy*c.charW:]

		for x := range c.charW {
			t := f.GrayAt(x, top)

			var b uint8
			if bottom < f.Height {
				b = f.GrayAt(x, bottom)
			}

			if p.Invert {
				t = 255 - t
				if bottom < f.Height {
					b = 255 - b
				}
			}

			row[x] = GrayPair{Top: t, Bottom: b}
		}
	}

	return nil
}

// Render implements [Canvas].
func (c *HalfBlockGrayCanvas) Render(dst []byte) []byte {
	for cy := range c.charH {
		row := c.cells[cy*c.charW : (cy+1)*c.charW]
		lastFG, lastBG := -1, -1

		for _, cell := range row {
			fg, bg := cell.Top, cell.Bottom
			if !c.truecolor {
				fg, bg = glyph.Gray256(fg), glyph.Gray256(bg)
			}

			if int(fg) != lastFG {
				if c.truecolor {
					dst = glyph.AppendFG(dst, glyph.GrayRGB(fg))
				} else {
					dst = glyph.AppendFG256(dst, fg)
				}

				lastFG = int(fg)
			}

			if int(bg) != lastBG {
				if c.truecolor {
					dst = glyph.AppendBG(dst, glyph.GrayRGB(bg))
				} else {
					dst = glyph.AppendBG256(dst, bg)
				}

				lastBG = int(bg)
			}

			dst = append(dst, glyph.UpperHalfUTF8...)
		}

		dst = glyph.AppendRowEnd(dst)
	}

	return dst
}

// ColorPair is the content of a truecolor half-block cell.
type ColorPair struct {
	Top, Bottom glyph.RGB
}

// HalfBlockColorCanvas renders "▀" cells with truecolor foreground (upper
// pixel) and background (lower pixel).
type HalfBlockColorCanvas struct {
	cells []ColorPair
	cellGrid
}

// NewHalfBlockColorCanvas creates the canvas for [ModeColored].
func NewHalfBlockColorCanvas() *HalfBlockColorCanvas {
	return &HalfBlockColorCanvas{}
}

// Mode implements [Canvas].
func (c *HalfBlockColorCanvas) Mode() Mode { return ModeColored }

// Cells exposes the cell grid in row-major order.
func (c *HalfBlockColorCanvas) Cells() []ColorPair {
	return c.cells
}

// LoadFrame implements [Canvas]. Large frames are converted by the
// process-wide [Accelerator].
func (c *HalfBlockColorCanvas) LoadFrame(f *raster.Frame, _ Params) error {
	err := checkFrame(f)
	if err != nil {
		return err
	}

	n := c.resize(f.Width, f.Height, 1, 2)
	c.cells = grow(c.cells, n)

	a := sharedAccelerator()
	if a != nil && f.Width*f.Height >= accelMinPixels {
		a.LoadColorPairs(f, c.cells, c.charW, c.charH)

		return nil
	}

	loadColorRows(f, c.cells, c.charW, 0, c.charH)

	return nil
}

// loadColorRows fills cell rows [from, to).
func loadColorRows(f *raster.Frame, cells []ColorPair, charW, from, to int) {
	for cy := from; cy < to; cy++ {
		top := cy * 2
		bottom := top + 1
		row := cells[cy*charW:]

		for x := range charW {
			var b glyph.RGB
			if bottom < f.Height {
				b = f.RGBAt(x, bottom)
			}

			row[x] = ColorPair{Top: f.RGBAt(x, top), Bottom: b}
		}
	}
}

// Render implements [Canvas].
func (c *HalfBlockColorCanvas) Render(dst []byte) []byte {
	for cy := range c.charH {
		row := c.cells[cy*c.charW : (cy+1)*c.charW]

		var lastFG, lastBG glyph.RGB

		for i, cell := range row {
			if i == 0 || cell.Top != lastFG {
				dst = glyph.AppendFG(dst, cell.Top)
				lastFG = cell.Top
			}

			if i == 0 || cell.Bottom != lastBG {
				dst = glyph.AppendBG(dst, cell.Bottom)
				lastBG = cell.Bottom
			}

			dst = append(dst, glyph.UpperHalfUTF8...)
		}

		dst = glyph.AppendRowEnd(dst)
	}

	return dst
}
