package kernel

import (
	"go.jacobcolvin.com/glyphcast/glyph"
	"go.jacobcolvin.com/glyphcast/raster"
)

// BlockSize is the number of pixels in a Braille cell.
const BlockSize = glyph.BrailleDotsX * glyph.BrailleDotsY

// dotBit maps a block index (row*2 + col) to its Braille bit.
var dotBit = func() [BlockSize]uint8 {
	var t [BlockSize]uint8

	for row := range glyph.BrailleDotsY {
		for col := range glyph.BrailleDotsX {
			t[row*glyph.BrailleDotsX+col] = glyph.DotBits[row][col]
		}
	}

	return t
}()

// DotBit returns the Braille bit for the pixel at block index i.
func DotBit(i int) uint8 {
	return dotBit[i]
}

// Block holds the pixels of one Braille cell, indexed row*2 + col. Pixels
// outside the frame are absent from Valid and stay zero.
type Block struct {
	Gray  [BlockSize]uint8
	RGB   [BlockSize]glyph.RGB
	Valid uint8
}

// LoadGray fills Gray and Valid from the cell at (cx, cy) of f. When invert
// is set gray values are mirrored.
func (b *Block) LoadGray(f *raster.Frame, cx, cy int, invert bool) {
	b.Valid = 0

	x0, y0 := cx*glyph.BrailleDotsX, cy*glyph.BrailleDotsY

	for row := range glyph.BrailleDotsY {
		y := y0 + row
		for col := range glyph.BrailleDotsX {
			i := row*glyph.BrailleDotsX + col
			x := x0 + col

			if x >= f.Width || y >= f.Height {
				b.Gray[i] = 0

				continue
			}

			g := f.GrayAt(x, y)
			if invert {
				g = 255 - g
			}

			b.Gray[i] = g
			b.Valid |= 1 << i
		}
	}
}

// LoadRGB fills Gray, RGB and Valid from the cell at (cx, cy) of f. Invert
// only applies to the gray values that drive dot decisions.
func (b *Block) LoadRGB(f *raster.Frame, cx, cy int, invert bool) {
	b.Valid = 0

	x0, y0 := cx*glyph.BrailleDotsX, cy*glyph.BrailleDotsY

	for row := range glyph.BrailleDotsY {
		y := y0 + row
		for col := range glyph.BrailleDotsX {
			i := row*glyph.BrailleDotsX + col
			x := x0 + col

			if x >= f.Width || y >= f.Height {
				b.Gray[i] = 0
				b.RGB[i] = glyph.RGB{}

				continue
			}

			c := f.RGBAt(x, y)
			g := c.Gray()

			if invert {
				g = 255 - g
			}

			b.RGB[i] = c
			b.Gray[i] = g
			b.Valid |= 1 << i
		}
	}
}

// valid reports whether block index i lies inside the frame.
func (b *Block) valid(i int) bool {
	return b.Valid&(1<<i) != 0
}

// MeanGray returns the mean gray of the in-frame pixels.
func (b *Block) MeanGray() uint8 {
	var sum, n uint32

	for i := range BlockSize {
		if b.valid(i) {
			sum += uint32(b.Gray[i])
			n++
		}
	}

	if n == 0 {
		return 0
	}

	return uint8(sum / n)
}

// MeanRGB returns the mean color of the in-frame pixels selected by mask,
// or black when none are selected.
func (b *Block) MeanRGB(mask uint8) glyph.RGB {
	var r, g, bl, n uint32

	mask &= b.Valid

	for i := range BlockSize {
		if mask&(1<<i) == 0 {
			continue
		}

		c := b.RGB[i]
		r += uint32(c.R)
		g += uint32(c.G)
		bl += uint32(c.B)
		n++
	}

	if n == 0 {
		return glyph.RGB{}
	}

	return glyph.RGB{R: uint8(r / n), G: uint8(g / n), B: uint8(bl / n)}
}
