// Package rasterize paints rendered glyph text back onto a pixel grid, the
// reverse of the canvas renderers. Braille cells become discs on a 2x4
// grid, block elements become filled rectangles and shades blend the
// foreground into the background.
package rasterize

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/glyph"
)

// Options control output geometry and default colors.
type Options struct {
	FG, BG glyph.RGB
	// DotSize is the Braille dot radius in pixels.
	DotSize int
	// Density multiplies DotSize into the dot spacing.
	Density int
}

// DefaultOptions returns dot size 2, density 3, white on black.
func DefaultOptions() Options {
	return Options{
		DotSize: 2,
		Density: 3,
		FG:      glyph.White,
		BG:      glyph.Black,
	}
}

// Renderer rasterizes glyph text. It is safe for concurrent use once
// created.
type Renderer struct {
	dot  *image.Alpha
	opts Options
}

// New creates a [Renderer]. Sizes below 1 are raised to 1.
func New(opts Options) *Renderer {
	opts.DotSize = max(1, opts.DotSize)
	opts.Density = max(1, opts.Density)

	return &Renderer{
		opts: opts,
		dot:  dotSprite(opts.DotSize),
	}
}

// dotSprite draws one filled disc of radius r, centered on the middle pixel
// of a (2r+1)-square mask.
func dotSprite(r int) *image.Alpha {
	size := 2*r + 1
	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(r)+0.5, float64(r)+0.5, float64(r)+0.5)
	dc.SetRGB(1, 1, 1)
	dc.Fill()

	src := dc.Image()
	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	draw.Draw(mask, mask.Bounds(), src, src.Bounds().Min, draw.Src)

	return mask
}

// pixelSize is the side of one half-block pixel.
func (r *Renderer) pixelSize() int {
	return r.opts.DotSize * r.opts.Density
}

// BrailleCellSize returns the pixel size of one Braille cell.
func (r *Renderer) BrailleCellSize() (int, int) {
	return r.pixelSize() * 2, r.pixelSize() * 4
}

// BlockCellSize returns the pixel size of one half-block cell.
func (r *Renderer) BlockCellSize() (int, int) {
	return r.pixelSize(), r.pixelSize() * 2
}

func isBlock(c rune) bool {
	return c >= 0x2580 && c <= 0x259F
}

// cellSize picks the cell geometry for the whole text: Braille if any
// Braille glyph occurs, half-block if any block element occurs, square
// otherwise.
func (r *Renderer) cellSize(lines [][]Cell) (int, int) {
	hasBlock := false

	for _, line := range lines {
		for _, c := range line {
			if _, ok := glyph.BraillePattern(c.Rune); ok {
				return r.BrailleCellSize()
			}

			if isBlock(c.Rune) {
				hasBlock = true
			}
		}
	}

	if hasBlock {
		return r.BlockCellSize()
	}

	return r.pixelSize() * 2, r.pixelSize() * 2
}

// Render paints glyph text into a new image. Lines shorter than the widest
// are padded with the default background.
func (r *Renderer) Render(text []byte) *image.RGBA {
	lines := Parse(text, r.opts.FG, r.opts.BG)

	cols := 0
	for _, line := range lines {
		cols = max(cols, len(line))
	}

	cw, ch := r.cellSize(lines)
	img := image.NewRGBA(image.Rect(0, 0, max(1, cols*cw), max(1, len(lines)*ch)))
	fill(img, img.Bounds(), r.opts.BG)

	for row, line := range lines {
		for col, c := range line {
			cell := image.Rect(col*cw, row*ch, (col+1)*cw, (row+1)*ch)
			r.drawCell(img, cell, c)
		}
	}

	return img
}

func (r *Renderer) drawCell(img *image.RGBA, cell image.Rectangle, c Cell) {
	if p, ok := glyph.BraillePattern(c.Rune); ok {
		r.drawBraille(img, cell, p, c.FG, c.BG)

		return
	}

	w, h := cell.Dx(), cell.Dy()
	minX, minY := cell.Min.X, cell.Min.Y

	switch c.Rune {
	case ' ':
		fill(img, cell, c.BG)
	case glyph.FullBlock:
		fill(img, cell, c.FG)
	case glyph.UpperHalf:
		fill(img, image.Rect(minX, minY, minX+w, minY+h/2), c.FG)
		fill(img, image.Rect(minX, minY+h/2, minX+w, minY+h), c.BG)
	case glyph.LowerHalf:
		fill(img, image.Rect(minX, minY, minX+w, minY+h/2), c.BG)
		fill(img, image.Rect(minX, minY+h/2, minX+w, minY+h), c.FG)
	case glyph.LeftHalf:
		fill(img, image.Rect(minX, minY, minX+w/2, minY+h), c.FG)
		fill(img, image.Rect(minX+w/2, minY, minX+w, minY+h), c.BG)
	case glyph.RightHalf:
		fill(img, image.Rect(minX, minY, minX+w/2, minY+h), c.BG)
		fill(img, image.Rect(minX+w/2, minY, minX+w, minY+h), c.FG)
	default:
		if s, ok := glyph.ShadeLevel(c.Rune); ok {
			fill(img, cell, glyph.Blend(c.FG, c.BG, s))

			return
		}

		fill(img, cell, c.FG)
	}
}

// drawBraille fills the cell with bg and stamps a disc for every lit dot.
// Dot (row, col) is centered at (sx/2 + col*sx, sy/2 + row*sy) where sx and
// sy split the cell into 2x4 slots.
func (r *Renderer) drawBraille(img *image.RGBA, cell image.Rectangle, p uint8, fg, bg glyph.RGB) {
	fill(img, cell, bg)

	if p == 0 {
		return
	}

	sx := cell.Dx() / glyph.BrailleDotsX
	sy := cell.Dy() / glyph.BrailleDotsY
	rad := r.opts.DotSize
	src := image.NewUniform(color.RGBA{R: fg.R, G: fg.G, B: fg.B, A: 0xFF})

	for row := range glyph.BrailleDotsY {
		for col := range glyph.BrailleDotsX {
			if p&glyph.DotBits[row][col] == 0 {
				continue
			}

			cx := cell.Min.X + sx/2 + col*sx
			cy := cell.Min.Y + sy/2 + row*sy
			dst := image.Rect(cx-rad, cy-rad, cx+rad+1, cy+rad+1)
			draw.DrawMask(img, dst, src, image.Point{}, r.dot, image.Point{}, draw.Over)
		}
	}
}

// RenderGrayCells paints a half-block grayscale grid directly, skipping the
// text round trip. Each cell is one pixel wide and two tall, scaled by the
// pixel size.
func (r *Renderer) RenderGrayCells(cells []canvas.GrayPair, charW, charH int) *image.Gray {
	ps := r.pixelSize()
	w, h := charW*ps, charH*ps*2
	img := image.NewGray(image.Rect(0, 0, max(1, w), max(1, h)))

	for cy := range charH {
		row := cells[cy*charW : (cy+1)*charW]

		for half := range 2 {
			y0 := (cy*2 + half) * ps
			line := img.Pix[y0*img.Stride : y0*img.Stride+w]

			for cx, c := range row {
				v := c.Top
				if half == 1 {
					v = c.Bottom
				}

				seg := line[cx*ps : (cx+1)*ps]
				for i := range seg {
					seg[i] = v
				}
			}

			for dy := 1; dy < ps; dy++ {
				copy(img.Pix[(y0+dy)*img.Stride:], line)
			}
		}
	}

	return img
}

func fill(img *image.RGBA, rect image.Rectangle, c glyph.RGB) {
	draw.Draw(img, rect, image.NewUniform(color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}), image.Point{}, draw.Src)
}
