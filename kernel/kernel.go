package kernel

import "go.jacobcolvin.com/glyphcast/glyph"

// Ordered2x4 is the Braille ordered-dither matrix, indexed [row][col]. Its
// eight levels light the dots of a cell one by one as brightness rises.
var Ordered2x4 = [glyph.BrailleDotsY][glyph.BrailleDotsX]uint8{
	{16, 144},
	{80, 208},
	{112, 240},
	{48, 176},
}

// Bayer2x2 is the classic 2x2 Bayer index matrix.
var Bayer2x2 = [2][2]int{
	{0, 2},
	{3, 1},
}

// bayerThreshold holds ((M+1)*255)/5 for each Bayer2x2 entry.
var bayerThreshold = func() [2][2]uint8 {
	var t [2][2]uint8

	for r := range 2 {
		for c := range 2 {
			t[r][c] = uint8(((Bayer2x2[r][c] + 1) * 255) / 5)
		}
	}

	return t
}()

// litMask converts a mask over block indices into a Braille pattern.
func litMask(m uint8) uint8 {
	var p uint8

	for i := range BlockSize {
		if m&(1<<i) != 0 {
			p |= dotBit[i]
		}
	}

	return p
}

// Threshold lights every in-frame dot whose gray is at least t.
func Threshold(b *Block, t uint8) uint8 {
	return litMask(thresholdMask(b, t))
}

func thresholdMask(b *Block, t uint8) uint8 {
	var m uint8

	for i := range BlockSize {
		if b.valid(i) && b.Gray[i] >= t {
			m |= 1 << i
		}
	}

	return m
}

// ThresholdColored is [Threshold] with the foreground set to the mean color
// of the lit pixels, or black when none are lit.
func ThresholdColored(b *Block, t uint8) (uint8, glyph.RGB) {
	m := thresholdMask(b, t)

	return litMask(m), b.MeanRGB(m)
}

// Ordered lights dot (row, col) when its gray reaches Ordered2x4[row][col].
func Ordered(b *Block) uint8 {
	var p uint8

	for row := range glyph.BrailleDotsY {
		for col := range glyph.BrailleDotsX {
			i := row*glyph.BrailleDotsX + col
			if b.valid(i) && b.Gray[i] >= Ordered2x4[row][col] {
				p |= glyph.DotBits[row][col]
			}
		}
	}

	return p
}

// OrderedGray is [Ordered] plus the mean gray of the cell as a neutral
// foreground.
func OrderedGray(b *Block) (uint8, glyph.RGB) {
	return Ordered(b), glyph.GrayRGB(b.MeanGray())
}

// OrderedColored dithers with the 2x2 Bayer matrix tiled over the cell and
// colors the cell with the mean of all its pixels, lit or not.
func OrderedColored(b *Block) (uint8, glyph.RGB) {
	var p uint8

	for row := range glyph.BrailleDotsY {
		for col := range glyph.BrailleDotsX {
			i := row*glyph.BrailleDotsX + col
			if b.valid(i) && b.Gray[i] >= bayerThreshold[row&1][col&1] {
				p |= glyph.DotBits[row][col]
			}
		}
	}

	return p, b.MeanRGB(0xFF)
}

// Flood lights every dot and carries brightness in the color only.
func Flood(b *Block) (uint8, glyph.RGB) {
	return 0xFF, glyph.GrayRGB(b.MeanGray())
}

// FloodColored lights every dot with the mean cell color.
func FloodColored(b *Block) (uint8, glyph.RGB) {
	return 0xFF, b.MeanRGB(0xFF)
}

// Diffused lights the dots whose error-diffused value is 255. The block's
// Gray must come from a frame processed by [FloydSteinberg].
func Diffused(b *Block) uint8 {
	return Threshold(b, 255)
}

// DiffusedColored is [Diffused] with the mean color of the whole cell.
func DiffusedColored(b *Block) (uint8, glyph.RGB) {
	return Diffused(b), b.MeanRGB(0xFF)
}
