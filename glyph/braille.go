package glyph

// BrailleBase is the code point of the empty Braille pattern.
const BrailleBase = 0x2800

// Dot dimensions of a Braille cell.
const (
	BrailleDotsX = 2
	BrailleDotsY = 4
)

// DotBits maps a (row, col) position inside a 2x4 Braille cell to the bit
// that lights it.
var DotBits = [BrailleDotsY][BrailleDotsX]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// brailleUTF8 holds the UTF-8 encoding of U+2800+p for every pattern p.
var brailleUTF8 = func() [256][3]byte {
	var t [256][3]byte

	for p := range 256 {
		r := BrailleBase + p
		t[p] = [3]byte{
			byte(0xE0 | (r >> 12)),
			byte(0x80 | ((r >> 6) & 0x3F)),
			byte(0x80 | (r & 0x3F)),
		}
	}

	return t
}()

// Braille returns the 3-byte UTF-8 encoding of the Braille pattern p.
func Braille(p uint8) [3]byte {
	return brailleUTF8[p]
}

// AppendBraille appends the UTF-8 encoding of the Braille pattern p.
func AppendBraille(dst []byte, p uint8) []byte {
	e := &brailleUTF8[p]

	return append(dst, e[0], e[1], e[2])
}

// BraillePattern reports whether r is a Braille pattern and returns its dot
// mask.
func BraillePattern(r rune) (uint8, bool) {
	if r < BrailleBase || r > BrailleBase+0xFF {
		return 0, false
	}

	return uint8(r - BrailleBase), true
}

// Block element runes.
const (
	UpperHalf  = '▀'
	LowerHalf  = '▄'
	FullBlock  = '█'
	LeftHalf   = '▌'
	RightHalf  = '▐'
	LightShade = '░'
	MedShade   = '▒'
	DarkShade  = '▓'
)

// UpperHalfUTF8 is the encoding of [UpperHalf], the glyph used by both
// half-block canvases.
const UpperHalfUTF8 = "▀"

// ShadeLevel returns the fg weight (out of 255) of a shade rune, and false
// for any other rune.
func ShadeLevel(r rune) (uint8, bool) {
	switch r {
	case LightShade:
		return 64, true
	case MedShade:
		return 128, true
	case DarkShade:
		return 192, true
	}

	return 0, false
}
