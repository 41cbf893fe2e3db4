package glyph

// RGB is a 24-bit color.
type RGB struct {
	R, G, B uint8
}

// Black and White are the default background and foreground.
var (
	Black = RGB{}
	White = RGB{R: 255, G: 255, B: 255}
)

// GrayRGB returns the neutral color with all channels set to v.
func GrayRGB(v uint8) RGB {
	return RGB{R: v, G: v, B: v}
}

// Gray converts an RGB triple to 8-bit luma using the fixed-point BT.601
// weights (77, 150, 29) >> 8.
func Gray(r, g, b uint8) uint8 {
	return uint8((77*uint32(r) + 150*uint32(g) + 29*uint32(b)) >> 8)
}

// Gray returns the luma of c. See [Gray].
func (c RGB) Gray() uint8 {
	return Gray(c.R, c.G, c.B)
}

// Blend mixes fg over bg with weight s out of 255.
func Blend(fg, bg RGB, s uint8) RGB {
	mix := func(f, b uint8) uint8 {
		return uint8((uint32(f)*uint32(s) + uint32(b)*(255-uint32(s))) / 255)
	}

	return RGB{R: mix(fg.R, bg.R), G: mix(fg.G, bg.G), B: mix(fg.B, bg.B)}
}

var basic16 = [16]RGB{
	{0, 0, 0}, {128, 0, 0}, {0, 128, 0}, {128, 128, 0},
	{0, 0, 128}, {128, 0, 128}, {0, 128, 128}, {192, 192, 192},
	{128, 128, 128}, {255, 0, 0}, {0, 255, 0}, {255, 255, 0},
	{0, 0, 255}, {255, 0, 255}, {0, 255, 255}, {255, 255, 255},
}

// Palette256 returns the RGB value of an ANSI 256-color index: 0-15 are the
// basic colors, 16-231 a 6x6x6 cube and 232-255 a 24-step gray ramp.
func Palette256(i uint8) RGB {
	switch {
	case i < 16:
		return basic16[i]
	case i < 232:
		c := int(i) - 16
		level := func(v int) uint8 {
			if v == 0 {
				return 0
			}

			return uint8(v*40 + 55)
		}

		return RGB{R: level(c / 36), G: level((c / 6) % 6), B: level(c % 6)}
	}

	return GrayRGB(uint8((int(i)-232)*10 + 8))
}

// Gray256 maps a gray level onto the 24-step gray ramp of the 256-color
// palette.
func Gray256(v uint8) uint8 {
	return uint8(232 + int(v)*23/255)
}
