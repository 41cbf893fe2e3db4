package canvas

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.jacobcolvin.com/glyphcast/glyph"
	"go.jacobcolvin.com/glyphcast/raster"
)

var (
	// ErrUnknownMode indicates an unrecognized render mode string.
	ErrUnknownMode = errors.New("unknown render mode")
	// ErrUnknownDithering indicates an unrecognized dithering string.
	ErrUnknownDithering = errors.New("unknown dithering")
)

// Mode selects a canvas and kernel pair.
type Mode string

const (
	// ModeBW renders grayscale half blocks.
	ModeBW Mode = "bw"
	// ModeBWDot renders thresholded Braille dots.
	ModeBWDot Mode = "bw_dot"
	// ModeColored renders truecolor half blocks.
	ModeColored Mode = "colored"
	// ModeColoredDot renders thresholded Braille dots colored by the lit
	// pixels.
	ModeColoredDot Mode = "colored_dot"
	// ModeBWDithered renders dithered Braille dots.
	ModeBWDithered Mode = "bw_dithered"
	// ModeGrayscaleDot renders ordered-dithered Braille dots shaded with the
	// cell's mean gray.
	ModeGrayscaleDot Mode = "grayscale_dot"
	// ModeFloodDot lights every dot and shades the cell with its mean gray.
	ModeFloodDot Mode = "flood_dot"
	// ModeFloodDotColored lights every dot and colors the cell with its mean
	// color.
	ModeFloodDotColored Mode = "flood_dot_colored"
	// ModeColoredDithered renders Bayer-dithered Braille dots colored with
	// the cell's mean color.
	ModeColoredDithered Mode = "colored_dithered"
)

var allModes = []Mode{
	ModeBW, ModeBWDot, ModeColored, ModeColoredDot, ModeBWDithered,
	ModeGrayscaleDot, ModeFloodDot, ModeFloodDotColored, ModeColoredDithered,
}

// Modes returns every mode name.
func Modes() []string {
	out := make([]string, len(allModes))
	for i, m := range allModes {
		out[i] = string(m)
	}

	return out
}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(s))
	if slices.Contains(allModes, m) {
		return m, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// HalfBlock reports whether m renders with half blocks rather than Braille.
func (m Mode) HalfBlock() bool {
	return m == ModeBW || m == ModeColored
}

// Colored reports whether m needs RGB input.
func (m Mode) Colored() bool {
	switch m {
	case ModeColored, ModeColoredDot, ModeFloodDotColored, ModeColoredDithered:
		return true
	}

	return false
}

// PixelFormat returns the decoder output format m consumes.
func (m Mode) PixelFormat() raster.Format {
	if m.Colored() {
		return raster.RGB24
	}

	return raster.Gray8
}

// DotsX returns the number of pixel columns per terminal cell.
func (m Mode) DotsX() int {
	if m.HalfBlock() {
		return 1
	}

	return glyph.BrailleDotsX
}

// DotsY returns the number of pixel rows per terminal cell.
func (m Mode) DotsY() int {
	if m.HalfBlock() {
		return 2
	}

	return glyph.BrailleDotsY
}

// Dithering overrides the kernel of the dithered modes.
type Dithering string

const (
	// DitherNone falls back to plain thresholding.
	DitherNone Dithering = "none"
	// DitherOrdered uses the mode's ordered matrix.
	DitherOrdered Dithering = "ordered"
	// DitherFloydSteinberg uses error diffusion.
	DitherFloydSteinberg Dithering = "floyd_steinberg"
)

var allDitherings = []Dithering{DitherNone, DitherOrdered, DitherFloydSteinberg}

// Ditherings returns every dithering name.
func Ditherings() []string {
	out := make([]string, len(allDitherings))
	for i, d := range allDitherings {
		out[i] = string(d)
	}

	return out
}

// ParseDithering parses a dithering name, case-insensitively.
func ParseDithering(s string) (Dithering, error) {
	d := Dithering(strings.ToLower(s))
	if slices.Contains(allDitherings, d) {
		return d, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownDithering, s)
}
