package player

import (
	"strconv"

	"go.jacobcolvin.com/glyphcast/glyph"
)

const (
	barFilled = "▓"
	barEmpty  = "░"

	meterSegments = 10
	meterEmpty    = "⣀"
)

// meterLevels are the partial fills of one volume meter segment, from one
// to eight dots.
var meterLevels = [...]string{"⡀", "⡄", "⡆", "⡇", "⣇", "⣧", "⣷", "⣿"}

// StatusBarWidth returns the progress bar width for an output maxWidth
// cells wide.
func StatusBarWidth(maxWidth int) int {
	return max(maxWidth-16, 1)
}

// AppendClock appends seconds as MM:SS. Negative values print as 00:00.
func AppendClock(dst []byte, seconds float64) []byte {
	s := max(int(seconds), 0)
	m := s / 60
	s %= 60

	if m < 10 {
		dst = append(dst, '0')
	}

	dst = strconv.AppendInt(dst, int64(m), 10)
	dst = append(dst, ':')

	if s < 10 {
		dst = append(dst, '0')
	}

	return strconv.AppendInt(dst, int64(s), 10)
}

// AppendBar appends a bar of width cells with the given fraction filled.
func AppendBar(dst []byte, fraction float64, width int) []byte {
	fraction = min(max(fraction, 0), 1)
	filled := int(fraction*float64(width) + 0.5)

	for i := range width {
		if i < filled {
			dst = append(dst, barFilled...)
		} else {
			dst = append(dst, barEmpty...)
		}
	}

	return dst
}

// MeterColor returns the color of volume meter segment i: green through
// yellow to red.
func MeterColor(i int) glyph.RGB {
	t := float64(min(max(i, 0), meterSegments-1)) / float64(meterSegments-1)
	if t < 0.5 {
		return glyph.RGB{R: uint8(510 * t), G: 255}
	}

	return glyph.RGB{R: 255, G: uint8(510 * (1 - t))}
}

// AppendMeter appends the ten segment volume meter for volume 0-100.
func AppendMeter(dst []byte, volume int) []byte {
	volume = min(max(volume, 0), 100)
	full := volume / 10
	part := (volume % 10) * len(meterLevels) / 10

	for i := range meterSegments {
		dst = glyph.AppendFG(dst, MeterColor(i))

		switch {
		case i < full:
			dst = append(dst, meterLevels[len(meterLevels)-1]...)
		case i == full && part > 0:
			dst = append(dst, meterLevels[part-1]...)
		default:
			dst = append(dst, meterEmpty...)
		}
	}

	return append(dst, glyph.Reset...)
}

// Status is the progress line printed under each frame.
type Status struct {
	Start    float64
	End      float64
	BarWidth int
}

// Append appends "elapsed [bar] total [remaining] Vol:meter" for media
// time t. Without a known end only the elapsed time and meter are shown.
func (s Status) Append(dst []byte, t float64, volume int) []byte {
	dst = AppendClock(dst, t)

	if s.End > s.Start {
		dst = append(dst, " ["...)
		dst = AppendBar(dst, (t-s.Start)/(s.End-s.Start), s.BarWidth)
		dst = append(dst, "] "...)
		dst = AppendClock(dst, s.End)
		dst = append(dst, " ["...)
		dst = AppendClock(dst, s.End-t)
		dst = append(dst, ']')
	}

	dst = append(dst, " Vol:"...)

	return AppendMeter(dst, volume)
}
