package glyph

// Fixed control sequences.
const (
	CursorHome   = "\x1b[H"
	ClearScreen  = "\x1b[2J"
	HideCursor   = "\x1b[?25l"
	ShowCursor   = "\x1b[?25h"
	AltScreenOn  = "\x1b[?1049h"
	AltScreenOff = "\x1b[?1049l"
	Reset        = "\x1b[0m"
)

// RestoreSequence is written on every exit path to give the terminal back:
// show the cursor, reset attributes, leave the alternate screen.
const RestoreSequence = ShowCursor + Reset + AltScreenOff

// numerals caches the decimal text of every byte value so SGR emission
// never formats integers.
var numerals = func() [256]string {
	var t [256]string

	digits := "0123456789"
	for i := range 256 {
		switch {
		case i >= 100:
			t[i] = string([]byte{digits[i/100], digits[i/10%10], digits[i%10]})
		case i >= 10:
			t[i] = string([]byte{digits[i/10], digits[i%10]})
		default:
			t[i] = string(digits[i])
		}
	}

	return t
}()

func appendRGB(dst []byte, prefix string, c RGB) []byte {
	dst = append(dst, prefix...)
	dst = append(dst, numerals[c.R]...)
	dst = append(dst, ';')
	dst = append(dst, numerals[c.G]...)
	dst = append(dst, ';')
	dst = append(dst, numerals[c.B]...)

	return append(dst, 'm')
}

// AppendFG appends ESC[38;2;R;G;Bm.
func AppendFG(dst []byte, c RGB) []byte {
	return appendRGB(dst, "\x1b[38;2;", c)
}

// AppendBG appends ESC[48;2;R;G;Bm.
func AppendBG(dst []byte, c RGB) []byte {
	return appendRGB(dst, "\x1b[48;2;", c)
}

// AppendFG256 appends ESC[38;5;Nm.
func AppendFG256(dst []byte, n uint8) []byte {
	dst = append(dst, "\x1b[38;5;"...)
	dst = append(dst, numerals[n]...)

	return append(dst, 'm')
}

// AppendBG256 appends ESC[48;5;Nm.
func AppendBG256(dst []byte, n uint8) []byte {
	dst = append(dst, "\x1b[48;5;"...)
	dst = append(dst, numerals[n]...)

	return append(dst, 'm')
}

// AppendRowEnd appends the reset and newline that close every rendered row.
func AppendRowEnd(dst []byte) []byte {
	return append(dst, Reset+"\n"...)
}
