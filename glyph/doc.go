// Package glyph holds the Unicode and ANSI building blocks used by every
// renderer: the Braille pattern table, half-block and shade runes, the ANSI
// 256-color palette and allocation-free SGR emitters.
//
// All emitters follow the append convention of [strconv.AppendInt]: they take
// a caller-owned buffer and return the extended slice. With a buffer of
// sufficient capacity no call allocates.
//
//	buf = glyph.AppendFG(buf, glyph.RGB{R: 255})
//	buf = glyph.AppendBraille(buf, 0xF0)
//	buf = append(buf, glyph.Reset...)
package glyph
