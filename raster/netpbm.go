package raster

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// DecodeNetpbm reads a single P1-P6 image. Bitmaps (P1, P4) and graymaps
// (P2, P5) decode to [Gray8]; pixmaps (P3, P6) decode to [RGB24]. Samples
// with a maxval other than 255 are rescaled to 0-255.
func DecodeNetpbm(r io.Reader) (*Frame, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	magic := make([]byte, 2)

	_, err := io.ReadFull(br, magic)
	if err != nil {
		return nil, fmt.Errorf("%w: reading magic: %w", ErrFormat, err)
	}

	if magic[0] != 'P' || magic[1] < '1' || magic[1] > '6' {
		return nil, fmt.Errorf("%w: bad netpbm magic %q", ErrFormat, magic)
	}

	kind := magic[1]

	w, err := readHeaderInt(br)
	if err != nil {
		return nil, err
	}

	h, err := readHeaderInt(br)
	if err != nil {
		return nil, err
	}

	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrSize, w, h)
	}

	maxval := 1
	if kind != '1' && kind != '4' {
		maxval, err = readHeaderInt(br)
		if err != nil {
			return nil, err
		}

		if maxval <= 0 || maxval > 65535 {
			return nil, fmt.Errorf("%w: maxval %d", ErrFormat, maxval)
		}
	}

	// Exactly one whitespace byte separates the header from binary data.
	if kind >= '4' {
		_, err = br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
	}

	switch kind {
	case '1':
		return decodeBitmapASCII(br, w, h)
	case '4':
		return decodeBitmapBinary(br, w, h)
	case '2', '3':
		f := New(w, h, formatFor(kind))
		for i := range f.Pix {
			v, err := readHeaderInt(br)
			if err != nil {
				return nil, err
			}

			f.Pix[i] = scaleSample(v, maxval)
		}

		return f, nil
	}

	f := New(w, h, formatFor(kind))

	if maxval < 256 {
		_, err = io.ReadFull(br, f.Pix)
		if err != nil {
			return nil, fmt.Errorf("%w: pixel data: %w", ErrSize, err)
		}

		if maxval != 255 {
			for i, v := range f.Pix {
				f.Pix[i] = scaleSample(int(v), maxval)
			}
		}

		return f, nil
	}

	wide := make([]byte, 2*len(f.Pix))

	_, err = io.ReadFull(br, wide)
	if err != nil {
		return nil, fmt.Errorf("%w: pixel data: %w", ErrSize, err)
	}

	for i := range f.Pix {
		f.Pix[i] = scaleSample(int(wide[2*i])<<8|int(wide[2*i+1]), maxval)
	}

	return f, nil
}

func formatFor(kind byte) Format {
	if kind == '3' || kind == '6' {
		return RGB24
	}

	return Gray8
}

func scaleSample(v, maxval int) uint8 {
	if v >= maxval {
		return 255
	}

	if maxval == 255 {
		return uint8(v)
	}

	return uint8((v*255 + maxval/2) / maxval)
}

func decodeBitmapASCII(br *bufio.Reader, w, h int) (*Frame, error) {
	f := New(w, h, Gray8)

	for i := range f.Pix {
		b, err := skipSpace(br)
		if err != nil {
			return nil, fmt.Errorf("%w: bitmap data: %w", ErrSize, err)
		}

		// In bitmaps 1 is black.
		if b == '0' {
			f.Pix[i] = 255
		}
	}

	return f, nil
}

func decodeBitmapBinary(br *bufio.Reader, w, h int) (*Frame, error) {
	f := New(w, h, Gray8)
	row := make([]byte, (w+7)/8)

	for y := range h {
		_, err := io.ReadFull(br, row)
		if err != nil {
			return nil, fmt.Errorf("%w: bitmap data: %w", ErrSize, err)
		}

		for x := range w {
			if row[x/8]&(0x80>>(x%8)) == 0 {
				f.Pix[y*w+x] = 255
			}
		}
	}

	return f, nil
}

// skipSpace returns the next byte that is neither whitespace nor part of a
// comment.
func skipSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}

		switch b {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			continue
		case '#':
			_, err = br.ReadString('\n')
			if err != nil {
				return 0, err
			}

			continue
		}

		return b, nil
	}
}

func readHeaderInt(br *bufio.Reader) (int, error) {
	b, err := skipSpace(br)
	if err != nil {
		return 0, fmt.Errorf("%w: header: %w", ErrFormat, err)
	}

	digits := []byte{b}

	for {
		b, err = br.ReadByte()
		if err == io.EOF {
			break
		}

		if err != nil {
			return 0, fmt.Errorf("%w: header: %w", ErrFormat, err)
		}

		if b < '0' || b > '9' {
			err = br.UnreadByte()
			if err != nil {
				return 0, fmt.Errorf("%w: header: %w", ErrFormat, err)
			}

			break
		}

		digits = append(digits, b)
	}

	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, fmt.Errorf("%w: header value %q", ErrFormat, digits)
	}

	return n, nil
}

// EncodeNetpbm writes f as binary P5 (gray) or P6 (RGB) with maxval 255.
func EncodeNetpbm(w io.Writer, f *Frame) error {
	magic := "P6"
	if f.Format == Gray8 {
		magic = "P5"
	}

	_, err := fmt.Fprintf(w, "%s\n%d %d\n255\n", magic, f.Width, f.Height)
	if err != nil {
		return fmt.Errorf("writing netpbm header: %w", err)
	}

	_, err = w.Write(f.Pix)
	if err != nil {
		return fmt.Errorf("writing netpbm data: %w", err)
	}

	return nil
}
