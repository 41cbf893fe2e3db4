// Package raster defines the raw pixel frame passed between decoders,
// canvases and the reverse renderer, along with conversions to and from
// [image.Image] and the Netpbm family of formats.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"go.jacobcolvin.com/glyphcast/glyph"
)

var (
	// ErrFormat indicates malformed or unsupported pixel data.
	ErrFormat = errors.New("invalid pixel format")
	// ErrSize indicates a pixel buffer whose length does not match its
	// dimensions.
	ErrSize = errors.New("invalid frame size")
)

// Format is the pixel layout of a [Frame].
type Format uint8

const (
	// Gray8 stores one luma byte per pixel.
	Gray8 Format = iota + 1
	// RGB24 stores interleaved R, G, B bytes per pixel.
	RGB24
)

// BytesPerPixel returns the pixel stride of f.
func (f Format) BytesPerPixel() int {
	switch f {
	case Gray8:
		return 1
	case RGB24:
		return 3
	}

	return 0
}

// String returns the ffmpeg pix_fmt name of f.
func (f Format) String() string {
	switch f {
	case Gray8:
		return "gray"
	case RGB24:
		return "rgb24"
	}

	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Frame is a row-major, top-left origin pixel buffer without padding.
type Frame struct {
	Pix    []byte
	Width  int
	Height int
	Format Format
}

// FrameSize returns the byte size of a w x h frame in format f.
func FrameSize(w, h int, f Format) int {
	return w * h * f.BytesPerPixel()
}

// New allocates a zeroed frame.
func New(w, h int, f Format) *Frame {
	return &Frame{
		Pix:    make([]byte, FrameSize(w, h, f)),
		Width:  w,
		Height: h,
		Format: f,
	}
}

// Wrap builds a frame over pix without copying. It fails when pix does not
// hold exactly w*h pixels.
func Wrap(pix []byte, w, h int, f Format) (*Frame, error) {
	if f.BytesPerPixel() == 0 {
		return nil, fmt.Errorf("%w: %v", ErrFormat, f)
	}

	if w <= 0 || h <= 0 || len(pix) != FrameSize(w, h, f) {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d %v", ErrSize, len(pix), w, h, f)
	}

	return &Frame{Pix: pix, Width: w, Height: h, Format: f}, nil
}

// GrayAt returns the luma of the pixel at (x, y).
func (f *Frame) GrayAt(x, y int) uint8 {
	if f.Format == Gray8 {
		return f.Pix[y*f.Width+x]
	}

	i := (y*f.Width + x) * 3

	return glyph.Gray(f.Pix[i], f.Pix[i+1], f.Pix[i+2])
}

// RGBAt returns the color of the pixel at (x, y).
func (f *Frame) RGBAt(x, y int) glyph.RGB {
	if f.Format == Gray8 {
		return glyph.GrayRGB(f.Pix[y*f.Width+x])
	}

	i := (y*f.Width + x) * 3

	return glyph.RGB{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2]}
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	c := *f
	c.Pix = append([]byte(nil), f.Pix...)

	return &c
}

// Convert returns f in the requested format, or f itself when it already
// matches.
func (f *Frame) Convert(to Format) *Frame {
	if f.Format == to {
		return f
	}

	out := New(f.Width, f.Height, to)

	for y := range f.Height {
		for x := range f.Width {
			i := y*f.Width + x
			if to == Gray8 {
				out.Pix[i] = f.GrayAt(x, y)
			} else {
				v := f.Pix[i]
				out.Pix[i*3], out.Pix[i*3+1], out.Pix[i*3+2] = v, v, v
			}
		}
	}

	return out
}

// FromImage copies img into a new frame of the given format.
func FromImage(img image.Image, f Format) *Frame {
	b := img.Bounds()
	out := New(b.Dx(), b.Dy(), f)

	switch src := img.(type) {
	case *image.Gray:
		if f == Gray8 {
			for y := range out.Height {
				copy(out.Pix[y*out.Width:(y+1)*out.Width], src.Pix[y*src.Stride:])
			}

			return out
		}
	case *image.RGBA:
		if f == RGB24 && src.Opaque() {
			copyRGBA(out, src.Pix, src.Stride)

			return out
		}
	case *image.NRGBA:
		if f == RGB24 && src.Opaque() {
			copyRGBA(out, src.Pix, src.Stride)

			return out
		}
	}

	for y := range out.Height {
		for x := range out.Width {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			i := y*out.Width + x

			if f == Gray8 {
				out.Pix[i] = glyph.Gray(c.R, c.G, c.B)
			} else {
				out.Pix[i*3], out.Pix[i*3+1], out.Pix[i*3+2] = c.R, c.G, c.B
			}
		}
	}

	return out
}

func copyRGBA(out *Frame, pix []byte, stride int) {
	for y := range out.Height {
		row := pix[y*stride:]
		for x := range out.Width {
			copy(out.Pix[(y*out.Width+x)*3:], row[x*4:x*4+3])
		}
	}
}

// Image returns an [image.Image] view of f. Gray frames map onto
// [*image.Gray] without copying; RGB frames are expanded to [*image.RGBA].
func (f *Frame) Image() image.Image {
	r := image.Rect(0, 0, f.Width, f.Height)

	if f.Format == Gray8 {
		return &image.Gray{Pix: f.Pix, Stride: f.Width, Rect: r}
	}

	img := image.NewRGBA(r)
	for i := range f.Width * f.Height {
		img.Pix[i*4] = f.Pix[i*3]
		img.Pix[i*4+1] = f.Pix[i*3+1]
		img.Pix[i*4+2] = f.Pix[i*3+2]
		img.Pix[i*4+3] = 0xFF
	}

	return img
}

// ScaleToWidth resizes f to the given pixel width, preserving aspect ratio.
func (f *Frame) ScaleToWidth(w int) *Frame {
	if w <= 0 || w == f.Width {
		return f
	}

	h := max(1, (f.Height*w+f.Width/2)/f.Width)
	src := f.Image()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return FromImage(dst, f.Format)
}
