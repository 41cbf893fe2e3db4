// Package export renders media to files: glyph text, rasterized PNG images
// and re-encoded videos.
//
// A video export decodes every frame to a numbered PNG, renders each frame
// through the still image pipeline, paints the glyphs back onto a pixel
// grid with [rasterize.Renderer] and encodes the result with ffmpeg. The
// render and rasterize phases run as two worker pools connected by a
// bounded channel, so at most a few glyph strings are held at once. All
// intermediate files live in a temporary directory owned by the job.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.jacobcolvin.com/glyphcast/canvas"
	"go.jacobcolvin.com/glyphcast/media"
)

var (
	// ErrFormat indicates an output format that cannot be produced from
	// the input.
	ErrFormat = errors.New("unsupported export format")
	// ErrNoFrames indicates that decoding produced no frames.
	ErrNoFrames = errors.New("no frames decoded")
	// ErrEncode indicates that ffmpeg failed to encode the output video.
	ErrEncode = errors.New("encoding video")
	// ErrDecode indicates that ffmpeg failed to extract frames.
	ErrDecode = errors.New("extracting frames")
)

// Format is an export output kind.
type Format string

// Formats.
const (
	FormatText     Format = "text"
	FormatImage    Format = "image"
	FormatVideo    Format = "video"
	FormatPythonic Format = "pythonic"
)

var allFormats = []Format{FormatText, FormatImage, FormatVideo, FormatPythonic}

// Formats returns the names of all formats.
func Formats() []string {
	out := make([]string, len(allFormats))
	for i, f := range allFormats {
		out[i] = string(f)
	}

	return out
}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if slices.Contains(allFormats, f) {
		return f, nil
	}

	return "", fmt.Errorf("%w: %q", ErrFormat, s)
}

// Job describes one export.
type Job struct {
	Input  string
	Output string
	Format Format
	Mode   canvas.Mode
	Params canvas.Params

	MaxWidth int
	// FPS is the output frame rate; zero keeps the source rate.
	FPS float64
	// Start and End bound the exported clip in seconds; negative values
	// leave that side open.
	Start, End float64

	// Audio muxes the source audio track into video output.
	Audio bool
	// UseGPU allows hardware H.264 encoders.
	UseGPU bool

	DotSize   int
	Density   int
	Truecolor bool
}

// OutputPath returns Output, or a path next to the input with the
// extension of the job's format.
func (j Job) OutputPath() string {
	if j.Output != "" {
		return j.Output
	}

	base := strings.TrimSuffix(j.Input, filepath.Ext(j.Input))

	switch j.Format {
	case FormatText:
		return base + ".txt"
	case FormatImage:
		return base + ".png"
	case FormatVideo:
		return base + "_glyph.mp4"
	case FormatPythonic:
		return base + media.ContainerExt(j.Input)
	}

	return base + ".out"
}
