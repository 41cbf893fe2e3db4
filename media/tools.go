package media

import (
	"errors"
	"fmt"
	"os/exec"
)

var (
	// ErrToolMissing indicates that an external program is not installed.
	ErrToolMissing = errors.New("external tool not found")
	// ErrProbe indicates that ffprobe failed or returned unusable metadata.
	ErrProbe = errors.New("probing media")
	// ErrUnsupportedSource indicates a source that cannot be decoded.
	ErrUnsupportedSource = errors.New("unsupported source")
)

// Tools names the external programs used for decoding and encoding.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// DefaultTools returns the programs found on PATH by their usual names.
func DefaultTools() Tools {
	return Tools{
		FFmpeg:  "ffmpeg",
		FFprobe: "ffprobe",
	}
}

// lookPath resolves name, wrapping a miss in [ErrToolMissing].
func lookPath(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: install it or add it to PATH", ErrToolMissing, name)
	}

	return p, nil
}

// Check verifies that ffmpeg and ffprobe can be found.
func (t Tools) Check() error {
	_, err := lookPath(t.FFmpeg)
	if err != nil {
		return err
	}

	_, err = lookPath(t.FFprobe)
	if err != nil {
		return err
	}

	return nil
}
