package still

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"go.jacobcolvin.com/glyphcast/media"
	"go.jacobcolvin.com/glyphcast/raster"
)

// ErrLoad indicates that a still image could not be read or decoded.
var ErrLoad = errors.New("loading image")

// Loader reads a still image scaled to a pixel width, keeping its aspect
// ratio, in the requested pixel format.
type Loader interface {
	Load(ctx context.Context, path string, width int, format raster.Format) (*raster.Frame, error)
}

// Parser names a [Loader] backend.
type Parser string

const (
	// ParserDefault converts with ImageMagick.
	ParserDefault Parser = "default"
	// ParserOpenCV decodes in process.
	ParserOpenCV Parser = "opencv"
)

// Parsers returns every parser name.
func Parsers() []string {
	return []string{string(ParserDefault), string(ParserOpenCV)}
}

// NewLoader returns the loader for p. Unknown parsers use the default.
func NewLoader(p Parser) Loader {
	if p == ParserOpenCV {
		return NativeLoader{}
	}

	return ConvertLoader{Bin: "convert"}
}

// ConvertLoader shells out to an ImageMagick compatible convert binary,
// which normalizes any input into a binary PPM stream. Gray frames are
// derived from the RGB stream with [raster.Frame.Convert].
type ConvertLoader struct {
	Bin string
}

// Args returns the convert arguments for path.
func (l ConvertLoader) Args(path string, width int) []string {
	return []string{path, "-resize", strconv.Itoa(width) + "x", "-depth", "8", "ppm:-"}
}

// Load implements [Loader].
func (l ConvertLoader) Load(ctx context.Context, path string, width int, format raster.Format) (*raster.Frame, error) {
	bin, err := exec.LookPath(l.Bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: install ImageMagick or use the opencv parser", media.ErrToolMissing, l.Bin)
	}

	_, err = os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	//nolint:gosec // Arguments are built from CLI input, not untrusted data.
	cmd := exec.CommandContext(ctx, bin, l.Args(path, width)...)

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w: %s", ErrLoad, path, err, strings.TrimSpace(stderr.String()))
	}

	f, err := raster.DecodeNetpbm(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}

	return f.Convert(format), nil
}

// NativeLoader decodes in process: Netpbm files through the raster
// package, everything else through imaging with EXIF orientation applied.
type NativeLoader struct{}

// Load implements [Loader].
func (NativeLoader) Load(_ context.Context, path string, width int, format raster.Format) (*raster.Frame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ppm", ".pgm", ".pbm", ".pnm":
		return loadNetpbm(path, width, format)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	if img.Bounds().Dx() != width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	return raster.FromImage(img, format), nil
}

func loadNetpbm(path string, width int, format raster.Format) (*raster.Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer fh.Close()

	f, err := raster.DecodeNetpbm(fh)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoad, path, err)
	}

	if f.Width != width {
		f = f.ScaleToWidth(width)
	}

	return f.Convert(format), nil
}
