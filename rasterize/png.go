package rasterize

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

var encoder = png.Encoder{CompressionLevel: png.BestSpeed}

// WritePNG encodes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path) //nolint:gosec // Output paths are built by the caller.
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	err = encoder.Encode(f, img)
	if err != nil {
		closeErr := f.Close()
		if closeErr != nil {
			return fmt.Errorf("encoding %s: %w (close: %w)", path, err, closeErr)
		}

		return fmt.Errorf("encoding %s: %w", path, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	return nil
}
