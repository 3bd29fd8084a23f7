package pipeline

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	// Decoders for formats common in microscopy exports.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// loadImage decodes an input image from disk. imaging handles the common
// formats; WebP gets an explicit fallback before the generic decoder.
func loadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".webp") {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}
