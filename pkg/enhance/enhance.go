// Package enhance prepares a single stain channel of a microscopy image
// for boundary extraction. Each channel is contrast-stretched with min-max
// normalization and binarized with a channel-specific cutoff.
package enhance

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Channel identifies one color channel of a stained-cell image. The set is
// closed: Blue, Green and Red are physical planes of the decoded image,
// while White is derived by intersecting the three binary masks and is
// never enhanced directly.
type Channel uint8

const (
	Blue Channel = iota
	Green
	Red
	White
)

// String returns the channel name as used in metrics column labels.
func (c Channel) String() string {
	switch c {
	case Blue:
		return "Blue"
	case Green:
		return "Green"
	case Red:
		return "Red"
	case White:
		return "White"
	default:
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
}

var (
	// ErrUnknownChannel reports a channel tag outside the supported set.
	ErrUnknownChannel = errors.New("enhance: unknown channel")

	// ErrEmptyGrid reports a zero-sized pixel grid, which indicates an
	// upstream decode failure and must be rejected before enhancement.
	ErrEmptyGrid = errors.New("enhance: empty pixel grid")
)

// cutoff returns the binarization threshold for a directly-enhanced channel.
// White has no cutoff of its own; its mask is assembled by the caller.
func cutoff(c Channel) (uint8, error) {
	switch c {
	case Green:
		return 15, nil
	case Red:
		return 35, nil
	case Blue:
		return 35, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownChannel, c)
	}
}

// Enhance normalizes a single-channel pixel grid and binarizes it with the
// channel's cutoff. It returns the normalized grid and the binary mask.
// An unrecognized channel tag is a contract violation: the call fails and
// produces no outputs.
func Enhance(grid *image.Gray, c Channel) (norm, mask *image.Gray, err error) {
	if grid == nil || grid.Bounds().Empty() {
		return nil, nil, ErrEmptyGrid
	}

	t, err := cutoff(c)
	if err != nil {
		return nil, nil, err
	}

	norm = Normalize(grid)
	mask = Threshold(norm, t)
	return norm, mask, nil
}

// Normalize linearly rescales intensities so the observed minimum maps to 0
// and the observed maximum to 255. A flat grid maps to all zeros.
func Normalize(grid *image.Gray) *image.Gray {
	b := grid.Bounds()

	lo, hi := uint8(255), uint8(0)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := grid.Pix[(y-b.Min.Y)*grid.Stride : (y-b.Min.Y)*grid.Stride+b.Dx()]
		for _, v := range row {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	out := image.NewGray(b)
	if hi == lo {
		return out
	}

	span := float64(hi - lo)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		src := grid.Pix[(y-b.Min.Y)*grid.Stride : (y-b.Min.Y)*grid.Stride+b.Dx()]
		dst := out.Pix[(y-b.Min.Y)*out.Stride : (y-b.Min.Y)*out.Stride+b.Dx()]
		for x, v := range src {
			dst[x] = uint8(float64(v-lo)*255.0/span + 0.5)
		}
	}

	return out
}

// Threshold binarizes a grid: values at or above the cutoff become 255,
// everything below becomes 0.
func Threshold(grid *image.Gray, t uint8) *image.Gray {
	b := grid.Bounds()
	out := image.NewGray(b)

	for y := 0; y < b.Dy(); y++ {
		src := grid.Pix[y*grid.Stride : y*grid.Stride+b.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x, v := range src {
			if v >= t {
				dst[x] = 255
			}
		}
	}

	return out
}

// Intersect computes the logical AND of binary masks: a pixel is foreground
// in the result only if it is foreground in every input. All masks must
// share the same bounds. The White mask is Intersect(blue, green, red).
func Intersect(masks ...*image.Gray) *image.Gray {
	if len(masks) == 0 {
		return nil
	}

	b := masks[0].Bounds()
	out := image.NewGray(b)

	for y := 0; y < b.Dy(); y++ {
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = 255
		}
		for _, m := range masks {
			src := m.Pix[y*m.Stride : y*m.Stride+b.Dx()]
			for x, v := range src {
				if v == 0 {
					dst[x] = 0
				}
			}
		}
	}

	return out
}

// ExtractChannel pulls a single color plane out of a decoded image as an
// 8-bit grayscale grid. Only the physical planes can be extracted.
func ExtractChannel(img image.Image, c Channel) (*image.Gray, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, ErrEmptyGrid
	}
	if c != Blue && c != Green && c != Red {
		return nil, fmt.Errorf("%w: %s is not a physical plane", ErrUnknownChannel, c)
	}

	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			var v uint32
			switch c {
			case Blue:
				v = bl
			case Green:
				v = g
			case Red:
				v = r
			}
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: uint8(v >> 8)})
		}
	}

	return out, nil
}
