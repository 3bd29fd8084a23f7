// Package render produces the debug images of a pipeline run: channel
// composites, boundary overlays and the segmented canvases. Nothing here
// feeds back into the metrics path.
package render

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"cellmetrics/pkg/geometry"
	"cellmetrics/pkg/metrics"
)

// MergeBGR composes three grayscale planes into one color image, mirroring
// the blue/green/red plane order of the decoded source.
func MergeBGR(b, g, r *image.Gray) *image.NRGBA {
	bounds := b.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			out.SetNRGBA(x, y, color.NRGBA{
				R: r.Pix[y*r.Stride+x],
				G: g.Pix[y*g.Stride+x],
				B: b.Pix[y*b.Stride+x],
				A: 255,
			})
		}
	}
	return out
}

// Overlay draws cell boundaries onto copies of the normalized channel
// planes before composing them, so each boundary can take a different
// intensity per plane.
type Overlay struct {
	b, g, r *image.Gray
}

// NewOverlay clones the three planes; the originals are not touched.
func NewOverlay(b, g, r *image.Gray) *Overlay {
	return &Overlay{b: cloneGray(b), g: cloneGray(g), r: cloneGray(r)}
}

// DrawCells strokes each cell's closed boundary with the given per-plane
// intensities.
func (o *Overlay) DrawCells(cells []metrics.Candidate, vb, vg, vr uint8) {
	for _, c := range cells {
		drawClosedPolyline(o.b, c.Points, vb)
		drawClosedPolyline(o.g, c.Points, vg)
		drawClosedPolyline(o.r, c.Points, vr)
	}
}

// Compose merges the annotated planes into the final color overlay.
func (o *Overlay) Compose() *image.NRGBA {
	return MergeBGR(o.b, o.g, o.r)
}

func cloneGray(src *image.Gray) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], src.Pix[y*src.Stride:y*src.Stride+b.Dx()])
	}
	return dst
}

// drawClosedPolyline strokes the polygon edges with Bresenham lines,
// closing the last vertex back to the first.
func drawClosedPolyline(dst *image.Gray, pts []geometry.Point, v uint8) {
	n := len(pts)
	if n == 0 {
		return
	}
	for i := 0; i < n; i++ {
		p0 := pts[i]
		p1 := pts[(i+1)%n]
		drawLine(dst, int(p0.X), int(p0.Y), int(p1.X), int(p1.Y), v)
	}
}

func drawLine(dst *image.Gray, x0, y0, x1, y1 int, v uint8) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	b := dst.Bounds()
	for {
		if x0 >= 0 && y0 >= 0 && x0 < b.Dx() && y0 < b.Dy() {
			dst.Pix[y0*dst.Stride+x0] = v
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// InsertSuffix inserts a suffix before the filename extension:
// "img.png" + "_a_normalized" -> "img_a_normalized.png".
func InsertSuffix(name, suffix string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + suffix + ext
}

// Save writes a debug image, creating the directory as needed. Filenames
// with an extension the encoder does not know fall back to PNG.
func Save(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if _, err := imaging.FormatFromFilename(path); err != nil {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
