package contour

import (
	"image"
	"image/color"
	"math/rand"

	"cellmetrics/pkg/geometry"
)

// RenderSegmented paints every accepted Parent region into a fresh canvas,
// each with a random color drawn from a generator seeded per call, so the
// canvas is identical across runs. Hole interiors are left black. The
// canvas is a debug artifact; the metrics path never depends on it.
func (e *Extraction) RenderSegmented() *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, e.Width, e.Height))
	for y := 0; y < e.Height; y++ {
		for x := 0; x < e.Width; x++ {
			canvas.SetRGBA(x, y, color.RGBA{A: 255})
		}
	}

	rng := rand.New(rand.NewSource(overlaySeed))
	for i, poly := range e.Contours {
		if e.Types[i] != Parent {
			continue
		}
		col := color.RGBA{
			R: uint8(rng.Intn(255)),
			G: uint8(rng.Intn(255)),
			B: uint8(rng.Intn(255)),
			A: 255,
		}

		var holes [][]geometry.Point
		for c := e.Hierarchy[i].FirstChild; c > -1; c = e.Hierarchy[c].Next {
			if e.Types[c] == Child {
				holes = append(holes, e.Contours[c])
			}
		}

		minX, minY, maxX, maxY := geometry.BoundingBox(poly)
		for y := int(minY); y <= int(maxY); y++ {
			for x := int(minX); x <= int(maxX); x++ {
				p := geometry.Point{X: float64(x), Y: float64(y)}
				if !geometry.PointInPolygon(p, poly) {
					continue
				}
				inHole := false
				for _, hole := range holes {
					if geometry.PointInPolygon(p, hole) {
						inHole = true
						break
					}
				}
				if !inHole {
					canvas.SetRGBA(x, y, col)
				}
			}
		}

		// The ray-cast test misses part of the boundary itself; paint the
		// vertices so thin regions stay visible.
		for _, p := range poly {
			canvas.SetRGBA(int(p.X), int(p.Y), col)
		}
	}

	return canvas
}
