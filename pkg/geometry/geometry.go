// Package geometry provides the planar primitives used by the contour
// and metrics packages: polygon area and perimeter, convex hulls, and
// minimal-area rotated bounding rectangles.
package geometry

import (
	"math"
	"sort"
)

// Point represents a 2D point with floating-point coordinates.
// Contour vertices always carry integral values, but downstream
// measurements (hull edges, rectangle fitting) need real arithmetic.
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance to another point.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PolygonArea computes the unsigned area of a closed polygon using the
// shoelace formula. Polygons with fewer than 3 vertices have zero area.
func PolygonArea(polygon []Point) float64 {
	if len(polygon) < 3 {
		return 0
	}

	var sum float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}

	return math.Abs(sum) / 2
}

// ArcLength computes the perimeter of a closed polygon, including the
// segment from the last vertex back to the first.
func ArcLength(polygon []Point) float64 {
	if len(polygon) < 2 {
		return 0
	}

	var length float64
	n := len(polygon)
	for i := 0; i < n; i++ {
		length += polygon[i].Distance(polygon[(i+1)%n])
	}

	return length
}

// ConvexHull computes the convex hull of a set of points using Graham scan.
// Returns the hull vertices in counter-clockwise order. Collinear points
// interior to hull edges are discarded.
func ConvexHull(points []Point) []Point {
	if len(points) < 3 {
		return points
	}

	// Make a copy to avoid modifying the input
	pts := make([]Point, len(points))
	copy(pts, points)

	// Find the point with lowest y (and leftmost if tied)
	lowest := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].Y < pts[lowest].Y ||
			(pts[i].Y == pts[lowest].Y && pts[i].X < pts[lowest].X) {
			lowest = i
		}
	}
	pts[0], pts[lowest] = pts[lowest], pts[0]
	pivot := pts[0]

	// Sort the remainder by polar angle around the pivot; ties are broken
	// by distance so the farthest point survives the scan.
	sorted := pts[1:]
	sort.Slice(sorted, func(i, j int) bool {
		cross := crossProduct(pivot, sorted[i], sorted[j])
		if cross != 0 {
			return cross > 0
		}
		return distSq(pivot, sorted[i]) < distSq(pivot, sorted[j])
	})

	hull := []Point{pivot}
	for _, p := range sorted {
		for len(hull) > 1 && crossProduct(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	return hull
}

// MinAreaRect fits the minimal-area rotated bounding rectangle around a
// point set using rotating calipers over the convex hull, and returns the
// rectangle's side lengths. A degenerate input (all points collinear or
// fewer than 3 distinct points) yields a zero height; callers must guard
// the ratio accordingly.
func MinAreaRect(points []Point) (width, height float64) {
	hull := ConvexHull(points)

	if len(hull) < 3 {
		// Collapsed hull: extent along the segment, no thickness.
		var maxDist float64
		for i := range hull {
			for j := i + 1; j < len(hull); j++ {
				if d := hull[i].Distance(hull[j]); d > maxDist {
					maxDist = d
				}
			}
		}
		return maxDist, 0
	}

	bestArea := math.Inf(1)
	for i := range hull {
		p1 := hull[i]
		p2 := hull[(i+1)%len(hull)]

		ex, ey := p2.X-p1.X, p2.Y-p1.Y
		l := math.Hypot(ex, ey)
		if l == 0 {
			continue
		}
		ux, uy := ex/l, ey/l

		// Project every hull vertex onto the edge direction and its normal.
		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			u := ux*(p.X-p1.X) + uy*(p.Y-p1.Y)
			v := -uy*(p.X-p1.X) + ux*(p.Y-p1.Y)
			minU = math.Min(minU, u)
			maxU = math.Max(maxU, u)
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}

		w := maxU - minU
		h := maxV - minV
		if w*h < bestArea {
			bestArea = w * h
			width, height = w, h
		}
	}

	return width, height
}

// PointInPolygon tests if a point is inside a polygon using ray casting.
func PointInPolygon(p Point, polygon []Point) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// BoundingBox computes the axis-aligned bounding box of a point set and
// returns its corners as (minX, minY, maxX, maxY).
func BoundingBox(points []Point) (minX, minY, maxX, maxY float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = points[0].X, points[0].Y
	maxX, maxY = minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}
	return minX, minY, maxX, maxY
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// distSq computes the squared distance between two points.
func distSq(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
