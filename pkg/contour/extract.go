// Package contour extracts region boundaries from binary masks, organizes
// them into a parent/hole forest, and reconciles net areas (outer boundary
// area minus the areas of its nested holes).
package contour

import (
	"errors"
	"fmt"
	"image"

	"cellmetrics/pkg/enhance"
	"cellmetrics/pkg/geometry"
)

// HierarchyType is the classification of a contour after area reconciliation.
type HierarchyType uint8

const (
	// Invalid marks contours below the area threshold, zero-area holes and
	// holes of rejected parents.
	Invalid HierarchyType = iota
	// Child marks a hole boundary nested directly inside an accepted parent.
	Child
	// Parent marks an outer boundary whose net area passed the threshold.
	Parent
)

// String returns a short tag for logging.
func (t HierarchyType) String() string {
	switch t {
	case Child:
		return "child"
	case Parent:
		return "parent"
	default:
		return "invalid"
	}
}

// Node holds one contour's links into the hierarchy forest as indices into
// the contour list. Absent relations are -1.
type Node struct {
	Next       int // next sibling
	Prev       int // previous sibling
	FirstChild int
	Parent     int
}

// ErrUnsupportedChannel reports a channel tag with no retrieval mode.
var ErrUnsupportedChannel = errors.New("contour: unsupported channel for retrieval")

// Extraction is the result of boundary extraction over one binary mask.
// All slices are indexed by contour; they are transient, scoped to one
// channel of one image.
type Extraction struct {
	// Width and Height are the mask dimensions; contour coordinates are
	// zero-based grid coordinates within them.
	Width  int
	Height int

	Contours  [][]geometry.Point
	Hierarchy []Node
	Types     []HierarchyType

	// NetAreas holds, per Parent contour, the outer area minus the summed
	// hole areas; zero for every non-Parent contour.
	NetAreas []float64
}

// overlaySeed fixes the color sequence of the segmented debug canvas so
// renders are reproducible regardless of call order or scheduling.
const overlaySeed = 12345

// Extract traces the boundaries of a binary mask and classifies them.
// The channel tag selects the retrieval mode: Green retrieves only outermost
// boundaries; Red and White retrieve a two-level hierarchy of outer
// boundaries and their immediate holes, with shapes nested inside holes
// promoted back to the top level. minArea is the acceptance threshold for
// reconciled net areas.
func Extract(mask *image.Gray, ch enhance.Channel, minArea float64) (*Extraction, error) {
	if mask == nil || mask.Bounds().Empty() {
		return nil, enhance.ErrEmptyGrid
	}

	var external bool
	switch ch {
	case enhance.Green:
		external = true
	case enhance.Red, enhance.White:
		external = false
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedChannel, ch)
	}

	borders := traceBorders(mask)

	ext := &Extraction{
		Width:  mask.Bounds().Dx(),
		Height: mask.Bounds().Dy(),
	}
	if external {
		ext.buildExternal(borders)
	} else {
		ext.buildTwoLevel(borders)
	}
	ext.reconcile(minArea)

	return ext, nil
}

// buildExternal keeps only outermost outer borders: those directly enclosed
// by the image frame. Retrieved contours are all roots; nesting is not
// tracked, so parent and child links stay -1.
func (e *Extraction) buildExternal(borders []rawBorder) {
	lastRoot := -1
	for _, rb := range borders[2:] {
		if rb.hole || rb.parent != 1 {
			continue
		}
		i := e.appendContour(rb)
		if lastRoot >= 0 {
			e.Hierarchy[lastRoot].Next = i
			e.Hierarchy[i].Prev = lastRoot
		}
		lastRoot = i
	}
}

// buildTwoLevel keeps every border and flattens the nesting to two levels:
// outer borders become roots (even when found inside a hole) and each hole
// border becomes a child of its enclosing outer border.
func (e *Extraction) buildTwoLevel(borders []rawBorder) {
	seqToIdx := make([]int, len(borders))
	for i := range seqToIdx {
		seqToIdx[i] = -1
	}

	for seq := 2; seq < len(borders); seq++ {
		seqToIdx[seq] = e.appendContour(borders[seq])
	}

	lastRoot := -1
	lastChild := make(map[int]int)
	for seq := 2; seq < len(borders); seq++ {
		i := seqToIdx[seq]
		rb := borders[seq]

		parent := -1
		if rb.hole && rb.parent >= 2 {
			parent = seqToIdx[rb.parent]
		}

		if parent == -1 {
			if lastRoot >= 0 {
				e.Hierarchy[lastRoot].Next = i
				e.Hierarchy[i].Prev = lastRoot
			}
			lastRoot = i
			continue
		}

		e.Hierarchy[i].Parent = parent
		if prev, ok := lastChild[parent]; ok {
			e.Hierarchy[prev].Next = i
			e.Hierarchy[i].Prev = prev
		} else {
			e.Hierarchy[parent].FirstChild = i
		}
		lastChild[parent] = i
	}
}

func (e *Extraction) appendContour(rb rawBorder) int {
	pts := make([]geometry.Point, len(rb.points))
	for i, p := range rb.points {
		pts[i] = geometry.Point{X: float64(p.X), Y: float64(p.Y)}
	}
	e.Contours = append(e.Contours, pts)
	e.Hierarchy = append(e.Hierarchy, Node{Next: -1, Prev: -1, FirstChild: -1, Parent: -1})
	e.Types = append(e.Types, Invalid)
	e.NetAreas = append(e.NetAreas, 0)
	return len(e.Contours) - 1
}

// reconcile classifies contours by net area. For each root contour whose
// outer area passes the threshold, the direct-children chain is walked:
// holes with nonzero area are collected and their areas subtracted. When
// the remaining net area still passes the threshold the root becomes
// Parent and the collected holes become Child; otherwise everything stays
// Invalid. Negative net areas (degenerate traces) simply fail the check.
func (e *Extraction) reconcile(minArea float64) {
	for i := range e.Contours {
		if e.Hierarchy[i].Parent > -1 {
			continue
		}

		outer := geometry.PolygonArea(e.Contours[i])
		if outer < minArea {
			continue
		}

		var holes []int
		var holeArea float64
		for c := e.Hierarchy[i].FirstChild; c > -1; c = e.Hierarchy[c].Next {
			a := geometry.PolygonArea(e.Contours[c])
			if a != 0 {
				holes = append(holes, c)
				holeArea += a
			}
		}

		net := outer - holeArea
		if net < minArea {
			continue
		}

		e.Types[i] = Parent
		e.NetAreas[i] = net
		for _, c := range holes {
			e.Types[c] = Child
		}
	}
}
