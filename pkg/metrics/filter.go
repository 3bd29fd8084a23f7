// Package metrics filters accepted cell boundaries and reduces them into
// the fixed-format per-channel separation statistics record.
package metrics

import (
	"cellmetrics/pkg/contour"
	"cellmetrics/pkg/geometry"
)

const (
	// MinVertices is the minimum contour point count for a stable rotated
	// bounding rectangle fit.
	MinVertices = 5

	// MinArcLength is the minimum closed perimeter of an accepted cell.
	MinArcLength = 20
)

// Candidate is one contour carried through filtering: its boundary points,
// its classification and the net area reconciled during extraction.
type Candidate struct {
	Points  []geometry.Point
	Type    contour.HierarchyType
	NetArea float64
}

// Candidates flattens an extraction into the filterable per-contour view.
func Candidates(ext *contour.Extraction) []Candidate {
	cands := make([]Candidate, len(ext.Contours))
	for i := range ext.Contours {
		cands[i] = Candidate{
			Points:  ext.Contours[i],
			Type:    ext.Types[i],
			NetArea: ext.NetAreas[i],
		}
	}
	return cands
}

// FilterCells keeps only Parent contours that have enough vertices and a
// long enough closed perimeter to be measurable cells. Order is preserved;
// rejected candidates are dropped silently. The filter is idempotent.
func FilterCells(cands []Candidate) []Candidate {
	var cells []Candidate
	for _, c := range cands {
		if c.Type != contour.Parent {
			continue
		}
		if len(c.Points) < MinVertices {
			continue
		}
		if geometry.ArcLength(c.Points) < MinArcLength {
			continue
		}
		cells = append(cells, c)
	}
	return cells
}
