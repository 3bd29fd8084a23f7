package contour

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"cellmetrics/pkg/enhance"
	"cellmetrics/pkg/geometry"
)

// fillRect marks the inclusive pixel rectangle as foreground.
func fillRect(mask *image.Gray, x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
		}
	}
}

// ringMask is a 12x12 grid with a filled square [1,10] and a hole [4,7].
func ringMask() *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, 12, 12))
	fillRect(mask, 1, 1, 10, 10)
	for y := 4; y <= 7; y++ {
		for x := 4; x <= 7; x++ {
			mask.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	return mask
}

// TestExtractFilledSquare checks the basic case: one solid region yields one
// outermost boundary whose area is the squared-pixel extent between corners.
func TestExtractFilledSquare(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 8, 8))
	fillRect(mask, 2, 2, 5, 5)

	ext, err := Extract(mask, enhance.Green, 1.0)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(ext.Contours) != 1 {
		t.Fatalf("Expected 1 contour, got %d", len(ext.Contours))
	}
	// Axis-aligned square: only the 4 corners survive simplification
	if len(ext.Contours[0]) != 4 {
		t.Errorf("Expected 4 boundary points, got %d", len(ext.Contours[0]))
	}
	if ext.Types[0] != Parent {
		t.Errorf("Expected parent classification, got %s", ext.Types[0])
	}
	if math.Abs(ext.NetAreas[0]-9) > 1e-9 {
		t.Errorf("Expected net area 9, got %f", ext.NetAreas[0])
	}
	n := ext.Hierarchy[0]
	if n.Next != -1 || n.Prev != -1 || n.FirstChild != -1 || n.Parent != -1 {
		t.Errorf("Expected isolated root node, got %+v", n)
	}
}

// TestExtractRingTwoLevel checks hole attachment and area reconciliation:
// the hole boundary becomes a child and its area is subtracted from the net.
func TestExtractRingTwoLevel(t *testing.T) {
	ext, err := Extract(ringMask(), enhance.Red, 1.0)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(ext.Contours) != 2 {
		t.Fatalf("Expected 2 contours, got %d", len(ext.Contours))
	}

	// Outer boundary spans corners (1,1)-(10,10): area 81. The hole boundary
	// cuts the corners diagonally, giving the octagon (3,4),(4,3),(7,3),
	// (8,4),(8,7),(7,8),(4,8),(3,7): area 23. Net 58.
	if ext.Types[0] != Parent {
		t.Errorf("Expected outer boundary to be parent, got %s", ext.Types[0])
	}
	if math.Abs(ext.NetAreas[0]-58) > 1e-9 {
		t.Errorf("Expected net area 58, got %f", ext.NetAreas[0])
	}
	if ext.Types[1] != Child {
		t.Errorf("Expected hole boundary to be child, got %s", ext.Types[1])
	}
	if ext.NetAreas[1] != 0 {
		t.Errorf("Expected zero net area for child, got %f", ext.NetAreas[1])
	}
	if len(ext.Contours[1]) != 8 {
		t.Errorf("Expected an octagonal hole boundary, got %d points", len(ext.Contours[1]))
	}
	if got := geometry.PolygonArea(ext.Contours[1]); math.Abs(got-23) > 1e-9 {
		t.Errorf("Expected hole area 23, got %f", got)
	}

	if ext.Hierarchy[0].FirstChild != 1 {
		t.Errorf("Expected hole as first child, got %d", ext.Hierarchy[0].FirstChild)
	}
	if ext.Hierarchy[1].Parent != 0 {
		t.Errorf("Expected hole's parent to be the outer boundary, got %d", ext.Hierarchy[1].Parent)
	}
}

// TestExtractRingExternal checks the outermost-only mode: the hole is not
// retrieved and the outer boundary keeps its gross area.
func TestExtractRingExternal(t *testing.T) {
	ext, err := Extract(ringMask(), enhance.Green, 1.0)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(ext.Contours) != 1 {
		t.Fatalf("Expected 1 contour, got %d", len(ext.Contours))
	}
	if ext.Types[0] != Parent {
		t.Errorf("Expected parent classification, got %s", ext.Types[0])
	}
	if math.Abs(ext.NetAreas[0]-81) > 1e-9 {
		t.Errorf("Expected net area 81, got %f", ext.NetAreas[0])
	}
}

// TestExtractIslandPromotion checks that a region nested inside a hole is
// promoted to the top level and reconciled independently.
func TestExtractIslandPromotion(t *testing.T) {
	mask := ringMask()
	fillRect(mask, 5, 5, 6, 6)

	ext, err := Extract(mask, enhance.Red, 1.0)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(ext.Contours) != 3 {
		t.Fatalf("Expected 3 contours, got %d", len(ext.Contours))
	}

	wantTypes := []HierarchyType{Parent, Child, Parent}
	wantAreas := []float64{58, 0, 1}
	for i := range wantTypes {
		if ext.Types[i] != wantTypes[i] {
			t.Errorf("Contour %d: expected %s, got %s", i, wantTypes[i], ext.Types[i])
		}
		if math.Abs(ext.NetAreas[i]-wantAreas[i]) > 1e-9 {
			t.Errorf("Contour %d: expected net area %f, got %f", i, wantAreas[i], ext.NetAreas[i])
		}
	}

	// The island sits inside the hole but must be a root, not a grandchild
	if ext.Hierarchy[2].Parent != -1 {
		t.Errorf("Expected island promoted to root, got parent %d", ext.Hierarchy[2].Parent)
	}
}

// TestExtractBelowThreshold checks that a net area under the threshold
// rejects both the outer boundary and its holes.
func TestExtractBelowThreshold(t *testing.T) {
	ext, err := Extract(ringMask(), enhance.Red, 100.0)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	for i := range ext.Contours {
		if ext.Types[i] != Invalid {
			t.Errorf("Contour %d: expected invalid, got %s", i, ext.Types[i])
		}
		if ext.NetAreas[i] != 0 {
			t.Errorf("Contour %d: expected zero net area, got %f", i, ext.NetAreas[i])
		}
	}
}

// TestExtractSinglePixel checks the degenerate one-point boundary: retrieved
// but rejected by the area threshold.
func TestExtractSinglePixel(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 5, 5))
	mask.SetGray(2, 2, color.Gray{Y: 255})

	ext, err := Extract(mask, enhance.Green, 1.0)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(ext.Contours) != 1 {
		t.Fatalf("Expected 1 contour, got %d", len(ext.Contours))
	}
	if len(ext.Contours[0]) != 1 {
		t.Errorf("Expected single-point boundary, got %d points", len(ext.Contours[0]))
	}
	if ext.Types[0] != Invalid {
		t.Errorf("Expected invalid classification, got %s", ext.Types[0])
	}
}

// TestExtractEmptyMask checks that an all-background mask yields no contours
func TestExtractEmptyMask(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 10, 10))

	ext, err := Extract(mask, enhance.Red, 1.0)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(ext.Contours) != 0 {
		t.Errorf("Expected no contours, got %d", len(ext.Contours))
	}
}

// TestExtractTouchingFrame checks regions flush against the image border
func TestExtractTouchingFrame(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 6, 6))
	fillRect(mask, 0, 0, 2, 2)

	ext, err := Extract(mask, enhance.Green, 1.0)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(ext.Contours) != 1 {
		t.Fatalf("Expected 1 contour, got %d", len(ext.Contours))
	}
	if math.Abs(ext.NetAreas[0]-4) > 1e-9 {
		t.Errorf("Expected net area 4, got %f", ext.NetAreas[0])
	}
}

// TestExtractErrors checks contract violations
func TestExtractErrors(t *testing.T) {
	if _, err := Extract(nil, enhance.Green, 1.0); !errors.Is(err, enhance.ErrEmptyGrid) {
		t.Errorf("Expected ErrEmptyGrid for nil mask, got %v", err)
	}

	mask := image.NewGray(image.Rect(0, 0, 4, 4))
	if _, err := Extract(mask, enhance.Blue, 1.0); !errors.Is(err, ErrUnsupportedChannel) {
		t.Errorf("Expected ErrUnsupportedChannel for blue, got %v", err)
	}
}

// TestRenderSegmentedDeterministic checks that the debug canvas is identical
// across calls and that hole interiors stay unpainted.
func TestRenderSegmentedDeterministic(t *testing.T) {
	ext, err := Extract(ringMask(), enhance.Red, 1.0)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	first := ext.RenderSegmented()
	second := ext.RenderSegmented()

	if first.Bounds().Dx() != 12 || first.Bounds().Dy() != 12 {
		t.Fatalf("Expected 12x12 canvas, got %v", first.Bounds())
	}
	if !bytes.Equal(first.Pix, second.Pix) {
		t.Errorf("Expected identical renders across calls")
	}

	// (5,5) lies inside the hole: excluded from the fill, stays black
	r, g, b, a := first.At(5, 5).RGBA()
	if r != 0 || g != 0 || b != 0 || a != 0xffff {
		t.Errorf("Expected hole interior to stay black, got (%d,%d,%d,%d)", r, g, b, a)
	}
}
