package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"cellmetrics/pkg/geometry"
)

const (
	// BinArea is the width of one area histogram bucket.
	BinArea = 40

	// NumBins is the number of histogram buckets; the last one is
	// open-ended.
	NumBins = 11
)

// Record is the per-channel separation statistics record. DiameterSum and
// AspectRatioSum are sums over cells, not means, even though the
// conventional column labels say "(mean)"; downstream consumers rely on the
// sum semantics.
type Record struct {
	Count          int
	DiameterSum    float64
	AspectRatioSum float64
	Histogram      [NumBins]int
}

// Aggregate reduces a filtered cell list into a Record. Per cell it fits
// the minimal-area rotated rectangle for the aspect ratio, computes the
// shoelace polygon area for the equivalent-circle diameter, and bins the
// area into the histogram.
func Aggregate(cells []Candidate) Record {
	var rec Record
	for _, c := range cells {
		rec.Count++

		w, h := geometry.MinAreaRect(c.Points)
		if w > 0 && h > 0 {
			ratio := w / h
			if ratio > 1 {
				ratio = 1 / ratio
			}
			rec.AspectRatioSum += ratio
		}

		area := geometry.PolygonArea(c.Points)
		rec.DiameterSum += 2 * math.Sqrt(area/math.Pi)

		bin := int(area / BinArea)
		if bin >= NumBins {
			bin = NumBins - 1
		}
		rec.Histogram[bin]++
	}
	return rec
}

// String serializes the record as 14 comma-separated fields:
// count, diameter sum, aspect-ratio sum, then the 11 histogram buckets.
func (r Record) String() string {
	fields := make([]string, 0, 3+NumBins)
	fields = append(fields,
		strconv.Itoa(r.Count),
		formatFloat(r.DiameterSum),
		formatFloat(r.AspectRatioSum),
	)
	for _, n := range r.Histogram {
		fields = append(fields, strconv.Itoa(n))
	}
	return strings.Join(fields, ",")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// channelOrder is the per-image record order in an output row.
var channelOrder = []string{"Green", "Red", "White"}

// Header returns the 43 column labels of the metrics CSV: the image name
// followed by one 14-field group per channel. The diameter and aspect-ratio
// labels say "(mean)" for compatibility with existing consumers although
// the values are sums.
func Header() []string {
	cols := []string{"Image_Name"}
	for _, ch := range channelOrder {
		cols = append(cols,
			ch+"_Contour_Count",
			ch+"_Contour_Diameter_(mean)",
			ch+"_Contour_Aspect_Ratio_(mean)",
		)
		for i := 0; i < NumBins-1; i++ {
			cols = append(cols, fmt.Sprintf("%d <= %s_Contour_Area < %d", i*BinArea, ch, (i+1)*BinArea))
		}
		cols = append(cols, fmt.Sprintf("%s_Contour_Area >= %d", ch, (NumBins-1)*BinArea))
	}
	return cols
}
