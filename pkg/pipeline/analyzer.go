// Package pipeline orchestrates the per-image morphometrics chain
// (enhance, extract, filter, aggregate) across the Green, Red and derived
// White channels, and drives whole batches of images in parallel.
package pipeline

import (
	"fmt"
	"image"
	"strings"

	"github.com/rs/zerolog"

	"cellmetrics/pkg/contour"
	"cellmetrics/pkg/enhance"
	"cellmetrics/pkg/metrics"
)

// Params holds the analysis configuration for one batch run.
type Params struct {
	// InputDir is the directory containing the input images.
	InputDir string

	// ListFile is an optional file inside InputDir naming the images to
	// process, one per line, in order. Empty or missing means InputDir is
	// scanned instead.
	ListFile string

	// OutputFile is the metrics CSV path.
	OutputFile string

	// NumWorkers is the number of images processed concurrently.
	NumWorkers int

	// MinContourArea is the net-area acceptance threshold; zero selects
	// the default of 1.0.
	MinContourArea float64

	// SaveIntermediates enables per-image debug renders.
	SaveIntermediates bool

	// IntermediatesDir is where debug renders are written.
	IntermediatesDir string
}

// Analyzer runs the separation-metrics pipeline. It is safe for concurrent
// use: per-image state never escapes a single AnalyzeImage call.
type Analyzer struct {
	params *Params
	log    zerolog.Logger
}

// NewAnalyzer creates an analyzer with the provided parameters.
func NewAnalyzer(params *Params, log zerolog.Logger) *Analyzer {
	if params.MinContourArea <= 0 {
		params.MinContourArea = 1.0
	}
	return &Analyzer{params: params, log: log}
}

// ChannelRun bundles one channel's outputs for a single image.
type ChannelRun struct {
	Channel    enhance.Channel
	Normalized *image.Gray // nil for the derived White channel
	Mask       *image.Gray
	Extraction *contour.Extraction
	Cells      []metrics.Candidate
	Record     metrics.Record
}

// ImageResult holds everything one image produced: the CSV row plus the
// per-channel artifacts needed for debug rendering.
type ImageResult struct {
	Name string

	// Row is the 43-field metrics row: image name, then the Green, Red and
	// White records.
	Row string

	Green ChannelRun
	Red   ChannelRun
	White ChannelRun

	// Blue is enhanced only to derive the White mask; kept for the debug
	// composites.
	BlueNormalized *image.Gray
	BlueMask       *image.Gray
}

// AnalyzeImage runs the full three-channel chain over one decoded image.
// The Green and Red channels are enhanced and measured directly; the White
// channel's mask is the intersection of the Blue, Green and Red masks.
// Any enhancement failure aborts this image (and only this image).
func (a *Analyzer) AnalyzeImage(img image.Image, name string) (*ImageResult, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("image %s: %w", name, enhance.ErrEmptyGrid)
	}

	res := &ImageResult{Name: name}

	masks := make(map[enhance.Channel]*image.Gray, 3)
	for _, ch := range []enhance.Channel{enhance.Blue, enhance.Green, enhance.Red} {
		grid, err := enhance.ExtractChannel(img, ch)
		if err != nil {
			return nil, fmt.Errorf("extract %s plane of %s: %w", ch, name, err)
		}
		norm, mask, err := enhance.Enhance(grid, ch)
		if err != nil {
			return nil, fmt.Errorf("enhance %s channel of %s: %w", ch, name, err)
		}
		masks[ch] = mask

		switch ch {
		case enhance.Blue:
			res.BlueNormalized, res.BlueMask = norm, mask
		case enhance.Green:
			res.Green.Normalized = norm
		case enhance.Red:
			res.Red.Normalized = norm
		}
	}

	whiteMask := enhance.Intersect(masks[enhance.Blue], masks[enhance.Green], masks[enhance.Red])

	var err error
	if res.Green, err = a.runChannel(enhance.Green, masks[enhance.Green], res.Green.Normalized); err != nil {
		return nil, fmt.Errorf("image %s: %w", name, err)
	}
	if res.Red, err = a.runChannel(enhance.Red, masks[enhance.Red], res.Red.Normalized); err != nil {
		return nil, fmt.Errorf("image %s: %w", name, err)
	}
	if res.White, err = a.runChannel(enhance.White, whiteMask, nil); err != nil {
		return nil, fmt.Errorf("image %s: %w", name, err)
	}

	res.Row = strings.Join([]string{
		name,
		res.Green.Record.String(),
		res.Red.Record.String(),
		res.White.Record.String(),
	}, ",")

	a.log.Debug().
		Str("image", name).
		Int("green_cells", res.Green.Record.Count).
		Int("red_cells", res.Red.Record.Count).
		Int("white_cells", res.White.Record.Count).
		Msg("image analyzed")

	return res, nil
}

// runChannel extracts, filters and aggregates one channel's mask.
func (a *Analyzer) runChannel(ch enhance.Channel, mask, norm *image.Gray) (ChannelRun, error) {
	ext, err := contour.Extract(mask, ch, a.params.MinContourArea)
	if err != nil {
		return ChannelRun{}, fmt.Errorf("extract %s contours: %w", ch, err)
	}

	cells := metrics.FilterCells(metrics.Candidates(ext))
	return ChannelRun{
		Channel:    ch,
		Normalized: norm,
		Mask:       mask,
		Extraction: ext,
		Cells:      cells,
		Record:     metrics.Aggregate(cells),
	}, nil
}
