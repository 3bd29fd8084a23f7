package pipeline

import (
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"cellmetrics/internal/models"
)

// ChannelStats summarizes one channel's cell counts across the batch.
type ChannelStats struct {
	MeanCells   float64
	StdDevCells float64
}

// Report is the outcome of a batch run: what succeeded, what failed and
// why, plus distribution summaries over the successful images.
type Report struct {
	// RunID uniquely identifies this batch run in logs and downstream
	// bookkeeping.
	RunID string

	Total     int
	Processed int
	Failed    int

	Failures []models.Failure

	// Stats maps channel name (Green, Red, White) to count statistics.
	Stats map[string]ChannelStats
}

func buildReport(results []result) *Report {
	report := &Report{
		RunID: uuid.NewString(),
		Total: len(results),
		Stats: make(map[string]ChannelStats, 3),
	}

	channels := []string{"Green", "Red", "White"}
	counts := make(map[string][]float64, len(channels))

	for _, r := range results {
		if r.err != nil {
			report.Failed++
			report.Failures = append(report.Failures, models.Failure{
				Image: r.task.Name,
				Stage: r.stage,
				Err:   r.err,
			})
			continue
		}
		report.Processed++
		for i, ch := range channels {
			counts[ch] = append(counts[ch], float64(r.counts[i]))
		}
	}

	for _, ch := range channels {
		v := counts[ch]
		if len(v) == 0 {
			continue
		}
		cs := ChannelStats{MeanCells: stat.Mean(v, nil)}
		if len(v) > 1 {
			cs.StdDevCells = stat.StdDev(v, nil)
		}
		report.Stats[ch] = cs
	}

	return report
}
