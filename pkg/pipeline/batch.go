package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"cellmetrics/internal/models"
	"cellmetrics/pkg/metrics"
	"cellmetrics/pkg/render"
)

// imageExtensions are the file types picked up by a directory scan.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".tif": true, ".tiff": true, ".bmp": true, ".webp": true,
}

// result is one worker's outcome for one image.
type result struct {
	task   models.ImageTask
	row    string
	counts [3]int // green, red, white cell counts, for the run report
	stage  string
	err    error
}

// Run processes the whole batch: list the inputs, analyze them on a worker
// pool, write the metrics CSV and return the run report. Individual image
// failures do not abort the run; they are collected into the report and no
// partial row is written for them.
func (a *Analyzer) Run() (*Report, error) {
	tasks, err := a.listImages()
	if err != nil {
		return nil, fmt.Errorf("list input images: %w", err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no input images found in %s", a.params.InputDir)
	}

	a.log.Info().Int("images", len(tasks)).Int("workers", a.workers()).Msg("starting batch")

	results := make([]result, len(tasks))
	jobs := make(chan models.ImageTask)

	var wg sync.WaitGroup
	for w := 0; w < a.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				results[t.Index] = a.processTask(t)
			}
		}()
	}
	for _, t := range tasks {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	if err := a.writeCSV(results); err != nil {
		return nil, err
	}

	report := buildReport(results)
	for _, f := range report.Failures {
		a.log.Error().Str("image", f.Image).Str("stage", f.Stage).Err(f.Err).Msg("image failed")
	}
	a.log.Info().
		Str("run_id", report.RunID).
		Int("processed", report.Processed).
		Int("failed", report.Failed).
		Msg("batch finished")

	return report, nil
}

func (a *Analyzer) workers() int {
	if a.params.NumWorkers < 1 {
		return 1
	}
	return a.params.NumWorkers
}

// processTask loads and analyzes one image, rendering debug output when
// enabled. Render failures are warnings, not image failures.
func (a *Analyzer) processTask(t models.ImageTask) result {
	img, err := loadImage(t.Path)
	if err != nil {
		return result{task: t, stage: "load", err: err}
	}

	res, err := a.AnalyzeImage(img, t.Name)
	if err != nil {
		return result{task: t, stage: "analyze", err: err}
	}

	if a.params.SaveIntermediates {
		a.saveIntermediates(res)
	}

	return result{
		task: t,
		row:  res.Row,
		counts: [3]int{
			res.Green.Record.Count,
			res.Red.Record.Count,
			res.White.Record.Count,
		},
	}
}

// listImages builds the ordered task list, preferring an explicit list file
// over a directory scan.
func (a *Analyzer) listImages() ([]models.ImageTask, error) {
	if a.params.ListFile != "" {
		listPath := filepath.Join(a.params.InputDir, a.params.ListFile)
		if data, err := os.ReadFile(listPath); err == nil {
			return a.tasksFromList(string(data)), nil
		}
	}
	return a.tasksFromScan()
}

func (a *Analyzer) tasksFromList(data string) []models.ImageTask {
	var tasks []models.ImageTask
	for _, line := range strings.Split(data, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		tasks = append(tasks, models.ImageTask{
			Index: len(tasks),
			Name:  name,
			Path:  filepath.Join(a.params.InputDir, name),
		})
	}
	return tasks
}

func (a *Analyzer) tasksFromScan() ([]models.ImageTask, error) {
	entries, err := os.ReadDir(a.params.InputDir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}

	// Order by the numeric part of the filename first so frame sequences
	// keep their capture order, then lexically.
	sort.Slice(names, func(i, j int) bool {
		ni, nj := extractIndex(names[i]), extractIndex(names[j])
		if ni != nj {
			return ni < nj
		}
		return names[i] < names[j]
	})

	tasks := make([]models.ImageTask, len(names))
	for i, name := range names {
		tasks[i] = models.ImageTask{
			Index: i,
			Name:  name,
			Path:  filepath.Join(a.params.InputDir, name),
		}
	}
	return tasks, nil
}

// extractIndex extracts the numeric part from a filename.
func extractIndex(filename string) int {
	numStr := ""
	for _, c := range filename {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}
	if numStr != "" {
		if num, err := strconv.Atoi(numStr); err == nil {
			return num
		}
	}
	return 0
}

// writeCSV writes the header and one row per successfully processed image,
// preserving input order.
func (a *Analyzer) writeCSV(results []result) error {
	if err := os.MkdirAll(filepath.Dir(a.params.OutputFile), 0755); err != nil {
		return fmt.Errorf("create results directory: %w", err)
	}

	f, err := os.Create(a.params.OutputFile)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, strings.Join(metrics.Header(), ",")); err != nil {
		return err
	}
	for _, r := range results {
		if r.err != nil {
			continue
		}
		if _, err := fmt.Fprintln(f, r.row); err != nil {
			return err
		}
	}

	return nil
}

// saveIntermediates writes the per-image debug renders: the normalized and
// enhanced composites, the boundary overlay and the segmented canvases.
func (a *Analyzer) saveIntermediates(res *ImageResult) {
	dir := a.params.IntermediatesDir

	normalized := render.MergeBGR(res.BlueNormalized, res.Green.Normalized, res.Red.Normalized)
	if err := render.Save(normalized, filepath.Join(dir, render.InsertSuffix(res.Name, "_a_normalized"))); err != nil {
		a.log.Warn().Str("image", res.Name).Err(err).Msg("failed to save normalized render")
	}

	enhanced := render.MergeBGR(res.BlueMask, res.Green.Mask, res.Red.Mask)
	if err := render.Save(enhanced, filepath.Join(dir, render.InsertSuffix(res.Name, "_b_enhanced"))); err != nil {
		a.log.Warn().Str("image", res.Name).Err(err).Msg("failed to save enhanced render")
	}

	overlay := render.NewOverlay(res.BlueNormalized, res.Green.Normalized, res.Red.Normalized)
	overlay.DrawCells(res.Green.Cells, 0, 255, 255)
	overlay.DrawCells(res.White.Cells, 255, 0, 255)
	if err := render.Save(overlay.Compose(), filepath.Join(dir, render.InsertSuffix(res.Name, "_c_analyzed"))); err != nil {
		a.log.Warn().Str("image", res.Name).Err(err).Msg("failed to save analyzed render")
	}

	for _, run := range []ChannelRun{res.Green, res.Red, res.White} {
		suffix := "_d_segmented_" + strings.ToLower(run.Channel.String())
		if err := render.Save(run.Extraction.RenderSegmented(), filepath.Join(dir, render.InsertSuffix(res.Name, suffix))); err != nil {
			a.log.Warn().Str("image", res.Name).Err(err).Msg("failed to save segmented render")
		}
	}
}
