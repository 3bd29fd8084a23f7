package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"cellmetrics/pkg/config"
	"cellmetrics/pkg/pipeline"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing stained-cell images")
	listFile := flag.String("list", "", "Image name list inside the input directory (default from config)")
	outputFile := flag.String("output", "", "Metrics CSV path (default from config)")
	configPath := flag.String("config", "cellmetrics.yaml", "Configuration file path")
	numWorkers := flag.Int("workers", 0, "Number of images to process concurrently (default from config)")
	minArea := flag.Float64("min-area", 0, "Minimum net contour area in squared pixels (default from config)")
	saveIntermediates := flag.Bool("save-intermediates", false, "Save debug renders for each image")
	intermediatesDir := flag.String("intermediates-dir", "", "Directory for debug renders (default from config)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags override the configuration file.
	if *inputDir != "" {
		cfg.Input.Dir = *inputDir
	}
	if *listFile != "" {
		cfg.Input.ListFile = *listFile
	}
	if *outputFile != "" {
		cfg.Output.ResultsFile = *outputFile
	}
	if *numWorkers > 0 {
		cfg.Processing.NumWorkers = *numWorkers
	}
	if *minArea > 0 {
		cfg.Processing.MinContourArea = *minArea
	}
	if *saveIntermediates {
		cfg.Output.SaveIntermediates = true
	}
	if *intermediatesDir != "" {
		cfg.Output.IntermediatesDir = *intermediatesDir
	}
	if *verbose {
		cfg.Output.Verbose = true
	}

	if cfg.Input.Dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	level := zerolog.InfoLevel
	if cfg.Output.Verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().
		Timestamp().
		Logger()

	params := &pipeline.Params{
		InputDir:          cfg.Input.Dir,
		ListFile:          cfg.Input.ListFile,
		OutputFile:        resolve(cfg.Input.Dir, cfg.Output.ResultsFile),
		NumWorkers:        cfg.Processing.NumWorkers,
		MinContourArea:    cfg.Processing.MinContourArea,
		SaveIntermediates: cfg.Output.SaveIntermediates,
		IntermediatesDir:  resolve(cfg.Input.Dir, cfg.Output.IntermediatesDir),
	}

	analyzer := pipeline.NewAnalyzer(params, logger)

	startTime := time.Now()
	report, err := analyzer.Run()
	if err != nil {
		logger.Fatal().Err(err).Msg("batch run failed")
	}

	fmt.Printf("\nSeparation metrics computed in %.2f seconds\n", time.Since(startTime).Seconds())
	fmt.Printf("Results written to: %s\n\n", params.OutputFile)

	fmt.Printf("Run %s: %d of %d images processed, %d failed\n",
		report.RunID, report.Processed, report.Total, report.Failed)
	for _, ch := range []string{"Green", "Red", "White"} {
		if stats, ok := report.Stats[ch]; ok {
			fmt.Printf("- %s cells per image: %.2f (stddev %.2f)\n", ch, stats.MeanCells, stats.StdDevCells)
		}
	}
	for _, f := range report.Failures {
		fmt.Printf("- FAILED %s (%s): %v\n", f.Image, f.Stage, f.Err)
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}

// resolve anchors a relative path at the input directory.
func resolve(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
