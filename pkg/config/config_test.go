package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the default values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Processing.NumWorkers < 1 {
		t.Errorf("Expected at least 1 worker, got %d", cfg.Processing.NumWorkers)
	}
	if cfg.Processing.MinContourArea != 1.0 {
		t.Errorf("Expected min contour area 1.0, got %f", cfg.Processing.MinContourArea)
	}
	if cfg.Input.ListFile != "image_list.dat" {
		t.Errorf("Expected default list file image_list.dat, got %q", cfg.Input.ListFile)
	}
	if cfg.Output.ResultsFile != "computed_metrics.csv" {
		t.Errorf("Expected default results file computed_metrics.csv, got %q", cfg.Output.ResultsFile)
	}
	if cfg.Output.IntermediatesDir != "result" {
		t.Errorf("Expected default intermediates dir result, got %q", cfg.Output.IntermediatesDir)
	}
	if cfg.Output.SaveIntermediates {
		t.Errorf("Expected intermediates disabled by default")
	}
}

// TestLoadConfigMissing verifies a missing file falls back to defaults
func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Output.ResultsFile != "computed_metrics.csv" {
		t.Errorf("Expected defaults for a missing file, got %q", cfg.Output.ResultsFile)
	}
}

// TestSaveLoadRoundtrip verifies values survive a save and reload
func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cellmetrics.yaml")

	cfg := DefaultConfig()
	cfg.Processing.NumWorkers = 3
	cfg.Processing.MinContourArea = 2.5
	cfg.Input.Dir = "/data/run42"
	cfg.Output.SaveIntermediates = true

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Processing.NumWorkers != 3 {
		t.Errorf("Expected 3 workers, got %d", loaded.Processing.NumWorkers)
	}
	if loaded.Processing.MinContourArea != 2.5 {
		t.Errorf("Expected min contour area 2.5, got %f", loaded.Processing.MinContourArea)
	}
	if loaded.Input.Dir != "/data/run42" {
		t.Errorf("Expected input dir /data/run42, got %q", loaded.Input.Dir)
	}
	if !loaded.Output.SaveIntermediates {
		t.Errorf("Expected intermediates enabled after reload")
	}
}

// TestLoadConfigInvalid verifies malformed YAML is an error, not a fallback
func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("processing: [not a map"), 0644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Errorf("Expected an error for malformed YAML")
	}
}
