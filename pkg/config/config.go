// Package config provides configuration loading and management for
// cellmetrics. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Processing parameters
	Processing struct {
		// NumWorkers specifies how many images are processed concurrently.
		NumWorkers int `yaml:"numWorkers"`

		// MinContourArea is the acceptance threshold for reconciled net
		// contour areas, in squared pixels.
		MinContourArea float64 `yaml:"minContourArea"`
	} `yaml:"processing"`

	// Input parameters
	Input struct {
		// Dir is the directory containing the stained-cell images.
		Dir string `yaml:"dir"`

		// ListFile is an optional name list inside Dir; when present it
		// fixes the set and order of processed images. When absent the
		// directory is scanned for image files.
		ListFile string `yaml:"listFile"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		// ResultsFile is the metrics CSV path; relative paths resolve
		// against the input directory.
		ResultsFile string `yaml:"resultsFile"`

		// SaveIntermediates enables the debug images (normalized, enhanced,
		// analyzed and segmented renders) per input image.
		SaveIntermediates bool `yaml:"saveIntermediates"`

		// IntermediatesDir is where debug images are written; relative
		// paths resolve against the input directory.
		IntermediatesDir string `yaml:"intermediatesDir"`

		// Verbose controls the level of logging output.
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumWorkers = runtime.NumCPU()
	cfg.Processing.MinContourArea = 1.0

	cfg.Input.ListFile = "image_list.dat"

	cfg.Output.ResultsFile = "computed_metrics.csv"
	cfg.Output.SaveIntermediates = false
	cfg.Output.IntermediatesDir = "result"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}
