// Package config provides configuration loading and management for edt3d.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"edt3d/pkg/edt"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Transform parameters
	Transform struct {
		// OutputKind is "short" (distance x10 as int16) or "float"
		OutputKind string `yaml:"outputKind"`

		// Workers is the number of goroutines each pass is split across
		Workers int `yaml:"workers"`

		// MaxVoxels bounds the accepted volume size (0 = library default)
		MaxVoxels int `yaml:"maxVoxels"`
	} `yaml:"transform"`

	// Input parameters
	Input struct {
		// Threshold separates foreground (>= threshold) from background
		Threshold float64 `yaml:"threshold"`

		// Invert treats dark voxels as foreground
		Invert bool `yaml:"invert"`

		// Smooth is the Gaussian sigma applied to slices before
		// thresholding (0 = off)
		Smooth float64 `yaml:"smooth"`

		// Extensions lists the slice file types to load. Empty means
		// volumeio.DefaultExtensions.
		Extensions []string `yaml:"extensions,omitempty"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		// Dir is where results are written
		Dir string `yaml:"dir"`

		// SaveRaw writes the distance field as a raw binary file
		SaveRaw bool `yaml:"saveRaw"`

		// SaveSlices writes rendered distance slices along SliceAxes
		SaveSlices bool `yaml:"saveSlices"`

		// SliceAxes lists the axes ("x", "y", "z") to render
		SliceAxes []string `yaml:"sliceAxes"`

		// Format is the rendered slice format: png, tif or jpg
		Format string `yaml:"format"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Verify parameters
	Verify struct {
		// Enabled compares the result against an exact kd-tree search
		Enabled bool `yaml:"enabled"`

		// Tolerance is the largest accepted per-voxel distance error
		Tolerance float64 `yaml:"tolerance"`

		// MaxVoxels skips verification of larger volumes (0 = no limit)
		MaxVoxels int `yaml:"maxVoxels"`
	} `yaml:"verify"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Transform.OutputKind = edt.FloatingPoint.String()
	cfg.Transform.Workers = runtime.NumCPU() // Use all available cores by default
	cfg.Transform.MaxVoxels = 0

	cfg.Input.Threshold = 0.5
	cfg.Input.Invert = false
	cfg.Input.Smooth = 0
	cfg.Input.Extensions = nil

	cfg.Output.Dir = "edt_output"
	cfg.Output.SaveRaw = true
	cfg.Output.SaveSlices = false
	cfg.Output.SliceAxes = []string{"z"}
	cfg.Output.Format = "png"
	cfg.Output.Verbose = false

	cfg.Verify.Enabled = false
	cfg.Verify.Tolerance = 0.05
	cfg.Verify.MaxVoxels = 1 << 22

	return cfg
}

// OutputKind returns the parsed Transform.OutputKind
func (c *Config) OutputKind() (edt.OutputKind, error) {
	return edt.ParseOutputKind(c.Transform.OutputKind)
}

// Validate checks the configuration for values the pipeline cannot use
func (c *Config) Validate() error {
	if _, err := c.OutputKind(); err != nil {
		return err
	}
	if c.Input.Threshold < 0 || c.Input.Threshold > 1 {
		return fmt.Errorf("input threshold %g outside [0, 1]", c.Input.Threshold)
	}
	if c.Input.Smooth < 0 {
		return fmt.Errorf("input smooth must be non-negative")
	}
	for _, axis := range c.Output.SliceAxes {
		switch axis {
		case "x", "y", "z", "X", "Y", "Z":
		default:
			return fmt.Errorf("invalid slice axis %q (must be x, y, or z)", axis)
		}
	}
	switch c.Output.Format {
	case "png", "tif", "tiff", "jpg", "jpeg":
	default:
		return fmt.Errorf("unsupported slice format %q", c.Output.Format)
	}
	if c.Verify.Tolerance < 0 {
		return fmt.Errorf("verify tolerance must be non-negative")
	}
	if c.Verify.MaxVoxels < 0 {
		return fmt.Errorf("verify maxVoxels must be non-negative")
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
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

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
