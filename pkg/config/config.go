// Package config provides configuration loading and management for niftiviewer.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input files
	Input struct {
		// Volume is the NIfTI file opened when no path is given on the command line
		Volume string `yaml:"volume"`
		
		// Landmarks is an optional comma-separated fiducial list
		Landmarks string `yaml:"landmarks"`
		
		// StrictLandmarks aborts loading on the first malformed landmark line
		// instead of skipping it
		StrictLandmarks bool `yaml:"strictLandmarks"`
	} `yaml:"input"`
	
	// Display parameters
	Display struct {
		// ColorWindow is the intensity range mapped onto the grey scale
		ColorWindow float64 `yaml:"colorWindow"`
		
		// ColorLevel is the intensity shown as mid grey
		ColorLevel float64 `yaml:"colorLevel"`
		
		// AutoWindow derives window and level from the intensity percentiles below
		AutoWindow bool `yaml:"autoWindow"`
		
		// LowPercentile and HighPercentile bound the auto window, in 0..1
		LowPercentile  float64 `yaml:"lowPercentile"`
		HighPercentile float64 `yaml:"highPercentile"`
		
		// InitialSlice is the axial slice shown at startup
		InitialSlice int `yaml:"initialSlice"`
		
		// MarkerColor is the hex color used for landmark markers
		MarkerColor string `yaml:"markerColor"`
	} `yaml:"display"`
	
	// Export parameters
	Export struct {
		// Dir is where exported slices are written
		Dir string `yaml:"dir"`
		
		// Format is png or jpeg
		Format string `yaml:"format"`
		
		// Quality is the JPEG quality, 1..100
		Quality int `yaml:"quality"`
	} `yaml:"export"`
	
	// Logging parameters
	Logging struct {
		// Level is one of debug, info, warn, error
		Level string `yaml:"level"`
		
		// File receives log output while the interactive viewer owns the terminal
		File string `yaml:"file"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}
	
	cfg.Input.Volume = "volume.nii.gz"
	cfg.Input.Landmarks = ""
	cfg.Input.StrictLandmarks = false
	
	// Same window/level as a typical 8-bit display
	cfg.Display.ColorWindow = 256
	cfg.Display.ColorLevel = 128
	cfg.Display.AutoWindow = false
	cfg.Display.LowPercentile = 0.01
	cfg.Display.HighPercentile = 0.99
	cfg.Display.InitialSlice = 0
	cfg.Display.MarkerColor = "#ff3030"
	
	cfg.Export.Dir = "slices"
	cfg.Export.Format = "png"
	cfg.Export.Quality = 90
	
	cfg.Logging.Level = "info"
	cfg.Logging.File = "niftiviewer.log"
	
	return cfg
}

// Validate checks values that cannot be fixed up silently
func (c *Config) Validate() error {
	if !(c.Display.ColorWindow > 0) {
		return fmt.Errorf("display.colorWindow must be positive, got %g", c.Display.ColorWindow)
	}
	if c.Display.LowPercentile < 0 || c.Display.HighPercentile > 1 || c.Display.LowPercentile >= c.Display.HighPercentile {
		return fmt.Errorf("display percentiles must satisfy 0 <= low < high <= 1, got %g and %g",
			c.Display.LowPercentile, c.Display.HighPercentile)
	}
	if c.Export.Quality < 1 || c.Export.Quality > 100 {
		return fmt.Errorf("export.quality must be in 1..100, got %d", c.Export.Quality)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	
	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}
	
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	
	// Parse YAML
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
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	
	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	
	// Write to file
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
