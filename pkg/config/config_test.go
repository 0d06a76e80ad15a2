package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	
	if cfg.Display.ColorWindow != 256 || cfg.Display.ColorLevel != 128 {
		t.Errorf("Expected window/level 256/128, got %f/%f", cfg.Display.ColorWindow, cfg.Display.ColorLevel)
	}
	if cfg.Input.StrictLandmarks {
		t.Error("Expected lenient landmark parsing by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

// TestLoadConfigMissingFile verifies defaults come back when no file exists
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Export.Format != "png" {
		t.Errorf("Expected default export format png, got %s", cfg.Export.Format)
	}
}

// TestLoadConfigOverrides verifies YAML values replace only the keys they name
func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlText := `
input:
  volume: /data/brain.nii.gz
  strictLandmarks: true
display:
  colorWindow: 400
  autoWindow: true
`
	if err := os.WriteFile(path, []byte(yamlText), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	
	if cfg.Input.Volume != "/data/brain.nii.gz" {
		t.Errorf("Expected volume override, got %s", cfg.Input.Volume)
	}
	if !cfg.Input.StrictLandmarks || !cfg.Display.AutoWindow {
		t.Error("Expected strictLandmarks and autoWindow to be enabled")
	}
	if cfg.Display.ColorWindow != 400 {
		t.Errorf("Expected window 400, got %f", cfg.Display.ColorWindow)
	}
	// Untouched keys keep their defaults
	if cfg.Display.ColorLevel != 128 {
		t.Errorf("Expected default level 128, got %f", cfg.Display.ColorLevel)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	
	badYAML := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badYAML, []byte("display: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(badYAML); err == nil {
		t.Error("Expected parse error, got nil")
	}
	
	badWindow := filepath.Join(dir, "window.yaml")
	if err := os.WriteFile(badWindow, []byte("display:\n  colorWindow: -1\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(badWindow); err == nil {
		t.Error("Expected validation error, got nil")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("Failed to create config file: %v", err)
	}
	
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("Reloaded config differs from defaults: %+v", cfg)
	}
}
