package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "viewer.log")
	
	logger, err := New(Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	logger.Debug("hidden at info level")
	logger.Info("Slice: 3")
	_ = logger.Sync()
	
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "Slice: 3") {
		t.Errorf("Expected log file to contain the info message, got %q", text)
	}
	if strings.Contains(text, "hidden at info level") {
		t.Error("Debug message should be filtered at info level")
	}
}

func TestNewVerbose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.log")
	
	logger, err := New(Options{Level: "warn", Verbose: true, File: path})
	if err != nil {
		t.Fatalf("Failed to build logger: %v", err)
	}
	logger.Debug("visible when verbose")
	_ = logger.Sync()
	
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "visible when verbose") {
		t.Error("Expected debug message with verbose enabled")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("Expected error for invalid level, got nil")
	}
}
