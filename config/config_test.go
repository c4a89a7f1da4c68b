package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/koi-go/koi/engine"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Exploration.MaxVisits != 1 {
		t.Errorf("Expected MaxVisits=1, got %d", cfg.Exploration.MaxVisits)
	}
	if cfg.Exploration.MaxDepth != 64 {
		t.Errorf("Expected MaxDepth=64, got %d", cfg.Exploration.MaxDepth)
	}

	if cfg.Memory.HeapLow != 0x01000000 {
		t.Errorf("Expected HeapLow=0x01000000, got 0x%x", cfg.Memory.HeapLow)
	}
	if cfg.Memory.SolverCap != 256 {
		t.Errorf("Expected SolverCap=256, got %d", cfg.Memory.SolverCap)
	}

	if cfg.Display.NumberFormat != "hex" {
		t.Errorf("Expected NumberFormat=hex, got %s", cfg.Display.NumberFormat)
	}

	if cfg.Models.Format != "json" {
		t.Errorf("Expected Format=json, got %s", cfg.Models.Format)
	}
}

func TestParseVerbosity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Display.Verbosity = "insn, branch , stops"

	v := cfg.ParseVerbosity()
	if v != engine.SV_CTRLFLOW {
		t.Errorf("expected SV_CTRLFLOW, got 0x%x", v)
	}

	cfg.Display.Verbosity = "bogus"
	if cfg.ParseVerbosity() != engine.SV_NONE {
		t.Error("expected unrecognized names to be ignored")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "koi" && path != "config.toml" {
			t.Errorf("Expected path in koi directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}
	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Exploration.MaxVisits = 5
	cfg.Exploration.EnableStats = false
	cfg.Memory.SolverCap = 64
	cfg.Display.ColorOutput = false
	cfg.Display.Verbosity = "insn,model"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Exploration.MaxVisits != 5 {
		t.Errorf("Expected MaxVisits=5, got %d", loaded.Exploration.MaxVisits)
	}
	if loaded.Exploration.EnableStats {
		t.Error("Expected EnableStats=false")
	}
	if loaded.Memory.SolverCap != 64 {
		t.Errorf("Expected SolverCap=64, got %d", loaded.Memory.SolverCap)
	}
	if loaded.Display.ColorOutput {
		t.Error("Expected ColorOutput=false")
	}
	if loaded.Display.Verbosity != "insn,model" {
		t.Errorf("Expected Verbosity=insn,model, got %s", loaded.Display.Verbosity)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}
	if cfg.Exploration.MaxVisits != 1 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[exploration]
max_visits = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := LoadFrom(configPath); err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}
	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
