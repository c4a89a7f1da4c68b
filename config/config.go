package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/koi-go/koi/engine"
)

// Config represents the engine's runtime configuration
type Config struct {
	// Exploration settings
	Exploration struct {
		MaxVisits      int    `toml:"max_visits"`
		MaxDepth       int    `toml:"max_fork_depth"`
		DefaultEntry   string `toml:"default_entry"`
		EnableStats    bool   `toml:"enable_stats"`
	} `toml:"exploration"`

	// Address-space layout
	Memory struct {
		HeapLow    uint64 `toml:"heap_low"`
		HeapHigh   uint64 `toml:"heap_high"`
		StackLow   uint64 `toml:"stack_low"`
		StackHigh  uint64 `toml:"stack_high"`
		SolverCap  int    `toml:"solver_candidate_cap"`
	} `toml:"memory"`

	// Display settings
	Display struct {
		ColorOutput  bool   `toml:"color_output"`
		Verbosity    string `toml:"verbosity"` // comma-separated: "insn,branch,stops"
		NumberFormat string `toml:"number_format"` // hex, dec, both
	} `toml:"display"`

	// Model output settings
	Models struct {
		OutputFile string `toml:"output_file"`
		Format     string `toml:"format"` // json, text
		Limit      int    `toml:"limit"`
	} `toml:"models"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Exploration defaults
	cfg.Exploration.MaxVisits = 1
	cfg.Exploration.MaxDepth = 64
	cfg.Exploration.DefaultEntry = ""
	cfg.Exploration.EnableStats = true

	// Memory defaults
	cfg.Memory.HeapLow = 0x01000000
	cfg.Memory.HeapHigh = 0x02000000
	cfg.Memory.StackLow = 0x70000000
	cfg.Memory.StackHigh = 0x7ffffffe
	cfg.Memory.SolverCap = 256

	// Display defaults
	cfg.Display.ColorOutput = true
	cfg.Display.Verbosity = "insn,branch,stops"
	cfg.Display.NumberFormat = "hex"

	// Model defaults
	cfg.Models.OutputFile = "models.json"
	cfg.Models.Format = "json"
	cfg.Models.Limit = 10

	return cfg
}

var verbosityNames = map[string]engine.Verbosity{
	"insn":      engine.SV_INSN,
	"syms":      engine.SV_SYMS,
	"regs":      engine.SV_REGS,
	"branch":    engine.SV_BRANCH,
	"model":     engine.SV_MODEL,
	"stops":     engine.SV_STOPS,
	"alloc":     engine.SV_ALLOC,
	"stack":     engine.SV_STACK,
	"ctrlflow":  engine.SV_CTRLFLOW,
	"mem":       engine.SV_MEM,
}

// ParseVerbosity turns the display.verbosity config string (a
// comma-separated list of flag names) into an engine.Verbosity bitmask.
// Unrecognized names are ignored.
func (c *Config) ParseVerbosity() engine.Verbosity {
	var v engine.Verbosity
	for _, name := range strings.Split(c.Display.Verbosity, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if flag, ok := verbosityNames[name]; ok {
			v |= flag
		}
	}
	return v
}

// GetConfigPath returns the platform-specific config file path
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\koi\config.toml
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "koi")

	case "darwin", "linux":
		// macOS/Linux: ~/.config/koi/config.toml
		homeDir, err := os.UserHomeDir()
		if err != nil {
			// Fallback to current directory
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "koi")

	default:
		// Unknown platform: use current directory
		return "config.toml"
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0750); err != nil {
		// If we can't create the directory, fall back to current directory
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific log directory path
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		// Windows: %APPDATA%\koi\logs
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "koi", "logs")

	case "darwin", "linux":
		// macOS/Linux: ~/.local/share/koi/logs
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "koi", "logs")

	default:
		return "logs"
	}

	// Ensure directory exists
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read and parse config file
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create file
	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	// Encode to TOML
	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
