// Package config loads debugbench configuration from YAML, merging file
// values over defaults. Missing files are not an error; malformed files
// are.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/debugbench/internal/logger"
)

// ToolsConfig names the external tool binaries.
type ToolsConfig struct {
	// Debugger is the debugger binary. Default "gdb".
	Debugger string `yaml:"debugger"`

	// Make is the build tool binary. Default "make".
	Make string `yaml:"make"`

	// Valgrind is the dynamic leak detector binary. Default "valgrind".
	Valgrind string `yaml:"valgrind"`
}

// TimeoutsConfig bounds each pipeline stage.
type TimeoutsConfig struct {
	// Startup bounds the wait for the debugger's first prompt.
	Startup time.Duration `yaml:"-"`

	// Command is the per-command deadline inside a debugger session and
	// the wall-clock budget for a batch run.
	Command time.Duration `yaml:"-"`

	// Grace bounds the post-interrupt stack-dump salvage.
	Grace time.Duration `yaml:"-"`

	// Build bounds one compile.
	Build time.Duration `yaml:"-"`

	// Analysis bounds one dynamic detector run.
	Analysis time.Duration `yaml:"-"`
}

// HistoryConfig controls evaluation history persistence.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database location.
	DBPath string `yaml:"db_path"`
}

// Config holds all debugbench settings.
type Config struct {
	// Mode selects how targets are run: "batch" executes the program
	// directly, "interactive" drives it through a debugger session.
	Mode string `yaml:"mode"`

	// Commands is the debugger command script for interactive runs.
	Commands []string `yaml:"commands"`

	// LogLevel sets verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// LogDir is where run logs are written.
	LogDir string `yaml:"log_dir"`

	Tools    ToolsConfig    `yaml:"tools"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	History  HistoryConfig  `yaml:"history"`
}

// DefaultConfig returns a Config with defaults for a stock Linux
// toolchain.
func DefaultConfig() *Config {
	return &Config{
		Mode:     "batch",
		Commands: []string{"run", "bt"},
		LogLevel: "info",
		LogDir:   ".debugbench/logs",
		Tools: ToolsConfig{
			Debugger: "gdb",
			Make:     "make",
			Valgrind: "valgrind",
		},
		Timeouts: TimeoutsConfig{
			Startup:  10 * time.Second,
			Command:  15 * time.Second,
			Grace:    2 * time.Second,
			Build:    60 * time.Second,
			Analysis: 60 * time.Second,
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  ".debugbench/history.db",
		},
	}
}

// yamlTimeouts mirrors TimeoutsConfig with string durations for parsing.
type yamlTimeouts struct {
	Startup  string `yaml:"startup"`
	Command  string `yaml:"command"`
	Grace    string `yaml:"grace"`
	Build    string `yaml:"build"`
	Analysis string `yaml:"analysis"`
}

type yamlConfig struct {
	Mode     string        `yaml:"mode"`
	Commands []string      `yaml:"commands"`
	LogLevel string        `yaml:"log_level"`
	LogDir   string        `yaml:"log_dir"`
	Tools    ToolsConfig   `yaml:"tools"`
	Timeouts yamlTimeouts  `yaml:"timeouts"`
	History  HistoryConfig `yaml:"history"`
}

// LoadConfig loads configuration from path. A missing file yields the
// defaults without error; a malformed file is an error. File values merge
// over defaults field by field.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.Mode != "" {
		cfg.Mode = yamlCfg.Mode
	}
	if len(yamlCfg.Commands) > 0 {
		cfg.Commands = yamlCfg.Commands
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.Tools.Debugger != "" {
		cfg.Tools.Debugger = yamlCfg.Tools.Debugger
	}
	if yamlCfg.Tools.Make != "" {
		cfg.Tools.Make = yamlCfg.Tools.Make
	}
	if yamlCfg.Tools.Valgrind != "" {
		cfg.Tools.Valgrind = yamlCfg.Tools.Valgrind
	}

	if err := mergeTimeout(&cfg.Timeouts.Startup, yamlCfg.Timeouts.Startup, "startup"); err != nil {
		return nil, err
	}
	if err := mergeTimeout(&cfg.Timeouts.Command, yamlCfg.Timeouts.Command, "command"); err != nil {
		return nil, err
	}
	if err := mergeTimeout(&cfg.Timeouts.Grace, yamlCfg.Timeouts.Grace, "grace"); err != nil {
		return nil, err
	}
	if err := mergeTimeout(&cfg.Timeouts.Build, yamlCfg.Timeouts.Build, "build"); err != nil {
		return nil, err
	}
	if err := mergeTimeout(&cfg.Timeouts.Analysis, yamlCfg.Timeouts.Analysis, "analysis"); err != nil {
		return nil, err
	}

	// The enabled flag needs a presence check: false in the file must
	// override the true default.
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if section, exists := rawMap["history"]; exists && section != nil {
			historyMap, _ := section.(map[string]interface{})
			if _, set := historyMap["enabled"]; set {
				cfg.History.Enabled = yamlCfg.History.Enabled
			}
			if _, set := historyMap["db_path"]; set {
				cfg.History.DBPath = yamlCfg.History.DBPath
			}
		}
	}

	return cfg, nil
}

func mergeTimeout(dst *time.Duration, value, name string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s timeout %q: %w", name, value, err)
	}
	*dst = d
	return nil
}

// LoadConfigFromDir loads .debugbench/config.yaml from dir, falling back
// to defaults when absent.
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".debugbench", "config.yaml"))
}

// Validate checks configuration values for consistency.
func (c *Config) Validate() error {
	switch c.Mode {
	case "batch", "interactive":
	default:
		return fmt.Errorf("invalid mode %q: must be batch or interactive", c.Mode)
	}
	if !logger.ValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	for name, d := range map[string]time.Duration{
		"startup":  c.Timeouts.Startup,
		"command":  c.Timeouts.Command,
		"grace":    c.Timeouts.Grace,
		"build":    c.Timeouts.Build,
		"analysis": c.Timeouts.Analysis,
	} {
		if d <= 0 {
			return fmt.Errorf("%s timeout must be positive", name)
		}
	}
	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history enabled but db_path is empty")
	}
	return nil
}
