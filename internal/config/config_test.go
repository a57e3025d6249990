package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "batch", cfg.Mode)
	assert.Equal(t, "gdb", cfg.Tools.Debugger)
	assert.Equal(t, 15*time.Second, cfg.Timeouts.Command)
	assert.True(t, cfg.History.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode: interactive
log_level: debug
tools:
  debugger: /opt/gdb/bin/gdb
timeouts:
  command: 30s
  build: 2m
history:
  enabled: false
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "interactive", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/opt/gdb/bin/gdb", cfg.Tools.Debugger)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.Command)
	assert.Equal(t, 2*time.Minute, cfg.Timeouts.Build)
	assert.False(t, cfg.History.Enabled)

	// Untouched fields keep their defaults.
	assert.Equal(t, "make", cfg.Tools.Make)
	assert.Equal(t, 10*time.Second, cfg.Timeouts.Startup)
	assert.Equal(t, ".debugbench/history.db", cfg.History.DBPath)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfig(t, "mode: [unterminated\n")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigBadDuration(t *testing.T) {
	path := writeConfig(t, "timeouts:\n  command: fast\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command timeout")
}

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".debugbench"), 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, ".debugbench", "config.yaml"),
		[]byte("log_level: trace\n"), 0644))

	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "trace", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Mode = "remote" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"zero timeout", func(c *Config) { c.Timeouts.Build = 0 }},
		{"history without path", func(c *Config) { c.History.DBPath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
