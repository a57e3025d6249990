package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoggerWritesRunLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	fl, err := NewFileLogger(dir, "debug")
	require.NoError(t, err)

	fl.Debugf("built %s", "program")
	fl.Infof("verdict=%t", true)
	require.NoError(t, fl.Close())

	data, err := os.ReadFile(fl.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[DEBUG] built program")
	assert.Contains(t, string(data), "[INFO] verdict=true")
}

func TestFileLoggerLevelFiltering(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir(), "error")
	require.NoError(t, err)

	fl.Infof("quiet")
	fl.Errorf("loud")
	require.NoError(t, fl.Close())

	data, err := os.ReadFile(fl.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}

func TestFileLoggerLatestSymlink(t *testing.T) {
	dir := t.TempDir()
	fl, err := NewFileLogger(dir, "info")
	require.NoError(t, err)
	defer fl.Close()

	link := filepath.Join(dir, "latest.log")
	target, err := os.Readlink(link)
	if err != nil {
		t.Skip("symlinks not supported on this filesystem")
	}
	assert.Equal(t, filepath.Base(fl.Path()), target)
}

func TestFileLoggerCloseIdempotent(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir(), "info")
	require.NoError(t, err)
	require.NoError(t, fl.Close())
	require.NoError(t, fl.Close())
	// Logging after close is a no-op, not a panic.
	fl.Infof("after close")
}
