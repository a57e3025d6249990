package evaluator

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/debugbench/internal/models"
)

// writeExecutable installs an executable shell script acting as a compiled
// target or stand-in tool.
func writeExecutable(t *testing.T, dir, name, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestRunBatchCleanExit(t *testing.T) {
	path := writeExecutable(t, t.TempDir(), "program", "echo result: 42\nexit 0\n")

	outcome, err := runBatch(context.Background(), &models.BuildArtifact{Path: path}, 5*time.Second)
	require.NoError(t, err)
	assert.Zero(t, outcome.Status.ExitCode)
	assert.Empty(t, outcome.Status.Signal)
	assert.False(t, outcome.Status.TimedOut)
	assert.Contains(t, outcome.Status.Output, "result: 42")
	assert.False(t, outcome.Status.Crashed())
}

func TestRunBatchFatalSignal(t *testing.T) {
	path := writeExecutable(t, t.TempDir(), "program", "kill -SEGV $$\n")

	outcome, err := runBatch(context.Background(), &models.BuildArtifact{Path: path}, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, -1, outcome.Status.ExitCode)
	assert.Equal(t, "SIGSEGV", outcome.Status.Signal)
	assert.True(t, outcome.Status.Crashed())
}

func TestRunBatchNonZeroExit(t *testing.T) {
	path := writeExecutable(t, t.TempDir(), "program", "exit 3\n")

	outcome, err := runBatch(context.Background(), &models.BuildArtifact{Path: path}, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Status.ExitCode)
	assert.Empty(t, outcome.Status.Signal)
	assert.True(t, outcome.Status.Crashed())
}

func TestRunBatchTimeout(t *testing.T) {
	path := writeExecutable(t, t.TempDir(), "program", "sleep 30\n")

	start := time.Now()
	outcome, err := runBatch(context.Background(), &models.BuildArtifact{Path: path}, 200*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, outcome.Status.TimedOut)
	assert.Equal(t, -1, outcome.Status.ExitCode)
	assert.True(t, outcome.Status.Crashed())
	assert.Less(t, time.Since(start), 5*time.Second)
}
