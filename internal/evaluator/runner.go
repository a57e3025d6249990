package evaluator

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/harrison/debugbench/internal/models"
)

// runBatch executes the artifact directly and captures its termination
// status. The timeout is a hard wall-clock bound; exceeding it is recorded
// as a timeout, which aggregation treats as a crash.
func runBatch(ctx context.Context, artifact *models.BuildArtifact, timeout time.Duration) (*RunOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, artifact.Path)
	cmd.Dir = filepath.Dir(artifact.Path)

	output, err := cmd.CombinedOutput()

	status := models.RunStatus{
		Output:   string(output),
		Duration: time.Since(start),
	}

	if ctx.Err() == context.DeadlineExceeded {
		status.TimedOut = true
		status.ExitCode = -1
		return &RunOutcome{Status: status}, nil
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, err
		}
		if ws, isWait := exitErr.Sys().(syscall.WaitStatus); isWait && ws.Signaled() {
			status.ExitCode = -1
			status.Signal = signalName(ws.Signal())
		} else {
			status.ExitCode = exitErr.ExitCode()
		}
	}

	return &RunOutcome{Status: status}, nil
}
