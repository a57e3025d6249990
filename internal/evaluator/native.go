package evaluator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/harrison/debugbench/internal/build"
	"github.com/harrison/debugbench/internal/memcheck"
	"github.com/harrison/debugbench/internal/models"
	"github.com/harrison/debugbench/internal/session"
)

// nativeEnvironment drives natively compiled C/C++ targets: make for the
// build, direct execution or a gdb session for the run, valgrind with a
// static fallback for analysis.
type nativeEnvironment struct {
	cfg      Config
	compiler *build.Compiler
	detector *memcheck.DynamicDetector
}

func newNativeEnvironment(cfg Config) *nativeEnvironment {
	return &nativeEnvironment{
		cfg: cfg,
		compiler: &build.Compiler{
			MakePath: cfg.MakePath,
			Timeout:  cfg.BuildTimeout,
		},
		detector: &memcheck.DynamicDetector{
			ValgrindPath: cfg.ValgrindPath,
			Timeout:      cfg.AnalysisTimeout,
		},
	}
}

func (e *nativeEnvironment) Build(ctx context.Context, workspace string) (*models.BuildArtifact, []models.CompileDiagnostic, error) {
	if err := build.EnsureConfig(workspace); err != nil {
		return nil, nil, fmt.Errorf("failed to prepare build config: %w", err)
	}
	return e.compiler.Compile(ctx, workspace)
}

func (e *nativeEnvironment) Run(ctx context.Context, artifact *models.BuildArtifact) (*RunOutcome, error) {
	if e.cfg.Interactive {
		return e.runInteractive(ctx, artifact)
	}
	return runBatch(ctx, artifact, e.cfg.RunTimeout)
}

// runInteractive drives the target through a debugger session, issuing the
// configured command script and reading termination evidence out of the
// transcript. Session spawn and startup failures are fatal to the
// evaluation; everything after a successful start is data.
func (e *nativeEnvironment) runInteractive(ctx context.Context, artifact *models.BuildArtifact) (*RunOutcome, error) {
	mgr := session.New(session.Options{
		DebuggerPath:   e.cfg.DebuggerPath,
		WorkDir:        filepath.Dir(artifact.Path),
		StartupTimeout: e.cfg.StartupTimeout,
		CommandTimeout: e.cfg.RunTimeout,
		GracePeriod:    e.cfg.GracePeriod,
	})
	defer mgr.Stop()

	start := time.Now()
	if err := mgr.Start(ctx, artifact.Path); err != nil {
		return nil, err
	}
	e.cfg.Logger.Debugf("debugger session %s ready for %s", mgr.ID(), artifact.Path)

	for _, text := range e.cfg.Commands {
		result, err := mgr.Send(ctx, models.Command{Text: text})
		if err != nil {
			if errors.Is(err, session.ErrNotReady) {
				// The debuggee and debugger are gone; the transcript
				// holds whatever termination evidence exists.
				break
			}
			return nil, err
		}
		if result.Reason == models.ReasonProcessExited {
			break
		}
	}

	transcript := mgr.Transcript()
	outcome := &RunOutcome{
		Transcript:      transcript,
		CommandTimeouts: mgr.Timeouts(),
	}
	outcome.Status = models.RunStatus{
		Output:   transcript,
		Duration: time.Since(start),
	}

	if code, signal, ok := ParseTermination(transcript); ok {
		outcome.Status.ExitCode = code
		outcome.Status.Signal = signal
	} else if indicator, found := CrashIndicator(transcript); found {
		// No structured termination line, but the transcript carries
		// crash evidence.
		outcome.Status.ExitCode = -1
		outcome.Status.Signal = indicatorSignal(indicator)
	}

	return outcome, nil
}

// indicatorSignal maps a textual crash indicator to the closest signal
// name, used when the debugger never printed a structured signal line.
func indicatorSignal(indicator string) string {
	switch indicator {
	case "segmentation fault", "segfault", "sigsegv":
		return "SIGSEGV"
	case "sigabrt", "aborted", "double free", "stack smashing detected", "buffer overflow detected":
		return "SIGABRT"
	case "sigbus":
		return "SIGBUS"
	case "sigfpe":
		return "SIGFPE"
	case "sigill":
		return "SIGILL"
	default:
		return "SIGSEGV"
	}
}

// Analyze prefers the dynamic detector; when the detector binary is
// missing or cannot run, it degrades to the static source scan with a log
// note rather than failing the evaluation.
func (e *nativeEnvironment) Analyze(ctx context.Context, workspace string, artifact *models.BuildArtifact) ([]models.MemoryFinding, error) {
	findings, err := e.detector.Run(ctx, artifact)
	if err == nil {
		return findings, nil
	}
	if !errors.Is(err, memcheck.ErrDetectorUnavailable) {
		return nil, err
	}
	e.cfg.Logger.Warnf("dynamic detector unavailable, falling back to static scan: %v", err)
	return memcheck.ScanWorkspace(workspace)
}
