// Package evaluator composes the build subsystem, the debugger session
// manager, and the memory analysis pipeline into one evaluation run with a
// structured verdict.
//
// Environment kinds form a closed set behind one capability interface;
// the factory resolves the kind to a concrete implementation once, at
// setup. The orchestrator holds the pieces by composition rather than
// inheritance, so build and analysis behavior is pluggable per kind.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrison/debugbench/internal/models"
)

// Kind selects a debug-target environment implementation.
type Kind string

// KindNative is the only environment kind today: natively compiled C/C++
// targets driven through gdb and valgrind.
const KindNative Kind = "native"

// ErrUnknownKind indicates an unrecognized environment discriminator.
var ErrUnknownKind = errors.New("unknown environment kind")

// RunOutcome is what the run stage hands to aggregation: the termination
// status plus, for interactive runs, the session transcript and the count
// of commands that hit their deadline.
type RunOutcome struct {
	Status          models.RunStatus
	Transcript      string
	CommandTimeouts int
}

// Environment is the capability surface an evaluation needs from a debug
// target kind.
type Environment interface {
	// Build ensures a build configuration exists and compiles the target
	// with debug flags. On build failure it returns structured
	// diagnostics alongside the error.
	Build(ctx context.Context, workspace string) (*models.BuildArtifact, []models.CompileDiagnostic, error)

	// Run executes the artifact, either directly (batch) or through a
	// debugger session (interactive). Only spawn-level failures return
	// an error; program crashes are data in the outcome.
	Run(ctx context.Context, artifact *models.BuildArtifact) (*RunOutcome, error)

	// Analyze produces memory findings for the artifact, preferring the
	// dynamic detector and falling back to the static scan when the
	// detector is unavailable.
	Analyze(ctx context.Context, workspace string, artifact *models.BuildArtifact) ([]models.MemoryFinding, error)
}

// Config carries tool paths, timeouts, and run mode for an environment.
// Zero values fall back to defaults suitable for a stock Linux toolchain.
type Config struct {
	// DebuggerPath, MakePath, ValgrindPath override the external tools.
	DebuggerPath string
	MakePath     string
	ValgrindPath string

	// Interactive selects a debugger-session run instead of direct
	// execution.
	Interactive bool

	// Commands is the debugger command script for interactive runs.
	// Defaults to {"run", "bt"}.
	Commands []string

	// RunTimeout bounds the target program's execution (batch) or each
	// session command (interactive). Default 15s.
	RunTimeout time.Duration

	// StartupTimeout bounds the wait for the debugger's first prompt in
	// interactive runs. Default 10s.
	StartupTimeout time.Duration

	// GracePeriod bounds the post-interrupt stack-dump salvage in
	// interactive runs. Default 2s.
	GracePeriod time.Duration

	// BuildTimeout and AnalysisTimeout bound the respective child
	// processes. Defaults 60s each.
	BuildTimeout    time.Duration
	AnalysisTimeout time.Duration

	Logger Logger
}

func (c *Config) applyDefaults() {
	if len(c.Commands) == 0 {
		c.Commands = []string{"run", "bt"}
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = 15 * time.Second
	}
	if c.BuildTimeout <= 0 {
		c.BuildTimeout = 60 * time.Second
	}
	if c.AnalysisTimeout <= 0 {
		c.AnalysisTimeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
}

// NewEnvironment resolves the kind discriminator to a concrete
// implementation.
func NewEnvironment(kind Kind, cfg Config) (Environment, error) {
	cfg.applyDefaults()
	switch kind {
	case KindNative:
		return newNativeEnvironment(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Logger is the minimal logging surface the evaluator needs. The logger
// package's ConsoleLogger and FileLogger both satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
