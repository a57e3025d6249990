package models

import "time"

// EvaluationReason summarizes why an evaluation reached its verdict.
type EvaluationReason string

const (
	ReasonClean          EvaluationReason = "clean"
	ReasonBuildFailed    EvaluationReason = "build-failed"
	ReasonCrash          EvaluationReason = "crash"
	ReasonMemoryFindings EvaluationReason = "memory-findings"
)

// RunStatus captures how the target program terminated.
type RunStatus struct {
	// ExitCode is the program's exit code. -1 when the program was
	// killed by a signal or never ran.
	ExitCode int

	// Signal is the termination signal name ("SIGSEGV", "SIGABRT", ...)
	// when the program died abnormally, empty otherwise.
	Signal string

	// TimedOut is set when the program exceeded its wall-clock budget.
	// A timed-out run is treated as crash-equivalent, not a hang.
	TimedOut bool

	// Output is the combined stdout/stderr of the run, or the session
	// transcript for interactive runs.
	Output string

	Duration time.Duration
}

// Crashed reports whether the run counts as an abnormal termination:
// a fatal signal, a timeout, or a non-zero exit attributable to the
// program itself.
func (s RunStatus) Crashed() bool {
	return s.Signal != "" || s.TimedOut || s.ExitCode != 0
}

// EvaluationResult aggregates one full evaluation run: build outcome,
// crash status, memory findings, and the overall verdict.
//
// Invariant: Verdict is true iff the build succeeded AND the run did not
// crash AND no memory findings were produced.
type EvaluationResult struct {
	// RunID uniquely identifies this evaluation run.
	RunID string

	Verdict bool
	Reason  EvaluationReason

	BuildSucceeded bool
	// Diagnostics holds structured compiler messages when the build failed.
	Diagnostics []CompileDiagnostic

	// Run is nil when the build failed and the run stage was skipped.
	Run *RunStatus

	// Findings are ordered as produced by the analysis pipeline.
	Findings []MemoryFinding

	// Transcript is the raw debugger session transcript for interactive
	// runs, empty for batch runs.
	Transcript string

	// CommandTimeouts counts commands that hit their deadline during an
	// interactive run. Reported as evidence, never individually fatal.
	CommandTimeouts int

	Duration time.Duration
}

// Crashed reports whether the run stage observed an abnormal termination.
func (r EvaluationResult) Crashed() bool {
	return r.Run != nil && r.Run.Crashed()
}
