package models

import "time"

// SessionState describes the lifecycle state of a debugger session.
type SessionState string

// Session lifecycle states. Terminated is the only terminal state and is
// reachable from every other state.
const (
	SessionUnstarted  SessionState = "unstarted"
	SessionStarting   SessionState = "starting"
	SessionReady      SessionState = "ready"
	SessionBusy       SessionState = "busy"
	SessionTimedOut   SessionState = "timed-out"
	SessionRecovering SessionState = "recovering"
	SessionTerminated SessionState = "terminated"
)

// Command is a single textual instruction submitted to a debugger session.
// Commands are immutable once submitted.
type Command struct {
	// Text is the raw command in the debugger's native command language
	// (e.g. "break main.cpp:42", "run", "bt").
	Text string

	// Timeout is the caller-specified deadline for this command.
	// Zero means the session's default command timeout applies.
	Timeout time.Duration
}

// CompletionReason explains how a command finished.
type CompletionReason string

const (
	// ReasonPromptReached means the debugger emitted its prompt marker.
	ReasonPromptReached CompletionReason = "prompt-reached"

	// ReasonTimedOut means the deadline elapsed before a prompt appeared.
	// The session recovers via interrupt and stays usable.
	ReasonTimedOut CompletionReason = "timed-out"

	// ReasonProcessExited means the debugger process exited mid-command.
	ReasonProcessExited CompletionReason = "process-exited"
)

// CommandResult is produced exactly once per submitted Command.
type CommandResult struct {
	Command string           // The command text as submitted
	Output  string           // Captured output with prompt and echo stripped
	Reason  CompletionReason // How the command completed
	Elapsed time.Duration    // Wall-clock time from write to completion
}

// TimedOut reports whether the command hit its deadline.
func (r CommandResult) TimedOut() bool {
	return r.Reason == ReasonTimedOut
}
