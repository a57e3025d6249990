package session

import "errors"

// Sentinel errors for session lifecycle failures. Only spawn and startup
// failures are fatal to an evaluation; everything else is captured as data
// in the CommandResult.
var (
	// ErrSpawn indicates the debugger process could not be started,
	// typically because the debugger binary or the target executable
	// is missing.
	ErrSpawn = errors.New("failed to spawn debugger")

	// ErrStartupTimeout indicates the debugger started but never emitted
	// its prompt within the startup timeout. The session is terminated.
	ErrStartupTimeout = errors.New("debugger did not reach a prompt during startup")

	// ErrSessionBusy indicates a command was submitted while another was
	// outstanding. Commands are never queued silently; callers needing
	// sequencing must wait for the prior result.
	ErrSessionBusy = errors.New("session busy: a command is already outstanding")

	// ErrNotReady indicates the session is not in a state that accepts
	// commands (unstarted or terminated).
	ErrNotReady = errors.New("session is not ready for commands")
)
