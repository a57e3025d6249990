// Package session drives one persistent external debugger process as a
// request/response channel.
//
// Debugger output has no explicit message framing, only a recurring prompt
// pattern, so command completion is detected by prompt matching under a
// deadline. A watchdog timer races the normal completion path; when it wins,
// the manager interrupts the process group and spends a short grace period
// salvaging diagnostic context (a stack dump) before returning the session
// to Ready.
package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/debugbench/internal/models"
)

// DefaultPrompt is the prompt marker gdb emits when ready for input.
const DefaultPrompt = "(gdb) "

// Options configures a session Manager. Zero values fall back to defaults.
type Options struct {
	// DebuggerPath is the debugger binary. Defaults to "gdb".
	DebuggerPath string

	// Args are the arguments placed before the target executable.
	// Defaults to {"-q", "-nx"}: quiet banner, no init files.
	Args []string

	// Prompt is the marker that signals command completion.
	// Defaults to DefaultPrompt.
	Prompt string

	// WorkDir is the working directory for the debugger process.
	WorkDir string

	// SetupCommands are applied once after the initial prompt.
	// Defaults disable confirmation prompts and pagination, which would
	// otherwise stall prompt detection.
	SetupCommands []string

	// StartupTimeout bounds the wait for the initial prompt. Default 10s.
	StartupTimeout time.Duration

	// CommandTimeout is the per-command deadline applied when a Command
	// carries no timeout of its own. Default 15s.
	CommandTimeout time.Duration

	// GracePeriod bounds the post-interrupt salvage read. Default 2s.
	GracePeriod time.Duration

	// StackDumpCommand is issued after an interrupt to capture a
	// best-effort thread/stack summary. Default "thread apply all bt".
	StackDumpCommand string
}

func (o *Options) applyDefaults() {
	if o.DebuggerPath == "" {
		o.DebuggerPath = "gdb"
	}
	if o.Args == nil {
		o.Args = []string{"-q", "-nx"}
	}
	if o.Prompt == "" {
		o.Prompt = DefaultPrompt
	}
	if o.SetupCommands == nil {
		o.SetupCommands = []string{
			"set confirm off",
			"set pagination off",
			"set print pretty on",
		}
	}
	if o.StartupTimeout <= 0 {
		o.StartupTimeout = 10 * time.Second
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = 15 * time.Second
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 2 * time.Second
	}
	if o.StackDumpCommand == "" {
		o.StackDumpCommand = "thread apply all bt"
	}
}

// Manager owns exactly one external debugger process bound to a target
// executable. It serializes commands: at most one is in flight, enforced by
// state, not convention. A Manager is owned by a single evaluation run and
// must be stopped at the end of that run.
type Manager struct {
	id   string
	opts Options

	mu          sync.Mutex
	state       models.SessionState
	lastCommand time.Time
	timeouts    int

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	chunks chan []byte

	transcriptMu sync.Mutex
	transcript   strings.Builder
}

// New creates an unstarted Manager with its own unique session ID.
func New(opts Options) *Manager {
	opts.applyDefaults()
	return &Manager{
		id:    uuid.NewString(),
		opts:  opts,
		state: models.SessionUnstarted,
	}
}

// ID returns the unique identifier of this session.
func (m *Manager) ID() string { return m.id }

// State returns the current lifecycle state.
func (m *Manager) State() models.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastActivity returns when the most recent command was submitted.
func (m *Manager) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCommand
}

// Timeouts returns how many commands have hit their deadline so far.
func (m *Manager) Timeouts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeouts
}

// Transcript returns all raw output received so far, in arrival order.
func (m *Manager) Transcript() string {
	m.transcriptMu.Lock()
	defer m.transcriptMu.Unlock()
	return m.transcript.String()
}

func (m *Manager) record(b []byte) {
	m.transcriptMu.Lock()
	m.transcript.Write(b)
	m.transcriptMu.Unlock()
}

// Start spawns the debugger attached to target and waits for the initial
// prompt. On success the session transitions to Ready. Fails with ErrSpawn
// when the debugger or target is missing, and with ErrStartupTimeout when
// no prompt appears within the startup timeout; in both cases the session
// ends up Terminated.
func (m *Manager) Start(ctx context.Context, target string) error {
	m.mu.Lock()
	if m.state != models.SessionUnstarted {
		m.mu.Unlock()
		return fmt.Errorf("start from state %s: %w", m.state, ErrNotReady)
	}
	m.state = models.SessionStarting
	m.mu.Unlock()

	if _, err := os.Stat(target); err != nil {
		m.terminate()
		return fmt.Errorf("%w: target %s: %v", ErrSpawn, target, err)
	}

	args := append(append([]string{}, m.opts.Args...), target)
	cmd := exec.Command(m.opts.DebuggerPath, args...)
	cmd.Dir = m.opts.WorkDir
	// Own process group so interrupts reach the debugger and its inferior.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	stdin, err := cmd.StdinPipe()
	if err != nil {
		m.terminate()
		return fmt.Errorf("%w: stdin pipe: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		m.terminate()
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	m.mu.Lock()
	m.cmd = cmd
	m.stdin = stdin
	m.chunks = make(chan []byte, 64)
	m.mu.Unlock()

	go m.pump(pr)
	go func() {
		// Wait reaps the child and unblocks the pump via pipe close.
		cmd.Wait()
		pw.Close()
	}()

	// Initial prompt, then one-time setup commands.
	if _, reason := m.readUntilPrompt(ctx, m.opts.StartupTimeout); reason != models.ReasonPromptReached {
		m.Stop()
		return fmt.Errorf("%w after %s", ErrStartupTimeout, m.opts.StartupTimeout)
	}
	for _, setup := range m.opts.SetupCommands {
		if _, reason := m.exchange(ctx, setup, m.opts.StartupTimeout); reason != models.ReasonPromptReached {
			m.Stop()
			return fmt.Errorf("%w: setup %q", ErrStartupTimeout, setup)
		}
	}

	m.mu.Lock()
	m.state = models.SessionReady
	m.mu.Unlock()
	return nil
}

// Send submits one command and blocks until a prompt, the deadline, or
// process exit. Valid only from Ready; a Send racing an outstanding command
// fails with ErrSessionBusy and leaves the outstanding command unaffected.
//
// On timeout the manager interrupts the process group, salvages a stack
// dump within the grace period, and returns the session to Ready with a
// CommandResult labeled timed-out. Timeouts are therefore recoverable and
// never fatal to the session.
func (m *Manager) Send(ctx context.Context, command models.Command) (models.CommandResult, error) {
	m.mu.Lock()
	switch m.state {
	case models.SessionReady:
		m.state = models.SessionBusy
	case models.SessionBusy, models.SessionTimedOut, models.SessionRecovering:
		m.mu.Unlock()
		return models.CommandResult{}, ErrSessionBusy
	default:
		state := m.state
		m.mu.Unlock()
		return models.CommandResult{}, fmt.Errorf("send from state %s: %w", state, ErrNotReady)
	}
	m.lastCommand = time.Now()
	m.mu.Unlock()

	timeout := command.Timeout
	if timeout <= 0 {
		timeout = m.opts.CommandTimeout
	}

	start := time.Now()
	output, reason := m.exchange(ctx, command.Text, timeout)

	switch reason {
	case models.ReasonTimedOut:
		m.setState(models.SessionTimedOut)
		m.interrupt()
		m.setState(models.SessionRecovering)
		// Best-effort stack dump so the timeout still yields evidence.
		if salvage, r := m.exchange(ctx, m.opts.StackDumpCommand, m.opts.GracePeriod); r == models.ReasonPromptReached && salvage != "" {
			output = strings.TrimSpace(output + "\n" + salvage)
		}
		m.mu.Lock()
		m.timeouts++
		m.mu.Unlock()
		m.setState(models.SessionReady)

	case models.ReasonProcessExited:
		m.terminate()

	default:
		m.setState(models.SessionReady)
	}

	return models.CommandResult{
		Command: command.Text,
		Output:  cleanOutput(output, command.Text, m.opts.Prompt),
		Reason:  reason,
		Elapsed: time.Since(start),
	}, nil
}

// Stop terminates the debugger process and releases all resources. It is
// idempotent, valid from any state, and always leaves the session in
// Terminated.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.state == models.SessionTerminated {
		m.mu.Unlock()
		return
	}
	m.state = models.SessionTerminated
	cmd := m.cmd
	stdin := m.stdin
	m.mu.Unlock()

	if stdin != nil {
		stdin.Close()
	}
	if cmd != nil && cmd.Process != nil {
		// Kill the whole group; ESRCH just means it already exited.
		syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

// setState moves to next unless the session was terminated concurrently
// (e.g. Stop raced an in-flight command).
func (m *Manager) setState(next models.SessionState) {
	m.mu.Lock()
	if m.state != models.SessionTerminated {
		m.state = next
	}
	m.mu.Unlock()
}

func (m *Manager) terminate() {
	m.mu.Lock()
	m.state = models.SessionTerminated
	cmd := m.cmd
	stdin := m.stdin
	m.mu.Unlock()
	if stdin != nil {
		stdin.Close()
	}
	if cmd != nil && cmd.Process != nil {
		syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

// interrupt signals the process group to abort a hung command. Delivery
// racing process exit is a benign race, not an error.
func (m *Manager) interrupt() {
	m.mu.Lock()
	cmd := m.cmd
	m.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}
	// ESRCH means the group already exited; the command result is
	// timed-out either way.
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGINT)
}

// pump moves raw debugger output into the chunk channel until EOF.
func (m *Manager) pump(r io.Reader) {
	defer close(m.chunks)
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			m.chunks <- chunk
		}
		if err != nil {
			return
		}
	}
}

// exchange drains stale output, writes one command line, and reads until
// prompt or deadline.
func (m *Manager) exchange(ctx context.Context, text string, timeout time.Duration) (string, models.CompletionReason) {
	m.drain()

	m.mu.Lock()
	stdin := m.stdin
	m.mu.Unlock()
	if stdin == nil {
		return "", models.ReasonProcessExited
	}
	if _, err := io.WriteString(stdin, text+"\n"); err != nil {
		return "", models.ReasonProcessExited
	}
	return m.readUntilPrompt(ctx, timeout)
}

// drain consumes any output that arrived between commands (asynchronous
// target output, leftovers from an interrupted read) so it lands in the
// transcript instead of polluting the next result.
func (m *Manager) drain() {
	for {
		select {
		case chunk, ok := <-m.chunks:
			if !ok {
				return
			}
			m.record(chunk)
		default:
			return
		}
	}
}

// readUntilPrompt accumulates output until the prompt marker, the deadline,
// process exit, or context cancellation. The context acts as the
// cancellation token for the blocking read.
func (m *Manager) readUntilPrompt(ctx context.Context, timeout time.Duration) (string, models.CompletionReason) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var buf strings.Builder
	for {
		select {
		case chunk, ok := <-m.chunks:
			if !ok {
				return buf.String(), models.ReasonProcessExited
			}
			m.record(chunk)
			buf.Write(chunk)
			if hasPrompt(buf.String(), m.opts.Prompt) {
				return buf.String(), models.ReasonPromptReached
			}
		case <-timer.C:
			return buf.String(), models.ReasonTimedOut
		case <-ctx.Done():
			return buf.String(), models.ReasonTimedOut
		}
	}
}
