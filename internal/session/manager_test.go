package session

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

// fakeDebuggerScript emulates a prompt-driven debugger: it answers every
// command with "ok <command>" followed by a prompt, swallows "hang" without
// responding, exits on "quit", and reacts to SIGINT the way gdb does (prints
// a marker and re-prompts instead of dying).
const fakeDebuggerScript = `
trap 'echo interrupted; printf "(gdb) "' INT
printf "(gdb) "
while :; do
  if read -r line; then
    case "$line" in
      hang) : ;;
      quit) exit 0 ;;
      *) echo "ok $line"; printf "(gdb) ";;
    esac
  else
    continue
  fi
done
`

func fakeOptions(t *testing.T, script string) (Options, string) {
	t.Helper()
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	require.NoError(t, os.WriteFile(target, []byte{}, 0755))

	return Options{
		DebuggerPath:   "bash",
		Args:           []string{"-c", script, "fakegdb"},
		WorkDir:        dir,
		StartupTimeout: 5 * time.Second,
		CommandTimeout: 5 * time.Second,
		GracePeriod:    2 * time.Second,
	}, target
}

func TestStartAndSendCommand(t *testing.T) {
	opts, target := fakeOptions(t, fakeDebuggerScript)
	m := New(opts)
	defer m.Stop()

	require.NoError(t, m.Start(context.Background(), target))
	assert.Equal(t, models.SessionReady, m.State())

	result, err := m.Send(context.Background(), models.Command{Text: "bt"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonPromptReached, result.Reason)
	assert.Equal(t, "ok bt", result.Output)
	assert.Equal(t, models.SessionReady, m.State())

	// Setup commands and responses all land in the transcript.
	assert.Contains(t, m.Transcript(), "ok set confirm off")
	assert.Contains(t, m.Transcript(), "ok bt")
}

func TestSendWhileBusyFailsWithSessionBusy(t *testing.T) {
	opts, target := fakeOptions(t, fakeDebuggerScript)
	opts.CommandTimeout = 2 * time.Second
	opts.GracePeriod = 500 * time.Millisecond
	m := New(opts)
	defer m.Stop()

	require.NoError(t, m.Start(context.Background(), target))

	first := make(chan models.CommandResult, 1)
	go func() {
		r, _ := m.Send(context.Background(), models.Command{Text: "hang"})
		first <- r
	}()

	// Wait until the first command is actually outstanding.
	require.Eventually(t, func() bool {
		return m.State() == models.SessionBusy
	}, 2*time.Second, 10*time.Millisecond)

	_, err := m.Send(context.Background(), models.Command{Text: "bt"})
	assert.ErrorIs(t, err, ErrSessionBusy)

	// The prior command's result is unaffected by the rejected Send.
	r := <-first
	assert.Equal(t, models.ReasonTimedOut, r.Reason)
}

func TestCommandTimeoutRecoversViaInterrupt(t *testing.T) {
	opts, target := fakeOptions(t, fakeDebuggerScript)
	timeout := 500 * time.Millisecond
	opts.GracePeriod = 2 * time.Second
	m := New(opts)
	defer m.Stop()

	require.NoError(t, m.Start(context.Background(), target))

	start := time.Now()
	result, err := m.Send(context.Background(), models.Command{Text: "hang", Timeout: timeout})
	require.NoError(t, err)

	assert.Equal(t, models.ReasonTimedOut, result.Reason)
	assert.True(t, result.TimedOut())
	// Salvaged context from the post-interrupt grace read.
	assert.Contains(t, result.Output, "interrupted")
	// Bounded by timeout + grace period, with scheduling slack.
	assert.Less(t, time.Since(start), timeout+opts.GracePeriod+2*time.Second)

	// Never stuck in Busy: the session is usable again.
	assert.Equal(t, models.SessionReady, m.State())
	assert.Equal(t, 1, m.Timeouts())

	result, err = m.Send(context.Background(), models.Command{Text: "info locals"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonPromptReached, result.Reason)
	assert.Equal(t, "ok info locals", result.Output)
}

func TestProcessExitDuringCommand(t *testing.T) {
	opts, target := fakeOptions(t, fakeDebuggerScript)
	m := New(opts)
	defer m.Stop()

	require.NoError(t, m.Start(context.Background(), target))

	result, err := m.Send(context.Background(), models.Command{Text: "quit"})
	require.NoError(t, err)
	assert.Equal(t, models.ReasonProcessExited, result.Reason)
	assert.Equal(t, models.SessionTerminated, m.State())

	// Terminated sessions reject further commands.
	_, err = m.Send(context.Background(), models.Command{Text: "bt"})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestStartupTimeout(t *testing.T) {
	opts, target := fakeOptions(t, "exec sleep 30")
	opts.StartupTimeout = 300 * time.Millisecond
	m := New(opts)
	defer m.Stop()

	err := m.Start(context.Background(), target)
	assert.ErrorIs(t, err, ErrStartupTimeout)
	assert.Equal(t, models.SessionTerminated, m.State())
}

func TestSpawnErrorMissingDebugger(t *testing.T) {
	opts, target := fakeOptions(t, fakeDebuggerScript)
	opts.DebuggerPath = "/nonexistent/gdb"
	m := New(opts)
	defer m.Stop()

	err := m.Start(context.Background(), target)
	assert.ErrorIs(t, err, ErrSpawn)
	assert.Equal(t, models.SessionTerminated, m.State())
}

func TestSpawnErrorMissingTarget(t *testing.T) {
	opts, _ := fakeOptions(t, fakeDebuggerScript)
	m := New(opts)
	defer m.Stop()

	err := m.Start(context.Background(), filepath.Join(opts.WorkDir, "no-such-binary"))
	assert.ErrorIs(t, err, ErrSpawn)
}

func TestStopIsIdempotentFromAnyState(t *testing.T) {
	// Unstarted session.
	m := New(Options{})
	m.Stop()
	m.Stop()
	assert.Equal(t, models.SessionTerminated, m.State())

	// Running session.
	opts, target := fakeOptions(t, fakeDebuggerScript)
	m = New(opts)
	require.NoError(t, m.Start(context.Background(), target))
	m.Stop()
	m.Stop()
	assert.Equal(t, models.SessionTerminated, m.State())
}

func TestSessionIDsAreUnique(t *testing.T) {
	a, b := New(Options{}), New(Options{})
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}
