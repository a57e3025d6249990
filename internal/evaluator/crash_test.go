package evaluator

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCrashIndicator(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   string
		found  bool
	}{
		{"segfault lowercase", "Segmentation fault (core dumped)", "segmentation fault", true},
		{"glibc double free", "*** Error: double free or corruption ***", "double free", true},
		{"gdb signal line", "Program received signal SIGSEGV, Segmentation fault.", "segmentation fault", true},
		{"abort", "Aborted (core dumped)", "core dumped", true},
		{"clean output", "result: 42\ndone\n", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := CrashIndicator(tt.output)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTermination(t *testing.T) {
	code, signal, ok := ParseTermination("Program received signal SIGSEGV, Segmentation fault.\n#0  main () at buggy.cpp:4\n")
	assert.True(t, ok)
	assert.Equal(t, -1, code)
	assert.Equal(t, "SIGSEGV", signal)

	// gdb reports the exit code in octal.
	code, signal, ok = ParseTermination("[Inferior 1 (process 4242) exited with code 012]\n")
	assert.True(t, ok)
	assert.Equal(t, 10, code)
	assert.Empty(t, signal)

	code, signal, ok = ParseTermination("[Inferior 1 (process 4242) exited normally]\n")
	assert.True(t, ok)
	assert.Zero(t, code)
	assert.Empty(t, signal)

	_, _, ok = ParseTermination("Breakpoint 1, main () at main.cpp:3\n")
	assert.False(t, ok)
}

func TestSignalName(t *testing.T) {
	assert.Equal(t, "SIGSEGV", signalName(syscall.SIGSEGV))
	assert.Equal(t, "SIGABRT", signalName(syscall.SIGABRT))
	assert.Equal(t, "SIGKILL", signalName(syscall.SIGKILL))
}

func TestIndicatorSignal(t *testing.T) {
	assert.Equal(t, "SIGSEGV", indicatorSignal("segmentation fault"))
	assert.Equal(t, "SIGABRT", indicatorSignal("double free"))
}
