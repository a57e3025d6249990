package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunStatusCrashed(t *testing.T) {
	tests := []struct {
		name   string
		status RunStatus
		want   bool
	}{
		{"clean exit", RunStatus{ExitCode: 0}, false},
		{"non-zero exit", RunStatus{ExitCode: 1}, true},
		{"fatal signal", RunStatus{ExitCode: -1, Signal: "SIGSEGV"}, true},
		{"timeout is crash-equivalent", RunStatus{ExitCode: 0, TimedOut: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Crashed())
		})
	}
}

func TestEvaluationResultCrashed(t *testing.T) {
	// No run stage at all (build failed) means no crash evidence.
	r := EvaluationResult{BuildSucceeded: false}
	assert.False(t, r.Crashed())

	r.Run = &RunStatus{ExitCode: -1, Signal: "SIGSEGV"}
	assert.True(t, r.Crashed())
}

func TestCommandResultTimedOut(t *testing.T) {
	assert.True(t, CommandResult{Reason: ReasonTimedOut}.TimedOut())
	assert.False(t, CommandResult{Reason: ReasonPromptReached}.TimedOut())
	assert.False(t, CommandResult{Reason: ReasonProcessExited}.TimedOut())
}

func TestMemoryFindingString(t *testing.T) {
	f := MemoryFinding{
		Kind:      FindingLeak,
		Severity:  FindingDefinite,
		Source:    SourceDynamic,
		Detector:  "valgrind",
		BytesLost: 400,
		Blocks:    1,
		Message:   "operator new[] (memory_leak.cpp:12)",
	}
	s := f.String()
	assert.Contains(t, s, "400 bytes in 1 blocks")
	assert.Contains(t, s, "dynamic/definite")

	heuristic := MemoryFinding{
		Kind:     FindingMismatch,
		Severity: FindingHeuristic,
		Source:   SourceStatic,
		Detector: "static-scan",
		Message:  "1 new[] without matching delete[]",
	}
	assert.Contains(t, heuristic.String(), "static/heuristic")
}
