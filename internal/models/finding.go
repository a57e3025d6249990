package models

import "fmt"

// FindingKind classifies a memory-safety finding.
type FindingKind string

const (
	FindingLeak          FindingKind = "leak"
	FindingMismatch      FindingKind = "mismatch"
	FindingInvalidAccess FindingKind = "invalid-access"
)

// FindingSource identifies which analysis path produced a finding.
type FindingSource string

const (
	// SourceDynamic means the finding came from a runtime leak detector.
	SourceDynamic FindingSource = "dynamic"

	// SourceStatic means the finding came from the heuristic source scan.
	// Static findings over-approximate and carry reduced confidence.
	SourceStatic FindingSource = "static"
)

// FindingSeverity ranks confidence in a finding. Dynamic findings are
// definite or possible; static findings are always heuristic.
type FindingSeverity string

const (
	FindingDefinite  FindingSeverity = "definite"
	FindingPossible  FindingSeverity = "possible"
	FindingHeuristic FindingSeverity = "heuristic"
)

// MemoryFinding is one normalized piece of memory-safety evidence from
// either analysis path. Findings from different detectors are never
// deduplicated against each other: both are surfaces of evidence, not a
// single ground truth.
type MemoryFinding struct {
	Kind     FindingKind
	Severity FindingSeverity
	Source   FindingSource

	// Detector names the tool that produced the finding,
	// e.g. "valgrind" or "static-scan".
	Detector string

	// BytesLost and Blocks describe the loss record for leak findings.
	// Zero for findings without size information.
	BytesLost int64
	Blocks    int

	// AllocSite is the allocation call site when the detector reported
	// one, e.g. "main (memory_leak.cpp:12)".
	AllocSite string

	// Message is the human-readable evidence line.
	Message string
}

// String renders the finding for logs and transcripts.
func (f MemoryFinding) String() string {
	if f.BytesLost > 0 {
		return fmt.Sprintf("[%s/%s] %s: %d bytes in %d blocks (%s)",
			f.Source, f.Severity, f.Kind, f.BytesLost, f.Blocks, f.Message)
	}
	return fmt.Sprintf("[%s/%s] %s: %s", f.Source, f.Severity, f.Kind, f.Message)
}
