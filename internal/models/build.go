package models

// BuildArtifact is a compiled binary plus the fingerprint of the sources
// that produced it.
type BuildArtifact struct {
	// Path is the absolute path to the compiled binary.
	Path string

	// Flags are the compiler flags the binary was built with.
	Flags []string

	// Sources are the source files covered by the fingerprint, sorted.
	Sources []string

	// Fingerprint is a content hash over Sources. An artifact whose
	// fingerprint no longer matches the workspace is stale and must be
	// recompiled before use.
	Fingerprint string
}

// DiagnosticSeverity classifies a compiler message.
type DiagnosticSeverity string

const (
	SeverityError   DiagnosticSeverity = "error"
	SeverityWarning DiagnosticSeverity = "warning"
	SeverityNote    DiagnosticSeverity = "note"
)

// CompileDiagnostic is one structured compiler message, parsed from the
// build tool's stderr on failure.
type CompileDiagnostic struct {
	File     string
	Line     int
	Column   int
	Severity DiagnosticSeverity
	Text     string
}

// IsError reports whether the diagnostic is a hard error.
func (d CompileDiagnostic) IsError() bool {
	return d.Severity == SeverityError
}
