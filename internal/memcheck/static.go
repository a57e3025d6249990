package memcheck

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/harrison/debugbench/internal/fileutil"
	"github.com/harrison/debugbench/internal/models"
)

// StaticDetectorName tags findings from the heuristic scan.
const StaticDetectorName = "static-scan"

var (
	arrayNewPattern    = regexp.MustCompile(`\bnew\b[^;({=]*\[`)
	anyNewPattern      = regexp.MustCompile(`\bnew\b`)
	arrayDeletePattern = regexp.MustCompile(`\bdelete\s*\[\s*\]`)
	anyDeletePattern   = regexp.MustCompile(`\bdelete\b`)
	freeCallPattern    = regexp.MustCompile(`\bfree\s*\(`)
)

// ScanWorkspace applies the static heuristics to every source file in the
// workspace. Used only when the dynamic detector is unavailable.
func ScanWorkspace(workspace string) ([]models.MemoryFinding, error) {
	sources, err := fileutil.DiscoverSources(workspace)
	if err != nil {
		return nil, err
	}

	var findings []models.MemoryFinding
	for _, rel := range sources {
		content, err := os.ReadFile(filepath.Join(workspace, rel))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", rel, err)
		}
		findings = append(findings, ScanSource(rel, string(content))...)
	}
	return findings, nil
}

// ScanSource applies two heuristics to one source file:
//
//  1. An imbalance between array allocations (new[]) and array
//     deallocations (delete[]) yields a mismatch finding.
//  2. A function scope that allocates but contains no syntactically
//     reachable deallocation yields a leak finding.
//
// The scan deliberately over-approximates: it may flag patterns dynamic
// analysis would clear, so every finding carries heuristic severity and
// the static source tag.
func ScanSource(name, content string) []models.MemoryFinding {
	var findings []models.MemoryFinding

	arrayNews := len(arrayNewPattern.FindAllString(content, -1))
	arrayDeletes := len(arrayDeletePattern.FindAllString(content, -1))
	if arrayNews != arrayDeletes {
		findings = append(findings, models.MemoryFinding{
			Kind:     models.FindingMismatch,
			Severity: models.FindingHeuristic,
			Source:   models.SourceStatic,
			Detector: StaticDetectorName,
			Message:  fmt.Sprintf("%s: %d array allocation(s) vs %d delete[] expression(s)", name, arrayNews, arrayDeletes),
		})
	}

	for _, scope := range functionScopes(content) {
		if !anyNewPattern.MatchString(scope.body) {
			continue
		}
		if anyDeletePattern.MatchString(scope.body) || freeCallPattern.MatchString(scope.body) {
			continue
		}
		findings = append(findings, models.MemoryFinding{
			Kind:     models.FindingLeak,
			Severity: models.FindingHeuristic,
			Source:   models.SourceStatic,
			Detector: StaticDetectorName,
			Message:  fmt.Sprintf("%s:%d: allocation with no reachable deallocation in scope", name, scope.line),
		})
	}

	return findings
}

// scope is one top-level brace-delimited body, approximating a function.
type scope struct {
	line int // 1-based line of the opening brace
	body string
}

// functionScopes extracts top-level brace-delimited bodies by tracking
// brace depth. Braces inside string or character literals and comments are
// not handled specially; this is a heuristic, not a parser.
func functionScopes(content string) []scope {
	var scopes []scope
	depth := 0
	line := 1
	start := -1
	startLine := 0

	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '\n':
			line++
		case '{':
			if depth == 0 {
				start = i + 1
				startLine = line
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				scopes = append(scopes, scope{line: startLine, body: content[start:i]})
				start = -1
			}
			if depth < 0 {
				depth = 0
			}
		}
	}
	return scopes
}

// Summarize renders findings for transcripts and logs.
func Summarize(findings []models.MemoryFinding) string {
	if len(findings) == 0 {
		return "no memory findings"
	}
	var sb strings.Builder
	for i, f := range findings {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(f.String())
	}
	return sb.String()
}
