// Package memcheck normalizes memory-safety evidence from two detector
// surfaces: a dynamic leak detector (valgrind) run against the compiled
// artifact, and a static heuristic scan of source text used as a fallback
// when the dynamic tool is unavailable.
package memcheck

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/harrison/debugbench/internal/models"
)

// ErrDetectorUnavailable indicates the dynamic detector could not be
// located or invoked. This is soft: it triggers the static fallback, never
// a failed evaluation.
var ErrDetectorUnavailable = errors.New("dynamic leak detector unavailable")

// DynamicDetector runs valgrind against a build artifact with full
// leak-check reporting.
type DynamicDetector struct {
	// ValgrindPath is the detector binary. Defaults to "valgrind".
	ValgrindPath string

	// Timeout is the hard wall-clock limit for one detector run.
	// Defaults to 60s.
	Timeout time.Duration
}

func (d *DynamicDetector) path() string {
	if d.ValgrindPath == "" {
		return "valgrind"
	}
	return d.ValgrindPath
}

func (d *DynamicDetector) timeout() time.Duration {
	if d.Timeout <= 0 {
		return 60 * time.Second
	}
	return d.Timeout
}

// Run invokes the detector against the artifact and parses its report into
// findings, one per distinct loss record or error block. A non-zero exit
// from the detector is expected when it finds errors and is not itself a
// failure.
func (d *DynamicDetector) Run(ctx context.Context, artifact *models.BuildArtifact) ([]models.MemoryFinding, error) {
	if _, err := exec.LookPath(d.path()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, d.path(),
		"--leak-check=full",
		"--error-exitcode=1",
		"--quiet",
		artifact.Path,
	)
	cmd.Dir = filepath.Dir(artifact.Path)

	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %v", ErrDetectorUnavailable, err)
		}
		// Non-zero exit: the detector found errors, the report below has them.
	}

	return ParseValgrind(string(output)), nil
}

var (
	// ==12345== 400 bytes in 1 blocks are definitely lost in loss record 1 of 2
	lossRecordPattern = regexp.MustCompile(`^([\d,]+) bytes in ([\d,]+) blocks are (definitely|indirectly|possibly) lost`)

	// ==12345==    by 0x1091AE: main (memory_leak.cpp:12)
	framePattern = regexp.MustCompile(`^(at|by) 0x[0-9A-Fa-f]+: (.+)$`)

	invalidAccessPattern = regexp.MustCompile(`^Invalid (read|write) of size \d+`)
	mismatchPattern      = regexp.MustCompile(`^Mismatched free\(\) / delete / delete \[\]`)
	invalidFreePattern   = regexp.MustCompile(`^Invalid free\(\)`)
	pidPrefixPattern     = regexp.MustCompile(`^==\d+==\s?`)
)

// ParseValgrind extracts findings from a valgrind report. Each loss record
// yields one leak finding carrying bytes lost, block count, and the first
// user-code allocation frame as the allocation site.
func ParseValgrind(output string) []models.MemoryFinding {
	var findings []models.MemoryFinding
	lines := strings.Split(output, "\n")

	for i := 0; i < len(lines); i++ {
		line := stripPidPrefix(lines[i])

		if match := lossRecordPattern.FindStringSubmatch(line); match != nil {
			severity := models.FindingDefinite
			if match[3] == "possibly" {
				severity = models.FindingPossible
			}
			findings = append(findings, models.MemoryFinding{
				Kind:      models.FindingLeak,
				Severity:  severity,
				Source:    models.SourceDynamic,
				Detector:  "valgrind",
				BytesLost: parseCommaInt(match[1]),
				Blocks:    int(parseCommaInt(match[2])),
				AllocSite: allocationSite(lines[i+1:]),
				Message:   line,
			})
			continue
		}

		if mismatchPattern.MatchString(line) {
			findings = append(findings, models.MemoryFinding{
				Kind:      models.FindingMismatch,
				Severity:  models.FindingDefinite,
				Source:    models.SourceDynamic,
				Detector:  "valgrind",
				AllocSite: allocationSite(lines[i+1:]),
				Message:   line,
			})
			continue
		}

		if invalidAccessPattern.MatchString(line) || invalidFreePattern.MatchString(line) {
			findings = append(findings, models.MemoryFinding{
				Kind:      models.FindingInvalidAccess,
				Severity:  models.FindingDefinite,
				Source:    models.SourceDynamic,
				Detector:  "valgrind",
				AllocSite: allocationSite(lines[i+1:]),
				Message:   line,
			})
		}
	}

	return findings
}

// allocationSite scans the stack frames following a report line and returns
// the first caller frame ("by ..."), which is the user-code allocation
// site. Falls back to the innermost frame when no caller frame exists.
func allocationSite(following []string) string {
	fallback := ""
	for _, raw := range following {
		line := stripPidPrefix(raw)
		match := framePattern.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			break
		}
		if match[1] == "by" {
			return match[2]
		}
		if fallback == "" {
			fallback = match[2]
		}
	}
	return fallback
}

func stripPidPrefix(line string) string {
	return pidPrefixPattern.ReplaceAllString(line, "")
}

func parseCommaInt(s string) int64 {
	n, _ := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	return n
}
