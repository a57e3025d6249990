package build

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

	"github.com/harrison/debugbench/internal/fileutil"
	"github.com/harrison/debugbench/internal/models"
)

// ErrBuildFailed indicates the build tool exited non-zero. The structured
// diagnostics accompany the error and are surfaced verbatim to the caller.
var ErrBuildFailed = errors.New("build failed")

// Compiler invokes the workspace build tool. It holds no per-workspace
// state; every Compile call rebuilds from current sources.
type Compiler struct {
	// MakePath is the build tool binary. Defaults to "make".
	MakePath string

	// Target is the binary the descriptor produces. Defaults to DefaultTarget.
	Target string

	// Timeout is the hard wall-clock limit for one build. Defaults to 60s.
	Timeout time.Duration
}

func (c *Compiler) makePath() string {
	if c.MakePath == "" {
		return "make"
	}
	return c.MakePath
}

func (c *Compiler) target() string {
	if c.Target == "" {
		return DefaultTarget
	}
	return c.Target
}

func (c *Compiler) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 60 * time.Second
	}
	return c.Timeout
}

// Compile runs the build tool in workspace. On success it returns an
// artifact whose fingerprint covers all compiled sources and headers. On
// non-zero exit it parses the tool output into ordered diagnostics and
// returns ErrBuildFailed.
func (c *Compiler) Compile(ctx context.Context, workspace string) (*models.BuildArtifact, []models.CompileDiagnostic, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, c.makePath())
	cmd.Dir = workspace
	output, err := cmd.CombinedOutput()
	if err != nil {
		diags := ParseDiagnostics(string(output))
		if ctx.Err() == context.DeadlineExceeded {
			return nil, diags, fmt.Errorf("%w: timed out after %s", ErrBuildFailed, c.timeout())
		}
		return nil, diags, fmt.Errorf("%w: %v", ErrBuildFailed, err)
	}

	files, err := fileutil.DiscoverAll(workspace)
	if err != nil {
		return nil, nil, err
	}
	fingerprint, err := Fingerprint(workspace, files)
	if err != nil {
		return nil, nil, err
	}

	return &models.BuildArtifact{
		Path:        filepath.Join(workspace, c.target()),
		Flags:       append([]string{}, DebugFlags...),
		Sources:     files,
		Fingerprint: fingerprint,
	}, nil, nil
}

// gcc/clang diagnostic format: file:line:col: severity: message
// The column is optional (older tools omit it).
var diagnosticPattern = regexp.MustCompile(`^([^:\s][^:]*):(\d+):(?:(\d+):)?\s*(error|warning|note):\s*(.+)$`)

// ParseDiagnostics extracts structured compiler messages from build tool
// output, preserving their order of appearance.
func ParseDiagnostics(output string) []models.CompileDiagnostic {
	var diags []models.CompileDiagnostic
	for _, line := range strings.Split(output, "\n") {
		match := diagnosticPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if match == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(match[2])
		col := 0
		if match[3] != "" {
			col, _ = strconv.Atoi(match[3])
		}
		diags = append(diags, models.CompileDiagnostic{
			File:     match[1],
			Line:     lineNo,
			Column:   col,
			Severity: models.DiagnosticSeverity(match[4]),
			Text:     match[5],
		})
	}
	return diags
}
