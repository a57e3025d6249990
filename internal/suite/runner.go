package suite

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/harrison/debugbench/internal/models"
)

// Evaluator runs one workspace evaluation. The evaluator package's
// Orchestrator satisfies it.
type Evaluator interface {
	Evaluate(ctx context.Context, workspace string) (*models.EvaluationResult, error)
}

// Recorder persists finished evaluations. The history package's Store
// satisfies it.
type Recorder interface {
	Record(ctx context.Context, workspace string, result *models.EvaluationResult) error
}

// TargetResult pairs a suite target with its evaluation outcome.
type TargetResult struct {
	Target Target
	Result *models.EvaluationResult
	// Matched is true when the evaluation reason equals the target's
	// expectation.
	Matched bool
}

// Runner evaluates every target of a suite in order.
type Runner struct {
	eval Evaluator
	// recorder may be nil when history persistence is disabled.
	recorder Recorder
	// baseDir resolves relative workspace paths from the suite file's
	// location.
	baseDir string
}

func NewRunner(eval Evaluator, recorder Recorder, baseDir string) *Runner {
	return &Runner{eval: eval, recorder: recorder, baseDir: baseDir}
}

// Run evaluates all targets and reports per-target match results. The
// first infrastructure error aborts the run; expectation mismatches do
// not.
func (r *Runner) Run(ctx context.Context, s *Suite) ([]TargetResult, error) {
	var results []TargetResult
	for _, target := range s.Targets {
		workspace := target.Workspace
		if !filepath.IsAbs(workspace) {
			workspace = filepath.Join(r.baseDir, workspace)
		}

		result, err := r.eval.Evaluate(ctx, workspace)
		if err != nil {
			return results, fmt.Errorf("target %d (%s): %w", target.Number, target.Name, err)
		}
		if r.recorder != nil {
			if err := r.recorder.Record(ctx, workspace, result); err != nil {
				return results, fmt.Errorf("target %d (%s): record: %w", target.Number, target.Name, err)
			}
		}

		results = append(results, TargetResult{
			Target:  target,
			Result:  result,
			Matched: result.Reason == target.Expect,
		})
	}
	return results, nil
}

// Matched counts results whose reason met the expectation.
func Matched(results []TargetResult) int {
	n := 0
	for _, r := range results {
		if r.Matched {
			n++
		}
	}
	return n
}
