package evaluator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/debugbench/internal/build"
	"github.com/harrison/debugbench/internal/models"
)

// Orchestrator runs the fixed evaluation pipeline against one workspace:
// build, run, analyze, aggregate. A build failure short-circuits the run
// stage; analysis still executes so memory evidence is never lost to an
// unrelated crash.
type Orchestrator struct {
	env Environment
	log Logger

	// stage controls whether the workspace is copied to a private temp
	// dir before evaluation. Disabled only in tests that assert on
	// in-place build products.
	stage bool
}

// Option mutates orchestrator construction.
type Option func(*Orchestrator)

// WithoutStaging evaluates the workspace in place instead of a temp copy.
func WithoutStaging() Option {
	return func(o *Orchestrator) { o.stage = false }
}

// New builds an Orchestrator around an environment. A nil logger is
// replaced by a no-op.
func New(env Environment, log Logger, opts ...Option) *Orchestrator {
	if log == nil {
		log = nopLogger{}
	}
	o := &Orchestrator{env: env, log: log, stage: true}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Evaluate runs the full pipeline and returns an aggregated result. Only
// infrastructure failures return an error: a failing build, a crashing
// program, or memory findings are negative verdicts, not errors.
func (o *Orchestrator) Evaluate(ctx context.Context, workspace string) (*models.EvaluationResult, error) {
	start := time.Now()
	result := &models.EvaluationResult{RunID: uuid.NewString()}
	o.log.Infof("evaluation %s started for %s", result.RunID, workspace)

	if o.stage {
		staged, cleanup, err := stageWorkspace(workspace)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		workspace = staged
	}

	artifact, diagnostics, err := o.env.Build(ctx, workspace)
	result.Diagnostics = diagnostics
	if err != nil {
		if !errors.Is(err, build.ErrBuildFailed) {
			return nil, err
		}
		result.Reason = models.ReasonBuildFailed
		result.Duration = time.Since(start)
		o.log.Infof("evaluation %s: build failed with %d diagnostic(s)", result.RunID, len(diagnostics))
		return result, nil
	}
	result.BuildSucceeded = true
	o.log.Debugf("evaluation %s: built %s", result.RunID, artifact.Path)

	outcome, err := o.env.Run(ctx, artifact)
	if err != nil {
		return nil, err
	}
	result.Run = &outcome.Status
	result.Transcript = outcome.Transcript
	result.CommandTimeouts = outcome.CommandTimeouts

	findings, err := o.env.Analyze(ctx, workspace, artifact)
	if err != nil {
		// Analysis trouble downgrades to a warning; the run evidence
		// already collected still decides the verdict.
		o.log.Warnf("evaluation %s: analysis failed: %v", result.RunID, err)
	}
	result.Findings = findings

	o.aggregate(result)
	result.Duration = time.Since(start)
	o.log.Infof("evaluation %s finished: verdict=%t reason=%s", result.RunID, result.Verdict, result.Reason)
	return result, nil
}

// aggregate derives the verdict from collected evidence. Reason precedence
// when multiple defects coexist: build failure, then crash, then findings.
func (o *Orchestrator) aggregate(result *models.EvaluationResult) {
	switch {
	case !result.BuildSucceeded:
		result.Reason = models.ReasonBuildFailed
	case result.Crashed():
		result.Reason = models.ReasonCrash
	case len(result.Findings) > 0:
		result.Reason = models.ReasonMemoryFindings
	default:
		result.Reason = models.ReasonClean
		result.Verdict = true
	}
}
