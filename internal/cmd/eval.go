package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/debugbench/internal/evaluator"
	"github.com/harrison/debugbench/internal/history"
)

// NewEvalCommand creates the eval command
func NewEvalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval <workspace>",
		Short: "Evaluate one C/C++ workspace",
		Long: `Evaluate a single workspace: compile it with debug flags, run the
binary (directly or under gdb), analyze it for memory defects, and print
the aggregated verdict.

The workspace is copied to a private temporary directory first, so the
original sources and any concurrent evaluations are never disturbed.

Examples:
  debugbench eval ./workspaces/memory_leak
  debugbench eval --mode interactive ./workspaces/null_deref
  debugbench eval --timeout 30s --log-level debug ./workspaces/slow
  debugbench eval --in-place ./scratch/quick-check`,
		Args: cobra.ExactArgs(1),
		RunE: evalCommand,
	}

	addCommonFlags(cmd)
	cmd.Flags().Bool("in-place", false, "Build and analyze in the workspace itself instead of a temp copy")

	return cmd
}

func evalCommand(cmd *cobra.Command, args []string) error {
	workspace := args[0]
	if _, err := os.Stat(workspace); err != nil {
		return fmt.Errorf("workspace %s: %w", workspace, err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newRunLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	env, err := evaluator.NewEnvironment(evaluator.KindNative, evaluatorConfig(cfg, log))
	if err != nil {
		return err
	}

	var opts []evaluator.Option
	if inPlace, _ := cmd.Flags().GetBool("in-place"); inPlace {
		opts = append(opts, evaluator.WithoutStaging())
	}
	orch := evaluator.New(env, log, opts...)

	result, err := orch.Evaluate(cmd.Context(), workspace)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.History.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()
		if err := store.Record(cmd.Context(), workspace, result); err != nil {
			return fmt.Errorf("failed to record result: %w", err)
		}
	}

	printResult(cmd.OutOrStdout(), workspace, result)
	if !result.Verdict {
		return fmt.Errorf("verdict: fail (%s)", result.Reason)
	}
	return nil
}
