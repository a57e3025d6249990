package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/debugbench/internal/evaluator"
	"github.com/harrison/debugbench/internal/history"
	"github.com/harrison/debugbench/internal/suite"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <suite-file>",
		Short: "Run a benchmark suite of workspaces",
		Long: `Run every target of a Markdown suite file and compare each verdict
against the suite's expectations.

Relative workspace paths in the suite resolve against the suite file's
directory. The suite frontmatter may set the run mode and debugger
command script; CLI flags override it.

Examples:
  debugbench run suites/heap-bugs.md
  debugbench run --mode batch suites/heap-bugs.md
  debugbench run --no-history suites/smoke.md`,
		Args: cobra.ExactArgs(1),
		RunE: runCommand,
	}

	addCommonFlags(cmd)

	return cmd
}

func runCommand(cmd *cobra.Command, args []string) error {
	suitePath := args[0]
	file, err := os.Open(suitePath)
	if err != nil {
		return fmt.Errorf("failed to open suite: %w", err)
	}
	s, err := suite.NewParser().Parse(file)
	file.Close()
	if err != nil {
		return fmt.Errorf("failed to parse suite %s: %w", suitePath, err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Suite frontmatter applies where the CLI and config file are silent.
	if !cmd.Flags().Changed("mode") && s.Interactive {
		cfg.Mode = "interactive"
	}
	if len(s.Commands) > 0 {
		cfg.Commands = s.Commands
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
	orch := evaluator.New(env, log)

	var recorder suite.Recorder
	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.History.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer store.Close()
		recorder = store
	}

	runner := suite.NewRunner(orch, recorder, filepath.Dir(suitePath))
	results, err := runner.Run(cmd.Context(), s)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if s.Name != "" {
		fmt.Fprintf(out, "Suite: %s\n\n", s.Name)
	}
	for _, r := range results {
		marker := failColor.Sprint("✗")
		if r.Matched {
			marker = passColor.Sprint("✓")
		}
		fmt.Fprintf(out, "%s Target %d: %s\n", marker, r.Target.Number, r.Target.Name)
		fmt.Fprintf(out, "    expected=%s actual=%s\n", r.Target.Expect, r.Result.Reason)
	}

	matched := suite.Matched(results)
	fmt.Fprintf(out, "\n%d/%d target(s) matched expectations\n", matched, len(results))
	if matched != len(results) {
		return fmt.Errorf("%d target(s) did not match expectations", len(results)-matched)
	}
	return nil
}
