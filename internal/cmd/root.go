// Package cmd defines the debugbench command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for debugbench
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debugbench",
		Short: "Evaluation harness for native C/C++ debug targets",
		Long: `Debugbench compiles C/C++ workspaces with debug flags, runs them
directly or through an interactive gdb session, checks them for memory
defects with valgrind (or a static heuristic scan when valgrind is
unavailable), and aggregates everything into a pass/fail verdict.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.AddCommand(NewEvalCommand())
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
