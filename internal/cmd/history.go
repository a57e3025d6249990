package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/debugbench/internal/config"
	"github.com/harrison/debugbench/internal/history"
)

// NewHistoryCommand creates the history command group
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded evaluation results",
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .debugbench/config.yaml)")
	cmd.PersistentFlags().String("db", "", "History database path (overrides config)")

	cmd.AddCommand(newHistoryRecentCommand())
	cmd.AddCommand(newHistorySummaryCommand())

	return cmd
}

func openHistoryStore(cmd *cobra.Command) (*history.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		configPath, _ := cmd.Flags().GetString("config")
		var cfg *config.Config
		var err error
		if configPath != "" {
			cfg, err = config.LoadConfig(configPath)
		} else {
			cfg, err = config.LoadConfigFromDir(".")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		dbPath = cfg.History.DBPath
	}
	return history.NewStore(dbPath)
}

func newHistoryRecentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent evaluations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistoryStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			workspace, _ := cmd.Flags().GetString("workspace")

			var records []history.Record
			if workspace != "" {
				records, err = store.ByWorkspace(cmd.Context(), workspace, limit)
			} else {
				records, err = store.Recent(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "no recorded evaluations")
				return nil
			}
			for _, r := range records {
				verdict := failColor.Sprint("FAIL")
				if r.Verdict {
					verdict = passColor.Sprint("PASS")
				}
				fmt.Fprintf(out, "%s  %s  %s  reason=%s  findings=%d\n",
					r.CreatedAt.Format(time.DateTime), verdict, r.Workspace, r.Reason, len(r.Findings))
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of records to show")
	cmd.Flags().String("workspace", "", "Only show records for this workspace")
	return cmd
}

func newHistorySummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize all recorded verdicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openHistoryStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total evaluations: %d\n", summary.Total)
			fmt.Fprintf(out, "Passed: %d\n", summary.Passed)
			fmt.Fprintf(out, "Failed: %d\n", summary.Total-summary.Passed)
			if len(summary.Reasons) > 0 {
				fmt.Fprintln(out, "By reason:")
				for reason, count := range summary.Reasons {
					fmt.Fprintf(out, "  %s: %d\n", reason, count)
				}
			}
			return nil
		},
	}
}
