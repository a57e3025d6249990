package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/debugbench/internal/config"
	"github.com/harrison/debugbench/internal/evaluator"
	"github.com/harrison/debugbench/internal/logger"
	"github.com/harrison/debugbench/internal/models"
)

// loadConfig resolves the --config flag, falling back to
// .debugbench/config.yaml in the working directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if cmd.Flags().Changed("mode") {
		cfg.Mode, _ = cmd.Flags().GetString("mode")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("timeout") {
		timeoutStr, _ := cmd.Flags().GetString("timeout")
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", timeoutStr, err)
		}
		cfg.Timeouts.Command = timeout
	}
	if noHistory, _ := cmd.Flags().GetBool("no-history"); noHistory {
		cfg.History.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// teeLogger fans every message out to both destinations.
type teeLogger struct {
	console *logger.ConsoleLogger
	file    *logger.FileLogger
}

func (t *teeLogger) Debugf(format string, args ...interface{}) {
	t.console.Debugf(format, args...)
	t.file.Debugf(format, args...)
}

func (t *teeLogger) Infof(format string, args ...interface{}) {
	t.console.Infof(format, args...)
	t.file.Infof(format, args...)
}

func (t *teeLogger) Warnf(format string, args ...interface{}) {
	t.console.Warnf(format, args...)
	t.file.Warnf(format, args...)
}

// newRunLogger builds the logger for one command invocation: console
// always, plus a run log file when the config names a log directory. The
// returned closer flushes the file log.
func newRunLogger(cmd *cobra.Command, cfg *config.Config) (evaluator.Logger, func(), error) {
	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if cfg.LogDir == "" {
		return console, func() {}, nil
	}
	file, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run log: %w", err)
	}
	return &teeLogger{console: console, file: file}, func() { file.Close() }, nil
}

// evaluatorConfig maps file configuration onto the environment settings.
func evaluatorConfig(cfg *config.Config, log evaluator.Logger) evaluator.Config {
	return evaluator.Config{
		DebuggerPath:    cfg.Tools.Debugger,
		MakePath:        cfg.Tools.Make,
		ValgrindPath:    cfg.Tools.Valgrind,
		Interactive:     cfg.Mode == "interactive",
		Commands:        cfg.Commands,
		RunTimeout:      cfg.Timeouts.Command,
		StartupTimeout:  cfg.Timeouts.Startup,
		GracePeriod:     cfg.Timeouts.Grace,
		BuildTimeout:    cfg.Timeouts.Build,
		AnalysisTimeout: cfg.Timeouts.Analysis,
		Logger:          log,
	}
}

// addCommonFlags attaches the flags shared by eval and run.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: .debugbench/config.yaml)")
	cmd.Flags().String("mode", "", "Run mode: batch or interactive (overrides config)")
	cmd.Flags().String("log-level", "", "Log verbosity: trace, debug, info, warn, error")
	cmd.Flags().String("timeout", "", "Per-command run timeout (e.g. 30s, 2m)")
	cmd.Flags().Bool("no-history", false, "Do not record results in the history database")
}

var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
)

// printResult renders one evaluation result for the console.
func printResult(w io.Writer, workspace string, result *models.EvaluationResult) {
	verdict := failColor.Sprint("FAIL")
	if result.Verdict {
		verdict = passColor.Sprint("PASS")
	}
	fmt.Fprintf(w, "%s  %s  reason=%s  duration=%s\n",
		verdict, workspace, result.Reason, result.Duration.Round(time.Millisecond))

	for _, d := range result.Diagnostics {
		if d.IsError() {
			fmt.Fprintf(w, "    %s:%d: %s\n", d.File, d.Line, d.Text)
		}
	}
	if result.Run != nil && result.Run.Crashed() {
		switch {
		case result.Run.TimedOut:
			fmt.Fprintf(w, "    run timed out after %s\n", result.Run.Duration.Round(time.Millisecond))
		case result.Run.Signal != "":
			fmt.Fprintf(w, "    terminated by %s\n", result.Run.Signal)
		default:
			fmt.Fprintf(w, "    exited with code %d\n", result.Run.ExitCode)
		}
	}
	for _, f := range result.Findings {
		fmt.Fprintf(w, "    %s\n", f.String())
	}
	if result.CommandTimeouts > 0 {
		fmt.Fprintf(w, "    %d debugger command(s) timed out\n", result.CommandTimeouts)
	}
}
