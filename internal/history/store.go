// Package history persists evaluation results in a local SQLite database
// so verdicts can be compared across runs of the same workspace.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/debugbench/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Record is one persisted evaluation row.
type Record struct {
	ID              int64
	RunID           string
	Workspace       string
	Verdict         bool
	Reason          models.EvaluationReason
	BuildSucceeded  bool
	ExitCode        int
	Signal          string
	TimedOut        bool
	CommandTimeouts int
	Findings        []models.MemoryFinding
	Diagnostics     []models.CompileDiagnostic
	Duration        time.Duration
	CreatedAt       time.Time
}

// Summary aggregates stored verdicts.
type Summary struct {
	Total   int
	Passed  int
	Reasons map[models.EvaluationReason]int
}

// Store manages the SQLite evaluation history.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath and
// initializes its schema. Parent directories are created for file-backed
// databases.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout first so the remaining pragmas wait on locks instead
	// of failing during concurrent initialization.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record persists one evaluation result against the workspace it ran for.
func (s *Store) Record(ctx context.Context, workspace string, result *models.EvaluationResult) error {
	findingsJSON, err := json.Marshal(result.Findings)
	if err != nil {
		return fmt.Errorf("marshal findings: %w", err)
	}
	diagnosticsJSON, err := json.Marshal(result.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	exitCode := 0
	signal := ""
	timedOut := false
	if result.Run != nil {
		exitCode = result.Run.ExitCode
		signal = result.Run.Signal
		timedOut = result.Run.TimedOut
	}

	query := `INSERT INTO evaluations
		(run_id, workspace, verdict, reason, build_succeeded, exit_code, signal, timed_out, command_timeouts, findings, diagnostics, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		result.RunID,
		workspace,
		result.Verdict,
		string(result.Reason),
		result.BuildSucceeded,
		exitCode,
		signal,
		timedOut,
		result.CommandTimeouts,
		string(findingsJSON),
		string(diagnosticsJSON),
		result.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := selectColumns + ` ORDER BY id DESC LIMIT ?`
	return s.queryRecords(ctx, query, limit)
}

// ByWorkspace returns the newest records for one workspace, most recent
// first.
func (s *Store) ByWorkspace(ctx context.Context, workspace string, limit int) ([]Record, error) {
	query := selectColumns + ` WHERE workspace = ? ORDER BY id DESC LIMIT ?`
	return s.queryRecords(ctx, query, workspace, limit)
}

// Summarize aggregates all stored verdicts by reason.
func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT reason, verdict, COUNT(*) FROM evaluations GROUP BY reason, verdict`)
	if err != nil {
		return nil, fmt.Errorf("summarize evaluations: %w", err)
	}
	defer rows.Close()

	summary := &Summary{Reasons: make(map[models.EvaluationReason]int)}
	for rows.Next() {
		var reason string
		var verdict bool
		var count int
		if err := rows.Scan(&reason, &verdict, &count); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Total += count
		if verdict {
			summary.Passed += count
		}
		summary.Reasons[models.EvaluationReason(reason)] += count
	}
	return summary, rows.Err()
}

const selectColumns = `SELECT id, run_id, workspace, verdict, reason, build_succeeded, exit_code, signal, timed_out, command_timeouts, findings, diagnostics, duration_ms, created_at FROM evaluations`

func (s *Store) queryRecords(ctx context.Context, query string, args ...interface{}) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var reason, findingsJSON, diagnosticsJSON string
		var durationMS int64
		if err := rows.Scan(&r.ID, &r.RunID, &r.Workspace, &r.Verdict, &reason,
			&r.BuildSucceeded, &r.ExitCode, &r.Signal, &r.TimedOut, &r.CommandTimeouts,
			&findingsJSON, &diagnosticsJSON, &durationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan evaluation row: %w", err)
		}
		r.Reason = models.EvaluationReason(reason)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if err := json.Unmarshal([]byte(findingsJSON), &r.Findings); err != nil {
			return nil, fmt.Errorf("unmarshal findings: %w", err)
		}
		if err := json.Unmarshal([]byte(diagnosticsJSON), &r.Diagnostics); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
