package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/debugbench/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleResult(runID string, verdict bool, reason models.EvaluationReason) *models.EvaluationResult {
	result := &models.EvaluationResult{
		RunID:          runID,
		Verdict:        verdict,
		Reason:         reason,
		BuildSucceeded: reason != models.ReasonBuildFailed,
		Duration:       1200 * time.Millisecond,
	}
	if result.BuildSucceeded {
		result.Run = &models.RunStatus{ExitCode: 0}
	}
	return result
}

func TestNewStoreCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	defer store.Close()
}

func TestNewStoreInMemory(t *testing.T) {
	store, err := NewStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
}

func TestRecordAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "/ws/leak", sampleResult("run-1", false, models.ReasonMemoryFindings)))
	require.NoError(t, store.Record(ctx, "/ws/clean", sampleResult("run-2", true, models.ReasonClean)))

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Most recent first.
	assert.Equal(t, "run-2", records[0].RunID)
	assert.True(t, records[0].Verdict)
	assert.Equal(t, "run-1", records[1].RunID)
	assert.Equal(t, models.ReasonMemoryFindings, records[1].Reason)
	assert.Equal(t, 1200*time.Millisecond, records[1].Duration)
	assert.False(t, records[0].CreatedAt.IsZero())
}

func TestRecordRoundTripsFindings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	result := sampleResult("run-3", false, models.ReasonMemoryFindings)
	result.Findings = []models.MemoryFinding{{
		Kind:      models.FindingLeak,
		Severity:  models.FindingDefinite,
		Source:    models.SourceDynamic,
		Detector:  "valgrind",
		BytesLost: 400,
		Blocks:    1,
		AllocSite: "main (main.cpp:4)",
	}}
	result.Run = &models.RunStatus{ExitCode: -1, Signal: "SIGSEGV"}
	require.NoError(t, store.Record(ctx, "/ws/leak", result))

	records, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, records[0].Findings, 1)
	assert.Equal(t, int64(400), records[0].Findings[0].BytesLost)
	assert.Equal(t, "SIGSEGV", records[0].Signal)
	assert.Equal(t, -1, records[0].ExitCode)
}

func TestRecordRejectsDuplicateRunID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "/ws/a", sampleResult("run-dup", true, models.ReasonClean)))
	assert.Error(t, store.Record(ctx, "/ws/a", sampleResult("run-dup", true, models.ReasonClean)))
}

func TestByWorkspace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "/ws/a", sampleResult("run-a1", true, models.ReasonClean)))
	require.NoError(t, store.Record(ctx, "/ws/b", sampleResult("run-b1", false, models.ReasonCrash)))
	require.NoError(t, store.Record(ctx, "/ws/a", sampleResult("run-a2", false, models.ReasonBuildFailed)))

	records, err := store.ByWorkspace(ctx, "/ws/a", 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "run-a2", records[0].RunID)
	assert.Equal(t, "run-a1", records[1].RunID)
}

func TestSummarize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "/ws/a", sampleResult("run-1", true, models.ReasonClean)))
	require.NoError(t, store.Record(ctx, "/ws/b", sampleResult("run-2", false, models.ReasonCrash)))
	require.NoError(t, store.Record(ctx, "/ws/c", sampleResult("run-3", false, models.ReasonCrash)))

	summary, err := store.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 2, summary.Reasons[models.ReasonCrash])
	assert.Equal(t, 1, summary.Reasons[models.ReasonClean])
}
