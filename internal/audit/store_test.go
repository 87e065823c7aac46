package audit

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codetutor/internal/sanitize"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndReadBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.RecordRun(ctx, Run{
		Subject:     "Python programming",
		LessonTitle: "Loops",
		Phase:       PhaseInitial,
		Accepted:    false,
		Input:       "data = pd.read_csv('x.csv')",
		Output:      "data = pd.read_csv('x.csv')",
		Diagnostics: []sanitize.Diagnostic{
			{Severity: sanitize.SeverityRejected, Code: "FORBIDDEN_FILE_READ", Line: 0, Message: "reads a dataset"},
			{Severity: sanitize.SeverityWarning, Code: sanitize.CodeMissingDeclaration, Line: 0, Message: "pd unknown"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0].ID)
	assert.Equal(t, "Loops", runs[0].LessonTitle)
	assert.Equal(t, PhaseInitial, runs[0].Phase)
	assert.False(t, runs[0].Accepted)
	assert.Equal(t, 2, runs[0].Diagnostics)

	diags, err := store.Diagnostics(ctx, id)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, sanitize.SeverityRejected, diags[0].Severity)
	assert.Equal(t, "FORBIDDEN_FILE_READ", diags[0].Code)
	assert.Equal(t, sanitize.SeverityWarning, diags[1].Severity)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.RecordRun(ctx, Run{
			Subject:     "s",
			LessonTitle: "l",
			Phase:       PhaseInitial,
			Accepted:    true,
		})
		require.NoError(t, err)
	}

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	records := []Run{
		{Phase: PhaseInitial, Accepted: false},
		{Phase: PhaseStrict, Accepted: false},
		{Phase: PhaseFallback, Accepted: true},
		{Phase: PhaseInitial, Accepted: true},
	}
	for _, r := range records {
		r.Subject, r.LessonTitle = "s", "l"
		_, err := store.RecordRun(ctx, r)
		require.NoError(t, err)
	}

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalRuns)
	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 2, stats.Rejected)
	assert.Equal(t, 1, stats.Fallbacks)
}

func TestStatsEmpty(t *testing.T) {
	store := newTestStore(t)
	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}
