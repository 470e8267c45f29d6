// internal/store/ledger_test.go
package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printer-agent/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "jobs.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")

	s1, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s1.MarkCompleted("job-1", true))
	require.NoError(t, s1.Close())

	// Reopening must survive already-applied migrations and keep rows
	s2, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer s2.Close()

	processed, err := s2.IsProcessed("job-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestLedger_MarkAndStatus(t *testing.T) {
	s := openTestStore(t)

	processed, err := s.IsProcessed("missing")
	require.NoError(t, err)
	assert.False(t, processed)

	status, err := s.Status("missing")
	require.NoError(t, err)
	assert.Nil(t, status)

	require.NoError(t, s.MarkCompleted("job-ok", true))
	require.NoError(t, s.MarkFailed("job-bad", "printer offline", false))
	require.NoError(t, s.MarkSkipped("job-dup"))

	ok, err := s.Status("job-ok")
	require.NoError(t, err)
	require.NotNil(t, ok)
	assert.Equal(t, model.JobStatusCompleted, ok.Status)
	assert.True(t, ok.Reported)
	assert.Nil(t, ok.Error)

	bad, err := s.Status("job-bad")
	require.NoError(t, err)
	require.NotNil(t, bad)
	assert.Equal(t, model.JobStatusFailed, bad.Status)
	assert.False(t, bad.Reported)
	require.NotNil(t, bad.Error)
	assert.Equal(t, "printer offline", *bad.Error)

	dup, err := s.Status("job-dup")
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, model.JobStatusSkipped, dup.Status)
	assert.True(t, dup.Reported)
}

func TestLedger_MarkOverwritesOutcome(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.MarkFailed("job-1", "paper jam", false))
	require.NoError(t, s.MarkCompleted("job-1", true))

	status, err := s.Status("job-1")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, model.JobStatusCompleted, status.Status)
	assert.True(t, status.Reported)
	assert.Nil(t, status.Error)
}

func TestLedger_UnreportedAndMarkReported(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.MarkFailed("job-a", "offline", false))
	require.NoError(t, s.MarkCompleted("job-b", false))
	require.NoError(t, s.MarkCompleted("job-c", true))

	jobs, err := s.Unreported(10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	guids := []string{jobs[0].JobGUID, jobs[1].JobGUID}
	assert.ElementsMatch(t, []string{"job-a", "job-b"}, guids)

	require.NoError(t, s.MarkReported("job-a"))

	jobs, err = s.Unreported(10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-b", jobs[0].JobGUID)
}

func TestLedger_MarkReportedUnknownJob(t *testing.T) {
	s := openTestStore(t)

	err := s.MarkReported("never-seen")
	assert.Error(t, err)
}

func TestLedger_UnreportedLimit(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.MarkCompleted("job-1", false))
	require.NoError(t, s.MarkCompleted("job-2", false))
	require.NoError(t, s.MarkCompleted("job-3", false))

	jobs, err := s.Unreported(2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestLedger_Stats(t *testing.T) {
	s := openTestStore(t)

	stats, err := s.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Nil(t, stats.OldestJob)

	require.NoError(t, s.MarkCompleted("job-1", true))
	require.NoError(t, s.MarkCompleted("job-2", true))
	require.NoError(t, s.MarkFailed("job-3", "nope", true))

	stats, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByStatus[string(model.JobStatusCompleted)])
	assert.Equal(t, int64(1), stats.ByStatus[string(model.JobStatusFailed)])
	assert.NotNil(t, stats.OldestJob)
}

func TestLedger_CleanupKeepsFreshRows(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.MarkCompleted("job-1", true))

	removed, err := s.CleanupOlderThan(7)
	require.NoError(t, err)
	assert.Zero(t, removed)

	processed, err := s.IsProcessed("job-1")
	require.NoError(t, err)
	assert.True(t, processed)
}
