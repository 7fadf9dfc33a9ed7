package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graos/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data", "graos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func run(id, category string, started time.Time, status model.IngestStatus) model.IngestRun {
	return model.IngestRun{
		ID:               id,
		Category:         category,
		DailyFile:        "/dados/atacado-26-07-2025.txt",
		ConsolidatedFile: "/dados/Vendas até 26-07-2025.txt",
		Status:           status,
		TotalRecords:     10,
		StartedAt:        started,
		CompletedAt:      started.Add(time.Second),
	}
}

func TestRecordIngest_ListAndLast(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	base := time.Date(2025, 7, 26, 14, 0, 0, 0, time.UTC)

	require.NoError(t, s.RecordIngest(run("r1", "wholesale", base, model.IngestSucceeded)))
	require.NoError(t, s.RecordIngest(run("r2", "wholesale", base.Add(time.Hour), model.IngestSucceeded)))

	failed := run("r3", "retail", base.Add(2*time.Hour), model.IngestFailed)
	failed.ErrorKind = "encoding"
	failed.ErrorMessage = "invalid byte"
	require.NoError(t, s.RecordIngest(failed))

	runs, err := s.ListIngestRuns("", 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "r3", runs[0].ID)
	assert.Equal(t, model.IngestFailed, runs[0].Status)
	assert.Equal(t, "encoding", runs[0].ErrorKind)

	runs, err = s.ListIngestRuns("wholesale", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "r2", runs[0].ID)
	assert.Equal(t, "/dados/Vendas até 26-07-2025.txt", runs[0].ConsolidatedFile)
	assert.True(t, runs[0].StartedAt.Equal(base.Add(time.Hour)))

	last, err := s.LastIngest("wholesale")
	require.NoError(t, err)
	assert.Equal(t, "r2", last.ID)
	assert.Equal(t, 10, last.TotalRecords)

	_, err = s.LastIngest("unknown")
	assert.ErrorIs(t, err, ErrNoIngestRuns)
}

func TestRecordIngest_UpsertByID(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	r := run("r1", "retail", time.Now().UTC(), model.IngestFailed)
	require.NoError(t, s.RecordIngest(r))

	r.Status = model.IngestSucceeded
	r.BackupFile = "/dados/backup_varejo_20250726_140000.txt"
	require.NoError(t, s.RecordIngest(r))

	runs, err := s.ListIngestRuns("retail", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.IngestSucceeded, runs[0].Status)
	assert.Equal(t, r.BackupFile, runs[0].BackupFile)
}

func TestConfig(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	_, err := s.GetConfig("analysis.vip_min_purchases")
	assert.ErrorIs(t, err, ErrConfigNotFound)

	require.NoError(t, s.SetConfig("analysis.vip_min_purchases", "7"))
	require.NoError(t, s.SetConfig("analysis.vip_min_purchases", "8"))
	v, err := s.GetConfig("analysis.vip_min_purchases")
	require.NoError(t, err)
	assert.Equal(t, "8", v)

	require.NoError(t, s.SetConfig("analysis.exclude_customer_marker", "ESTORNO"))
	all, err := s.GetAllConfig()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"analysis.vip_min_purchases":       "8",
		"analysis.exclude_customer_marker": "ESTORNO",
	}, all)

	require.NoError(t, s.SetConfig("outro", "x"))
	prefixed, err := s.GetConfigWithPrefix(AnalysisConfigPrefix)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"vip_min_purchases":       "8",
		"exclude_customer_marker": "ESTORNO",
	}, prefixed)

	require.NoError(t, s.DeleteConfig("analysis.exclude_customer_marker"))
	_, err = s.GetConfig("analysis.exclude_customer_marker")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}
