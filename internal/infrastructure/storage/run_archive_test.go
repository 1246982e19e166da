package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAgent/internal/domain"
)

func openSQLite(t *testing.T) *RunArchive {
	t.Helper()

	archive, err := Open(context.Background(), DriverSQLite, "file:"+t.TempDir()+"/runs.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = archive.Close() })
	return archive
}

func TestRunArchiveRecordAndRecent(t *testing.T) {
	t.Parallel()

	archive := openSQLite(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, ok := range []bool{true, false, true} {
		require.NoError(t, archive.Record(ctx, domain.RunRecord{
			RunID:         string(rune('a' + i)),
			Goal:          "Fetch AI news",
			Success:       ok,
			Priority:      domain.PriorityNormal,
			ArticlesCount: 3,
			SummaryLength: 120 * (i + 1),
			FailedStep:    map[bool]int{true: 0, false: 6}[ok],
			StartedAt:     base.Add(time.Duration(i) * time.Hour),
			FinishedAt:    base.Add(time.Duration(i)*time.Hour + time.Minute),
		}))
	}

	runs, err := archive.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "c", runs[0].RunID)
	assert.True(t, runs[0].Success)
	assert.Equal(t, 360, runs[0].SummaryLength)
	assert.Equal(t, base.Add(2*time.Hour+time.Minute), runs[0].FinishedAt)

	assert.Equal(t, "b", runs[1].RunID)
	assert.False(t, runs[1].Success)
	assert.Equal(t, 6, runs[1].FailedStep)
	assert.Equal(t, domain.PriorityNormal, runs[1].Priority)
}

func TestRunArchiveRejectsDuplicateRunID(t *testing.T) {
	t.Parallel()

	archive := openSQLite(t)
	ctx := context.Background()
	rec := domain.RunRecord{RunID: "dup", Goal: "g", Priority: domain.PriorityHigh, StartedAt: time.Now(), FinishedAt: time.Now()}

	require.NoError(t, archive.Record(ctx, rec))
	assert.Error(t, archive.Record(ctx, rec))
}

func TestOpenValidatesDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), "oracle", "dsn")
	assert.ErrorContains(t, err, "unsupported archive driver")

	_, err = Open(context.Background(), DriverSQLite, "")
	assert.ErrorContains(t, err, "dsn is required")
}

func TestPostgresPlaceholders(t *testing.T) {
	t.Parallel()

	archive := NewRunArchive(nil, DriverPostgres)
	query, _, err := archive.builder.Insert(runsTable).Columns("run_id").Values("x").ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "$1")
}
