package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/ports"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

const runsTable = "workflow_runs"

const createRunsTable = `CREATE TABLE IF NOT EXISTS workflow_runs (
	run_id         VARCHAR(64) PRIMARY KEY,
	goal           TEXT NOT NULL,
	success        BOOLEAN NOT NULL,
	priority       VARCHAR(16) NOT NULL,
	articles_count INTEGER NOT NULL,
	summary_length INTEGER NOT NULL,
	failed_step    INTEGER NOT NULL,
	started_at     BIGINT NOT NULL,
	finished_at    BIGINT NOT NULL
)`

var runColumns = []string{
	"run_id", "goal", "success", "priority", "articles_count",
	"summary_length", "failed_step", "started_at", "finished_at",
}

// RunArchive persists finished workflow runs into a SQL table.
// Timestamps are stored as Unix nanoseconds so every driver orders them
// the same way.
type RunArchive struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunArchive = (*RunArchive)(nil)

// Open connects to the database and ensures the runs table exists.
func Open(ctx context.Context, driver, dsn string) (*RunArchive, error) {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("unsupported archive driver %q", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("archive dsn is required for driver %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	archive := NewRunArchive(db, driver)
	if err := archive.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return archive, nil
}

// NewRunArchive wires an existing sql.DB; postgres gets $n placeholders.
func NewRunArchive(db *sql.DB, driver string) *RunArchive {
	builder := sq.StatementBuilder
	if driver == DriverPostgres {
		builder = builder.PlaceholderFormat(sq.Dollar)
	}
	return &RunArchive{db: db, builder: builder}
}

// Migrate creates the runs table when missing.
func (r *RunArchive) Migrate(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, createRunsTable); err != nil {
		return fmt.Errorf("create %s: %w", runsTable, err)
	}
	return nil
}

// Record inserts one finished run.
func (r *RunArchive) Record(ctx context.Context, run domain.RunRecord) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.builder.
		Insert(runsTable).
		Columns(runColumns...).
		Values(
			run.RunID,
			run.Goal,
			run.Success,
			string(run.Priority),
			run.ArticlesCount,
			run.SummaryLength,
			run.FailedStep,
			run.StartedAt.UTC().UnixNano(),
			run.FinishedAt.UTC().UnixNano(),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (r *RunArchive) Recent(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	query, args, err := r.builder.
		Select(runColumns...).
		From(runsTable).
		OrderBy("finished_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var result []domain.RunRecord
	for rows.Next() {
		var (
			rec               domain.RunRecord
			priority          string
			started, finished int64
		)
		if err := rows.Scan(&rec.RunID, &rec.Goal, &rec.Success, &priority, &rec.ArticlesCount,
			&rec.SummaryLength, &rec.FailedStep, &started, &finished); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Priority = domain.Priority(priority)
		rec.StartedAt = time.Unix(0, started).UTC()
		rec.FinishedAt = time.Unix(0, finished).UTC()
		result = append(result, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// Close releases the connection pool.
func (r *RunArchive) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
