package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/enums"
)

const pqUniqueViolation = "23505"

type CrawlRunRepo struct {
	db *sqlx.DB
}

func NewCrawlRunRepo(db *sqlx.DB) *CrawlRunRepo {
	return &CrawlRunRepo{db}
}

// BeginRun claims the single active-run slot and returns the new run.
// The claim is an atomic insert against the partial unique index on
// status = 'in_progress'; losing the race yields ErrRunAlreadyActive.
func (r *CrawlRunRepo) BeginRun(ctx context.Context, windowStart, windowEnd time.Time) (*data.CrawlRun, error) {
	run := data.CrawlRun{
		ID:          uuid.New(),
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Status:      enums.RunStatusInProgress,
		StartedAt:   time.Now().UTC(),
	}

	query := `
		INSERT INTO crawl_runs (id, window_start, window_end, status, watermark, started_at)
		VALUES (:id, :window_start, :window_end, :status, 0, :started_at)`

	_, err := r.db.NamedExecContext(ctx, query, run)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return nil, ErrRunAlreadyActive
		}
		return nil, fmt.Errorf("begin run: %w", err)
	}

	return &run, nil
}

// RecordWatermark advances the run's watermark to externalID if it is higher.
// Older IDs are accepted silently; the watermark never moves backward.
func (r *CrawlRunRepo) RecordWatermark(ctx context.Context, runID uuid.UUID, externalID int64) error {
	query := `
		UPDATE crawl_runs
		SET watermark = GREATEST(watermark, $2)
		WHERE id = $1 AND status = 'in_progress'`

	res, err := r.db.ExecContext(ctx, query, runID, externalID)
	if err != nil {
		return fmt.Errorf("record watermark: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}

	return nil
}

func (r *CrawlRunRepo) CompleteRun(ctx context.Context, runID uuid.UUID) error {
	return r.finishRun(ctx, runID, enums.RunStatusCompleted)
}

// FailRun marks a run failed. Used for operator cancellation and for the
// stuck-run sweep; already-admitted listings stay admitted.
func (r *CrawlRunRepo) FailRun(ctx context.Context, runID uuid.UUID) error {
	return r.finishRun(ctx, runID, enums.RunStatusFailed)
}

func (r *CrawlRunRepo) finishRun(ctx context.Context, runID uuid.UUID, status enums.RunStatus) error {
	query := `
		UPDATE crawl_runs
		SET status = $2, completed_at = now()
		WHERE id = $1 AND status = 'in_progress'`

	res, err := r.db.ExecContext(ctx, query, runID, status)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRunNotFound
	}

	return nil
}

// LastWatermark returns the highest watermark over completed runs, 0 if none.
func (r *CrawlRunRepo) LastWatermark(ctx context.Context) (int64, error) {
	var watermark int64
	query := "SELECT COALESCE(MAX(watermark), 0) FROM crawl_runs WHERE status = 'completed'"

	if err := r.db.GetContext(ctx, &watermark, query); err != nil {
		return 0, fmt.Errorf("last watermark: %w", err)
	}

	return watermark, nil
}

func (r *CrawlRunRepo) GetRun(ctx context.Context, runID uuid.UUID) (*data.CrawlRun, error) {
	var run data.CrawlRun
	query := "SELECT * FROM crawl_runs WHERE id = $1"

	err := r.db.GetContext(ctx, &run, query, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get run: %w", err)
	}

	return &run, nil
}

func (r *CrawlRunRepo) GetRecentRuns(ctx context.Context, limit int) ([]data.CrawlRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var runs []data.CrawlRun
	query := "SELECT * FROM crawl_runs ORDER BY started_at DESC LIMIT $1"

	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("get recent runs: %w", err)
	}

	return runs, nil
}

// SweepStuckRuns fails any in_progress run older than maxAge and returns the
// ids it cleared. A crashed run is a loud failure: nothing recovers it
// silently, this sweep runs only when an operator enables it.
func (r *CrawlRunRepo) SweepStuckRuns(ctx context.Context, maxAge time.Duration) ([]uuid.UUID, error) {
	query := `
		UPDATE crawl_runs
		SET status = 'failed', completed_at = now()
		WHERE status = 'in_progress' AND started_at < $1
		RETURNING id`

	rows, err := r.db.QueryxContext(ctx, query, time.Now().UTC().Add(-maxAge))
	if err != nil {
		return nil, fmt.Errorf("sweep stuck runs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan swept run id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
