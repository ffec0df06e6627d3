package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Fetcher delivers the raw listings published since a point in time. The
// window it honors may overlap earlier runs; admission by external id is
// what keeps ingestion idempotent, not window exactness.
type Fetcher interface {
	FetchSince(ctx context.Context, since time.Time) ([]RawListing, error)
}

// Scheduler triggers an ingestion run on a cron schedule and once at
// startup so a fresh deployment does not wait a full day for data.
type Scheduler struct {
	cron        *cron.Cron
	coordinator *Coordinator
	fetcher     Fetcher
	logger      *slog.Logger
	spec        string
	window      time.Duration
}

func NewScheduler(logger *slog.Logger, coordinator *Coordinator, fetcher Fetcher, spec string) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		coordinator: coordinator,
		fetcher:     fetcher,
		logger:      logger,
		spec:        spec,
		window:      24 * time.Hour,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("ingestion schedule started", "spec", s.spec)

	go s.RunOnce(ctx)

	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("ingestion schedule stopped")
}

// RunNow fetches the current window and ingests it, returning the run
// report. Callers decide what a failure means; the cron path logs it, the
// operator endpoint surfaces it.
func (s *Scheduler) RunNow(ctx context.Context) (IngestReport, error) {
	windowEnd := time.Now().UTC()
	windowStart := windowEnd.Add(-s.window)

	batch, err := s.fetcher.FetchSince(ctx, windowStart)
	if err != nil {
		return IngestReport{}, fmt.Errorf("fetch listings: %w", err)
	}

	return s.coordinator.Ingest(ctx, windowStart, windowEnd, batch)
}

// RunOnce is the cron entry point. Errors are logged, not propagated: the
// next tick retries, and a RunAlreadyActive failure means an operator has
// to look at the stuck run first.
func (s *Scheduler) RunOnce(ctx context.Context) {
	report, err := s.RunNow(ctx)
	if err != nil {
		s.logger.Error("ingestion run failed", "run_id", report.RunID, "error", err)
		return
	}

	s.logger.Info("ingestion run complete", "run_id", report.RunID,
		"admitted", report.Admitted, "duplicates", report.Duplicates, "failed", report.Failed)
}
