// Package ingest admits freshly fetched listings at most once across
// overlapping crawl runs and fans admitted listings out to goal matching.
package ingest

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/matching"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/metrics"
)

// RawListing is one record as delivered by the fetch collaborator. Numeric
// attributes are pointers: the source omits them freely and absence must
// survive into the stored listing instead of turning into zero.
type RawListing struct {
	ExternalID      string
	PublishedAt     time.Time
	ListingURL      string
	PropertyType    string
	TransactionType string
	County          string
	Municipality    string
	Place           string
	Price           *int64
	Currency        string
	Area            *int64
	RoomCount       *int64
	BathroomCount   *int64
	Floor           *int64
	Description     string
	DescriptionLang string
}

// IngestReport is the structured outcome of one batch. Every item lands in
// exactly one of the three counters.
type IngestReport struct {
	RunID      uuid.UUID `json:"runId"`
	Admitted   int       `json:"admitted"`
	Duplicates int       `json:"duplicates"`
	Failed     int       `json:"failed"`
}

// Ledger is the crawl-run side of the coordinator: durable mutual exclusion
// and the monotonic watermark.
type Ledger interface {
	BeginRun(ctx context.Context, windowStart, windowEnd time.Time) (*data.CrawlRun, error)
	RecordWatermark(ctx context.Context, runID uuid.UUID, externalID int64) error
	CompleteRun(ctx context.Context, runID uuid.UUID) error
	FailRun(ctx context.Context, runID uuid.UUID) error
	LastWatermark(ctx context.Context) (int64, error)
}

type ListingStore interface {
	InsertIfAbsent(ctx context.Context, listing data.Listing) (int64, bool, error)
}

type GoalSource interface {
	GetActiveGoals(ctx context.Context) ([]data.UserGoal, error)
}

type ResultSink interface {
	CreateMatchResults(ctx context.Context, results []data.MatchResult) error
}

type Coordinator struct {
	logger       *slog.Logger
	ledger       Ledger
	listings     ListingStore
	goals        GoalSource
	results      ResultSink
	engine       *matching.Engine
	metrics      *metrics.Metrics
	concurrency  int
	storeTimeout time.Duration
}

func NewCoordinator(
	logger *slog.Logger,
	ledger Ledger,
	listings ListingStore,
	goals GoalSource,
	results ResultSink,
	engine *matching.Engine,
	m *metrics.Metrics,
	concurrency int,
	storeTimeout time.Duration,
) *Coordinator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Coordinator{
		logger:       logger,
		ledger:       ledger,
		listings:     listings,
		goals:        goals,
		results:      results,
		engine:       engine,
		metrics:      m,
		concurrency:  concurrency,
		storeTimeout: storeTimeout,
	}
}

// Ingest processes one batch under a single crawl run.
//
// Items are handled in order. A malformed item is counted and skipped; an
// already-admitted external id is counted as a duplicate; a new listing is
// persisted, advances the watermark and is matched against the active goal
// snapshot. A fatal store error propagates to the caller with the run left
// in_progress; the ledger's single-active-run invariant then blocks
// retries until an operator clears it. Context cancellation between items
// marks the run failed; listings already admitted stay admitted.
func (c *Coordinator) Ingest(ctx context.Context, windowStart, windowEnd time.Time, batch []RawListing) (IngestReport, error) {
	run, err := c.ledger.BeginRun(ctx, windowStart, windowEnd)
	if err != nil {
		return IngestReport{}, fmt.Errorf("begin run: %w", err)
	}

	report := IngestReport{RunID: run.ID}
	c.logger.Info("crawl run started", "run_id", run.ID,
		"window_start", windowStart, "window_end", windowEnd, "batch", len(batch))

	goals, err := c.goals.GetActiveGoals(ctx)
	if err != nil {
		return report, fmt.Errorf("load goal snapshot: %w", err)
	}

	for _, raw := range batch {
		if ctx.Err() != nil {
			if failErr := c.ledger.FailRun(context.WithoutCancel(ctx), run.ID); failErr != nil {
				c.logger.Error("mark cancelled run failed", "run_id", run.ID, "error", failErr)
			}
			c.metrics.RunsFailed.Inc()
			return report, fmt.Errorf("run cancelled: %w", ctx.Err())
		}

		if err := validate(raw); err != nil {
			report.Failed++
			c.metrics.ListingsFailed.Inc()
			c.logger.Warn("raw listing rejected", "external_id", raw.ExternalID, "error", err)
			continue
		}

		admitted, listing, err := c.admit(ctx, raw)
		if err != nil {
			// Run intentionally stays in_progress as a visible failure marker.
			return report, fmt.Errorf("admit listing %s: %w", raw.ExternalID, err)
		}
		if !admitted {
			report.Duplicates++
			c.metrics.ListingsDuplicate.Inc()
			continue
		}

		report.Admitted++
		c.metrics.ListingsAdmitted.Inc()

		if id, ok := numericID(raw.ExternalID); ok {
			if err := c.ledger.RecordWatermark(ctx, run.ID, id); err != nil {
				return report, fmt.Errorf("record watermark: %w", err)
			}
		}

		if err := c.match(ctx, listing, goals); err != nil {
			return report, fmt.Errorf("match listing %s: %w", raw.ExternalID, err)
		}
	}

	if err := c.ledger.CompleteRun(ctx, run.ID); err != nil {
		return report, fmt.Errorf("complete run: %w", err)
	}
	c.metrics.RunsCompleted.Inc()

	c.logger.Info("crawl run completed", "run_id", run.ID,
		"admitted", report.Admitted, "duplicates", report.Duplicates, "failed", report.Failed)

	return report, nil
}

func (c *Coordinator) admit(ctx context.Context, raw RawListing) (bool, data.Listing, error) {
	listing := toListing(raw)

	storeCtx, cancel := c.withStoreTimeout(ctx)
	defer cancel()

	id, inserted, err := c.listings.InsertIfAbsent(storeCtx, listing)
	if err != nil {
		return false, data.Listing{}, err
	}
	listing.ID = id

	return inserted, listing, nil
}

// match evaluates the listing against every goal in the snapshot, bounded by
// the configured concurrency, and appends the outcomes. Evaluation itself
// never fails; only persisting the results can.
func (c *Coordinator) match(ctx context.Context, listing data.Listing, goals []data.UserGoal) error {
	if len(goals) == 0 {
		return nil
	}

	results := make([]data.MatchResult, len(goals))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, goal := range goals {
		g.Go(func() error {
			results[i] = c.engine.EvaluateOne(listing, goal)
			return nil
		})
	}
	_ = g.Wait()

	matched := 0
	for _, r := range results {
		if r.Matched {
			matched++
		}
	}
	c.metrics.MatchesEvaluated.Add(float64(len(results)))
	c.metrics.MatchesFound.Add(float64(matched))

	storeCtx, cancel := c.withStoreTimeout(ctx)
	defer cancel()

	return c.results.CreateMatchResults(storeCtx, results)
}

func (c *Coordinator) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.storeTimeout)
}

func validate(raw RawListing) error {
	if raw.ExternalID == "" {
		return fmt.Errorf("missing external id")
	}
	if raw.ListingURL == "" {
		return fmt.Errorf("missing listing url")
	}
	if raw.PublishedAt.IsZero() {
		return fmt.Errorf("missing published timestamp")
	}
	for name, v := range map[string]*int64{
		"price": raw.Price, "area": raw.Area, "room_count": raw.RoomCount,
		"bathroom_count": raw.BathroomCount,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("negative %s", name)
		}
	}
	return nil
}

func toListing(raw RawListing) data.Listing {
	return data.Listing{
		ExternalID:        raw.ExternalID,
		SourcePublishedAt: raw.PublishedAt,
		PropertyType:      raw.PropertyType,
		TransactionType:   raw.TransactionType,
		County:            raw.County,
		Municipality:      raw.Municipality,
		Place:             raw.Place,
		Price:             nullInt(raw.Price),
		Currency:          raw.Currency,
		Area:              nullInt(raw.Area),
		RoomCount:         nullInt(raw.RoomCount),
		BathroomCount:     nullInt(raw.BathroomCount),
		Floor:             nullInt(raw.Floor),
		ListingURL:        raw.ListingURL,
		Description:       raw.Description,
		DescriptionLang:   raw.DescriptionLang,
		RawPayloadHash:    payloadHash(raw),
		IsActive:          true,
	}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func numericID(externalID string) (int64, bool) {
	id, err := strconv.ParseInt(externalID, 10, 64)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func payloadHash(raw RawListing) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s", raw.ExternalID, raw.ListingURL,
		raw.PropertyType, raw.TransactionType, raw.County, raw.Place)
	if raw.Price != nil {
		fmt.Fprintf(h, "|%d", *raw.Price)
	}
	if raw.Area != nil {
		fmt.Fprintf(h, "|%d", *raw.Area)
	}
	return hex.EncodeToString(h.Sum(nil))
}
