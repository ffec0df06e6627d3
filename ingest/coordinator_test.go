package ingest

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/data/repos"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/enums"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/matching"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/metrics"
)

// fakeLedger mimics the crawl_runs table: an atomic single-active-run claim
// and a forward-only watermark.
type fakeLedger struct {
	mu        sync.Mutex
	runs      map[uuid.UUID]*data.CrawlRun
	active    bool
	completed []int64
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{runs: make(map[uuid.UUID]*data.CrawlRun)}
}

func (l *fakeLedger) BeginRun(_ context.Context, windowStart, windowEnd time.Time) (*data.CrawlRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active {
		return nil, repos.ErrRunAlreadyActive
	}
	l.active = true
	run := &data.CrawlRun{
		ID:          uuid.New(),
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Status:      enums.RunStatusInProgress,
	}
	l.runs[run.ID] = run
	return &data.CrawlRun{ID: run.ID, Status: run.Status}, nil
}

func (l *fakeLedger) RecordWatermark(_ context.Context, runID uuid.UUID, externalID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	run, ok := l.runs[runID]
	if !ok || run.Status != enums.RunStatusInProgress {
		return repos.ErrRunNotFound
	}
	if externalID > run.Watermark {
		run.Watermark = externalID
	}
	return nil
}

func (l *fakeLedger) CompleteRun(_ context.Context, runID uuid.UUID) error {
	return l.finish(runID, enums.RunStatusCompleted)
}

func (l *fakeLedger) FailRun(_ context.Context, runID uuid.UUID) error {
	return l.finish(runID, enums.RunStatusFailed)
}

func (l *fakeLedger) finish(runID uuid.UUID, status enums.RunStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	run, ok := l.runs[runID]
	if !ok || run.Status != enums.RunStatusInProgress {
		return repos.ErrRunNotFound
	}
	run.Status = status
	l.active = false
	if status == enums.RunStatusCompleted {
		l.completed = append(l.completed, run.Watermark)
	}
	return nil
}

func (l *fakeLedger) LastWatermark(context.Context) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var max int64
	for _, w := range l.completed {
		if w > max {
			max = w
		}
	}
	return max, nil
}

func (l *fakeLedger) status(runID uuid.UUID) enums.RunStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runs[runID].Status
}

type fakeListingStore struct {
	mu     sync.Mutex
	nextID int64
	byExt  map[string]int64
	err    error
}

func newFakeListingStore() *fakeListingStore {
	return &fakeListingStore{byExt: make(map[string]int64)}
}

func (s *fakeListingStore) InsertIfAbsent(_ context.Context, listing data.Listing) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, false, s.err
	}
	if id, ok := s.byExt[listing.ExternalID]; ok {
		return id, false, nil
	}
	s.nextID++
	s.byExt[listing.ExternalID] = s.nextID
	return s.nextID, true, nil
}

type fakeGoalSource struct {
	goals []data.UserGoal
}

func (s *fakeGoalSource) GetActiveGoals(context.Context) ([]data.UserGoal, error) {
	return s.goals, nil
}

type fakeResultSink struct {
	mu      sync.Mutex
	results []data.MatchResult
}

func (s *fakeResultSink) CreateMatchResults(_ context.Context, results []data.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, results...)
	return nil
}

type fixture struct {
	coordinator *Coordinator
	ledger      *fakeLedger
	listings    *fakeListingStore
	goals       *fakeGoalSource
	results     *fakeResultSink
}

func newFixture() *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{
		ledger:   newFakeLedger(),
		listings: newFakeListingStore(),
		goals:    &fakeGoalSource{},
		results:  &fakeResultSink{},
	}
	f.coordinator = NewCoordinator(logger, f.ledger, f.listings, f.goals, f.results,
		matching.NewEngine(logger), metrics.New(), 4, time.Second)
	return f
}

func ptr(v int64) *int64 { return &v }

func raw(id string, price int64) RawListing {
	return RawListing{
		ExternalID:  id,
		PublishedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ListingURL:  "http://example.com/detail.asp?id=" + id,
		Price:       ptr(price),
	}
}

func window() (time.Time, time.Time) {
	end := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	return end.Add(-24 * time.Hour), end
}

func TestIngest_AdmitsNewListings(t *testing.T) {
	f := newFixture()
	start, end := window()

	report, err := f.coordinator.Ingest(context.Background(), start, end,
		[]RawListing{raw("1001", 100000), raw("1002", 200000)})

	require.NoError(t, err)
	assert.Equal(t, 2, report.Admitted)
	assert.Equal(t, 0, report.Duplicates)
	assert.Equal(t, 0, report.Failed)
}

func TestIngest_RepeatBatchIsIdempotent(t *testing.T) {
	f := newFixture()
	start, end := window()
	batch := []RawListing{raw("1001", 100000), raw("1002", 200000), raw("1003", 300000)}

	first, err := f.coordinator.Ingest(context.Background(), start, end, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Admitted)

	second, err := f.coordinator.Ingest(context.Background(), start, end, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Admitted)
	assert.Equal(t, 3, second.Duplicates)
	assert.Len(t, f.listings.byExt, 3)
}

func TestIngest_MalformedItemDoesNotAbortBatch(t *testing.T) {
	f := newFixture()
	start, end := window()
	batch := []RawListing{
		raw("1001", 100000),
		{ExternalID: "", ListingURL: "http://example.com", PublishedAt: time.Now()},
		raw("1002", 200000),
		raw("1003", 300000),
	}

	report, err := f.coordinator.Ingest(context.Background(), start, end, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Admitted)
	assert.Equal(t, 0, report.Duplicates)
	assert.Equal(t, 1, report.Failed)

	repeat, err := f.coordinator.Ingest(context.Background(), start, end, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, repeat.Admitted)
	assert.Equal(t, 3, repeat.Duplicates)
	assert.Equal(t, 1, repeat.Failed)
}

func TestIngest_WatermarkMonotonic(t *testing.T) {
	f := newFixture()
	start, end := window()

	_, err := f.coordinator.Ingest(context.Background(), start, end,
		[]RawListing{raw("1005", 1), raw("1003", 1)})
	require.NoError(t, err)

	after1, err := f.ledger.LastWatermark(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1005), after1)

	// Second run only sees lower IDs; the watermark must not move backward.
	_, err = f.coordinator.Ingest(context.Background(), start, end,
		[]RawListing{raw("1004", 1)})
	require.NoError(t, err)

	after2, err := f.ledger.LastWatermark(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after2, after1)
}

func TestIngest_ConcurrentRunsMutuallyExclusive(t *testing.T) {
	f := newFixture()
	start, end := window()

	// Hold the active-run slot, then try to start another run.
	_, err := f.ledger.BeginRun(context.Background(), start, end)
	require.NoError(t, err)

	report, err := f.coordinator.Ingest(context.Background(), start, end,
		[]RawListing{raw("1001", 1)})
	assert.ErrorIs(t, err, repos.ErrRunAlreadyActive)
	assert.Equal(t, 0, report.Admitted)
}

func TestIngest_FatalStoreErrorLeavesRunInProgress(t *testing.T) {
	f := newFixture()
	start, end := window()
	f.listings.err = errors.New("connection refused")

	report, err := f.coordinator.Ingest(context.Background(), start, end,
		[]RawListing{raw("1001", 1)})
	require.Error(t, err)
	assert.Equal(t, 0, report.Admitted)
	assert.Equal(t, enums.RunStatusInProgress, f.ledger.status(report.RunID))

	// The dangling run blocks the retry until an operator clears it.
	_, err = f.coordinator.Ingest(context.Background(), start, end,
		[]RawListing{raw("1001", 1)})
	assert.ErrorIs(t, err, repos.ErrRunAlreadyActive)
}

func TestIngest_CancellationMarksRunFailed(t *testing.T) {
	f := newFixture()
	start, end := window()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.coordinator.Ingest(ctx, start, end, []RawListing{raw("1001", 1)})
	require.Error(t, err)
	assert.Equal(t, enums.RunStatusFailed, f.ledger.status(report.RunID))
}

func TestIngest_MatchesAdmittedListingsAgainstGoals(t *testing.T) {
	f := newFixture()
	start, end := window()

	goalA := data.UserGoal{ID: uuid.New(), IsActive: true, Criteria: []data.Criterion{{
		ID:       1,
		Kind:     enums.CriterionKindHard,
		Field:    enums.CriterionFieldPrice,
		Operator: enums.CriterionOperatorLte,
		MinValue: nullFloat(200000),
	}}}
	goalB := data.UserGoal{ID: uuid.New(), IsActive: true, Criteria: []data.Criterion{{
		ID:       2,
		Kind:     enums.CriterionKindHard,
		Field:    enums.CriterionFieldPrice,
		Operator: enums.CriterionOperatorLte,
		MinValue: nullFloat(150000),
	}}}
	f.goals.goals = []data.UserGoal{goalA, goalB}

	_, err := f.coordinator.Ingest(context.Background(), start, end,
		[]RawListing{raw("1001", 180000)})
	require.NoError(t, err)

	require.Len(t, f.results.results, 2)
	byGoal := map[uuid.UUID]data.MatchResult{}
	for _, r := range f.results.results {
		byGoal[r.GoalID] = r
	}
	assert.True(t, byGoal[goalA.ID].Matched)
	assert.False(t, byGoal[goalB.ID].Matched)
}

func TestIngest_DuplicateIsNotReMatched(t *testing.T) {
	f := newFixture()
	start, end := window()
	f.goals.goals = []data.UserGoal{{ID: uuid.New(), IsActive: true}}

	batch := []RawListing{raw("1001", 100000)}
	_, err := f.coordinator.Ingest(context.Background(), start, end, batch)
	require.NoError(t, err)
	_, err = f.coordinator.Ingest(context.Background(), start, end, batch)
	require.NoError(t, err)

	assert.Len(t, f.results.results, 1)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validate(raw("1001", 1)))

	missing := raw("1001", 1)
	missing.PublishedAt = time.Time{}
	assert.Error(t, validate(missing))

	negative := raw("1001", 1)
	negative.Area = ptr(-5)
	assert.Error(t, validate(negative))
}

func TestNumericID(t *testing.T) {
	id, ok := numericID("1209086")
	assert.True(t, ok)
	assert.Equal(t, int64(1209086), id)

	_, ok = numericID("ZG-001")
	assert.False(t, ok)
}

func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: true}
}
