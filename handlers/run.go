package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data/repos"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/ingest"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/models"
)

// Ingestor starts an ingestion run outside the cron schedule.
type Ingestor interface {
	RunNow(ctx context.Context) (ingest.IngestReport, error)
}

// RunHandler exposes operator endpoints over crawl runs. A run that died
// without finishing keeps the ledger locked until it is reset here or
// collected by the sweep.
type RunHandler struct {
	repo     *repos.CrawlRunRepo
	ingestor Ingestor
	stuckAge time.Duration
}

func NewRunHandler(repo *repos.CrawlRunRepo, ingestor Ingestor, stuckAge time.Duration) *RunHandler {
	return &RunHandler{repo: repo, ingestor: ingestor, stuckAge: stuckAge}
}

// TriggerRun starts an ingestion run immediately and waits for it.
func (h *RunHandler) TriggerRun(w http.ResponseWriter, r *http.Request) Result {
	report, err := h.ingestor.RunNow(r.Context())
	if err != nil {
		if errors.Is(err, repos.ErrRunAlreadyActive) {
			return Conflict("An ingestion run is already in progress.")
		}
		return InternalError(err, "trigger run: ")
	}

	return Ok(report)
}

func (h *RunHandler) GetRuns(w http.ResponseWriter, r *http.Request) Result {
	runs, err := h.repo.GetRecentRuns(r.Context(), 50)
	if err != nil {
		return InternalError(err, "get runs: ")
	}

	res := models.GetRunsResponse{Runs: make([]models.Run, 0, len(runs))}
	for _, run := range runs {
		res.Runs = append(res.Runs, models.FromDataRun(run))
	}

	return Ok(res)
}

func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) Result {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return BadRequest("Invalid run ID.")
	}

	run, err := h.repo.GetRun(r.Context(), id)
	if err != nil {
		return InternalError(err, "get run: ")
	}
	if run == nil {
		return NotFound("Run not found.")
	}

	return Ok(models.FromDataRun(*run))
}

// ResetRun marks an in-progress run as failed so the next scheduled run can
// claim the ledger again.
func (h *RunHandler) ResetRun(w http.ResponseWriter, r *http.Request) Result {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return BadRequest("Invalid run ID.")
	}

	if err := h.repo.FailRun(r.Context(), id); err != nil {
		if errors.Is(err, repos.ErrRunNotFound) {
			return NotFound("Run not found or not in progress.")
		}
		return InternalError(err, "reset run: ")
	}

	return Ok(nil)
}

// SweepRuns fails every in-progress run older than the configured age.
func (h *RunHandler) SweepRuns(w http.ResponseWriter, r *http.Request) Result {
	failed, err := h.repo.SweepStuckRuns(r.Context(), h.stuckAge)
	if err != nil {
		return InternalError(err, "sweep runs: ")
	}

	return Ok(models.SweepRunsResponse{FailedRuns: failed})
}
