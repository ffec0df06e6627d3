package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
)

type Run struct {
	ID          uuid.UUID  `json:"id"`
	WindowStart time.Time  `json:"windowStart"`
	WindowEnd   time.Time  `json:"windowEnd"`
	Status      string     `json:"status"`
	Watermark   int64      `json:"watermark"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type GetRunsResponse struct {
	Runs []Run `json:"runs"`
}

type SweepRunsResponse struct {
	FailedRuns []uuid.UUID `json:"failedRuns"`
}

func FromDataRun(r data.CrawlRun) Run {
	out := Run{
		ID:          r.ID,
		WindowStart: r.WindowStart,
		WindowEnd:   r.WindowEnd,
		Status:      string(r.Status),
		Watermark:   r.Watermark,
		StartedAt:   r.StartedAt,
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time
		out.CompletedAt = &t
	}
	return out
}
