package ports

import (
	"context"
	"time"

	"AdmitScanner/internal/domain"
)

// CollectRequest carries the crawl bounds for one listing walk.
type CollectRequest struct {
	MaxRecords int
	Delay      time.Duration
	SkipRIDs   map[string]struct{}
}

// ResultSource walks the survey listing and produces raw applicant records
// whose identifiers are not in the skip set.
type ResultSource interface {
	Collect(ctx context.Context, req CollectRequest) ([]domain.Applicant, error)
}

// ApplicantRepository is the durable-store boundary: membership check plus
// idempotent batch insertion keyed by record URL.
type ApplicantRepository interface {
	KnownRIDs(ctx context.Context) (map[string]struct{}, error)
	InsertBatch(ctx context.Context, records []domain.Applicant) (int, error)
}

// Enricher maps free-text program/university names to canonical labels.
// Implementations may shell out to an external process; a failed enrichment
// aborts the run.
type Enricher interface {
	Enrich(ctx context.Context, records []domain.Applicant) ([]domain.Applicant, error)
}

// Notifier publishes run summaries to an outbound channel (Telegram, etc.).
type Notifier interface {
	PublishSummary(ctx context.Context, summary domain.RunSummary) error
}

// Scheduler controls when background pipeline runs are kicked off.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
