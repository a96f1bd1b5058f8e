package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"AdmitScanner/internal/domain"
	"AdmitScanner/internal/normalize"
	"AdmitScanner/internal/ports"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Source     ports.ResultSource
	Repository ports.ApplicantRepository
	Enricher   ports.Enricher
	MaxRecords int
	Delay      time.Duration
	Logger     *slog.Logger
}

// Pipeline implements one end-to-end ingestion run: known-ids, crawl,
// normalize, enrich, insert. It is strictly sequential and never retries;
// a failed run is re-triggered by the caller.
type Pipeline struct {
	source     ports.ResultSource
	repository ports.ApplicantRepository
	enricher   ports.Enricher
	maxRecords int
	delay      time.Duration
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:     deps.Source,
		repository: deps.Repository,
		enricher:   deps.Enricher,
		maxRecords: deps.MaxRecords,
		delay:      deps.Delay,
		logger:     deps.Logger,
	}
}

// Run executes the pipeline once and reports a summary. A crawl that finds
// nothing new short-circuits before the enrichment subprocess or the store
// are touched.
func (p *Pipeline) Run(ctx context.Context) (domain.RunSummary, error) {
	known, err := p.repository.KnownRIDs(ctx)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("load known ids: %w", err)
	}
	p.debug("known ids loaded", "count", len(known))

	raw, err := p.source.Collect(ctx, ports.CollectRequest{
		MaxRecords: p.maxRecords,
		Delay:      p.delay,
		SkipRIDs:   known,
	})
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("collect records: %w", err)
	}

	cleaned := make([]domain.Applicant, len(raw))
	for i, rec := range raw {
		rec.Status = normalize.Status(rec.Status)
		cleaned[i] = rec
	}

	if len(cleaned) == 0 {
		p.debug("no new records, skipping enrichment and insert")
		return domain.RunSummary{Message: "No new rows"}, nil
	}

	enriched, err := p.enricher.Enrich(ctx, cleaned)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("enrich records: %w", err)
	}

	inserted, err := p.repository.InsertBatch(ctx, enriched)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("insert records: %w", err)
	}

	summary := domain.RunSummary{
		Cleaned:  len(cleaned),
		Enriched: len(enriched),
		Inserted: inserted,
		Message:  fmt.Sprintf("Cleaned %d, enriched %d, inserted %d", len(cleaned), len(enriched), inserted),
	}

	p.info("pipeline run complete", "cleaned", summary.Cleaned, "enriched", summary.Enriched, "inserted", summary.Inserted)
	return summary, nil
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
