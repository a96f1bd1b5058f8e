package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"AdmitScanner/internal/domain"
	"AdmitScanner/internal/ports"
)

type fakeSource struct {
	records []domain.Applicant
	lastReq ports.CollectRequest
	err     error
}

func (f *fakeSource) Collect(_ context.Context, req ports.CollectRequest) ([]domain.Applicant, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}

	var out []domain.Applicant
	for _, rec := range f.records {
		if _, known := req.SkipRIDs[rec.RID()]; known {
			continue
		}
		out = append(out, rec)
		if len(out) >= req.MaxRecords {
			break
		}
	}
	return out, nil
}

type fakeRepository struct {
	rows       map[string]domain.Applicant
	insertErr  error
	knownErr   error
	insertSeen [][]domain.Applicant
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{rows: map[string]domain.Applicant{}}
}

func (f *fakeRepository) KnownRIDs(context.Context) (map[string]struct{}, error) {
	if f.knownErr != nil {
		return nil, f.knownErr
	}
	known := map[string]struct{}{}
	for url := range f.rows {
		known[domain.RIDFromURL(url)] = struct{}{}
	}
	return known, nil
}

func (f *fakeRepository) InsertBatch(_ context.Context, records []domain.Applicant) (int, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.insertSeen = append(f.insertSeen, records)

	inserted := 0
	for _, rec := range records {
		if _, dup := f.rows[rec.URL]; dup {
			continue
		}
		f.rows[rec.URL] = rec
		inserted++
	}
	return inserted, nil
}

type fakeEnricher struct {
	calls int
	err   error
}

func (f *fakeEnricher) Enrich(_ context.Context, records []domain.Applicant) ([]domain.Applicant, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Applicant, len(records))
	for i, rec := range records {
		rec.EnrichedProgram = "Computer Science"
		rec.EnrichedUniversity = "Test University"
		out[i] = rec
	}
	return out, nil
}

func rawRecord(rid string) domain.Applicant {
	return domain.Applicant{
		URL:    fmt.Sprintf("https://example.com/result/%s", rid),
		Status: "Accepted on 01/03/2025",
		Term:   "Fall 2025",
	}
}

func newTestPipeline(source ports.ResultSource, repo ports.ApplicantRepository, enricher ports.Enricher) *Pipeline {
	return NewPipeline(PipelineDeps{
		Source:     source,
		Repository: repo,
		Enricher:   enricher,
		MaxRecords: 10,
	})
}

func TestPipelineRunEndToEnd(t *testing.T) {
	t.Parallel()

	source := &fakeSource{records: []domain.Applicant{rawRecord("1"), rawRecord("2")}}
	repo := newFakeRepository()
	enricher := &fakeEnricher{}

	pipeline := newTestPipeline(source, repo, enricher)

	summary, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if summary.Cleaned != 2 || summary.Enriched != 2 || summary.Inserted != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Message != "Cleaned 2, enriched 2, inserted 2" {
		t.Fatalf("unexpected message: %q", summary.Message)
	}

	// Statuses are normalized before enrichment sees them.
	if got := repo.rows["https://example.com/result/1"].Status; got != "Accepted on 1 Mar" {
		t.Fatalf("unexpected stored status: %q", got)
	}
}

func TestPipelineRunIsIdempotent(t *testing.T) {
	t.Parallel()

	source := &fakeSource{records: []domain.Applicant{rawRecord("1"), rawRecord("2")}}
	repo := newFakeRepository()
	enricher := &fakeEnricher{}

	pipeline := newTestPipeline(source, repo, enricher)

	if _, err := pipeline.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	summary, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if summary.Cleaned != 0 || summary.Inserted != 0 {
		t.Fatalf("expected no-op second run, got %+v", summary)
	}
	if summary.Message != "No new rows" {
		t.Fatalf("unexpected message: %q", summary.Message)
	}
	// The short-circuit skips the enrichment subprocess entirely.
	if enricher.calls != 1 {
		t.Fatalf("expected 1 enrichment call, got %d", enricher.calls)
	}
	if len(repo.insertSeen) != 1 {
		t.Fatalf("expected 1 insert call, got %d", len(repo.insertSeen))
	}
}

func TestPipelineEnrichmentFailureAbortsBeforeInsert(t *testing.T) {
	t.Parallel()

	source := &fakeSource{records: []domain.Applicant{rawRecord("1")}}
	repo := newFakeRepository()
	enricher := &fakeEnricher{err: errors.New("subprocess exited 1")}

	pipeline := newTestPipeline(source, repo, enricher)

	if _, err := pipeline.Run(context.Background()); err == nil {
		t.Fatal("expected enrichment error")
	}
	if len(repo.insertSeen) != 0 {
		t.Fatal("expected no insert after enrichment failure")
	}
}

func TestPipelineCollectFailurePropagates(t *testing.T) {
	t.Parallel()

	source := &fakeSource{err: errors.New("listing unreachable")}
	pipeline := newTestPipeline(source, newFakeRepository(), &fakeEnricher{})

	if _, err := pipeline.Run(context.Background()); err == nil {
		t.Fatal("expected collect error")
	}
}

func TestPipelinePassesKnownIDsToSource(t *testing.T) {
	t.Parallel()

	source := &fakeSource{records: []domain.Applicant{rawRecord("1"), rawRecord("2")}}
	repo := newFakeRepository()
	repo.rows["https://example.com/result/1"] = rawRecord("1")

	pipeline := newTestPipeline(source, repo, &fakeEnricher{})

	summary, err := pipeline.Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if summary.Inserted != 1 {
		t.Fatalf("expected only the unseen record inserted, got %+v", summary)
	}
	if _, ok := source.lastReq.SkipRIDs["1"]; !ok {
		t.Fatal("expected known rid 1 in the skip set")
	}
}
