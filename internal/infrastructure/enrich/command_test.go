package enrich

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"AdmitScanner/internal/domain"
)

func tempPaths(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "in.json"), filepath.Join(dir, "out.jsonl")
}

func TestWriteJSONReadJSONLinesRoundTrip(t *testing.T) {
	t.Parallel()

	inPath, outPath := tempPaths(t)

	records := []domain.Applicant{
		{Program: "Computer Science", URL: "https://example.com/result/1", GPA: "GPA 3.95"},
		{Program: "Physics", URL: "https://example.com/result/2"},
	}
	if err := writeJSON(inPath, records); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}

	raw, err := os.ReadFile(inPath)
	if err != nil {
		t.Fatalf("read input file: %v", err)
	}
	if raw[0] != '[' {
		t.Fatalf("expected a JSON array, got %q", raw[:1])
	}

	jsonl := `{"program":"Computer Science","url":"https://example.com/result/1","llm-generated-program":"Computer Science"}

{"program":"Physics","url":"https://example.com/result/2","llm-generated-university":"Test University"}
`
	if err := os.WriteFile(outPath, []byte(jsonl), 0o644); err != nil {
		t.Fatalf("write output file: %v", err)
	}

	got, err := readJSONLines(outPath)
	if err != nil {
		t.Fatalf("readJSONLines: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].EnrichedProgram != "Computer Science" {
		t.Fatalf("unexpected enriched program: %q", got[0].EnrichedProgram)
	}
	if got[1].EnrichedUniversity != "Test University" {
		t.Fatalf("unexpected enriched university: %q", got[1].EnrichedUniversity)
	}
}

func TestCommandEnricherRunsCommand(t *testing.T) {
	t.Parallel()

	inPath, outPath := tempPaths(t)

	// Stand-in for the external tool: reads the input array, emits a fixed
	// JSON-Lines row to the --out path.
	command := []string{"sh", "-c",
		`test -f "$2" && printf '{"program":"CS","url":"https://example.com/result/1"}\n' > "$4"`,
		"enrich-stub"}

	enricher := NewCommandEnricher(command, inPath, outPath, nil)

	records, err := enricher.Enrich(context.Background(), []domain.Applicant{
		{Program: "CS", URL: "https://example.com/result/1"},
	})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(records) != 1 || records[0].Program != "CS" {
		t.Fatalf("unexpected enriched records: %+v", records)
	}
}

func TestCommandEnricherFailureAborts(t *testing.T) {
	t.Parallel()

	inPath, outPath := tempPaths(t)

	enricher := NewCommandEnricher([]string{"sh", "-c", "echo broken >&2; exit 3", "enrich-stub"}, inPath, outPath, nil)

	if _, err := enricher.Enrich(context.Background(), []domain.Applicant{{URL: "https://example.com/result/1"}}); err == nil {
		t.Fatal("expected subprocess failure to propagate")
	}
}

func TestCommandEnricherUnconfigured(t *testing.T) {
	t.Parallel()

	enricher := NewCommandEnricher(nil, "in", "out", nil)
	if _, err := enricher.Enrich(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing command")
	}
}
