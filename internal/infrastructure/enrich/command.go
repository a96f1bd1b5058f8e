package enrich

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"AdmitScanner/internal/domain"
	"AdmitScanner/internal/ports"
	"AdmitScanner/pkg/logger"
)

// CommandEnricher shells out to the canonicalization tool. The contract is
// file based: the cleaned records go in as a pretty-printed JSON array, the
// enriched records come back as JSON Lines. A non-zero exit aborts the run
// before anything reaches the store.
type CommandEnricher struct {
	command []string
	inPath  string
	outPath string
	logger  *slog.Logger
}

var _ ports.Enricher = (*CommandEnricher)(nil)

// NewCommandEnricher takes the command argv (program plus fixed arguments)
// and the two temp-file paths exchanged with it.
func NewCommandEnricher(command []string, inPath, outPath string, log *slog.Logger) *CommandEnricher {
	return &CommandEnricher{
		command: command,
		inPath:  inPath,
		outPath: outPath,
		logger:  log,
	}
}

// Enrich writes the records to the input path, runs the external command
// with --file/--out arguments, and reads the enriched records back. The
// subprocess's stderr is relayed to the process log before any error is
// returned; partially-enriched output is never used.
func (e *CommandEnricher) Enrich(ctx context.Context, records []domain.Applicant) ([]domain.Applicant, error) {
	if len(e.command) == 0 {
		return nil, fmt.Errorf("enrichment command not configured")
	}

	if err := writeJSON(e.inPath, records); err != nil {
		return nil, fmt.Errorf("write enrichment input: %w", err)
	}

	args := append(append([]string{}, e.command[1:]...), "--file", e.inPath, "--out", e.outPath)
	cmd := exec.CommandContext(ctx, e.command[0], args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		relayDiagnostics(stderr.String())
		e.error("enrichment command failed", "error", err)
		return nil, fmt.Errorf("run enrichment command: %w", err)
	}

	enriched, err := readJSONLines(e.outPath)
	if err != nil {
		return nil, fmt.Errorf("read enrichment output: %w", err)
	}

	return enriched, nil
}

// writeJSON dumps the records as a pretty-printed UTF-8 JSON array, creating
// the temp directory on first use.
func writeJSON(path string, records []domain.Applicant) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// readJSONLines parses a JSON-Lines file (one object per non-empty line)
// into records.
func readJSONLines(path string) ([]domain.Applicant, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var records []domain.Applicant
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec domain.Applicant
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parse line %q: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	return records, nil
}

// relayDiagnostics echoes the subprocess's stderr line by line so the
// external tool's own error report survives in our log.
func relayDiagnostics(stderr string) {
	out := logger.New("enrich")
	for _, line := range strings.Split(strings.TrimRight(stderr, "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			out.Println(line)
		}
	}
}

func (e *CommandEnricher) error(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Error(msg, args...)
	}
}
