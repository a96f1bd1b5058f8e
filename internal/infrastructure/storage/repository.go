package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"AdmitScanner/internal/domain"
	"AdmitScanner/internal/ports"
)

// Column order is authoritative; downstream tooling reads rows positionally.
var applicantColumns = []string{
	"program",
	"comments",
	"date_added",
	"url",
	"status",
	"term",
	"us_or_international",
	"gpa",
	"gre",
	"gre_v",
	"gre_aw",
	"degree",
	"llm_generated_program",
	"llm_generated_university",
}

const ddlPostgres = `
CREATE TABLE IF NOT EXISTS applicants(
  p_id SERIAL PRIMARY KEY,
  program TEXT,
  comments TEXT,
  date_added DATE,
  url TEXT UNIQUE,
  status TEXT,
  term TEXT,
  us_or_international TEXT,
  gpa FLOAT,
  gre FLOAT,
  gre_v FLOAT,
  gre_aw FLOAT,
  degree TEXT,
  llm_generated_program TEXT,
  llm_generated_university TEXT
)`

const ddlSQLite = `
CREATE TABLE IF NOT EXISTS applicants(
  p_id INTEGER PRIMARY KEY AUTOINCREMENT,
  program TEXT,
  comments TEXT,
  date_added DATE,
  url TEXT UNIQUE,
  status TEXT,
  term TEXT,
  us_or_international TEXT,
  gpa REAL,
  gre REAL,
  gre_v REAL,
  gre_aw REAL,
  degree TEXT,
  llm_generated_program TEXT,
  llm_generated_university TEXT
)`

// Repository persists applicant records behind a URL-unique constraint.
// Inserting an already-known URL is a silent no-op, never an update.
type Repository struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	ddl    string
	logger *slog.Logger
}

var _ ports.ApplicantRepository = (*Repository)(nil)

// Open selects the SQL driver from the DSN: postgres:// DSNs go through
// lib/pq, anything else (a file path or :memory:) through modernc sqlite.
func Open(dsn string, logger *slog.Logger) (*Repository, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &Repository{
			db:     db,
			sb:     sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
			ddl:    ddlPostgres,
			logger: logger,
		}, nil
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A second pooled connection to an in-memory sqlite database would see
	// an unrelated empty store.
	db.SetMaxOpenConns(1)
	return &Repository{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		ddl:    ddlSQLite,
		logger: logger,
	}, nil
}

// EnsureSchema creates the applicants table if it does not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.ddl); err != nil {
		return fmt.Errorf("ensure applicants table: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// KnownRIDs scans every stored record URL and returns the set of trailing
// path identifiers. Empty URLs are skipped silently; URLs without a path
// separator are logged and skipped rather than failing the whole scan.
func (r *Repository) KnownRIDs(ctx context.Context) (map[string]struct{}, error) {
	query, args, err := r.sb.Select("url").From("applicants").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build known-ids query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query known ids: %w", err)
	}
	defer rows.Close()

	rids := map[string]struct{}{}
	for rows.Next() {
		var url sql.NullString
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		if !url.Valid || url.String == "" {
			continue
		}
		rid := domain.RIDFromURL(url.String)
		if rid == "" {
			r.debug("stored url has no path separator, skipping", "url", url.String)
			continue
		}
		rids[rid] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate known ids: %w", err)
	}

	return rids, nil
}

// InsertBatch inserts each record with ON CONFLICT (url) DO NOTHING and
// reports how many rows were newly inserted. A single commit covers the
// whole batch so a mid-batch failure never leaves a partial state visible.
func (r *Repository) InsertBatch(ctx context.Context, records []domain.Applicant) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert batch: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, rec := range records {
		query, args, err := r.sb.Insert("applicants").
			Columns(applicantColumns...).
			Values(
				rec.Program,
				rec.Comments,
				toDate(rec.DateAdded),
				rec.URL,
				rec.Status,
				rec.Term,
				rec.Citizenship,
				toFloat(rec.GPA),
				toFloat(rec.GRE),
				toFloat(rec.GREVerbal),
				toFloat(rec.GREAnalytical),
				rec.Degree,
				rec.EnrichedProgram,
				rec.EnrichedUniversity,
			).
			Suffix("ON CONFLICT (url) DO NOTHING").
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert for %s: %w", rec.URL, err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", rec.URL, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert batch: %w", err)
	}

	return inserted, nil
}

// toFloat coerces a score string to a nullable float. A literal "GPA"
// prefix is stripped first; empty, non-numeric, and non-finite values are
// stored as absent, never as zero.
func toFloat(s string) sql.NullFloat64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, "GPA", ""))
	if s == "" {
		return sql.NullFloat64{}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

// toDate parses the site's "Month DD, YYYY" form; anything else is stored
// as absent rather than a sentinel date.
func toDate(s string) sql.NullTime {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullTime{}
	}

	t, err := time.Parse("January 2, 2006", s)
	if err != nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func (r *Repository) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
