package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// Score plausibility ranges. Values outside these bounds exist in the store
// but are excluded from averages, not rejected at insert time.
const (
	gpaMin   = 0.01
	gpaMax   = 4.3
	greMin   = 130
	greMax   = 170
	greAWMin = 0.01
	greAWMax = 6
)

// CitizenshipCounts buckets applicants by the citizenship-like field.
type CitizenshipCounts struct {
	International int `json:"international_count"`
	American      int `json:"us_count"`
	Other         int `json:"other_count"`
}

// ScoreAverages holds range-filtered means over the whole store.
type ScoreAverages struct {
	GPA           float64 `json:"avg_gpa"`
	GRE           float64 `json:"avg_gre"`
	GREVerbal     float64 `json:"avg_gre_v"`
	GREAnalytical float64 `json:"avg_gre_aw"`
}

// GroupCount is one row of a group-by-count query.
type GroupCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CountByTerm returns the number of applicants recorded for a term.
func (r *Repository) CountByTerm(ctx context.Context, term string) (int, error) {
	query, args, err := r.sb.Select("COUNT(*)").
		From("applicants").
		Where(sq.Eq{"term": term}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build term count: %w", err)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count term %s: %w", term, err)
	}
	return count, nil
}

// CountCitizenship buckets every applicant into International / American /
// Other by the us_or_international column.
func (r *Repository) CountCitizenship(ctx context.Context) (CitizenshipCounts, error) {
	query, args, err := r.sb.Select(
		"COALESCE(SUM(CASE WHEN us_or_international = 'International' THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN us_or_international = 'American' THEN 1 ELSE 0 END), 0)",
		"COALESCE(SUM(CASE WHEN us_or_international NOT IN ('International', 'American') THEN 1 ELSE 0 END), 0)",
	).From("applicants").ToSql()
	if err != nil {
		return CitizenshipCounts{}, fmt.Errorf("build citizenship counts: %w", err)
	}

	var c CitizenshipCounts
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&c.International, &c.American, &c.Other); err != nil {
		return CitizenshipCounts{}, fmt.Errorf("count citizenship: %w", err)
	}
	return c, nil
}

// AverageScores computes the mean of each score column over its plausible
// range; columns with no in-range values average to zero.
func (r *Repository) AverageScores(ctx context.Context) (ScoreAverages, error) {
	query, args, err := r.sb.Select(
		fmt.Sprintf("COALESCE(AVG(CASE WHEN gpa BETWEEN %v AND %v THEN gpa END), 0.0)", gpaMin, gpaMax),
		fmt.Sprintf("COALESCE(AVG(CASE WHEN gre BETWEEN %v AND %v THEN gre END), 0.0)", greMin, greMax),
		fmt.Sprintf("COALESCE(AVG(CASE WHEN gre_v BETWEEN %v AND %v THEN gre_v END), 0.0)", greMin, greMax),
		fmt.Sprintf("COALESCE(AVG(CASE WHEN gre_aw BETWEEN %v AND %v THEN gre_aw END), 0.0)", greAWMin, greAWMax),
	).From("applicants").ToSql()
	if err != nil {
		return ScoreAverages{}, fmt.Errorf("build score averages: %w", err)
	}

	var s ScoreAverages
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&s.GPA, &s.GRE, &s.GREVerbal, &s.GREAnalytical); err != nil {
		return ScoreAverages{}, fmt.Errorf("average scores: %w", err)
	}
	return s, nil
}

// AcceptanceRate returns the percentage of a term's records whose status
// contains an acceptance; zero when the term has no records.
func (r *Repository) AcceptanceRate(ctx context.Context, term string) (float64, error) {
	query, args, err := r.sb.Select(
		"COALESCE(AVG(CASE WHEN status LIKE '%Accepted%' THEN 100.0 ELSE 0.0 END), 0.0)",
	).From("applicants").
		Where(sq.Eq{"term": term}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build acceptance rate: %w", err)
	}

	var rate float64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&rate); err != nil {
		return 0, fmt.Errorf("acceptance rate for %s: %w", term, err)
	}
	return rate, nil
}

// DegreeCounts groups a year's records by degree, most frequent first.
func (r *Repository) DegreeCounts(ctx context.Context, yearPattern string) ([]GroupCount, error) {
	query, args, err := r.sb.Select("degree", "COUNT(*) AS num_entries").
		From("applicants").
		Where(sq.Like{"term": yearPattern}).
		GroupBy("degree").
		OrderBy("num_entries DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build degree counts: %w", err)
	}
	return r.groupCounts(ctx, query, args)
}

// TopPrograms returns the most frequent canonical program names for a year.
func (r *Repository) TopPrograms(ctx context.Context, yearPattern string, limit uint64) ([]GroupCount, error) {
	query, args, err := r.sb.Select("llm_generated_program", "COUNT(*) AS num_entries").
		From("applicants").
		Where(sq.Like{"term": yearPattern}).
		GroupBy("llm_generated_program").
		OrderBy("num_entries DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build top programs: %w", err)
	}
	return r.groupCounts(ctx, query, args)
}

func (r *Repository) groupCounts(ctx context.Context, query string, args []any) ([]GroupCount, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("group counts: %w", err)
	}
	defer rows.Close()

	var counts []GroupCount
	for rows.Next() {
		var (
			label sql.NullString
			gc    GroupCount
		)
		if err := rows.Scan(&label, &gc.Count); err != nil {
			return nil, fmt.Errorf("scan group count: %w", err)
		}
		gc.Label = label.String
		counts = append(counts, gc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate group counts: %w", err)
	}
	return counts, nil
}
