package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"AdmitScanner/internal/infrastructure/storage"
	"AdmitScanner/internal/usecase"
)

// StatsReader exposes the read-only aggregates rendered by the analysis
// endpoint. Implemented by the storage repository.
type StatsReader interface {
	CountByTerm(ctx context.Context, term string) (int, error)
	CountCitizenship(ctx context.Context) (storage.CitizenshipCounts, error)
	AverageScores(ctx context.Context) (storage.ScoreAverages, error)
	AcceptanceRate(ctx context.Context, term string) (float64, error)
	DegreeCounts(ctx context.Context, yearPattern string) ([]storage.GroupCount, error)
	TopPrograms(ctx context.Context, yearPattern string, limit uint64) ([]storage.GroupCount, error)
}

// Server is the trigger surface: it starts background pulls through the
// runner's gate and serves precomputed statistics. Run failures go to the
// log, never back to the trigger response (which returned long before).
type Server struct {
	runner  *usecase.Runner
	stats   StatsReader
	logger  *slog.Logger
	baseCtx context.Context
	term    string
}

// New wires the trigger layer. baseCtx bounds background runs so a server
// shutdown can cancel an in-flight crawl; defaultTerm drives the analysis
// view when the request names none.
func New(baseCtx context.Context, runner *usecase.Runner, stats StatsReader, defaultTerm string, logger *slog.Logger) *Server {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if defaultTerm == "" {
		defaultTerm = "Fall 2025"
	}
	return &Server{
		runner:  runner,
		stats:   stats,
		logger:  logger,
		baseCtx: baseCtx,
		term:    defaultTerm,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /pull-data", s.handlePullData)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /analysis", s.handleAnalysis)
	return mux
}

func (s *Server) handlePullData(w http.ResponseWriter, _ *http.Request) {
	// The run outlives this request; it is bounded by the server's base
	// context, not the request's.
	if !s.runner.TryStart(s.baseCtx) {
		writeJSON(w, http.StatusConflict, map[string]bool{"busy": true})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"started": true})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"busy": s.runner.Busy()})
}

type analysisResponse struct {
	Term                 string                    `json:"term"`
	ApplicantCount       int                       `json:"applicant_count"`
	Citizenship          storage.CitizenshipCounts `json:"citizenship"`
	PercentInternational float64                   `json:"percent_international"`
	Averages             storage.ScoreAverages     `json:"averages"`
	AcceptanceRate       float64                   `json:"acceptance_rate"`
	DegreeCounts         []storage.GroupCount      `json:"degree_counts"`
	TopPrograms          []storage.GroupCount      `json:"top_programs"`
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	term := r.URL.Query().Get("term")
	if term == "" {
		term = s.term
	}
	yearPattern := "%" + yearOf(term) + "%"

	resp := analysisResponse{Term: term}

	fail := func(err error) {
		s.error("analysis query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "analysis unavailable"})
	}

	var err error
	if resp.ApplicantCount, err = s.stats.CountByTerm(ctx, term); err != nil {
		fail(err)
		return
	}
	if resp.Citizenship, err = s.stats.CountCitizenship(ctx); err != nil {
		fail(err)
		return
	}
	if resp.Averages, err = s.stats.AverageScores(ctx); err != nil {
		fail(err)
		return
	}
	if resp.AcceptanceRate, err = s.stats.AcceptanceRate(ctx, term); err != nil {
		fail(err)
		return
	}
	if resp.DegreeCounts, err = s.stats.DegreeCounts(ctx, yearPattern); err != nil {
		fail(err)
		return
	}
	if resp.TopPrograms, err = s.stats.TopPrograms(ctx, yearPattern, 5); err != nil {
		fail(err)
		return
	}

	total := resp.Citizenship.International + resp.Citizenship.American + resp.Citizenship.Other
	if total > 0 {
		resp.PercentInternational = float64(resp.Citizenship.International) / float64(total) * 100
	}

	writeJSON(w, http.StatusOK, resp)
}

// yearOf pulls the 4-digit year off a "Season YYYY" term label.
func yearOf(term string) string {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return term
	}
	return fields[len(fields)-1]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) error(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
