// Package api serves the prediction table and the lineup optimizer over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/racepick/internal/adapters/repository"
	"github.com/okian/racepick/internal/domain/handicap"
	"github.com/okian/racepick/internal/domain/lineup"
	"github.com/okian/racepick/internal/domain/model"
	"github.com/okian/racepick/internal/domain/prediction"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	RaceDependencies
	PredictionsDependencies
	LineupDependencies
}

// Server wires HTTP routes.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	raceHandler        *RaceHandler
	predictionsHandler *PredictionsHandler
	lineupHandler      *LineupHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		raceHandler:        NewRaceHandler(deps),
		predictionsHandler: NewPredictionsHandler(deps),
		lineupHandler:      NewLineupHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/race", MetricsMiddleware(s.raceHandler.HandleGetRace, "race"))
	mux.HandleFunc("/predictions", MetricsMiddleware(s.predictionsHandler.HandleGetPredictions, "predictions"))
	mux.HandleFunc("/lineup", MetricsMiddleware(s.lineupHandler.HandlePostLineup, "lineup"))
}

// RaceDependencies resolves handicap races.
type RaceDependencies interface {
	Race(mine, theirs int) (model.Race, error)
}

// PredictionsDependencies reads the current report.
type PredictionsDependencies interface {
	Predictions(ctx context.Context) (*prediction.Report, error)
}

// LineupDependencies answers optimizer queries.
type LineupDependencies interface {
	Optimize(ctx context.Context, q lineup.Query) (lineup.Ranking, error)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain and store errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, ErrPairingNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, lineup.ErrInvalidSlate),
		errors.Is(err, lineup.ErrSlateTooLarge),
		errors.Is(err, lineup.ErrDuplicatePlayer),
		errors.Is(err, lineup.ErrUnknownPlayer),
		errors.Is(err, handicap.ErrInvalidRating),
		errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
