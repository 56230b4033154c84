// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okian/rks/internal/adapters/repository"
	service "github.com/okian/rks/internal/app"
	"github.com/okian/rks/internal/domain/model"
	"github.com/okian/rks/internal/domain/rating"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoreDependencies
	PlayerDependencies
	LeaderboardDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoresHandler      *ScoresHandler
	playerHandler      *PlayerHandler
	leaderboardHandler *LeaderboardHandler

	requestTimeout time.Duration
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps the limit accepted by GET /leaderboard.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.leaderboardHandler.maxLimit = n
		}
	}
}

// WithRequestTimeout bounds every request's context.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		scoresHandler:      NewScoresHandler(deps),
		playerHandler:      NewPlayerHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, defaultMaxLimit),
		requestTimeout:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
		r.Use(middleware.Timeout(s.requestTimeout))

		r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
		r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

		r.Post("/scores", MetricsMiddleware(s.scoresHandler.HandlePostScore, "scores"))
		r.Route("/users/{ownerID}", func(r chi.Router) {
			r.Get("/scores", MetricsMiddleware(s.scoresHandler.HandleListScores, "user_scores"))
			r.Delete("/scores/{scoreID}", MetricsMiddleware(s.scoresHandler.HandleDeleteScore, "user_score_delete"))
			r.Get("/export", MetricsMiddleware(s.scoresHandler.HandleExport, "export"))
			r.Post("/import", MetricsMiddleware(s.scoresHandler.HandleImport, "import"))

			r.Get("/rating", MetricsMiddleware(s.playerHandler.HandleGetRating, "rating"))
			r.Get("/summary", MetricsMiddleware(s.playerHandler.HandleGetSummary, "summary"))
			r.Get("/rank", MetricsMiddleware(s.playerHandler.HandleGetRank, "rank"))
		})

		r.Get("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
		r.Get("/song-stats", MetricsMiddleware(s.leaderboardHandler.HandleGetSongStats, "song_stats"))
		r.Get("/chart-leaders", MetricsMiddleware(s.leaderboardHandler.HandleGetChartLeaders, "chart_leaders"))
	})
}

// Handler returns a router with every API route registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// encodeFailureBody is sent when a response value cannot be encoded.
const encodeFailureBody = `{"code":"internal_error","message":"response encoding failed"}` + "\n"

// writeJSON encodes v before committing status, so an unencodable value
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(encodeFailureBody))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto a status code and error code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidRecord),
		errors.Is(err, rating.ErrInvalidJudgments),
		errors.Is(err, service.ErrInvalidImport):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrSubmissionPending):
		return http.StatusConflict, "submission_pending"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
