package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/rks/internal/app"
	"github.com/okian/rks/internal/domain/ranking"
	"github.com/okian/rks/internal/domain/rating"
)

// PlayerDependencies defines the interface for per-player rating reads.
type PlayerDependencies interface {
	Rating(ctx context.Context, ownerID string) (service.RatingView, error)
	Summary(ctx context.Context, ownerID string) (rating.Summary, error)
	ComputeRank(ctx context.Context, ownerID string) (ranking.Report, error)
}

// PlayerHandler handles per-player rating requests.
type PlayerHandler struct {
	deps PlayerDependencies
}

// NewPlayerHandler creates a new player handler.
func NewPlayerHandler(deps PlayerDependencies) *PlayerHandler {
	return &PlayerHandler{deps: deps}
}

// HandleGetRating handles GET /users/{ownerID}/rating requests.
func (h *PlayerHandler) HandleGetRating(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rating"
	view, err := h.deps.Rating(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleGetSummary handles GET /users/{ownerID}/summary requests.
func (h *PlayerHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_summary"
	sum, err := h.deps.Summary(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleGetRank handles GET /users/{ownerID}/rank requests. A player absent
// from the leaderboard gets rank null, not 404.
func (h *PlayerHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	rep, err := h.deps.ComputeRank(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}
