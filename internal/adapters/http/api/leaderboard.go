package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/rks/internal/app"
	"github.com/okian/rks/internal/domain/songstats"
)

const defaultMaxLimit = 100

// LeaderboardDependencies defines the interface for cross-player reads.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, limit int) (service.Page, error)
	SongStats(ctx context.Context) ([]songstats.Stats, error)
	ChartLeaders(ctx context.Context) ([]songstats.ChartLeaders, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N requests.
// Without limit the first maxLimit players are returned.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil || v < 1 {
			writeFailure(w, WrapKind(op, ErrBadRequest, fmt.Errorf("invalid limit %q", limitStr)))
			return
		}
		if v > h.maxLimit {
			writeFailure(w, WrapKind(op, ErrLimitExceeded, fmt.Errorf("limit %d above %d", v, h.maxLimit)))
			return
		}
		n = v
	}
	page, err := h.deps.Leaderboard(r.Context(), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// HandleGetSongStats handles GET /song-stats requests.
func (h *LeaderboardHandler) HandleGetSongStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_song_stats"
	stats, err := h.deps.SongStats(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleGetChartLeaders handles GET /chart-leaders requests.
func (h *LeaderboardHandler) HandleGetChartLeaders(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_chart_leaders"
	leaders, err := h.deps.ChartLeaders(r.Context())
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, leaders)
}
