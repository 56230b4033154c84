package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/rks/internal/app"
	"github.com/okian/rks/internal/domain/model"
	"github.com/okian/rks/internal/domain/rating"
)

// maxImportBytes bounds POST /users/{ownerID}/import bodies.
const maxImportBytes = 8 << 20

// ScoreDependencies defines the interface for score write and history operations.
type ScoreDependencies interface {
	SubmitScore(ctx context.Context, submissionID string, rec model.ScoreRecord) (model.ScoreRecord, error)
	Scores(ctx context.Context, ownerID string) ([]model.ScoreRecord, error)
	DeleteScore(ctx context.Context, ownerID, scoreID string) error
	Export(ctx context.Context, ownerID string) (service.ExportFile, error)
	Import(ctx context.Context, ownerID string, data []byte) (service.ImportResult, error)
}

// ScoresHandler handles score requests.
type ScoresHandler struct {
	deps ScoreDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// scoreRequest mirrors the OpenAPI schema for POST /scores.
// Accuracy may be omitted when judgment counts and the note count are given.
type scoreRequest struct {
	SubmissionID     string   `json:"submission_id"`
	OwnerID          string   `json:"owner_id"`
	Song             string   `json:"song"`
	Difficulty       string   `json:"difficulty"`
	DifficultyRating float64  `json:"difficulty_rating"`
	Score            int      `json:"score"`
	Accuracy         *float64 `json:"accuracy"`
	Notes            int      `json:"notes"`
	Goods            *int     `json:"goods"`
	BadsMisses       *int     `json:"bads_misses"`
}

func (req scoreRequest) record() (model.ScoreRecord, error) {
	switch {
	case strings.TrimSpace(req.OwnerID) == "":
		return model.ScoreRecord{}, errors.New("missing owner_id")
	case strings.TrimSpace(req.Song) == "":
		return model.ScoreRecord{}, errors.New("missing song")
	}
	tier, err := model.ParseDifficulty(req.Difficulty)
	if err != nil {
		return model.ScoreRecord{}, err
	}

	rec := model.ScoreRecord{
		OwnerID:          req.OwnerID,
		Chart:            model.ChartKey{Song: req.Song, Difficulty: tier},
		DifficultyRating: req.DifficultyRating,
		Score:            req.Score,
		Goods:            req.Goods,
		BadsMisses:       req.BadsMisses,
	}
	switch {
	case req.Accuracy != nil:
		rec.Accuracy = *req.Accuracy
	case req.Notes > 0:
		acc, err := rating.AccuracyFromJudgments(req.Notes, deref(req.Goods), deref(req.BadsMisses))
		if err != nil {
			return model.ScoreRecord{}, err
		}
		rec.Accuracy = acc
	default:
		return model.ScoreRecord{}, errors.New("missing accuracy; send accuracy or notes with judgment counts")
	}
	return rec, nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

type submitResponse struct {
	Status    string             `json:"status"`
	Duplicate bool               `json:"duplicate"`
	Score     *model.ScoreRecord `json:"score,omitempty"`
}

// HandlePostScore handles POST /scores requests.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	rec, err := req.record()
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	stored, err := h.deps.SubmitScore(r.Context(), req.SubmissionID, rec)
	switch {
	case errors.Is(err, service.ErrDuplicateSubmission):
		writeJSON(w, http.StatusOK, submitResponse{Status: "duplicate", Duplicate: true})
	case errors.Is(err, service.ErrSubmissionPending):
		w.Header().Set("Retry-After", "1")
		writeFailure(w, Wrap(op, err))
	case err != nil:
		writeFailure(w, Wrap(op, err))
	default:
		writeJSON(w, http.StatusCreated, submitResponse{Status: "created", Score: &stored})
	}
}

// HandleListScores handles GET /users/{ownerID}/scores requests.
func (h *ScoresHandler) HandleListScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_scores"
	rows, err := h.deps.Scores(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// HandleDeleteScore handles DELETE /users/{ownerID}/scores/{scoreID} requests.
func (h *ScoresHandler) HandleDeleteScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_score"
	if err := h.deps.DeleteScore(r.Context(), chi.URLParam(r, "ownerID"), chi.URLParam(r, "scoreID")); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport handles GET /users/{ownerID}/export requests.
func (h *ScoresHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	owner := chi.URLParam(r, "ownerID")
	file, err := h.deps.Export(r.Context(), owner)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="rks-scores-%s.json"`, owner))
	writeJSON(w, http.StatusOK, file)
}

// HandleImport handles POST /users/{ownerID}/import requests.
func (h *ScoresHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	const op = "api.import"
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Import(r.Context(), chi.URLParam(r, "ownerID"), data)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
