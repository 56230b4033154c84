package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/okian/rks/internal/domain/model"
	"github.com/okian/rks/pkg/logger"
	"github.com/okian/rks/pkg/metrics"
)

// ExportVersion tags export files written by Export.
const ExportVersion = "1.0"

// ExportFile is a player's portable score history.
type ExportFile struct {
	OwnerID    string              `json:"owner_id"`
	Scores     []model.ScoreRecord `json:"scores"`
	ExportDate time.Time           `json:"export_date"`
	Version    string              `json:"version"`
}

// ImportResult counts what an import stored and what it rejected.
type ImportResult struct {
	Imported int      `json:"imported"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// SubmitScore validates and stores one play. A non-empty submissionID makes
// the call idempotent: a repeat of a stored submission returns
// ErrDuplicateSubmission, and a repeat while the first attempt is still
// running returns ErrSubmissionPending.
func (s *Service) SubmitScore(ctx context.Context, submissionID string, rec model.ScoreRecord) (model.ScoreRecord, error) {
	if err := rec.Validate(); err != nil {
		metrics.RecordSubmission("rejected")
		return model.ScoreRecord{}, err
	}

	if submissionID != "" {
		if err := s.claim(ctx, submissionID); err != nil {
			s.log().Debug(ctx, "submission not accepted",
				logger.String("submissionID", submissionID),
				logger.String("owner", rec.OwnerID),
				logger.Error(err),
			)
			return model.ScoreRecord{}, err
		}
		defer s.release(submissionID)
	}

	stored, err := s.store.InsertScore(ctx, rec)
	if err != nil {
		if submissionID != "" {
			// allow the client to retry the same submission
			s.deduper.Unrecord(ctx, submissionID)
		}
		metrics.RecordSubmission("failed")
		return model.ScoreRecord{}, fmt.Errorf("submit score: %w", err)
	}
	s.cache.invalidate(stored.OwnerID)
	metrics.RecordSubmission("inserted")

	s.log().Debug(ctx, "score stored",
		logger.String("id", stored.ID),
		logger.String("owner", stored.OwnerID),
		logger.String("chart", stored.Chart.String()),
		logger.Float64("accuracy", stored.Accuracy),
	)
	return stored, nil
}

// claim records submissionID as in flight. It fails with
// ErrSubmissionPending while another attempt holds the id and with
// ErrDuplicateSubmission once an attempt has stored it.
func (s *Service) claim(ctx context.Context, submissionID string) error {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	if _, ok := s.pending[submissionID]; ok {
		metrics.RecordSubmission("pending")
		return fmt.Errorf("%w: %s", ErrSubmissionPending, submissionID)
	}
	if s.deduper.SeenAndRecord(ctx, submissionID) {
		metrics.RecordSubmission("duplicate")
		return fmt.Errorf("%w: %s", ErrDuplicateSubmission, submissionID)
	}
	s.pending[submissionID] = struct{}{}
	return nil
}

// release ends the in-flight window of submissionID. A failed insert has
// already unrecorded the id, so a later retry is stored.
func (s *Service) release(submissionID string) {
	s.pendingMu.Lock()
	delete(s.pending, submissionID)
	s.pendingMu.Unlock()
}

// DeleteScore removes one of the owner's plays.
func (s *Service) DeleteScore(ctx context.Context, ownerID, scoreID string) error {
	if err := s.store.DeleteScore(ctx, ownerID, scoreID); err != nil {
		return fmt.Errorf("delete score: %w", err)
	}
	s.cache.invalidate(ownerID)
	metrics.RecordSubmission("deleted")
	return nil
}

// Export returns every play of the owner in the portable format.
func (s *Service) Export(ctx context.Context, ownerID string) (ExportFile, error) {
	records, err := s.store.ListScoresForUser(ctx, ownerID)
	if err != nil {
		return ExportFile{}, fmt.Errorf("export %s: %w", ownerID, err)
	}
	return ExportFile{
		OwnerID:    ownerID,
		Scores:     records,
		ExportDate: time.Now().UTC(),
		Version:    ExportVersion,
	}, nil
}

// Import stores the plays of an export file under ownerID, whoever exported
// them. Rows get fresh IDs; invalid rows are rejected one by one and counted.
// A store failure stops the import and returns what was stored so far.
func (s *Service) Import(ctx context.Context, ownerID string, data []byte) (ImportResult, error) {
	var file struct {
		Version string              `json:"version"`
		Scores  []model.ScoreRecord `json:"scores"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return ImportResult{}, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}
	if file.Scores == nil {
		return ImportResult{}, fmt.Errorf("%w: scores not found or not an array", ErrInvalidImport)
	}
	if file.Version != "" && file.Version != ExportVersion {
		return ImportResult{}, fmt.Errorf("%w: unsupported version %q", ErrInvalidImport, file.Version)
	}

	var res ImportResult
	defer func() {
		if res.Imported > 0 {
			s.cache.invalidate(ownerID)
		}
	}()
	for i, rec := range file.Scores {
		rec.ID = ""
		rec.OwnerID = ownerID
		if err := rec.Validate(); err != nil {
			res.Rejected++
			res.Errors = append(res.Errors, fmt.Sprintf("scores[%d]: %v", i, err))
			continue
		}
		if _, err := s.store.InsertScore(ctx, rec); err != nil {
			if errors.Is(err, model.ErrInvalidRecord) {
				res.Rejected++
				continue
			}
			return res, fmt.Errorf("import scores[%d]: %w", i, err)
		}
		res.Imported++
	}

	s.log().Info(ctx, "scores imported",
		logger.String("owner", ownerID),
		logger.Int("imported", res.Imported),
		logger.Int("rejected", res.Rejected),
	)
	return res, nil
}
