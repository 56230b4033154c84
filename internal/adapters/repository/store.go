// Package repository defines the score store interface and its implementations.
package repository

import (
	"context"

	"github.com/okian/rks/internal/domain/model"
)

// Store provides read/write access to score rows. Rows are inserted or
// deleted, never mutated.
type Store interface {
	// ListScoresForUser returns every row of the owner in insertion order.
	// An owner without rows yields an empty slice, not an error.
	ListScoresForUser(ctx context.Context, ownerID string) ([]model.ScoreRecord, error)

	// ListAllUsers returns owners with at least one row, in first-insert order.
	ListAllUsers(ctx context.Context) ([]string, error)

	// ListAllScores returns every row of every owner in insertion order.
	ListAllScores(ctx context.Context) ([]model.ScoreRecord, error)

	// InsertScore stores a validated record, assigning ID and CreatedAt when empty.
	InsertScore(ctx context.Context, rec model.ScoreRecord) (model.ScoreRecord, error)

	// DeleteScore removes one row of the owner.
	// Returns ErrNotFound if no row matched.
	DeleteScore(ctx context.Context, ownerID, scoreID string) error
}
