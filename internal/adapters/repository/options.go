package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/rks/internal/domain/model"
)

type options struct {
	now   func() time.Time
	newID func() string
}

func defaultOptions() options {
	return options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithClock sets the clock used to stamp CreatedAt on inserted rows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator sets the generator used for row IDs.
func WithIDGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// stamp fills the fields a store assigns on insert and canonicalizes the chart key.
func (o options) stamp(rec model.ScoreRecord) model.ScoreRecord {
	rec = rec.Normalize()
	if rec.ID == "" {
		rec.ID = o.newID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = o.now()
	}
	return rec
}
