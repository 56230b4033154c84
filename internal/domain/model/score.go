// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Score, accuracy and difficulty rating bounds for a single play.
const (
	MaxScore            = 1_000_000
	MaxAccuracy         = 100.0
	MaxDifficultyRating = 100.0
)

// Difficulty is the tier of a chart, ordered by nominal difficulty.
type Difficulty string

// Known difficulty tiers.
const (
	EZ Difficulty = "EZ"
	HD Difficulty = "HD"
	IN Difficulty = "IN"
	AT Difficulty = "AT"
)

// Difficulties lists every tier in ascending order.
var Difficulties = []Difficulty{EZ, HD, IN, AT}

// defaultRatings back-fill rows that predate difficulty-rating capture.
var defaultRatings = map[Difficulty]float64{
	EZ: 4.0,
	HD: 8.0,
	IN: 12.0,
	AT: 15.0,
}

// ParseDifficulty accepts a tier name case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidRecord, s)
	}
	return d, nil
}

// Valid reports whether d is one of the four known tiers.
func (d Difficulty) Valid() bool {
	_, ok := defaultRatings[d]
	return ok
}

// DefaultRating returns the fallback difficulty rating of the tier.
func (d Difficulty) DefaultRating() float64 {
	return defaultRatings[d]
}

// ChartKey identifies a playable chart: one song at one tier.
type ChartKey struct {
	Song       string     `json:"song"`
	Difficulty Difficulty `json:"difficulty"`
}

func (k ChartKey) String() string {
	return k.Song + "-" + string(k.Difficulty)
}

// Less orders chart keys by song then tier.
func (k ChartKey) Less(o ChartKey) bool {
	if k.Song != o.Song {
		return k.Song < o.Song
	}
	return tierIndex(k.Difficulty) < tierIndex(o.Difficulty)
}

func tierIndex(d Difficulty) int {
	for i, t := range Difficulties {
		if t == d {
			return i
		}
	}
	return len(Difficulties)
}

// ScoreRecord is a single play. Records are immutable once stored.
type ScoreRecord struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	Chart            ChartKey  `json:"chart"`
	DifficultyRating float64   `json:"difficulty_rating,omitempty"` // 0 when not supplied
	Score            int       `json:"score"`
	Accuracy         float64   `json:"accuracy"`
	Goods            *int      `json:"goods,omitempty"`
	BadsMisses       *int      `json:"bads_misses,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// EffectiveDifficultyRating returns the supplied rating or the tier default.
func (r ScoreRecord) EffectiveDifficultyRating() float64 {
	if r.DifficultyRating > 0 {
		return r.DifficultyRating
	}
	return r.Chart.Difficulty.DefaultRating()
}

// Perfect reports whether the play is a phi (exactly 100% accuracy).
func (r ScoreRecord) Perfect() bool {
	return r.Accuracy == MaxAccuracy
}

// NormalizeSong canonicalizes a song title so padded variants name the same chart.
func NormalizeSong(song string) string {
	return strings.TrimSpace(song)
}

// Normalize returns r with its chart key canonicalized.
func (r ScoreRecord) Normalize() ScoreRecord {
	r.Chart.Song = NormalizeSong(r.Chart.Song)
	return r
}

// Validate rejects records that would corrupt aggregates. Values are never clamped.
func (r ScoreRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.OwnerID) == "":
		return fmt.Errorf("%w: missing owner", ErrInvalidRecord)
	case strings.TrimSpace(r.Chart.Song) == "":
		return fmt.Errorf("%w: missing song", ErrInvalidRecord)
	case !r.Chart.Difficulty.Valid():
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidRecord, r.Chart.Difficulty)
	case math.IsNaN(r.Accuracy) || r.Accuracy < 0 || r.Accuracy > MaxAccuracy:
		return fmt.Errorf("%w: accuracy %v outside [0,100]", ErrInvalidRecord, r.Accuracy)
	case r.Score < 0 || r.Score > MaxScore:
		return fmt.Errorf("%w: score %d outside [0,%d]", ErrInvalidRecord, r.Score, MaxScore)
	case math.IsNaN(r.DifficultyRating) || r.DifficultyRating < 0 || r.DifficultyRating > MaxDifficultyRating:
		return fmt.Errorf("%w: difficulty rating %v outside [0,%v]", ErrInvalidRecord, r.DifficultyRating, MaxDifficultyRating)
	case r.Goods != nil && *r.Goods < 0, r.BadsMisses != nil && *r.BadsMisses < 0:
		return fmt.Errorf("%w: negative judgment count", ErrInvalidRecord)
	}
	return nil
}

// ChartBest is the best play of one chart together with its rating.
type ChartBest struct {
	Record ScoreRecord `json:"record"`
	Rating float64     `json:"rating"`
}

// Chart returns the key the entry was reduced under.
func (b ChartBest) Chart() ChartKey { return b.Record.Chart }
