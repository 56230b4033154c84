package loadgen

import (
	"fmt"
	"math"

	"github.com/okian/rks/internal/domain/model"
	"github.com/okian/rks/internal/domain/ranking"
	"github.com/okian/rks/internal/domain/rating"
)

const ratingEpsilon = 1e-9

// expectedStandings rates the unique plays locally the way the server does.
func expectedStandings(plays []Play) []ranking.Standing {
	byOwner := make(map[string][]model.ScoreRecord)
	var owners []string
	for _, p := range plays {
		if _, ok := byOwner[p.OwnerID]; !ok {
			owners = append(owners, p.OwnerID)
		}
		byOwner[p.OwnerID] = append(byOwner[p.OwnerID], p.Record())
	}
	users := make([]ranking.UserScores, 0, len(owners))
	for _, o := range owners {
		users = append(users, ranking.UserScores{OwnerID: o, Records: byOwner[o]})
	}
	return ranking.Standings(users)
}

// verifyLeaderboard compares a served page prefix with locally computed standings.
// Owners on rating ties may appear in any order, so positions are checked by
// rating and every served owner is checked against its own expected rating.
func verifyLeaderboard(expected, served []ranking.Standing, totalUsers, limit int) error {
	if totalUsers != len(expected) {
		return fmt.Errorf("%w: total_users %d, expected %d", ErrMismatch, totalUsers, len(expected))
	}
	want := min(limit, len(expected))
	if len(served) != want {
		return fmt.Errorf("%w: %d entries served, expected %d", ErrMismatch, len(served), want)
	}

	byOwner := make(map[string]float64, len(expected))
	for _, s := range expected {
		byOwner[s.OwnerID] = s.Rating
	}
	for i, got := range served {
		if got.Position != i+1 {
			return fmt.Errorf("%w: entry %d has rank %d", ErrMismatch, i, got.Position)
		}
		if !near(got.Rating, expected[i].Rating) {
			return fmt.Errorf("%w: rank %d rks %.6f, expected %.6f", ErrMismatch, i+1, got.Rating, expected[i].Rating)
		}
		r, ok := byOwner[got.OwnerID]
		if !ok {
			return fmt.Errorf("%w: unknown owner %s at rank %d", ErrMismatch, got.OwnerID, i+1)
		}
		if !near(r, got.Rating) {
			return fmt.Errorf("%w: %s rks %.6f, expected %.6f", ErrMismatch, got.OwnerID, got.Rating, r)
		}
	}
	return nil
}

// overallRating returns the RKS the server should report for one owner.
func overallRating(plays []Play, owner string) float64 {
	var recs []model.ScoreRecord
	for _, p := range plays {
		if p.OwnerID == owner {
			recs = append(recs, p.Record())
		}
	}
	return rating.ComputeOverallRating(recs)
}

func near(a, b float64) bool { return math.Abs(a-b) <= ratingEpsilon }
