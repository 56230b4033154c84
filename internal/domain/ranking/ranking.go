// Package ranking orders players by overall rating and resolves a player's rank.
package ranking

import (
	"sort"

	"github.com/okian/rks/internal/domain/model"
	"github.com/okian/rks/internal/domain/rating"
)

// UserScores is one player's full score history.
type UserScores struct {
	OwnerID string
	Records []model.ScoreRecord
}

// Standing is a player's position on the leaderboard.
type Standing struct {
	Position int     `json:"rank"`
	OwnerID  string  `json:"owner_id"`
	Rating   float64 `json:"rks"`
	Charts   int     `json:"charts"`
}

// Result is the rank of one player among everyone considered.
type Result struct {
	Rank       *int `json:"rank"`
	TotalUsers int  `json:"total_users"`
}

// Rated is one player's precomputed chart bests.
type Rated struct {
	OwnerID string
	Bests   []model.ChartBest
}

// Standings rates every player and sorts them by rating descending.
// Ties keep input order. Players without any valid score are left out.
func Standings(users []UserScores) []Standing {
	rated := make([]Rated, 0, len(users))
	for _, u := range users {
		rated = append(rated, Rated{OwnerID: u.OwnerID, Bests: rating.ComputeChartBests(u.Records)})
	}
	return Order(rated)
}

// Order aggregates precomputed bests into standings, with the same rules as Standings.
func Order(rated []Rated) []Standing {
	out := make([]Standing, 0, len(rated))
	for _, r := range rated {
		if len(r.Bests) == 0 {
			continue
		}
		out = append(out, Standing{
			OwnerID: r.OwnerID,
			Rating:  rating.Aggregate(r.Bests),
			Charts:  len(r.Bests),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// Rank finds target in the standings built from users.
func Rank(users []UserScores, target string) Result {
	return Locate(Standings(users), target)
}

// Locate finds target in precomputed standings.
func Locate(standings []Standing, target string) Result {
	res := Result{TotalUsers: len(standings)}
	for _, s := range standings {
		if s.OwnerID == target {
			pos := s.Position
			res.Rank = &pos
			break
		}
	}
	return res
}
