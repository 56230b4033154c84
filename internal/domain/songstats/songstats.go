// Package songstats aggregates plays per chart across all players.
package songstats

import (
	"math"

	"github.com/okian/rks/internal/domain/model"
)

// Stats describes every play of one chart.
type Stats struct {
	Chart       model.ChartKey `json:"chart"`
	NumPerfect  int            `json:"number_of_phis"`
	AvgAccuracy float64        `json:"average_accuracy"`
	AvgScore    int            `json:"average_score"`
	TotalPlays  int            `json:"total_scores"`
}

type accumulator struct {
	plays    int
	perfect  int
	accuracy float64
	score    int64
}

// Compute returns per-chart statistics over all plays. Invalid records are skipped.
func Compute(records []model.ScoreRecord) map[model.ChartKey]Stats {
	acc := make(map[model.ChartKey]*accumulator)
	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		a, ok := acc[r.Chart]
		if !ok {
			a = &accumulator{}
			acc[r.Chart] = a
		}
		a.plays++
		a.accuracy += r.Accuracy
		a.score += int64(r.Score)
		if r.Perfect() {
			a.perfect++
		}
	}

	out := make(map[model.ChartKey]Stats, len(acc))
	for k, a := range acc {
		n := float64(a.plays)
		out[k] = Stats{
			Chart:       k,
			NumPerfect:  a.perfect,
			AvgAccuracy: math.Round(a.accuracy/n*100) / 100,
			AvgScore:    int(math.Round(float64(a.score) / n)),
			TotalPlays:  a.plays,
		}
	}
	return out
}
