// Package rating implements the per-chart rating and the overall RKS aggregate.
//
// Every consumer (per-user view, leaderboard, summaries) goes through
// ChartRating and Reduce so the formula and the tie-break live in one place.
package rating

import (
	"errors"
	"fmt"
	"sort"

	"github.com/okian/rks/internal/domain/model"
)

// Chart rating curve parameters. Accuracy stays on the percentage scale.
const (
	accuracyFloor = 55.0
	accuracySpan  = 45.0
)

// ChartRating converts an accuracy percentage and a difficulty rating into a chart rating.
func ChartRating(accuracy, difficultyRating float64) float64 {
	if accuracy < accuracyFloor {
		return 0
	}
	x := (accuracy - accuracyFloor) / accuracySpan
	return difficultyRating * x * x
}

// Best wraps a record with its chart rating.
func Best(r model.ScoreRecord) model.ChartBest {
	return model.ChartBest{
		Record: r,
		Rating: ChartRating(r.Accuracy, r.EffectiveDifficultyRating()),
	}
}

// Reduce keeps one record per chart: the highest accuracy, first seen on exact ties.
// Invalid records are skipped.
func Reduce(records []model.ScoreRecord) map[model.ChartKey]model.ChartBest {
	bests, _ := ReduceChecked(records)
	return bests
}

// ReduceChecked is Reduce that also reports why records were skipped.
// The returned error joins one error per invalid record and is nil when none were skipped.
func ReduceChecked(records []model.ScoreRecord) (map[model.ChartKey]model.ChartBest, error) {
	bests := make(map[model.ChartKey]model.ChartBest, len(records))
	var errs []error
	for i := range records {
		r := records[i]
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("record %d (%s): %w", i, r.ID, err))
			continue
		}
		cur, ok := bests[r.Chart]
		// strictly greater: the first-seen record survives an exact tie
		if !ok || r.Accuracy > cur.Record.Accuracy {
			bests[r.Chart] = Best(r)
		}
	}
	return bests, errors.Join(errs...)
}

// ComputeChartBests returns the reduced set ordered by rating desc, then chart key.
func ComputeChartBests(records []model.ScoreRecord) []model.ChartBest {
	return Sorted(Reduce(records))
}

// Sorted flattens a reduced set into rating-descending order with a chart-key tie-break.
func Sorted(bests map[model.ChartKey]model.ChartBest) []model.ChartBest {
	out := make([]model.ChartBest, 0, len(bests))
	for _, b := range bests {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Chart().Less(out[j].Chart())
	})
	return out
}
