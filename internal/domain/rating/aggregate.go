package rating

import (
	"sort"

	"github.com/okian/rks/internal/domain/model"
)

// Selection sizes for the overall rating.
const (
	PerfectSlots = 3
	RegularSlots = 27
	Cohort       = PerfectSlots + RegularSlots
)

// Select picks the entries that count toward the overall rating: up to three
// perfect plays first, then the best 27 overall, deduplicated by chart and
// capped at 30. A player with fewer than three perfect plays gets the spare
// slots filled from the regular list.
func Select(bests []model.ChartBest) []model.ChartBest {
	if len(bests) == 0 {
		return nil
	}
	ordered := make([]model.ChartBest, len(bests))
	copy(ordered, bests)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rating > ordered[j].Rating
	})

	perfect := make([]model.ChartBest, 0, PerfectSlots)
	for _, b := range ordered {
		if len(perfect) == PerfectSlots {
			break
		}
		if b.Record.Perfect() {
			perfect = append(perfect, b)
		}
	}
	// perfect slots nobody earned go back to the regular list
	regularSlots := RegularSlots + PerfectSlots - len(perfect)
	regular := ordered
	if len(regular) > regularSlots {
		regular = regular[:regularSlots]
	}

	seen := make(map[model.ChartKey]struct{}, Cohort)
	out := make([]model.ChartBest, 0, Cohort)
	for _, group := range [][]model.ChartBest{perfect, regular} {
		for _, b := range group {
			if len(out) == Cohort {
				return out
			}
			if _, dup := seen[b.Chart()]; dup {
				continue
			}
			seen[b.Chart()] = struct{}{}
			out = append(out, b)
		}
	}
	return out
}

// Aggregate averages the selected ratings over a fixed cohort of 30.
// Unfilled slots count as zero.
func Aggregate(bests []model.ChartBest) float64 {
	var sum float64
	for _, b := range Select(bests) {
		sum += b.Rating
	}
	return sum / Cohort
}

// ComputeOverallRating reduces raw records and aggregates them.
func ComputeOverallRating(records []model.ScoreRecord) float64 {
	return Aggregate(ComputeChartBests(records))
}

// MaxRating is the ceiling Aggregate could reach if every chart were played at 100%.
func MaxRating(bests []model.ChartBest) float64 {
	ceil := make([]float64, 0, len(bests))
	for _, b := range bests {
		ceil = append(ceil, b.Record.EffectiveDifficultyRating())
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ceil)))
	if len(ceil) > Cohort {
		ceil = ceil[:Cohort]
	}
	var sum float64
	for _, c := range ceil {
		sum += c
	}
	return sum / Cohort
}
