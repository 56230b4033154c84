package rating

import "github.com/okian/rks/internal/domain/model"

// Summary is the per-player overview shown next to the overall rating.
type Summary struct {
	OverallRating float64                  `json:"rks"`
	TotalPlays    int                      `json:"total_plays"`
	TotalPhis     int                      `json:"total_phis"`
	PlaysByTier   map[model.Difficulty]int `json:"plays_by_tier"`
	PhisByTier    map[model.Difficulty]int `json:"phis_by_tier"`
	HighestPhi    *HighestPhi              `json:"highest_phi,omitempty"`
}

// HighestPhi is the hardest chart cleared at 100% accuracy.
type HighestPhi struct {
	Chart            model.ChartKey `json:"chart"`
	DifficultyRating float64        `json:"difficulty_rating"`
}

// Summarize counts plays and phis per tier and finds the hardest phi.
// Counts cover every valid play, not only the best per chart.
func Summarize(records []model.ScoreRecord) Summary {
	s := Summary{
		PlaysByTier: make(map[model.Difficulty]int, len(model.Difficulties)),
		PhisByTier:  make(map[model.Difficulty]int, len(model.Difficulties)),
	}
	for _, d := range model.Difficulties {
		s.PlaysByTier[d] = 0
		s.PhisByTier[d] = 0
	}

	valid := make([]model.ScoreRecord, 0, len(records))
	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		valid = append(valid, r)
		s.TotalPlays++
		s.PlaysByTier[r.Chart.Difficulty]++
		if !r.Perfect() {
			continue
		}
		s.TotalPhis++
		s.PhisByTier[r.Chart.Difficulty]++
		dr := r.EffectiveDifficultyRating()
		if s.HighestPhi == nil || dr > s.HighestPhi.DifficultyRating {
			s.HighestPhi = &HighestPhi{Chart: r.Chart, DifficultyRating: dr}
		}
	}
	s.OverallRating = ComputeOverallRating(valid)
	return s
}
