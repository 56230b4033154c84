package songstats

import "github.com/okian/rks/internal/domain/model"

// Holder is the play currently holding a chart record.
type Holder struct {
	OwnerID  string  `json:"owner_id"`
	ScoreID  string  `json:"score_id"`
	Score    int     `json:"score"`
	Accuracy float64 `json:"accuracy"`
}

// ChartLeaders names who holds the best score and the best accuracy on a chart.
type ChartLeaders struct {
	Chart           model.ChartKey `json:"chart"`
	HighestScore    Holder         `json:"highest_score"`
	HighestAccuracy Holder         `json:"highest_accuracy"`
}

// Leaders finds the record holders of every chart. The earliest play keeps a tied record.
func Leaders(records []model.ScoreRecord) map[model.ChartKey]ChartLeaders {
	out := make(map[model.ChartKey]ChartLeaders)
	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		h := Holder{OwnerID: r.OwnerID, ScoreID: r.ID, Score: r.Score, Accuracy: r.Accuracy}
		cur, ok := out[r.Chart]
		if !ok {
			out[r.Chart] = ChartLeaders{Chart: r.Chart, HighestScore: h, HighestAccuracy: h}
			continue
		}
		if r.Score > cur.HighestScore.Score {
			cur.HighestScore = h
		}
		if r.Accuracy > cur.HighestAccuracy.Accuracy {
			cur.HighestAccuracy = h
		}
		out[r.Chart] = cur
	}
	return out
}
