package loadgen

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/rks/internal/domain/model"
)

// Chart pool parameters.
const (
	songCount   = 40
	phiChance   = 0.04
	accuracyMin = 55.0
	spreadMax   = 15.0
)

// tierRange is the difficulty rating span generated per tier.
var tierRange = map[model.Difficulty][2]float64{
	model.EZ: {1, 5},
	model.HD: {6, 5},
	model.IN: {11, 4},
	model.AT: {14, 3},
}

// chart is one entry of the generated pool. Its rating is fixed so every
// play of the same chart carries the same difficulty rating.
type chart struct {
	key    model.ChartKey
	rating float64
}

// generator produces reproducible plays from a seed.
type generator struct {
	seed   uint64
	rng    *rand.Rand
	charts []chart
}

func newGenerator(seed uint64) *generator {
	g := &generator{seed: seed, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
	for i := 0; i < songCount; i++ {
		song := fmt.Sprintf("song-%02d", i)
		for _, tier := range model.Difficulties {
			span := tierRange[tier]
			g.charts = append(g.charts, chart{
				key:    model.ChartKey{Song: song, Difficulty: tier},
				rating: round1(span[0] + g.rng.Float64()*span[1]),
			})
		}
	}
	return g
}

// Generate returns users*perUser unique plays followed by resent copies of
// roughly dupRate of them. unique is the number of distinct submissions.
func (g *generator) Generate(users, perUser int, dupRate float64) (plays []Play, unique int) {
	plays = make([]Play, 0, users*perUser)
	for u := 0; u < users; u++ {
		owner := fmt.Sprintf("player-%04d", u)
		skill := 0.6 + g.rng.Float64()*0.4
		for i := 0; i < perUser; i++ {
			plays = append(plays, g.play(owner, i, skill))
		}
	}
	unique = len(plays)
	for i := 0; i < unique; i++ {
		if g.rng.Float64() < dupRate {
			plays = append(plays, plays[i])
		}
	}
	return plays, unique
}

func (g *generator) play(owner string, n int, skill float64) Play {
	c := g.charts[g.rng.IntN(len(g.charts))]
	acc := accuracyMin + skill*(model.MaxAccuracy-accuracyMin) - g.rng.Float64()*spreadMax
	if g.rng.Float64() < phiChance*skill {
		acc = model.MaxAccuracy
	}
	acc = math.Max(0, math.Min(model.MaxAccuracy, math.Round(acc*100)/100))

	return Play{
		SubmissionID:     uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%d/%s/%d", g.seed, owner, n)).String(),
		OwnerID:          owner,
		Song:             c.key.Song,
		Difficulty:       string(c.key.Difficulty),
		DifficultyRating: c.rating,
		Score:            int(acc / model.MaxAccuracy * model.MaxScore),
		Accuracy:         acc,
	}
}

// Record converts a play to the record the server stores for it.
func (p Play) Record() model.ScoreRecord {
	return model.ScoreRecord{
		OwnerID:          p.OwnerID,
		Chart:            model.ChartKey{Song: p.Song, Difficulty: model.Difficulty(p.Difficulty)},
		DifficultyRating: p.DifficultyRating,
		Score:            p.Score,
		Accuracy:         p.Accuracy,
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
