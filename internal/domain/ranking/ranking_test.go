package ranking_test

import (
	"errors"
	"testing"

	"github.com/okian/rks/internal/domain/model"
	"github.com/okian/rks/internal/domain/ranking"
	"github.com/okian/rks/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func user(id string, accs ...float64) ranking.UserScores {
	u := ranking.UserScores{OwnerID: id}
	for i, acc := range accs {
		u.Records = append(u.Records, model.ScoreRecord{
			OwnerID:  id,
			Chart:    model.ChartKey{Song: string(rune('A' + i)), Difficulty: model.IN},
			Score:    900_000,
			Accuracy: acc,
		})
	}
	return u
}

func TestStandings(t *testing.T) {
	Convey("Given several players", t, func() {
		users := []ranking.UserScores{
			user("low", 80),
			user("high", 99, 98, 97),
			user("mid", 95, 95),
		}
		standings := ranking.Standings(users)

		Convey("Then they are ordered by rating descending", func() {
			So(standings, ShouldHaveLength, 3)
			So(standings[0].OwnerID, ShouldEqual, "high")
			So(standings[1].OwnerID, ShouldEqual, "mid")
			So(standings[2].OwnerID, ShouldEqual, "low")
			So(standings[0].Position, ShouldEqual, 1)
			So(standings[2].Position, ShouldEqual, 3)
			So(standings[0].Charts, ShouldEqual, 3)
		})
	})

	Convey("Given players with identical ratings", t, func() {
		users := []ranking.UserScores{user("b", 90), user("a", 90), user("c", 90)}
		standings := ranking.Standings(users)

		Convey("Then input order breaks the tie", func() {
			So(standings[0].OwnerID, ShouldEqual, "b")
			So(standings[1].OwnerID, ShouldEqual, "a")
			So(standings[2].OwnerID, ShouldEqual, "c")
		})
	})

	Convey("Given a player with no scores", t, func() {
		users := []ranking.UserScores{user("active", 90), {OwnerID: "idle"}}

		Convey("Then the player is not counted", func() {
			res := ranking.Rank(users, "idle")
			So(res.Rank, ShouldBeNil)
			So(res.TotalUsers, ShouldEqual, 1)
		})
	})

	Convey("Given a player whose every record is invalid", t, func() {
		users := []ranking.UserScores{user("broken", 140), user("ok", 70)}
		So(ranking.Standings(users), ShouldHaveLength, 1)
	})
}

func TestRank(t *testing.T) {
	Convey("Given a single player", t, func() {
		res := ranking.Rank([]ranking.UserScores{user("solo", 92)}, "solo")

		Convey("Then they are first of one", func() {
			So(res.Rank, ShouldNotBeNil)
			So(*res.Rank, ShouldEqual, 1)
			So(res.TotalUsers, ShouldEqual, 1)
		})
	})

	Convey("Given a target that is absent", t, func() {
		res := ranking.Rank([]ranking.UserScores{user("a", 90), user("b", 80)}, "ghost")
		So(res.Rank, ShouldBeNil)
		So(res.TotalUsers, ShouldEqual, 2)
	})

	Convey("Given no players at all", t, func() {
		res := ranking.Rank(nil, "anyone")
		So(res.Rank, ShouldBeNil)
		So(res.TotalUsers, ShouldEqual, 0)
	})

	Convey("Given a target in the middle", t, func() {
		res := ranking.Rank([]ranking.UserScores{user("a", 99), user("b", 90), user("c", 60)}, "b")
		So(*res.Rank, ShouldEqual, 2)
		So(res.TotalUsers, ShouldEqual, 3)
	})
}

func TestOrder(t *testing.T) {
	Convey("Given precomputed bests", t, func() {
		users := []ranking.UserScores{user("x", 70), user("y", 99, 99), user("z")}
		rated := make([]ranking.Rated, 0, len(users))
		for _, u := range users {
			rated = append(rated, ranking.Rated{OwnerID: u.OwnerID, Bests: rating.ComputeChartBests(u.Records)})
		}

		Convey("Then Order matches Standings", func() {
			So(ranking.Order(rated), ShouldResemble, ranking.Standings(users))
			So(len(ranking.Order(rated)), ShouldEqual, 2)
		})
	})
}

func TestSkip(t *testing.T) {
	Convey("Given a fetch error", t, func() {
		err := errors.New("timeout")
		s := ranking.Skip("u1", err)

		Convey("Then the reason carries the message", func() {
			So(s.OwnerID, ShouldEqual, "u1")
			So(s.Reason, ShouldEqual, "timeout")
			So(s.Err, ShouldEqual, err)
		})
	})
}
