package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/rks/internal/adapters/repository"
	service "github.com/okian/rks/internal/app"
	"github.com/okian/rks/internal/domain/model"
	"github.com/okian/rks/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service backed by sqlite", t, func() {
		ctx := context.Background()
		dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
		store, err := repository.OpenSQL(ctx, repository.DriverSQLite, dsn)
		So(err, ShouldBeNil)
		svc := newService(store)
		defer svc.Stop()

		Convey("When a player fills 30 charts at the same rating without phis", func() {
			for i := range 30 {
				r := rec("steady", fmt.Sprintf("song-%02d", i), model.IN, 98)
				_, err := svc.SubmitScore(ctx, "", r)
				So(err, ShouldBeNil)
			}
			rks, err := svc.OverallRating(ctx, "steady")

			Convey("Then RKS equals the per-chart rating", func() {
				So(err, ShouldBeNil)
				So(rks, ShouldAlmostEqual, rating.ChartRating(98, 12), 1e-9)
			})
		})

		Convey("When a phi player and a regular player compete", func() {
			for i := range 3 {
				r := rec("phi", fmt.Sprintf("hard-%d", i), model.AT, 100)
				r.DifficultyRating = 12
				_, err := svc.SubmitScore(ctx, "", r)
				So(err, ShouldBeNil)
			}
			_, err := svc.SubmitScore(ctx, "", rec("regular", "hard-0", model.AT, 99))
			So(err, ShouldBeNil)

			Convey("Then the phi player ranks first with rating 1.2", func() {
				rks, err := svc.OverallRating(ctx, "phi")
				So(err, ShouldBeNil)
				So(rks, ShouldAlmostEqual, 1.2, 1e-9)

				rep, err := svc.ComputeRank(ctx, "regular")
				So(err, ShouldBeNil)
				So(*rep.Rank, ShouldEqual, 2)
				So(rep.TotalUsers, ShouldEqual, 2)
			})

			Convey("When the phi player's history is imported into a clone", func() {
				file, err := svc.Export(ctx, "phi")
				So(err, ShouldBeNil)
				data, err := json.Marshal(file)
				So(err, ShouldBeNil)
				res, err := svc.Import(ctx, "clone", data)
				So(err, ShouldBeNil)
				So(res.Imported, ShouldEqual, 3)

				Convey("Then the tie keeps store order", func() {
					page, err := svc.Leaderboard(ctx, 10)
					So(err, ShouldBeNil)
					So(page.TotalUsers, ShouldEqual, 3)
					So(page.Standings[0].OwnerID, ShouldEqual, "phi")
					So(page.Standings[1].OwnerID, ShouldEqual, "clone")
					So(page.Standings[1].Rating, ShouldEqual, page.Standings[0].Rating)
				})

				Convey("Then deleting a clone play lowers only the clone", func() {
					So(svc.DeleteScore(ctx, "clone", mustScores(ctx, svc, "clone")[0].ID), ShouldBeNil)
					rks, err := svc.OverallRating(ctx, "clone")
					So(err, ShouldBeNil)
					So(rks, ShouldAlmostEqual, 0.8, 1e-9)
				})
			})
		})
	})
}

func mustScores(ctx context.Context, svc *service.Service, owner string) []model.ScoreRecord {
	rows, err := svc.Scores(ctx, owner)
	if err != nil {
		panic(err)
	}
	return rows
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given many concurrent submitters", t, func() {
		ctx := context.Background()
		svc := newService(repository.NewMemoryStore(), service.WithFetchConcurrency(4))
		defer svc.Stop()

		var wg sync.WaitGroup
		for u := range 25 {
			wg.Add(1)
			go func(u int) {
				defer wg.Done()
				owner := fmt.Sprintf("player-%02d", u)
				for c := range 10 {
					id := fmt.Sprintf("%s-%d", owner, c)
					_, _ = svc.SubmitScore(ctx, id, rec(owner, fmt.Sprintf("c%d", c), model.HD, 60+float64(u)))
					// resubmission must be absorbed
					_, _ = svc.SubmitScore(ctx, id, rec(owner, fmt.Sprintf("c%d", c), model.HD, 60+float64(u)))
				}
				_, _ = svc.OverallRating(ctx, owner)
			}(u)
		}
		wg.Wait()

		Convey("Then every player is ranked once, best first", func() {
			page, err := svc.Leaderboard(ctx, 0)
			So(err, ShouldBeNil)
			So(page.TotalUsers, ShouldEqual, 25)
			So(page.Skipped, ShouldBeEmpty)
			So(page.Standings[0].OwnerID, ShouldEqual, "player-24")
			So(page.Standings[24].OwnerID, ShouldEqual, "player-00")
			So(page.Standings[0].Charts, ShouldEqual, 10)

			stats := svc.GetStats(ctx)
			So(stats["seenSubmissions"], ShouldEqual, int64(250))
		})
	})
}
