package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/rks/internal/adapters/http/api"
	service "github.com/okian/rks/internal/app"
	"github.com/okian/rks/internal/domain/model"
	"github.com/okian/rks/internal/domain/ranking"
	"github.com/okian/rks/pkg/logger"
)

func TestGenerator(t *testing.T) {
	convey.Convey("Given two generators with the same seed", t, func() {
		a, ua := newGenerator(7).Generate(5, 20, 0.25)
		b, ub := newGenerator(7).Generate(5, 20, 0.25)

		convey.Convey("Then they produce the same plays", func() {
			convey.So(ua, convey.ShouldEqual, 100)
			convey.So(ub, convey.ShouldEqual, ua)
			convey.So(b, convey.ShouldResemble, a)
		})

		convey.Convey("Then resent plays repeat an earlier submission id", func() {
			ids := make(map[string]bool, ua)
			for _, p := range a[:ua] {
				convey.So(ids[p.SubmissionID], convey.ShouldBeFalse)
				ids[p.SubmissionID] = true
			}
			for _, p := range a[ua:] {
				convey.So(ids[p.SubmissionID], convey.ShouldBeTrue)
			}
		})

		convey.Convey("Then every play is a valid record with a fixed chart rating", func() {
			ratings := make(map[model.ChartKey]float64)
			for _, p := range a {
				rec := p.Record()
				convey.So(rec.Validate(), convey.ShouldBeNil)
				if r, ok := ratings[rec.Chart]; ok {
					convey.So(rec.DifficultyRating, convey.ShouldEqual, r)
				}
				ratings[rec.Chart] = rec.DifficultyRating
			}
		})
	})

	convey.Convey("Given a different seed", t, func() {
		a, _ := newGenerator(1).Generate(2, 5, 0)
		b, _ := newGenerator(2).Generate(2, 5, 0)

		convey.Convey("Then submission ids differ", func() {
			convey.So(a[0].SubmissionID, convey.ShouldNotEqual, b[0].SubmissionID)
		})
	})
}

func TestVerifyLeaderboard(t *testing.T) {
	convey.Convey("Given expected standings", t, func() {
		expected := []ranking.Standing{
			{Position: 1, OwnerID: "a", Rating: 12},
			{Position: 2, OwnerID: "b", Rating: 10},
			{Position: 3, OwnerID: "c", Rating: 10},
		}

		convey.Convey("When the served prefix matches", func() {
			err := verifyLeaderboard(expected, expected[:2], 3, 2)
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("When tied owners are swapped", func() {
			served := []ranking.Standing{
				{Position: 1, OwnerID: "a", Rating: 12},
				{Position: 2, OwnerID: "c", Rating: 10},
				{Position: 3, OwnerID: "b", Rating: 10},
			}
			convey.So(verifyLeaderboard(expected, served, 3, 10), convey.ShouldBeNil)
		})

		convey.Convey("When a rating differs", func() {
			served := []ranking.Standing{{Position: 1, OwnerID: "a", Rating: 11}}
			err := verifyLeaderboard(expected, served, 3, 1)
			convey.So(errors.Is(err, ErrMismatch), convey.ShouldBeTrue)
		})

		convey.Convey("When total users or length differ", func() {
			convey.So(errors.Is(verifyLeaderboard(expected, expected, 4, 10), ErrMismatch), convey.ShouldBeTrue)
			convey.So(errors.Is(verifyLeaderboard(expected, expected[:1], 3, 10), ErrMismatch), convey.ShouldBeTrue)
		})

		convey.Convey("When an unknown owner is served", func() {
			served := []ranking.Standing{{Position: 1, OwnerID: "z", Rating: 12}}
			err := verifyLeaderboard(expected, served, 3, 1)
			convey.So(errors.Is(err, ErrMismatch), convey.ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	_ = logger.InitWith(io.Discard, "text")

	convey.Convey("Given a fresh server", t, func() {
		ctx := context.Background()
		srv := httptest.NewServer(api.NewServer(service.New()).Handler(ctx))
		defer srv.Close()

		cfg := DefaultConfig()
		cfg.BaseURL = srv.URL
		cfg.Users = 12
		cfg.PlaysPerUser = 15
		cfg.DuplicateRate = 0.2
		cfg.TopN = 10
		cfg.Workers = 4
		cfg.Timeout = 5 * time.Second
		cfg.OutputFile = filepath.Join(t.TempDir(), "plays.json")

		convey.Convey("When a load run completes", func() {
			stats, err := Run(ctx, cfg)

			convey.Convey("Then every unique play is stored once and the board verifies", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.Created, convey.ShouldEqual, 180)
				convey.So(stats.Duplicate, convey.ShouldEqual, stats.PlaysGenerated-180)
				convey.So(stats.Failed, convey.ShouldEqual, 0)
				convey.So(stats.EntriesVerified, convey.ShouldEqual, 10)
			})

			convey.Convey("Then the generated plays are saved", func() {
				data, err := os.ReadFile(cfg.OutputFile)
				convey.So(err, convey.ShouldBeNil)
				var plays []Play
				convey.So(json.Unmarshal(data, &plays), convey.ShouldBeNil)
				convey.So(len(plays), convey.ShouldEqual, stats.PlaysGenerated)
			})
		})
	})

	convey.Convey("Given an unhealthy server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		cfg := DefaultConfig()
		cfg.BaseURL = srv.URL

		convey.Convey("Then Run stops at the health check", func() {
			_, err := Run(context.Background(), cfg)
			convey.So(errors.Is(err, ErrUnhealthy), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a server that reports a submission as pending twice", t, func() {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) <= 2 {
				w.WriteHeader(http.StatusConflict)
				return
			}
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		convey.Convey("Then postPlay resends until the play is accepted", func() {
			p, _ := newGenerator(3).Generate(1, 1, 0)
			status, _, err := postPlay(context.Background(), newClient(srv.URL, time.Second), p[0])
			convey.So(err, convey.ShouldBeNil)
			convey.So(status, convey.ShouldEqual, http.StatusCreated)
			convey.So(calls.Load(), convey.ShouldEqual, 3)
		})
	})

	convey.Convey("Given invalid settings", t, func() {
		cfg := DefaultConfig()
		cfg.Workers = 0

		convey.Convey("Then Run rejects them", func() {
			_, err := Run(context.Background(), cfg)
			convey.So(errors.Is(err, ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
