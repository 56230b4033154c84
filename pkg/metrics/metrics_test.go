package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered there", func() {
				So(m, ShouldNotBeNil)
				m.submissions.WithLabelValues("inserted").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "test_unit_score_submissions_total")
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording submissions", func() {
			before := testutil.ToFloat64(globalManager.submissions.WithLabelValues("duplicate"))
			RecordSubmission("duplicate")
			So(testutil.ToFloat64(globalManager.submissions.WithLabelValues("duplicate")), ShouldEqual, before+1)
		})

		Convey("When recording store calls", func() {
			before := testutil.ToFloat64(globalManager.storeErrors.WithLabelValues("list_user"))
			RecordStoreCall("list_user", 2, nil)
			RecordStoreCall("list_user", 3, errors.New("down"))
			So(testutil.ToFloat64(globalManager.storeErrors.WithLabelValues("list_user")), ShouldEqual, before+1)
		})

		Convey("When recording a leaderboard build", func() {
			before := testutil.ToFloat64(globalManager.skippedUsers)
			RecordLeaderboardBuild(12, 3, 1)
			So(testutil.ToFloat64(globalManager.leaderboardUsers), ShouldEqual, 3)
			So(testutil.ToFloat64(globalManager.skippedUsers), ShouldEqual, before+1)
		})

		Convey("When recording the remaining collectors", func() {
			So(func() {
				RecordRatingComputation("user")
				RecordCacheHit()
				RecordCacheMiss()
				RecordPublishError()
				RecordHTTPRequest("rank", "GET", "200", 4)
				RecordHTTPError("rank", "not_found")
			}, ShouldNotPanic)
		})

		Convey("Then the registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
