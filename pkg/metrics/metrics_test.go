package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the roshambo namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "roshambo")
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_prefix"),
				WithHistogramBuckets([]float64{50, 10, 10, 100}),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.histogramBuckets, ShouldResemble, []float64{10, 50, 100})
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
			})

			Convey("And metric names carry the prefix and labels", func() {
				manager.sessionsCreated.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, mf := range families {
					if mf.GetName() == "test_namespace_test_subsystem_test_prefix_sessions_created_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When zero values are passed to options", func() {
			manager := NewManager(
				WithPrometheusRegistry(prometheus.NewRegistry()),
				WithNamespace(""),
				WithRefreshInterval(0),
				WithHistogramBuckets(nil),
			)

			Convey("Then the defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "roshambo")
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
				So(manager.histogramBuckets, ShouldResemble, defaultLatencyBuckets)
			})
		})

		Convey("When metrics are disabled", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry), WithMetricsEnabled(false))
			manager.sessionsCreated.Inc()

			Convey("Then nothing reaches the given registry", func() {
				So(manager.Enabled(), ShouldBeFalse)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(families, ShouldBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When a round is recorded", func() {
			wins := testutil.ToFloat64(current().roundsPlayed.WithLabelValues("win"))
			userRock := testutil.ToFloat64(current().movesPlayed.WithLabelValues("user", "rock"))
			computerScissors := testutil.ToFloat64(current().movesPlayed.WithLabelValues("computer", "scissors"))

			RecordRound("win", "rock", "scissors")

			Convey("Then the result and both moves are counted", func() {
				So(testutil.ToFloat64(current().roundsPlayed.WithLabelValues("win")), ShouldEqual, wins+1)
				So(testutil.ToFloat64(current().movesPlayed.WithLabelValues("user", "rock")), ShouldEqual, userRock+1)
				So(testutil.ToFloat64(current().movesPlayed.WithLabelValues("computer", "scissors")), ShouldEqual, computerScissors+1)
			})
		})

		Convey("When session events are recorded", func() {
			created := testutil.ToFloat64(current().sessionsCreated)
			expired := testutil.ToFloat64(current().sessionsEnded.WithLabelValues("expired"))

			RecordSessionCreated()
			RecordSessionEnded("expired")
			UpdateSessionsActive(7)

			Convey("Then the counters and gauge move", func() {
				So(testutil.ToFloat64(current().sessionsCreated), ShouldEqual, created+1)
				So(testutil.ToFloat64(current().sessionsEnded.WithLabelValues("expired")), ShouldEqual, expired+1)
				So(testutil.ToFloat64(current().sessionsActive), ShouldEqual, 7)
			})
		})

		Convey("When queue and worker metrics are recorded", func() {
			enqueued := testutil.ToFloat64(current().queueEnqueued)
			processed := testutil.ToFloat64(current().workerProcessed)

			UpdateQueueSize(3)
			UpdateQueueCapacity(64)
			RecordQueueEnqueue()
			RecordWorkerProcessed()
			UpdateWorkerCount(2)

			Convey("Then they are visible", func() {
				So(testutil.ToFloat64(current().queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(current().queueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(current().queueEnqueued), ShouldEqual, enqueued+1)
				So(testutil.ToFloat64(current().workerProcessed), ShouldEqual, processed+1)
				So(testutil.ToFloat64(current().workerCount), ShouldEqual, 2)
			})
		})

		Convey("When the remaining recorders are called", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordRoundDuplicate()
					RecordHTTPRequest("/sessions", "POST", "201")
					RecordHTTPRequestDuration("/sessions", "POST", "201", 1.5)
					RecordQueueEnqueueError()
					RecordWorkerError()
					RecordErrorByComponent("api", "bad_move")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(12)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the custom registry", t, func() {
		RecordSessionCreated()

		Convey("Then it exposes roshambo metrics and no Go runtime collectors", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(families, ShouldNotBeEmpty)
			for _, mf := range families {
				So(strings.HasPrefix(mf.GetName(), "roshambo_"), ShouldBeTrue)
			}
		})
	})
}

func TestConfigure(t *testing.T) {
	Convey("Given a reconfigured global manager", t, func() {
		Configure(
			WithMetricPrefix("edge"),
			WithCustomLabels(map[string]string{"env": "test"}),
			WithRefreshInterval(3*time.Second),
		)
		defer Configure()

		RecordSessionCreated()

		Convey("Then recorders and the registry use the new settings", func() {
			So(RefreshInterval(), ShouldEqual, 3*time.Second)

			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			var found bool
			for _, mf := range families {
				if mf.GetName() == "roshambo_game_edge_sessions_created_total" {
					found = true
					So(mf.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 1)
				}
			}
			So(found, ShouldBeTrue)
		})
	})

	Convey("Given a disabled global manager", t, func() {
		Configure(WithMetricsEnabled(false))
		defer Configure()

		RecordRound("win", "rock", "scissors")

		Convey("Then the exported registry stays empty", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(families, ShouldBeEmpty)
		})
	})
}
