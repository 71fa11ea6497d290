package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(WithPrometheusRegistry(registry))

			Convey("Then metrics are registered under the racepick namespace", func() {
				m.RecordPairing("ok")
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["racepick_pairings_total"], ShouldBeTrue)
				So(names["racepick_queue_capacity"], ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("league"),
				WithHistogramBuckets([]float64{1, 10}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names use the namespace and subsystem", func() {
				m.RecordError("api", "bad_request")
				n, err := testutil.GatherAndCount(registry, "test_league_errors_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("Simulations accumulate trials", func() {
			m.RecordSimulation("5-3", 20000, time.Millisecond)
			m.RecordSimulation("4-4", 20000, time.Millisecond)
			So(testutil.ToFloat64(m.simulationTrials), ShouldEqual, 40000)
			So(testutil.ToFloat64(m.simulations.WithLabelValues("5-3")), ShouldEqual, 1)
		})

		Convey("Pairings are counted by status", func() {
			m.RecordPairing("ok")
			m.RecordPairing("ok")
			m.RecordPairing("no_data")
			So(testutil.ToFloat64(m.pairings.WithLabelValues("ok")), ShouldEqual, 2)
			So(testutil.ToFloat64(m.pairings.WithLabelValues("no_data")), ShouldEqual, 1)
		})

		Convey("Queue gauges and counters follow calls", func() {
			m.UpdateQueue(3, 16)
			m.RecordQueueEnqueue(true)
			m.RecordQueueEnqueue(false)
			m.RecordQueueDequeue()
			So(testutil.ToFloat64(m.queueSize), ShouldEqual, 3)
			So(testutil.ToFloat64(m.queueCapacity), ShouldEqual, 16)
			So(testutil.ToFloat64(m.queueEnqueued), ShouldEqual, 1)
			So(testutil.ToFloat64(m.queueEnqueueErrors), ShouldEqual, 1)
			So(testutil.ToFloat64(m.queueDequeued), ShouldEqual, 1)
		})

		Convey("Store operations split by result", func() {
			m.RecordStoreOperation("file", "save", nil)
			m.RecordStoreOperation("redis", "load", errors.New("down"))
			So(testutil.ToFloat64(m.storeOperations.WithLabelValues("file", "save", "ok")), ShouldEqual, 1)
			So(testutil.ToFloat64(m.storeOperations.WithLabelValues("redis", "load", "error")), ShouldEqual, 1)
		})

		Convey("Optimizer queries add their slates", func() {
			m.RecordOptimizerQuery("blind", 36, time.Millisecond)
			So(testutil.ToFloat64(m.optimizerSlates), ShouldEqual, 36)
		})
	})

	Convey("Given a disabled manager", t, func() {
		m := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))

		Convey("Recording is a no-op", func() {
			m.RecordPairing("ok")
			m.UpdateWorkers(4, 2)
			So(testutil.ToFloat64(m.pairings.WithLabelValues("ok")), ShouldEqual, 0)
			So(testutil.ToFloat64(m.workerCount), ShouldEqual, 0)
		})
	})

	Convey("Given the global manager", t, func() {
		Convey("Forwarding functions do not panic", func() {
			So(func() {
				RecordSimulation("2-2", 10, time.Microsecond)
				RecordPairing("error")
				RecordReportBuilt(time.Second)
				RecordOptimizerQuery("constrained", 4, time.Millisecond)
				UpdateQueue(0, 1)
				RecordQueueEnqueue(true)
				RecordQueueDequeue()
				UpdateWorkers(1, 0)
				RecordWorkerLatency(time.Millisecond)
				RecordStoreOperation("file", "load", nil)
				RecordHTTPRequest("/race", "GET", "200", 1.5)
				RecordError("worker", "evaluate")
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
