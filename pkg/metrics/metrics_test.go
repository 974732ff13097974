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

			Convey("Then it should be created with defaults", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("test_"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.predictions.WithLabelValues(OutcomeOK).Inc()

			Convey("Then metric names and labels should follow the options", func() {
				So(manager.Enabled(), ShouldBeFalse)
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)

				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_test_predictions_total" {
						found = true
						labels := f.GetMetric()[0].GetLabel()
						var env string
						for _, l := range labels {
							if l.GetName() == "env" {
								env = l.GetValue()
							}
						}
						So(env, ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration should panic", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		m := Global()

		Convey("When recording predictions", func() {
			before := testutil.ToFloat64(m.predictions.WithLabelValues(OutcomeInvalid))
			RecordPrediction(OutcomeInvalid)
			RecordValidationError("Age")
			RecordPredictionLatency(0.4)

			Convey("Then the counters should move", func() {
				So(testutil.ToFloat64(m.predictions.WithLabelValues(OutcomeInvalid)), ShouldEqual, before+1)
				So(testutil.ToFloat64(m.validationErrors.WithLabelValues("Age")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording premiums", func() {
			before := testutil.ToFloat64(m.premiumClamped)
			RecordPremium(12000, false)
			RecordPremium(0, true)

			Convey("Then only clamped premiums should be counted as clamped", func() {
				So(testutil.ToFloat64(m.premiumClamped), ShouldEqual, before+1)
			})
		})

		Convey("When recording cache lookups", func() {
			RecordCacheLookup("lru", true)
			RecordCacheLookup("lru", false)
			RecordCacheError("redis")
			UpdateCacheEntries("lru", 3)

			Convey("Then hits and misses should be split", func() {
				So(testutil.ToFloat64(m.cacheLookups.WithLabelValues("lru", "hit")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(m.cacheLookups.WithLabelValues("lru", "miss")), ShouldBeGreaterThanOrEqualTo, 1)
				So(testutil.ToFloat64(m.cacheEntries.WithLabelValues("lru")), ShouldEqual, 3.0)
			})
		})

		Convey("When publishing artifact info twice", func() {
			SetArtifactInfo("v1", "identity")
			SetArtifactInfo("v2", "log")

			Convey("Then only the latest version should remain", func() {
				So(testutil.CollectAndCount(m.artifactInfo), ShouldEqual, 1)
				So(testutil.ToFloat64(m.artifactInfo.WithLabelValues("v2", "log")), ShouldEqual, 1.0)
			})
		})

		Convey("When toggling readiness", func() {
			SetEngineReady(true)
			So(testutil.ToFloat64(m.engineReady), ShouldEqual, 1.0)
			SetEngineReady(false)
			So(testutil.ToFloat64(m.engineReady), ShouldEqual, 0.0)
		})

		Convey("When recording operational metrics", func() {
			So(func() {
				RecordBatchSize(25)
				RecordBatchRejected("too_large")
				RecordHTTPRequest("/predict", "POST", "200")
				RecordHTTPRequestDuration("/predict", "POST", "200", 1.5)
				RecordHTTPRateLimited()
				UpdateQueueSize(10)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.1)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordQueueProcessingLatency(0.2)
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(2)
				UpdateWorkerIdleCount(2)
				UpdateWorkerMessagesPerSecond(100)
				RecordWorkerProcessingLatency(0.3)
				RecordWorkerError()
				RecordErrorByComponent("engine", "model_shape")
				RecordErrorByType("validation", "low")
				RecordErrorByEndpoint("/predict", "POST", "validation")
				RecordErrorLatency("engine", "model_shape", 0.1)
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.5)
			}, ShouldNotPanic)
		})

		Convey("When gathering the custom registry", func() {
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			Convey("Then every metric should carry the premium namespace", func() {
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "premium_estimator_"), ShouldBeTrue)
				}
			})
		})
	})
}
