package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating options", func() {
			namespaceOpt := WithNamespace("test-namespace")
			subsystemOpt := WithSubsystem("test-subsystem")
			histogramBucketsOpt := WithHistogramBuckets([]float64{0.1, 0.5, 1.0})

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline metrics", func() {
			So(func() {
				RecordSubmission()
				RecordDecision("GREEN")
				RecordValidationFailure()
				RecordPipelineLatency(12.5)
			}, ShouldNotPanic)
		})

		Convey("When recording signal metrics", func() {
			So(func() {
				RecordSignalLatency(3.0)
				RecordSignalError("image")
				RecordSignalUnavailable()
			}, ShouldNotPanic)
		})

		Convey("When recording similarity metrics", func() {
			So(func() {
				RecordDuplicate()
				RecordEscalation()
				RecordIndexQueryError("dupdetect")
				UpdateIndexSize(42)
			}, ShouldNotPanic)
		})

		Convey("When recording publish metrics", func() {
			So(func() {
				UpdateQueueSize(1)
				UpdateQueueCapacity(100)
				UpdateQueueUtilization(0.01)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerActiveCount(4)
				RecordPublishLatency(8.0)
				RecordPublishError("deliver")
				RecordDeliveryAttempt()
				RecordDeliverySuccess()
				RecordDeadLetter("webhook")
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP metrics", func() {
			So(func() {
				RecordHTTPRequest("classify", "POST", "200")
				RecordHTTPRequestDuration("classify", "POST", "200", 5.0)
			}, ShouldNotPanic)
		})

		Convey("Then the registry should be available", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
