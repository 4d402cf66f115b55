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
			registryOpt := WithPrometheusRegistry(prometheus.NewRegistry())

			Convey("Then they should be valid functions", func() {
				So(namespaceOpt, ShouldNotBeNil)
				So(subsystemOpt, ShouldNotBeNil)
				So(histogramBucketsOpt, ShouldNotBeNil)
				So(registryOpt, ShouldNotBeNil)
			})
		})
	})
}

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with an isolated registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("testspace"),
				WithSubsystem("testsub"),
				WithHistogramBuckets([]float64{1, 5, 25, 125}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the metrics land on the custom registry", func() {
				So(manager, ShouldNotBeNil)

				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := make(map[string]bool)
				for _, family := range families {
					names[family.GetName()] = true
				}
				So(names["testspace_testsub_scores_submitted_total"], ShouldBeTrue)
				So(names["testspace_testsub_players_total"], ShouldBeTrue)
			})
		})
	})
}

func TestPackageHelpers(t *testing.T) {
	Convey("Given the package-level recording helpers", t, func() {
		Convey("When recording a batch of observations", func() {
			RecordScoreSubmitted()
			RecordSubmitRetry()
			RecordSessionRecorded()
			RecordSessionDuplicate()
			UpdateTotalPlayers(7)
			RecordSessionLatency(12.5)
			RecordPercentileScanLatency(3.0)
			RecordStoreUpdateLatency(1.0)
			RecordStoreQueryLatency(0.5)
			RecordStoreConflict()
			UpdateStoreRows("Default", 42)
			RecordHTTPRequest("scores", "POST", "201")
			RecordHTTPRequestDuration("scores", "POST", "201", 4.2)
			RecordErrorByComponent("http", "client_error")

			Convey("Then the global registry gathers without error", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
