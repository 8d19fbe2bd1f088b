package config_test

import (
	"runtime"
	"testing"

	"github.com/okian/guardian/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.GreenMax, convey.ShouldEqual, 0.3)
			convey.So(cfg.RedMin, convey.ShouldEqual, 0.8)
			convey.So(cfg.SignalMaxWeight, convey.ShouldEqual, 0.6)
			convey.So(cfg.SignalMeanWeight, convey.ShouldEqual, 0.4)
			convey.So(cfg.DuplicateThreshold, convey.ShouldEqual, 0.90)
			convey.So(cfg.DuplicateWindowHours, convey.ShouldEqual, 24)
			convey.So(cfg.NeighborCount, convey.ShouldEqual, 3)
			convey.So(cfg.WebhookMaxAttempts, convey.ShouldEqual, 5)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.StoreBackend, convey.ShouldEqual, "memory")
		})
	})
}
