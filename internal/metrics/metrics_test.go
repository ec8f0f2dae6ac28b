package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func scrape(m *Manager) string {
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestMetricsManager(t *testing.T) {
	Convey("Given a metrics manager on a private registry", t, func() {
		registry := prometheus.NewRegistry()
		manager := NewManager(WithPrometheusRegistry(registry), WithNamespace("test"))

		Convey("It uses the given registry", func() {
			So(manager.Registry(), ShouldEqual, registry)
		})

		Convey("When spawns and captures are recorded", func() {
			manager.RecordSpawn("timer")
			manager.RecordSpawn("manual")
			manager.RecordCapture("success")
			body := scrape(manager)

			Convey("Then the counters reflect them", func() {
				So(body, ShouldContainSubstring, `test_spawns_total{trigger="timer"} 1`)
				So(body, ShouldContainSubstring, `test_spawns_total{trigger="manual"} 1`)
				So(body, ShouldContainSubstring, `test_captures_total{result="success"} 1`)
				So(body, ShouldContainSubstring, "test_spawn_active 0")
			})
		})

		Convey("When battles start and end", func() {
			manager.BattleStarted()
			manager.BattleStarted()
			manager.BattleEnded("finished")
			body := scrape(manager)

			Convey("Then the gauge tracks running battles", func() {
				So(body, ShouldContainSubstring, "test_battles_active 1")
				So(body, ShouldContainSubstring, `test_battles_total{outcome="finished"} 1`)
			})
		})

		Convey("When a command is recorded", func() {
			manager.RecordCommand("scan", "ok", 10*time.Millisecond)
			body := scrape(manager)

			Convey("Then the count and latency are exposed", func() {
				So(body, ShouldContainSubstring, `test_commands_total{command="scan",result="ok"} 1`)
				So(body, ShouldContainSubstring, `test_command_duration_seconds_count{command="scan"} 1`)
			})
		})
	})

	Convey("Given a nil manager", t, func() {
		var manager *Manager

		Convey("Then recording is a no-op", func() {
			So(func() {
				manager.RecordSpawn("timer")
				manager.RecordStorageError("save_player")
				manager.RecordHTTPRequest(http.MethodGet, 200, time.Second)
			}, ShouldNotPanic)
		})
	})
}

func TestCustomHistogramBuckets(t *testing.T) {
	Convey("Given a manager with custom latency buckets", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithHistogramBuckets([]float64{0.5, 5}))

		Convey("When a slow command is recorded", func() {
			manager.RecordCommand("capture", "ok", 2*time.Second)
			body := scrape(manager)

			Convey("Then only the configured buckets are exposed", func() {
				So(body, ShouldContainSubstring, `domon_command_duration_seconds_bucket{command="capture",le="0.5"} 0`)
				So(body, ShouldContainSubstring, `domon_command_duration_seconds_bucket{command="capture",le="5"} 1`)
				So(body, ShouldNotContainSubstring, `le="0.005"`)
			})
		})
	})
}
