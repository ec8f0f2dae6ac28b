// Package metrics provides Prometheus metrics for the game server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every metric the server records. A nil *Manager records nothing
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Spawn and capture
	spawns        *prometheus.CounterVec
	scans         *prometheus.CounterVec
	captures      *prometheus.CounterVec
	claimsExpired prometheus.Counter
	activeSpawn   prometheus.Gauge

	// Battles
	battles       *prometheus.CounterVec
	activeBattles prometheus.Gauge

	// Commands
	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec

	// Persistence
	storageErrors *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a metrics manager on its own registry
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "domon",
		histogramBuckets: prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.spawns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "spawns_total",
		Help:      "Creatures spawned, by trigger",
	}, []string{"trigger"})

	m.scans = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "scans_total",
		Help:      "Scan attempts, by result",
	}, []string{"result"})

	m.captures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "captures_total",
		Help:      "Capture resolutions, by result",
	}, []string{"result"})

	m.claimsExpired = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "claims_expired_total",
		Help:      "Scan claims released by the expiry guard",
	})

	m.activeSpawn = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "spawn_active",
		Help:      "1 while a creature is waiting to be captured",
	})

	m.battles = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "battles_total",
		Help:      "Battles ended, by outcome",
	}, []string{"outcome"})

	m.activeBattles = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "battles_active",
		Help:      "Battles currently running",
	})

	m.commands = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "commands_total",
		Help:      "Chat commands handled, by command and result",
	}, []string{"command", "result"})

	m.commandDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "command_duration_seconds",
		Help:      "Chat command handling latency",
		Buckets:   m.histogramBuckets,
	}, []string{"command"})

	m.storageErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "storage_errors_total",
		Help:      "Best-effort persistence failures, by operation",
	}, []string{"op"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests, by method and status",
	}, []string{"method", "status"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   m.histogramBuckets,
	}, []string{"method"})
}

// Registry returns the registry metrics are registered on
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSpawn counts a spawn. trigger is "timer" or "manual"
func (m *Manager) RecordSpawn(trigger string) {
	if m == nil {
		return
	}
	m.spawns.WithLabelValues(trigger).Inc()
	m.activeSpawn.Set(1)
}

// RecordScan counts a scan attempt
func (m *Manager) RecordScan(result string) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(result).Inc()
}

// RecordCapture counts a capture resolution. Every resolution frees the spawn
func (m *Manager) RecordCapture(result string) {
	if m == nil {
		return
	}
	m.captures.WithLabelValues(result).Inc()
	m.activeSpawn.Set(0)
}

// RecordClaimExpired counts an expired claim
func (m *Manager) RecordClaimExpired() {
	if m == nil {
		return
	}
	m.claimsExpired.Inc()
	m.activeSpawn.Set(0)
}

// BattleStarted tracks a newly running battle
func (m *Manager) BattleStarted() {
	if m == nil {
		return
	}
	m.activeBattles.Inc()
}

// BattleEnded counts a finished battle by outcome
func (m *Manager) BattleEnded(outcome string) {
	if m == nil {
		return
	}
	m.activeBattles.Dec()
	m.battles.WithLabelValues(outcome).Inc()
}

// RecordCommand counts a command and observes its latency
func (m *Manager) RecordCommand(command, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(command, result).Inc()
	m.commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// RecordStorageError counts a persistence failure
func (m *Manager) RecordStorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrors.WithLabelValues(op).Inc()
}

// RecordHTTPRequest counts a request and observes its latency
func (m *Manager) RecordHTTPRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}
