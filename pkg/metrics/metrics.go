// Package metrics defines the Prometheus collectors of the menu sync service.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the collector set.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP read API
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Sync passes by final status
	SyncRunsTotal *prometheus.CounterVec
	// Sync pass duration
	SyncDuration prometheus.Histogram
	// Rows written by successful passes
	EntriesUpserted prometheus.Counter
	// Rows currently in the local store
	MenuEntries prometheus.Gauge
	// Outbound fetch attempts by outcome
	FetchAttemptsTotal *prometheus.CounterVec
	// Open live view subscriptions
	LiveSubscribers prometheus.Gauge
}

// New creates the collectors on a private registry. serviceName becomes the
// metric subsystem; characters Prometheus rejects are replaced with '_'.
func New(serviceName string) *Metrics {
	serviceName = subsystemName(serviceName)
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "littlelemon",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "littlelemon",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		SyncRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "littlelemon",
			Subsystem: serviceName,
			Name:      "sync_runs_total",
			Help:      "Menu sync passes by final status",
		}, []string{"status"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "littlelemon",
			Subsystem: serviceName,
			Name:      "sync_duration_seconds",
			Help:      "Menu sync pass duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		EntriesUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "littlelemon",
			Subsystem: serviceName,
			Name:      "entries_upserted_total",
			Help:      "Menu entries written by sync passes",
		}),
		MenuEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "littlelemon",
			Subsystem: serviceName,
			Name:      "menu_entries",
			Help:      "Menu entries in the local store",
		}),
		FetchAttemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "littlelemon",
			Subsystem: serviceName,
			Name:      "fetch_attempts_total",
			Help:      "Remote menu fetch attempts by outcome",
		}, []string{"outcome"}),
		LiveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "littlelemon",
			Subsystem: serviceName,
			Name:      "live_subscribers",
			Help:      "Open live view subscriptions",
		}),
	}
	return m
}

func subsystemName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// Register registers every collector plus the Go/process collectors.
func (m *Metrics) Register() error {
	cs := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SyncRunsTotal,
		m.SyncDuration,
		m.EntriesUpserted,
		m.MenuEntries,
		m.FetchAttemptsTotal,
		m.LiveSubscribers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
