// Package metrics exposes Prometheus counters for list activity and HTTP
// traffic. Each Metrics value owns its registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shoplist"

// Metrics implements core.Observer.
type Metrics struct {
	registry *prometheus.Registry

	mutations      *prometheus.CounterVec
	persistFails   *prometheus.CounterVec
	catalogImports prometheus.Counter
	catalogSize    prometheus.Gauge
	textEntries    *prometheus.CounterVec
	sessions       prometheus.Gauge

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "List mutations by operation and whether they changed anything",
			},
			[]string{"op", "applied"},
		),
		persistFails: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_failures_total",
				Help:      "Failed writes to the snapshot store",
			},
			[]string{"kind"},
		),
		catalogImports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_imports_total",
			Help:      "Successful catalog imports",
		}),
		catalogSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_products",
			Help:      "Products in the most recently imported catalog",
		}),
		textEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "text_import_entries_total",
				Help:      "Entries read from text snapshots, by result",
			},
			[]string{"result"},
		),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_open",
			Help:      "Lists currently cached in memory",
		}),
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.registry.MustRegister(
		m.mutations,
		m.persistFails,
		m.catalogImports,
		m.catalogSize,
		m.textEntries,
		m.sessions,
		m.requestCounter,
		m.requestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) MutationApplied(op string, applied bool) {
	m.mutations.WithLabelValues(op, strconv.FormatBool(applied)).Inc()
}

func (m *Metrics) PersistFailed(key string) {
	m.persistFails.WithLabelValues(keyKind(key)).Inc()
}

func (m *Metrics) CatalogImported(products int) {
	m.catalogImports.Inc()
	m.catalogSize.Set(float64(products))
}

func (m *Metrics) TextImported(found, updated int) {
	m.textEntries.WithLabelValues("updated").Add(float64(updated))
	m.textEntries.WithLabelValues("unmatched").Add(float64(found - updated))
}

func (m *Metrics) SessionsOpen(n int) {
	m.sessions.Set(float64(n))
}

// ObserveRequest records one HTTP request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// keyKind collapses storage keys into a label with a fixed set of values.
func keyKind(key string) string {
	switch key {
	case "master_products_list":
		return "master"
	case "registered_users":
		return "users"
	default:
		return "list"
	}
}
