// Package metrics exposes engine counters to Prometheus
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the engine
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// Simulation metrics
	Ticks prometheus.Counter
	Alpha prometheus.Gauge
	Nodes prometheus.Gauge
	Links prometheus.Gauge

	// Graph metrics
	Mutations *prometheus.CounterVec

	// Storage metrics
	StorageOperations *prometheus.CounterVec
	StorageDuration   *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// NewCollector creates a collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulation_ticks_total",
			Help:      "Total number of simulation steps",
		}),
		Alpha: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "simulation_alpha",
			Help:      "Current simulation energy",
		}),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Number of nodes in the map",
		}),
		Links: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_links",
			Help:      "Number of links in the map",
		}),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graph_mutations_total",
				Help:      "Total number of applied graph mutations",
			},
			[]string{"kind"},
		),
		StorageOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_operations_total",
				Help:      "Total number of storage operations",
			},
			[]string{"operation", "status"},
		),
		StorageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_operation_duration_seconds",
				Help:      "Storage operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registry.MustRegister(
		c.Ticks,
		c.Alpha,
		c.Nodes,
		c.Links,
		c.Mutations,
		c.StorageOperations,
		c.StorageDuration,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// Tick records one simulation step
func (c *Collector) Tick(alpha float64, nodes, links int) {
	c.Ticks.Inc()
	c.Alpha.Set(alpha)
	c.Nodes.Set(float64(nodes))
	c.Links.Set(float64(links))
}

// Mutation counts an applied graph change
func (c *Collector) Mutation(kind string) {
	c.Mutations.WithLabelValues(kind).Inc()
}

// StorageResult records a storage operation outcome
func (c *Collector) StorageResult(op string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.StorageOperations.WithLabelValues(op, status).Inc()
	c.StorageDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// HTTPRequest records a served request
func (c *Collector) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
