package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exported by the editor.
type Metrics struct {
	registry *prometheus.Registry

	StoreRequests *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
	Mutations     *prometheus.CounterVec
	Nodes         prometheus.Gauge
	Connections   prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		StoreRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowcanvas_store_requests_total",
				Help: "Total number of remote store requests",
			},
			[]string{"op", "outcome"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flowcanvas_store_request_duration_seconds",
				Help:    "Duration of remote store requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowcanvas_graph_mutations_total",
				Help: "Total number of graph mutations applied locally",
			},
			[]string{"event"},
		),
		Nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowcanvas_graph_nodes",
			Help: "Number of nodes in the edited graph",
		}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowcanvas_graph_connections",
			Help: "Number of connections in the edited graph",
		}),
	}
	m.registry.MustRegister(m.StoreRequests, m.StoreDuration, m.Mutations, m.Nodes, m.Connections)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one store call. A nil receiver is a no-op.
func (m *Metrics) ObserveRequest(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StoreRequests.WithLabelValues(op, outcome).Inc()
	m.StoreDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// Hooks returns lifecycle hooks feeding the mutation counters and graph gauges.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	count := func(_ context.Context, e *domain.NodeEvent) {
		m.Mutations.WithLabelValues(string(e.Type)).Inc()
	}
	return domain.LifecycleHooks{
		OnNodeCreated:   count,
		OnNodeConverted: count,
		OnNodeUpdated:   count,
		OnNodeDeleted:   count,
		OnGraphChanged: func(_ context.Context, e *domain.GraphEvent) {
			m.Mutations.WithLabelValues(string(e.Type)).Inc()
			m.Nodes.Set(float64(e.Nodes))
			m.Connections.Set(float64(e.Connections))
		},
	}
}
