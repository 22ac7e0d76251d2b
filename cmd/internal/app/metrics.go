package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"atrium/cmd/internal/auth/session"
)

// Metrics bundles the app's Prometheus registry with the auth-core
// collectors registered against it.
type Metrics struct {
	Registry *prometheus.Registry
	Auth     *session.Metrics
}

// NewAppMetrics builds a private registry with runtime collectors plus the
// auth-core counters.
func NewAppMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		Registry: reg,
		Auth:     session.NewMetrics(reg),
	}
}

// Handler exposes the registry for /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
