package session

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the auth-core Prometheus collectors. It is an owned object
// registered against the app's registry, not a package-level singleton, so
// tests and multi-instance wiring stay clean.
type Metrics struct {
	issued      prometheus.Counter
	rotations   prometheus.Counter
	reuse       prometheus.Counter
	revocations *prometheus.CounterVec
}

// NewMetrics creates and registers the auth-core collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atrium_auth_sessions_issued_total",
			Help: "Sessions created by login or other first-issue paths.",
		}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atrium_auth_rotations_total",
			Help: "Successful refresh-token rotations.",
		}),
		reuse: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "atrium_auth_reuse_detected_total",
			Help: "Refresh-token reuse incidents (cascade revocations).",
		}),
		revocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "atrium_auth_revocations_total",
			Help: "Explicit revocations by scope.",
		}, []string{"scope"}),
	}

	if reg != nil {
		reg.MustRegister(m.issued, m.rotations, m.reuse, m.revocations)
	}
	return m
}

// Nil-receiver guards let the service run without metrics in tests.

func (m *Metrics) sessionIssued() {
	if m != nil {
		m.issued.Inc()
	}
}

func (m *Metrics) rotated() {
	if m != nil {
		m.rotations.Inc()
	}
}

func (m *Metrics) reuseDetected() {
	if m != nil {
		m.reuse.Inc()
	}
}

func (m *Metrics) revoked(scope string) {
	if m != nil {
		m.revocations.WithLabelValues(scope).Inc()
	}
}
