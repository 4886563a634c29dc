package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coffee"

// Metrics collects auth pipeline metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	authDecisions     *prometheus.CounterVec
	jwksFetches       *prometheus.CounterVec
	jwksFetchDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_decisions_total",
			Help:      "Auth guard decisions by outcome and error code.",
		}, []string{"outcome", "code"}),
		jwksFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jwks_fetches_total",
			Help:      "JWKS fetches from the identity provider by result.",
		}, []string{"result"}),
		jwksFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "jwks_fetch_duration_seconds",
			Help:      "Latency of JWKS fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		reg.MustRegister(m.authDecisions, m.jwksFetches, m.jwksFetchDuration)
	}
	return m
}

// RecordAuthGranted counts a request that passed the guard.
func (m *Metrics) RecordAuthGranted() {
	if m == nil {
		return
	}
	m.authDecisions.WithLabelValues("granted", "").Inc()
}

// RecordAuthRejected counts a request rejected with code.
func (m *Metrics) RecordAuthRejected(code string) {
	if m == nil {
		return
	}
	m.authDecisions.WithLabelValues("rejected", code).Inc()
}

// RecordJWKSFetch counts a JWKS fetch and observes its latency.
func (m *Metrics) RecordJWKSFetch(err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.jwksFetches.WithLabelValues(result).Inc()
	m.jwksFetchDuration.Observe(duration.Seconds())
}

// AuthDecisions exposes the decision counter for tests and dashboards.
func (m *Metrics) AuthDecisions() *prometheus.CounterVec {
	return m.authDecisions
}

// JWKSFetches exposes the fetch counter.
func (m *Metrics) JWKSFetches() *prometheus.CounterVec {
	return m.jwksFetches
}
