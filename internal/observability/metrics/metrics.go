package metrics

import "github.com/prometheus/client_golang/prometheus"

// UpstreamMetrics exposes counters/histograms for Clinicorp gateway traffic.
type UpstreamMetrics struct {
	attemptsTotal  *prometheus.CounterVec
	failuresTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

func NewUpstreamMetrics(reg prometheus.Registerer) *UpstreamMetrics {
	m := &UpstreamMetrics{
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalcred",
			Subsystem: "clinicorp",
			Name:      "request_attempts_total",
			Help:      "Total Clinicorp proxy request attempts",
		}, []string{"path", "outcome"}),
		failuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vitalcred",
			Subsystem: "clinicorp",
			Name:      "request_failures_total",
			Help:      "Total Clinicorp requests that exhausted their attempts",
		}, []string{"kind"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vitalcred",
			Subsystem: "clinicorp",
			Name:      "request_latency_seconds",
			Help:      "Latency of Clinicorp proxy requests, all attempts included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attemptsTotal, m.failuresTotal, m.requestLatency)
	return m
}

func (m *UpstreamMetrics) ObserveAttempt(path, outcome string) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(path, outcome).Inc()
}

func (m *UpstreamMetrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(kind).Inc()
}

func (m *UpstreamMetrics) ObserveLatency(path string, seconds float64) {
	if m == nil {
		return
	}
	m.requestLatency.WithLabelValues(path).Observe(seconds)
}
