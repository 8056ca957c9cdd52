package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// RequestsTotal counts relay requests by outcome.
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geminiproxy",
		Subsystem: "relay",
		Name:      "requests_total",
		Help:      "Total number of /api/gemini requests handled by the relay, labeled by result.",
	}, []string{"result"})

	// UpstreamDurationSeconds is the time spent waiting on the upstream call.
	UpstreamDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geminiproxy",
		Subsystem: "relay",
		Name:      "upstream_duration_seconds",
		Help:      "Time spent in the generateContent call, labeled by result.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"result"})

	// UpstreamResponsesTotal counts upstream HTTP responses by status code.
	UpstreamResponsesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geminiproxy",
		Subsystem: "relay",
		Name:      "upstream_responses_total",
		Help:      "Total number of generateContent responses, labeled by HTTP status code.",
	}, []string{"code"})
)

// Register registers relay metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			UpstreamDurationSeconds,
			UpstreamResponsesTotal,
		)
	})
}
