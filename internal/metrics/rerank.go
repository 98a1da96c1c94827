package metrics

import "github.com/prometheus/client_golang/prometheus"

// Rerank Prometheus metrics.
var (
	RerankRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbindex",
			Name:      "rerank_requests_total",
			Help:      "Total number of rerank requests",
		},
		[]string{"model", "status"},
	)

	RerankRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kbindex",
			Name:      "rerank_request_duration_seconds",
			Help:      "Rerank request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	RerankCandidatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbindex",
			Name:      "rerank_candidates_total",
			Help:      "Total number of candidates sent for reranking",
		},
		[]string{"model"},
	)
)

var rerankMetricsRegistered bool

// RegisterRerankMetrics registers Prometheus rerank metrics. Must be called once from main.
func RegisterRerankMetrics() {
	if rerankMetricsRegistered {
		return
	}
	prometheus.MustRegister(RerankRequestsTotal)
	prometheus.MustRegister(RerankRequestDuration)
	prometheus.MustRegister(RerankCandidatesTotal)
	rerankMetricsRegistered = true
}
