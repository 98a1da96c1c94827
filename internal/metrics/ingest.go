package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics.
var (
	IngestDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbindex",
			Name:      "ingest_documents_total",
			Help:      "Total number of documents processed by batch ingestion",
		},
		[]string{"status"}, // "ok" / "error"
	)

	IngestChunksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kbindex",
			Name:      "ingest_chunks_total",
			Help:      "Total number of chunk records written",
		},
	)

	IngestBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kbindex",
			Name:      "ingest_batch_duration_seconds",
			Help:      "Batch ingestion duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestDocumentsTotal)
	prometheus.MustRegister(IngestChunksTotal)
	prometheus.MustRegister(IngestBatchDuration)
	ingestMetricsRegistered = true
}
