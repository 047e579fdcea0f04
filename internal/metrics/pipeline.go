package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline metrics: retrieval, decisions, index lifecycle, evaluation.
var (
	RetrievalDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Retrieval (embed + search) duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Classification decisions by outcome",
		},
		[]string{"outcome"},
	)

	IndexDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_documents",
			Help:      "Number of documents in the serving index",
		},
	)

	IndexReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_reloads_total",
			Help:      "Index reload attempts",
		},
		[]string{"status"},
	)

	EvalRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eval_rows_total",
			Help:      "Evaluated dataset rows by outcome",
		},
		[]string{"outcome"},
	)
)

var pipelineOnce sync.Once

// RegisterPipelineMetrics registers pipeline metrics on the default registry.
func RegisterPipelineMetrics() {
	pipelineOnce.Do(func() {
		prometheus.MustRegister(
			RetrievalDuration,
			DecisionsTotal,
			IndexDocuments,
			IndexReloadsTotal,
			EvalRowsTotal,
		)
	})
}

// RegisterAll registers every collector of the package.
func RegisterAll() {
	RegisterEmbeddingMetrics()
	RegisterGenerationMetrics()
	RegisterPipelineMetrics()
}
