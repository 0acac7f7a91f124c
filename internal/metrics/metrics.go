package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"

	OutcomeAnswered  = "answered"
	OutcomeNoResults = "no_results"
	OutcomeFailed    = "failed"

	FallbackQuota   = "quota"
	FallbackGeneric = "generic"
)

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	ingestions    *prometheus.CounterVec
	chunksIndexed prometheus.Counter
	queries       *prometheus.CounterVec
	queryDuration prometheus.Histogram
	fallbacks     *prometheus.CounterVec
}

// New registers the pipeline collectors on reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ingestions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_ingestions_total",
				Help: "Documents ingested, by status",
			},
			[]string{"status"},
		),
		chunksIndexed: factory.NewCounter(prometheus.CounterOpts{
			Name: "rag_chunks_indexed_total",
			Help: "Chunks embedded and written to the vector store",
		}),
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_queries_total",
				Help: "Queries answered, by outcome",
			},
			[]string{"outcome"},
		),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rag_query_duration_seconds",
			Help:    "End-to-end query latency",
			Buckets: prometheus.DefBuckets,
		}),
		fallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rag_generation_fallbacks_total",
				Help: "Generation failures replaced by a fallback answer, by kind",
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) IngestionDone(status string, chunks int) {
	if m == nil {
		return
	}
	m.ingestions.WithLabelValues(status).Inc()
	if chunks > 0 {
		m.chunksIndexed.Add(float64(chunks))
	}
}

func (m *Metrics) QueryDone(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(outcome).Inc()
	m.queryDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) GenerationFallback(kind string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(kind).Inc()
}
