package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes pipeline counters and per-stage latency histograms. One
// instance serves the whole process; job-level aggregates are collected
// separately into the transcript result.
type Metrics struct {
	ChunksProcessed *prometheus.CounterVec
	QuotesDetected  prometheus.Counter
	QuotesReplaced  prometheus.Counter
	QuotesSuggested prometheus.Counter
	Redecodes       prometheus.Counter
	ChunksDropped   prometheus.Counter
	StageLatency    *prometheus.HistogramVec
}

// NewMetrics registers the pipeline metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChunksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kathascribe_chunks_processed_total",
			Help: "Chunks fully processed, by route.",
		}, []string{"route"}),
		QuotesDetected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kathascribe_quotes_detected_total",
			Help: "Segments with at least one quote candidate.",
		}),
		QuotesReplaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kathascribe_quotes_replaced_total",
			Help: "Segments replaced with canonical scripture text.",
		}),
		QuotesSuggested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kathascribe_quotes_suggested_total",
			Help: "Segments with a quote suggestion held for review.",
		}),
		Redecodes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kathascribe_redecodes_total",
			Help: "Chunks re-decoded after low-confidence fusion.",
		}),
		ChunksDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kathascribe_live_chunks_dropped_total",
			Help: "Unstarted live chunks dropped by backpressure.",
		}),
		StageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kathascribe_stage_latency_seconds",
			Help:    "Wall time per pipeline stage per chunk.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"stage"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.ChunksProcessed, m.QuotesDetected, m.QuotesReplaced,
			m.QuotesSuggested, m.Redecodes, m.ChunksDropped, m.StageLatency,
		)
	}
	return m
}
