package edges

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// synthesisReads counts content reads by result.
	synthesisReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notegraph_synthesis_reads_total",
		Help: "Content reads performed during edge synthesis by result",
	}, []string{"result"})

	synthesisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notegraph_synthesis_duration_seconds",
		Help:    "Edge synthesis pass duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	synthesisEdges = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notegraph_synthesis_edges",
		Help:    "Edges produced per synthesis pass",
		Buckets: []float64{0, 1, 10, 100, 1000, 10000},
	})
)
