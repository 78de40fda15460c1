package collapse

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// operationsTotal counts collapse and expand requests by result.
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notegraph_region_operations_total",
		Help: "Collapse and expand requests by operation and result",
	}, []string{"operation", "result"})

	archivedRegions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notegraph_collapsed_regions",
		Help: "Regions currently collapsed",
	})

	derivedEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notegraph_derived_edges",
		Help: "Edges re-anchored onto collapsed regions",
	})
)
