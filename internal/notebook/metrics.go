package notebook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notegraph_scans_total",
		Help: "Full scans by result (applied, superseded, failed)",
	}, []string{"result"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "notegraph_scan_duration_seconds",
		Help:    "Duration of applied full scans",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notegraph_actions_total",
		Help: "Dispatched actions by name and result",
	}, []string{"action", "result"})

	eventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notegraph_events_dropped_total",
		Help: "Layout events dropped because a subscriber was not keeping up",
	})
)
