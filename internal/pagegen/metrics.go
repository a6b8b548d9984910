package pagegen

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// reconcileTotal counts per-key reconciliations by key kind and action.
	reconcileTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegen_reconcile_total",
		Help: "Per-key reconciliations by key kind and resulting action",
	}, []string{"kind", "action"})

	reconcileDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pagegen_reconcile_duration_seconds",
		Help:    "Per-key reconciliation latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"kind"})

	sweepRetired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagegen_sweep_retired_total",
		Help: "Documents retired by garbage collection sweeps",
	})

	resyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegen_full_resync_total",
		Help: "Full resync attempts by result",
	}, []string{"result"})

	resyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pagegen_full_resync_duration_seconds",
		Help:    "Full resync latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	// snapshotLookups counts eligibility snapshot cache lookups by result (hit, miss, shared).
	snapshotLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagegen_snapshot_lookups_total",
		Help: "Eligibility snapshot cache lookups by result",
	}, []string{"result"})

	routeFlushes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagegen_route_flush_total",
		Help: "Route table flushes",
	})
)
