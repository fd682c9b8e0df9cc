package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fluxterm/fluxterm/pkg/evidence"
)

var (
	epochsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fluxterm_ivm_epochs_total",
		Help: "Number of propagation epochs processed.",
	})

	viewsRecomputedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fluxterm_ivm_views_recomputed_total",
		Help: "Number of views that fell back to full recomputation.",
	})

	deltaEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fluxterm_ivm_delta_entries_total",
		Help: "Total delta entries ingested across all views.",
	})

	propagationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fluxterm_ivm_propagation_duration_seconds",
		Help:    "Wall-clock duration of one propagation epoch.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
	})

	deltaRatio = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fluxterm_ivm_delta_ratio",
		Help:    "Per-epoch delta size over materialized size. Below 1 means incremental maintenance won.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
)

func observeEpoch(ev *evidence.Epoch) {
	epochsTotal.Inc()
	viewsRecomputedTotal.Add(float64(ev.ViewsRecomputed))
	deltaEntriesTotal.Add(float64(ev.TotalDeltaSize))
	propagationDuration.Observe(ev.Duration.Seconds())
	deltaRatio.Observe(ev.DeltaRatio())
}
