package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process metrics. Construct one per process (or per test)
// with its own registry so isolated instances never collide.
type Metrics struct {
	RebuildsTotal        *prometheus.CounterVec
	RebuildDuration      prometheus.Histogram
	RebuildAssetsSkipped prometheus.Counter
	SnapshotAssets       prometheus.Gauge
	TierFirings          *prometheus.CounterVec
	TierBatchSize        *prometheus.HistogramVec
	QuoteFetchErrors     *prometheus.CounterVec
}

// New registers and returns the metric set on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RebuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketdata_rebuilds_total",
			Help: "Daily series rebuilds by outcome (ok, error).",
		}, []string{"outcome"}),
		RebuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "marketdata_rebuild_duration_seconds",
			Help:    "Wall time of one full daily series rebuild.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		RebuildAssetsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "marketdata_rebuild_assets_skipped_total",
			Help: "Assets omitted from a rebuild due to fetch failures.",
		}),
		SnapshotAssets: factory.NewGauge(prometheus.GaugeOpts{
			Name: "marketdata_snapshot_assets",
			Help: "Assets covered by the currently published daily series.",
		}),
		TierFirings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketdata_tier_firings_total",
			Help: "Refresh tier firings by tier and outcome.",
		}, []string{"tier", "outcome"}),
		TierBatchSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketdata_tier_batch_size",
			Help:    "Assets per refresh batch, by tier.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}, []string{"tier"}),
		QuoteFetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "marketdata_quote_fetch_errors_total",
			Help: "Batch quote fetch failures by tier.",
		}, []string{"tier"}),
	}
}
