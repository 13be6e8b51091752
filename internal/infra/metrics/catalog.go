package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(catalogSyncsTotal, catalogPlansSynced) }

var (
	catalogSyncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_syncs_total",
			Help: "Catalog sync runs, labeled by outcome.",
		},
		[]string{"status"}, // 'ok', 'failed'
	)

	catalogPlansSynced = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_plans_synced",
			Help: "Plans written by the most recent catalog sync.",
		},
	)
)

func IncCatalogSync(status string) {
	catalogSyncsTotal.WithLabelValues(norm(status)).Inc()
}

func SetCatalogPlansSynced(n int) {
	catalogPlansSynced.Set(float64(n))
}
