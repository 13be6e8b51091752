package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		reconcilesTotal,
		ordersTotal,
		revenueCentsTotal,
		provisioningSeconds,
	)
}

var (
	reconcilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_reconciles_total",
			Help: "Payment-success reconciliations by terminal state (complete/degraded-complete/error).",
		},
		[]string{"state"},
	)

	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Orders persisted, labeled by payment provider and order status.",
		},
		[]string{"provider", "status"},
	)

	revenueCentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_revenue_cents_total",
			Help: "Total monetary value of completed orders in cents, labeled by currency.",
		},
		[]string{"currency"},
	)

	provisioningSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "esim_provisioning_seconds",
			Help:    "Wall time from create-order to terminal provisioning status.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 30, 45, 60},
		},
		[]string{"provider"},
	)
)

func IncReconcile(state string) {
	reconcilesTotal.WithLabelValues(norm(state)).Inc()
}

func IncOrder(provider, status string) {
	ordersTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func AddRevenue(currency string, amountCents int64) {
	revenueCentsTotal.WithLabelValues(norm(currency)).Add(float64(amountCents))
}

func ObserveProvisioning(name string, d time.Duration) {
	provisioningSeconds.WithLabelValues(norm(name)).Observe(d.Seconds())
}
