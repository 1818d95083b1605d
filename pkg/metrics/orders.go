package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records checkout and fulfilment activity.
type OrderMetrics struct {
	placed            prometheus.Counter
	checkoutFailures  *prometheus.CounterVec
	checkoutDuration  prometheus.Histogram
	statusUpdates     *prometheus.CounterVec
	cartClearFailures prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders created from a cart.",
	})
	checkoutFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_checkout_failures_total",
		Help: "Checkout attempts rejected or failed, by error code.",
	}, []string{"code"})
	checkoutDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "orders_checkout_duration_seconds",
		Help:    "Duration of order placement in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	statusUpdates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_status_updates_total",
		Help: "Order status changes, by new status.",
	}, []string{"status"})
	cartClearFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_cart_clear_failures_total",
		Help: "Orders persisted whose source cart could not be emptied.",
	})
	reg.MustRegister(placed, checkoutFailures, checkoutDuration, statusUpdates, cartClearFailures)
	return &OrderMetrics{
		placed:            placed,
		checkoutFailures:  checkoutFailures,
		checkoutDuration:  checkoutDuration,
		statusUpdates:     statusUpdates,
		cartClearFailures: cartClearFailures,
	}
}

// ObserveCheckout records one checkout attempt. code is empty on success.
func (m *OrderMetrics) ObserveCheckout(code string, duration time.Duration) {
	if m == nil || m.placed == nil {
		return
	}
	m.checkoutDuration.Observe(duration.Seconds())
	if code == "" {
		m.placed.Inc()
		return
	}
	m.checkoutFailures.WithLabelValues(normalizeLabel(code)).Inc()
}

// IncStatusUpdate counts a status change.
func (m *OrderMetrics) IncStatusUpdate(status string) {
	if m == nil || m.statusUpdates == nil {
		return
	}
	m.statusUpdates.WithLabelValues(statusLabel(status)).Inc()
}

// IncCartClearFailure counts an order whose cart was left behind.
func (m *OrderMetrics) IncCartClearFailure() {
	if m == nil || m.cartClearFailures == nil {
		return
	}
	m.cartClearFailures.Inc()
}

var knownStatusLabels = map[string]struct{}{
	"Pending":   {},
	"Shipped":   {},
	"Delivered": {},
	"Cancelled": {},
}

// statusLabel folds free-form statuses into "other" to bound cardinality.
func statusLabel(status string) string {
	if _, ok := knownStatusLabels[status]; ok {
		return status
	}
	return "other"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
