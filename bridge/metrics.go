package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gogpu/plotcore/store"
	"github.com/gogpu/plotcore/view"
)

var (
	recordsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plotcore_bridge_records_sent_total",
		Help: "Finalized region records published to the wire.",
	})

	recordsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plotcore_bridge_records_received_total",
		Help: "Region records read from the wire, including echoes.",
	})

	recordsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plotcore_bridge_records_applied_total",
		Help: "Incoming records accepted by the version gate.",
	})

	recordsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plotcore_bridge_records_rejected_total",
		Help: "Incoming records rejected as stale by the version gate.",
	})

	recordsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plotcore_bridge_records_dropped_total",
		Help: "Incoming records dropped because the inbox was full.",
	})

	storeEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plotcore_store_evicted_points_total",
		Help: "Points evicted from rolling stores by expiry.",
	})

	viewRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "plotcore_view_recomputes_total",
		Help: "Derived view recomputations.",
	})
)

// ObserveStore counts the store's expiry evictions in prometheus metrics.
// It returns the subscription's cancel function.
func ObserveStore(ps *store.PointStore) (cancel func()) {
	return ps.OnExpire(func(evicted int) {
		storeEvictions.Add(float64(evicted))
	})
}

// ObserveView counts the view's recomputations in prometheus metrics. It
// returns the subscription's cancel function.
func ObserveView(v *view.View) (cancel func()) {
	return v.OnRecomputed(func() {
		viewRecomputes.Inc()
	})
}
