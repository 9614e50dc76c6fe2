// Package metrics holds the delivery counters exposed on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var Registry = prometheus.NewRegistry()

var (
	NotificationsPresented = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yuhblockin",
			Name:      "notifications_presented_total",
			Help:      "Notifications handed to the platform, by delivery surface",
		},
		[]string{"surface"},
	)

	DedupHits = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yuhblockin",
			Name:      "dedup_hits_total",
			Help:      "Alerts skipped because the surface already notified them",
		},
		[]string{"surface"},
	)

	DeliveryFailures = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yuhblockin",
			Name:      "delivery_failures_total",
			Help:      "Delivery attempts that failed and were logged",
		},
		[]string{"surface"},
	)

	PresentationFailures = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: "yuhblockin",
			Name:      "presentation_failures_total",
			Help:      "Platform notification or vibration calls that failed",
		},
	)

	StreamReconnects = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yuhblockin",
			Name:      "stream_reconnects_total",
			Help:      "Realtime subscriptions re-opened after an error",
		},
		[]string{"stream"},
	)

	AlertsSent = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "yuhblockin",
			Name:      "alerts_sent_total",
			Help:      "Alert send attempts by outcome",
		},
		[]string{"outcome"},
	)
)

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
