package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repairshop_transitions_total",
			Help: "Total number of repair request status transitions attempted.",
		},
		[]string{"from", "to", "result"},
	)

	requestsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "repairshop_requests_created_total",
			Help: "Total number of repair requests submitted.",
		},
	)

	chatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repairshop_chat_messages_total",
			Help: "Total number of chat messages sent.",
		},
		[]string{"result"},
	)

	eventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repairshop_events_published_total",
			Help: "Total number of events handed to an outbound sink.",
		},
		[]string{"sink", "result"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repairshop_http_request_duration_seconds",
			Help:    "Latency of HTTP request handling in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	chatSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "repairshop_chat_subscribers",
			Help: "Number of open chat stream subscriptions.",
		},
	)
)

func init() {
	prometheus.MustRegister(Collectors()...)
}

// Collectors returns all metric collectors owned by this package
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		transitionsTotal,
		requestsCreatedTotal,
		chatMessagesTotal,
		eventsPublishedTotal,
		httpRequestDuration,
		chatSubscribers,
	}
}
