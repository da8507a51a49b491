package monitoring

import (
	"strconv"
	"time"
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordTransition counts a status transition attempt
func RecordTransition(from, to string, err error) {
	transitionsTotal.WithLabelValues(from, to, result(err)).Inc()
}

// RecordRequestCreated counts a newly submitted repair request
func RecordRequestCreated() {
	requestsCreatedTotal.Inc()
}

// RecordChatMessage counts a chat send attempt
func RecordChatMessage(err error) {
	chatMessagesTotal.WithLabelValues(result(err)).Inc()
}

// RecordEventPublished counts an event handed to sink, "events" or "notifications"
func RecordEventPublished(sink string, err error) {
	eventsPublishedTotal.WithLabelValues(sink, result(err)).Inc()
}

// RecordHTTPRequest observes the duration of a handled HTTP request
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// ChatSubscriberAdded increments the open subscription gauge
func ChatSubscriberAdded() {
	chatSubscribers.Inc()
}

// ChatSubscriberRemoved decrements the open subscription gauge
func ChatSubscriberRemoved() {
	chatSubscribers.Dec()
}
