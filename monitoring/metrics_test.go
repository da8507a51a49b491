package monitoring

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricNamingConvention(t *testing.T) {
	for _, c := range Collectors() {
		ch := make(chan *prometheus.Desc, 10)
		c.Describe(ch)
		close(ch)

		for desc := range ch {
			assert.Contains(t, desc.String(), `fqName: "repairshop_`)
			assert.False(t, strings.Contains(desc.String(), `help: ""`), "metric %s has empty help", desc)
		}
	}
}

func TestRecordTransition(t *testing.T) {
	t.Cleanup(func() { transitionsTotal.Reset() })

	RecordTransition("submitted", "assigned", nil)
	RecordTransition("submitted", "assigned", nil)
	RecordTransition("repairing", "completed", errors.New("invalid"))

	assert.Equal(t, 2.0, testutil.ToFloat64(transitionsTotal.WithLabelValues("submitted", "assigned", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(transitionsTotal.WithLabelValues("repairing", "completed", "error")))
}

func TestRecordEventPublished(t *testing.T) {
	t.Cleanup(func() { eventsPublishedTotal.Reset() })

	RecordEventPublished("events", nil)
	RecordEventPublished("notifications", errors.New("throttled"))

	assert.Equal(t, 1.0, testutil.ToFloat64(eventsPublishedTotal.WithLabelValues("events", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(eventsPublishedTotal.WithLabelValues("notifications", "error")))
}

func TestRecordChatMessage(t *testing.T) {
	t.Cleanup(func() { chatMessagesTotal.Reset() })

	RecordChatMessage(nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(chatMessagesTotal.WithLabelValues("success")))
}

func TestChatSubscriberGauge(t *testing.T) {
	before := testutil.ToFloat64(chatSubscribers)

	ChatSubscriberAdded()
	ChatSubscriberAdded()
	ChatSubscriberRemoved()

	assert.Equal(t, before+1, testutil.ToFloat64(chatSubscribers))
	ChatSubscriberRemoved()
}

func TestRecordHTTPRequest(t *testing.T) {
	t.Cleanup(func() { httpRequestDuration.Reset() })

	RecordHTTPRequest("GET", "/api/v1/health", 200, 15*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(httpRequestDuration))
}
