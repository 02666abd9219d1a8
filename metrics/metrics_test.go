package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGetIsSingleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}

func TestRecordEngagement(t *testing.T) {
	before := testutil.ToFloat64(Get().EngagementEvents.WithLabelValues(EventLike))
	RecordEngagement(EventLike)
	RecordEngagement(EventLike)
	after := testutil.ToFloat64(Get().EngagementEvents.WithLabelValues(EventLike))
	assert.Equal(t, before+2, after)
}
