package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsRegistered(t *testing.T) {
	EventsApplied.WithLabelValues("test-chain", "appic").Add(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(EventsApplied.WithLabelValues("test-chain", "appic")))

	LastScrapedEvent.WithLabelValues("test-chain", "appic").Set(249)
	assert.Equal(t, float64(249), testutil.ToFloat64(LastScrapedEvent.WithLabelValues("test-chain", "appic")))

	assert.Equal(t, 1, testutil.CollectAndCount(SweptRecords.WithLabelValues("inbound")))
}
