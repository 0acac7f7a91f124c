package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IngestionDone(StatusOK, 12)
	m.IngestionDone(StatusFailed, 0)
	m.QueryDone(OutcomeAnswered, 150*time.Millisecond)
	m.QueryDone(OutcomeNoResults, time.Millisecond)
	m.GenerationFallback(FallbackQuota)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestions.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestions.WithLabelValues(StatusFailed)))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.chunksIndexed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues(OutcomeAnswered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues(FallbackQuota)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, families, 5)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IngestionDone(StatusOK, 3)
		m.QueryDone(OutcomeFailed, time.Second)
		m.GenerationFallback(FallbackGeneric)
	})
}
