package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	before := counterValue(t, bookingTransitions.WithLabelValues("confirm", OutcomeOK))
	IncTransition("confirm", OutcomeOK)
	assert.Equal(t, before+1, counterValue(t, bookingTransitions.WithLabelValues("confirm", OutcomeOK)))

	assert.NotPanics(t, func() {
		IncAuthzDenied("confirm_booking")
		ObserveHTTP("GET", "/api/v1/bookings", 200, 0.01)
		IncSweep("complete", OutcomeError)
	})
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", statusClass(204))
	assert.Equal(t, "3xx", statusClass(302))
	assert.Equal(t, "4xx", statusClass(409))
	assert.Equal(t, "5xx", statusClass(503))
}
