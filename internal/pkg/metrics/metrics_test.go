//go:build unit

package metrics_test

import (
	"strings"
	"testing"

	"villa-booking/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New()

	m.ObserveReservation(metrics.ResultCreated)
	m.ObserveReservation(metrics.ResultCreated)
	m.ObserveReservation(metrics.ResultConflict)
	m.ObserveTransition("confirmed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Reservations.WithLabelValues(metrics.ResultCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reservations.WithLabelValues(metrics.ResultConflict)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("confirmed")))

	expected := `
# HELP booking_reservations_total Reservation attempts by result.
# TYPE booking_reservations_total counter
booking_reservations_total{result="conflict"} 1
booking_reservations_total{result="created"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "booking_reservations_total"))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := metrics.New(), metrics.New()
	a.ObserveReservation(metrics.ResultCreated)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.Reservations.WithLabelValues(metrics.ResultCreated)))
}
