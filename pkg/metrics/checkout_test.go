package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gatherMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func TestCheckoutMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.ObserveDuration("committed", 250*time.Millisecond)
	m.IncOrder("cash")
	m.IncOrder("cash")
	m.IncOrder("online")
	m.IncFailure("insufficient_stock")

	orders := gatherMetric(t, reg, "checkout_orders_total")
	require.NotNil(t, orders)
	require.Len(t, orders.GetMetric(), 2)

	var cash float64
	for _, metric := range orders.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "payment_method" && label.GetValue() == "cash" {
				cash = metric.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, float64(2), cash)

	failures := gatherMetric(t, reg, "checkout_failures_total")
	require.NotNil(t, failures)
	require.Equal(t, float64(1), failures.GetMetric()[0].GetCounter().GetValue())

	duration := gatherMetric(t, reg, "checkout_duration_seconds")
	require.NotNil(t, duration)
	require.Equal(t, uint64(1), duration.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestCheckoutMetricsNilSafe(t *testing.T) {
	var m *CheckoutMetrics
	m.ObserveDuration("committed", time.Second)
	m.IncOrder("cash")
	m.IncFailure("conflict")

	unregistered := NewCheckoutMetrics(nil)
	unregistered.IncOrder("cash")
	unregistered.IncFailure("conflict")
	unregistered.ObserveDuration("rolled_back", time.Second)
}

func TestNormalizeLabelFallsBackToUnknown(t *testing.T) {
	require.Equal(t, "unknown", normalizeLabel(""))
	require.Equal(t, "cash", normalizeLabel("cash"))
}
