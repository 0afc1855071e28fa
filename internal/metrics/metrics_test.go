package metrics_test

import (
	"testing"
	"time"

	"storefront/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCounters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveOrder("PAID")
	m.ObserveOrder("PAID")
	m.ObserveGatewayCall("issue", "ok")
	m.ObserveRequest("/api/orders/:id", 200, 12*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Orders.WithLabelValues("PAID")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayCalls.WithLabelValues("issue", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/api/orders/:id", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObserveOrder("FAILED")
		m.ObserveGatewayCall("confirm", "error")
		m.ObserveRequest("/", 500, time.Second)
	})
}
