package events

import (
	"encoding/json"
	"testing"

	"storefront/internal/models"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewOrderEvent(t *testing.T) {
	order := &models.Order{ID: "o1", Status: models.OrderStatusPaid, TotalAmount: 21.6, Currency: "USD"}
	event := NewOrderEvent(TypeForStatus(order.Status), order)

	assert.Equal(t, OrderPaid, event.Type)
	assert.Equal(t, "o1", event.OrderID)
	assert.Equal(t, "PAID", event.Status)
	assert.False(t, event.OccurredAt.IsZero())

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"order.paid","orderId":"o1","status":"PAID","totalAmount":21.6,"currency":"USD","occurredAt":`+mustJSON(t, event.OccurredAt)+`}`, string(data))
}

func TestTypeForStatus(t *testing.T) {
	assert.Equal(t, OrderPaid, TypeForStatus(models.OrderStatusPaid))
	assert.Equal(t, OrderFailed, TypeForStatus(models.OrderStatusFailed))
}

func TestLogOrderEvent(t *testing.T) {
	handler := LogOrderEvent(zap.NewNop())

	body, err := json.Marshal(OrderEvent{Type: OrderCreated, OrderID: "o1"})
	require.NoError(t, err)
	assert.NoError(t, handler(amqp.Delivery{Body: body}))
	assert.Error(t, handler(amqp.Delivery{Body: []byte("nope")}))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
