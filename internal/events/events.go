// Package events publishes order lifecycle notifications to a message broker.
package events

import (
	"context"
	"time"

	"storefront/internal/models"
)

// Event types emitted by the order lifecycle.
const (
	OrderCreated = "order.created"
	OrderPaid    = "order.paid"
	OrderFailed  = "order.failed"
)

// OrderEvent is the broker payload for an order lifecycle change.
type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"orderId"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"totalAmount"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// NewOrderEvent snapshots order under the given event type.
func NewOrderEvent(eventType string, order *models.Order) OrderEvent {
	return OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		Status:      order.Status.String(),
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		OccurredAt:  time.Now().UTC(),
	}
}

// TypeForStatus returns the event type announcing a terminal status.
func TypeForStatus(status models.OrderStatus) string {
	if status == models.OrderStatusPaid {
		return OrderPaid
	}
	return OrderFailed
}

// Publisher delivers order events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
