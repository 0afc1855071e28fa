package events

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront/pkg/rabbitmq"

	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// RabbitMQPublisher sends order events to the RabbitMQ order queue.
type RabbitMQPublisher struct {
	client *rabbitmq.Client
}

func NewRabbitMQPublisher(client *rabbitmq.Client) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event OrderEvent) error {
	return p.client.PublishJSON(ctx, event.Type, event)
}

func (p *RabbitMQPublisher) Close() error {
	return p.client.Close()
}

// LogOrderEvent returns a consumer handler that decodes order events and logs them.
func LogOrderEvent(logger *zap.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event OrderEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("failed to decode order event: %w", err)
		}
		logger.Info("order event received",
			zap.String("type", event.Type),
			zap.String("order_id", event.OrderID),
			zap.String("status", event.Status),
			zap.Float64("total_amount", event.TotalAmount))
		return nil
	}
}
