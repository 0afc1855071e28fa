package events

import (
	"context"

	"storefront/pkg/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes order events to a topic keyed by order id.
type KafkaPublisher struct {
	writer *kafkago.Writer
}

func NewKafkaPublisher(client *kafka.Client, topic string) (*KafkaPublisher, error) {
	writer, err := client.NewWriter(topic)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{writer: writer}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	return kafka.PublishJSON(ctx, p.writer, event.OrderID, event)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
