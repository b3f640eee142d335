// Package kafka streams first-seen outages to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/outage-alert-service/internal/domain"
)

// Publisher produces one message per new outage.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

var _ domain.OutagePublisher = (*Publisher)(nil)

// NewPublisher creates a Kafka producer for topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishOutages writes the batch in a single WriteMessages call. Messages
// are keyed by content hash so every copy of an outage lands on one partition.
func (p *Publisher) PublishOutages(ctx context.Context, outages []domain.Outage) error {
	if len(outages) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(outages))
	for i := range outages {
		msg, err := serializeToMessage(outages[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d outages: %w", len(msgs), err)
	}
	p.logger.Debug("outages published", "count", len(msgs), "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an Outage into a Kafka message.
func serializeToMessage(o domain.Outage) (kafkago.Message, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize outage: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(o.ContentHash),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(domain.EventTypeOutage)},
			{Key: "resource", Value: []byte(o.Resource)},
			{Key: "detected_at", Value: []byte(o.CreatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
