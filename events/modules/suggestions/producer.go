// Package suggestions handles Kafka event production for suggestion
// lifecycle events.
package suggestions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Producer handles sending suggestion lifecycle events to Kafka
type Producer struct {
	Writer *kafka.Writer
}

// NewProducer initializes a new Kafka writer for suggestion events
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishCreated sends a suggestion.created event to the Kafka topic
func (p *Producer) PublishCreated(ctx context.Context, suggestionKey, cveID string) error {
	return p.publish(ctx, EventTypeCreated, suggestionKey, cveID)
}

// PublishEditsChanged sends a suggestion.edits.changed event to the Kafka topic
func (p *Producer) PublishEditsChanged(ctx context.Context, suggestionKey, cveID string) error {
	return p.publish(ctx, EventTypeEditsChanged, suggestionKey, cveID)
}

func (p *Producer) publish(ctx context.Context, eventType, suggestionKey, cveID string) error {
	event := Event{
		EventType:     eventType,
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		SuggestionKey: suggestionKey,
		CveID:         cveID,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(suggestionKey),
		Value: payload,
	})
}

// Close cleans up the Kafka writer
func (p *Producer) Close() error {
	return p.Writer.Close()
}
