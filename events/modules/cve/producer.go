// Package cve handles Kafka event production for CVE record ingestion
// events.
package cve

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// RecordProducer handles sending CVE record ingestion events to Kafka
type RecordProducer struct {
	Writer *kafka.Writer
}

// NewRecordProducer initializes a new Kafka writer for CVE record events
func NewRecordProducer(brokers []string, topic string) *RecordProducer {
	return &RecordProducer{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishRecordIngested sends the event to the Kafka topic
func (p *RecordProducer) PublishRecordIngested(ctx context.Context, cveKey, cveID string) error {
	event := RecordIngestedEvent{
		EventType:     EventTypeRecordIngested,
		EventID:       uuid.New().String(),
		EventTime:     time.Now().UTC(),
		SchemaVersion: "v1",
		CveKey:        cveKey,
		CveID:         cveID,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(cveID),
		Value: payload,
	})
}

// Close cleans up the Kafka writer
func (p *RecordProducer) Close() error {
	return p.Writer.Close()
}
