package kafka

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/tweag/nix-security-tracker/events/modules/cve"
	"github.com/tweag/nix-security-tracker/events/modules/suggestions"
	"github.com/tweag/nix-security-tracker/internal/services"
	"github.com/tweag/nix-security-tracker/util"
)

// Topic carries every tracker event; handlers dispatch on event_type.
const Topic = "tracker-events"

// Services bundles the event-driven workers started by the processor.
type Services struct {
	Match       *services.MatchServiceWrapper
	Aggregation *services.SuggestionServiceWrapper
}

// Brokers resolves the Kafka broker list from the environment.
func Brokers() []string {
	brokersEnv := os.Getenv("KAFKA_BROKERS")
	if brokersEnv != "" {
		return strings.Split(brokersEnv, ",")
	}
	return []string{"localhost:9092"}
}

// RunEventProcessor connects to Kafka and starts the consumer loop that
// drives candidate matching and cache maintenance.
func RunEventProcessor(ctx context.Context, svc Services) error {
	brokers := Brokers()

	// Configure SASL/PLAIN from the environment; plaintext for local
	// development when no credentials are provided.
	username := os.Getenv("KAFKA_API_KEY")
	password := os.Getenv("KAFKA_API_SECRET")

	var dialer *kafka.Dialer
	if username != "" && password != "" {
		mechanism := plain.Mechanism{
			Username: username,
			Password: password,
		}
		dialer = &kafka.Dialer{
			Timeout:       10 * time.Second,
			DualStack:     true,
			SASLMechanism: mechanism,
			TLS:           &tls.Config{},
		}
	} else {
		dialer = &kafka.Dialer{
			Timeout:   10 * time.Second,
			DualStack: true,
		}
	}

	var conn *kafka.Conn
	var err error

	// Retry logic: 3 tries
	for i := 1; i <= 3; i++ {
		log.Printf("Kafka connection attempt %d/3...", i)
		conn, err = dialer.DialContext(ctx, "tcp", brokers[0])
		if err == nil {
			conn.Close()
			break
		}
		if i < 3 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return err
	}

	readerConfig := kafka.ReaderConfig{
		Brokers:  brokers,
		GroupID:  util.GetEnvDefault("KAFKA_GROUP_ID", "sectracker-worker"),
		Topic:    Topic,
		MaxBytes: 10e6,
		Dialer:   dialer,
	}

	reader := kafka.NewReader(readerConfig)

	go func() {
		defer reader.Close()

		log.Println("Kafka Event Processor started. Listening for tracker events...")

		consume(ctx, reader, func(ctx context.Context, msg []byte) error {
			return dispatch(ctx, msg, svc)
		})
	}()

	return nil
}

// messageReader is the consumer surface of kafka.Reader.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// consume fetches messages and commits each offset only after its handler
// returned nil. A handler failure leaves the offset uncommitted so the
// group redelivers the message; handlers tolerate redelivery.
func consume(ctx context.Context, reader messageReader, handle func(context.Context, []byte) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if err := handle(ctx, msg.Value); err != nil {
				log.Printf("Event handling failed, offset not committed: %v", err)
				continue
			}
			if err := reader.CommitMessages(ctx, msg); err != nil {
				log.Printf("Offset commit failed: %v", err)
			}
		}
	}
}

// dispatch peeks at the event_type discriminator and routes the raw message
// to the matching handler.
func dispatch(ctx context.Context, msg []byte, svc Services) error {
	var envelope struct {
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal(msg, &envelope); err != nil {
		log.Printf("Skipping malformed event: %v", err)
		return nil
	}

	switch envelope.EventType {
	case cve.EventTypeRecordIngested:
		return cve.HandleRecordIngestedWithService(ctx, msg, svc.Match)
	case suggestions.EventTypeCreated, suggestions.EventTypeEditsChanged:
		return suggestions.HandleEventWithService(ctx, msg, svc.Aggregation)
	default:
		log.Printf("Skipping event with unknown type %q", envelope.EventType)
		return nil
	}
}
