// Package suggestions handles Kafka event processing for suggestion
// lifecycle events.
package suggestions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// AggregationService defines the interface for cached suggestion
// maintenance operations.
type AggregationService interface {
	RebuildSuggestion(ctx context.Context, suggestionKey string) error
	ApplySuggestionEdits(ctx context.Context, suggestionKey string) error
}

// HandleEventWithService processes suggestion lifecycle events from Kafka,
// dispatching on the event_type discriminator.
func HandleEventWithService(ctx context.Context, msg []byte, service AggregationService) error {
	var event Event
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("failed to unmarshal suggestion event: %w", err)
	}

	if event.SuggestionKey == "" {
		return fmt.Errorf("invalid event: missing suggestion_key")
	}

	log.Printf("Processing %s for suggestion %s (%s)", event.EventType, event.SuggestionKey, event.CveID)

	switch event.EventType {
	case EventTypeCreated:
		if err := service.RebuildSuggestion(ctx, event.SuggestionKey); err != nil {
			return fmt.Errorf("internal service error: %w", err)
		}
	case EventTypeEditsChanged:
		if err := service.ApplySuggestionEdits(ctx, event.SuggestionKey); err != nil {
			return fmt.Errorf("internal service error: %w", err)
		}
	default:
		return fmt.Errorf("unknown suggestion event type: %s", event.EventType)
	}

	log.Printf("Finished %s for suggestion %s", event.EventType, event.SuggestionKey)
	return nil
}
