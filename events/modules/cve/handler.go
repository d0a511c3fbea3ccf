// Package cve handles Kafka event processing for CVE record ingestion
// events.
package cve

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// MatchService defines the interface for candidate matching operations.
type MatchService interface {
	MatchRecord(ctx context.Context, cveKey string) error
}

// HandleRecordIngestedWithService processes CVE record ingestion events
// from Kafka by running the candidate matcher for the record.
func HandleRecordIngestedWithService(ctx context.Context, msg []byte, service MatchService) error {
	var event RecordIngestedEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("failed to unmarshal RecordIngestedEvent: %w", err)
	}

	if event.CveKey == "" {
		return fmt.Errorf("invalid event: missing cve_key")
	}

	log.Printf("Processing ingested CVE record %s (%s)", event.CveID, event.CveKey)

	if err := service.MatchRecord(ctx, event.CveKey); err != nil {
		return fmt.Errorf("internal service error: %w", err)
	}

	log.Printf("Finished candidate matching for %s", event.CveID)
	return nil
}
