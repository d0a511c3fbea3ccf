// Package cve defines types for Kafka event processing of CVE record
// ingestion events.
package cve

import "time"

// RecordIngestedEvent is published after a CVE record has been written to
// the cve collection. It carries keys only; consumers re-read the record.
type RecordIngestedEvent struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	CveKey string `json:"cve_key"`
	CveID  string `json:"cve_id"`
}

// EventTypeRecordIngested is the event_type discriminator for
// RecordIngestedEvent.
const EventTypeRecordIngested = "cve.record.ingested"
