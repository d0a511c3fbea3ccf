// Package suggestions defines types for Kafka event processing of
// suggestion lifecycle events.
package suggestions

import "time"

// Event is the shared shape of suggestion lifecycle events. EventType
// distinguishes a freshly created suggestion, which needs a full cache
// rebuild, from an edit-log change, which only needs a cache patch.
type Event struct {
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EventTime     time.Time `json:"event_time"`
	SchemaVersion string    `json:"schema_version"`

	SuggestionKey string `json:"suggestion_key"`
	CveID         string `json:"cve_id"`
}

// Event type discriminators.
const (
	EventTypeCreated      = "suggestion.created"
	EventTypeEditsChanged = "suggestion.edits.changed"
)
