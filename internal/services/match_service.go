// Package services provides internal service implementations for the
// security tracker backend.
package services

import (
	"context"
	"log"

	"github.com/tweag/nix-security-tracker/events/modules/cve"
	"github.com/tweag/nix-security-tracker/internal/matcher"
)

// SuggestionEventPublisher publishes suggestion lifecycle events.
type SuggestionEventPublisher interface {
	PublishCreated(ctx context.Context, suggestionKey, cveID string) error
	PublishEditsChanged(ctx context.Context, suggestionKey, cveID string) error
}

// MatchServiceWrapper implements cve.MatchService
type MatchServiceWrapper struct {
	Store     *TrackerStore
	Matcher   *matcher.Matcher
	Publisher SuggestionEventPublisher
}

// MatchRecord runs the candidate matcher for an ingested CVE record and,
// when a suggestion was created, publishes the suggestion.created event
// that triggers the cache rebuild.
func (w *MatchServiceWrapper) MatchRecord(ctx context.Context, cveKey string) error {
	record, err := w.Store.CveRecord(ctx, cveKey)
	if err != nil {
		return err
	}

	result, err := w.Matcher.Match(ctx, record)
	if err != nil {
		return err
	}
	if result.Outcome != matcher.OutcomeCreated {
		return nil
	}

	log.Printf("Worker: Suggestion %s created for %s with %d candidates",
		result.Suggestion.Key, record.CveID, result.Candidates)

	return w.Publisher.PublishCreated(ctx, result.Suggestion.Key, record.CveID)
}

// Ensure compile-time interface check
var _ cve.MatchService = (*MatchServiceWrapper)(nil)
