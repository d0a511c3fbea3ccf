package services

import (
	"context"
	"fmt"
	"log"

	"github.com/tweag/nix-security-tracker/events/modules/suggestions"
	"github.com/tweag/nix-security-tracker/internal/suggest"
	"github.com/tweag/nix-security-tracker/model"
)

// SuggestionServiceWrapper implements suggestions.AggregationService
type SuggestionServiceWrapper struct {
	Aggregator *suggest.Aggregator
}

// RebuildSuggestion recomputes the full cached summary of a suggestion.
func (w *SuggestionServiceWrapper) RebuildSuggestion(ctx context.Context, suggestionKey string) error {
	log.Printf("Worker: Rebuilding cached suggestion %s", suggestionKey)
	_, err := w.Aggregator.Rebuild(ctx, suggestionKey)
	return err
}

// ApplySuggestionEdits patches the cached summary after an edit-log change.
func (w *SuggestionServiceWrapper) ApplySuggestionEdits(ctx context.Context, suggestionKey string) error {
	log.Printf("Worker: Applying edits to cached suggestion %s", suggestionKey)
	_, err := w.Aggregator.ApplyEdits(ctx, suggestionKey)
	return err
}

// Ensure compile-time interface check
var _ suggestions.AggregationService = (*SuggestionServiceWrapper)(nil)

// EditService mutates the edit log of a suggestion and keeps the cached
// summary in step. Every mutation patches the cache synchronously and then
// publishes suggestion.edits.changed so other replicas converge too.
type EditService struct {
	Store      *TrackerStore
	Aggregator *suggest.Aggregator
	Publisher  SuggestionEventPublisher
}

// NewEditService wires an EditService.
func NewEditService(store *TrackerStore, aggregator *suggest.Aggregator, publisher SuggestionEventPublisher) *EditService {
	return &EditService{Store: store, Aggregator: aggregator, Publisher: publisher}
}

// IgnorePackage records a remove edit for a package attribute. The
// attribute must be part of the pre-edit package set.
func (s *EditService) IgnorePackage(ctx context.Context, suggestionKey, attribute string) error {
	cached, err := s.Store.CachedSuggestion(ctx, suggestionKey)
	if err != nil {
		return err
	}
	if cached == nil {
		return fmt.Errorf("suggestion %s has no cached summary yet", suggestionKey)
	}
	if _, ok := cached.Payload.OriginalPackages[attribute]; !ok {
		return fmt.Errorf("package %s is not part of suggestion %s", attribute, suggestionKey)
	}

	if err := s.Store.UpsertPackageEdit(ctx, suggestionKey, attribute, model.EditRemove); err != nil {
		return err
	}
	return s.refresh(ctx, suggestionKey, cached.Payload.CveID)
}

// RestorePackage drops the remove edit of a package attribute, bringing it
// back into the active set.
func (s *EditService) RestorePackage(ctx context.Context, suggestionKey, attribute string) error {
	if err := s.Store.DeletePackageEdit(ctx, suggestionKey, attribute); err != nil {
		return err
	}
	return s.refresh(ctx, suggestionKey, "")
}

// AddMaintainer records an add edit for a maintainer not present in the
// derivation metadata.
func (s *EditService) AddMaintainer(ctx context.Context, suggestionKey string, maintainer model.Maintainer) error {
	if maintainer.GithubID == 0 {
		return fmt.Errorf("maintainer needs a github id")
	}
	if err := s.Store.UpsertMaintainersEdit(ctx, suggestionKey, maintainer, model.EditAdd); err != nil {
		return err
	}
	return s.refresh(ctx, suggestionKey, "")
}

// IgnoreMaintainer removes a maintainer from the suggestion. For a
// maintainer that was added by edit, the add edit is simply dropped; for a
// maintainer coming from derivation metadata, a remove edit is recorded.
func (s *EditService) IgnoreMaintainer(ctx context.Context, suggestionKey string, githubID int64) error {
	existing, err := s.Store.MaintainersEditFor(ctx, suggestionKey, githubID)
	if err != nil {
		return err
	}
	if existing != nil && existing.EditType == model.EditAdd {
		if err := s.Store.DeleteMaintainersEdit(ctx, suggestionKey, githubID); err != nil {
			return err
		}
	} else {
		maintainer := model.Maintainer{GithubID: githubID}
		if existing != nil {
			maintainer = existing.Maintainer
		}
		if err := s.Store.UpsertMaintainersEdit(ctx, suggestionKey, maintainer, model.EditRemove); err != nil {
			return err
		}
	}
	return s.refresh(ctx, suggestionKey, "")
}

// RestoreMaintainer drops the remove edit of a maintainer.
func (s *EditService) RestoreMaintainer(ctx context.Context, suggestionKey string, githubID int64) error {
	if err := s.Store.DeleteMaintainersEdit(ctx, suggestionKey, githubID); err != nil {
		return err
	}
	return s.refresh(ctx, suggestionKey, "")
}

func (s *EditService) refresh(ctx context.Context, suggestionKey, cveID string) error {
	cached, err := s.Aggregator.ApplyEdits(ctx, suggestionKey)
	if err != nil {
		return err
	}
	if cveID == "" && cached != nil {
		cveID = cached.Payload.CveID
	}
	if s.Publisher == nil {
		return nil
	}
	return s.Publisher.PublishEditsChanged(ctx, suggestionKey, cveID)
}
