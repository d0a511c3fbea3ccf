package suggest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/tweag/nix-security-tracker/model"
	"github.com/tweag/nix-security-tracker/util"
)

// ErrRevConflict is returned by Store.PatchCachedSuggestion when the cached
// document changed underneath the patch. ApplyEdits re-reads and retries.
var ErrRevConflict = errors.New("cached suggestion revision conflict")

// Store is the relational surface the aggregator reads and writes.
type Store interface {
	Suggestion(ctx context.Context, key string) (*model.Suggestion, error)
	CveRecord(ctx context.Context, key string) (*model.CveRecord, error)

	// LinkedDerivations resolves every derivation linked to a suggestion
	// together with its owning evaluation.
	LinkedDerivations(ctx context.Context, suggestionKey string) ([]ResolvedDerivation, error)

	PackageEdits(ctx context.Context, suggestionKey string) ([]model.PackageEdit, error)
	MaintainersEdits(ctx context.Context, suggestionKey string) ([]model.MaintainersEdit, error)

	// CachedSuggestion returns the cached document with its revision, or
	// nil when none exists yet.
	CachedSuggestion(ctx context.Context, suggestionKey string) (*model.CachedSuggestion, error)

	// ReplaceCachedSuggestion upserts the whole document, ignoring
	// revisions (full rebuild semantics). Reports whether the document was
	// created rather than updated.
	ReplaceCachedSuggestion(ctx context.Context, cached *model.CachedSuggestion) (bool, error)

	// PatchCachedSuggestion replaces the document only when its revision
	// still matches cached.Rev, returning ErrRevConflict otherwise.
	PatchCachedSuggestion(ctx context.Context, cached *model.CachedSuggestion) error
}

// Aggregator recomputes cached suggestion summaries.
type Aggregator struct {
	store          Store
	channels       *util.ChannelClassifier
	repoURL        string
	maxDerivations int
	logger         *zap.Logger
}

// New creates an Aggregator. maxDerivations mirrors the matcher's candidate
// ceiling: oversized suggestions are never cached.
func New(store Store, channels *util.ChannelClassifier, repoURL string, maxDerivations int, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		store:          store,
		channels:       channels,
		repoURL:        repoURL,
		maxDerivations: maxDerivations,
		logger:         logger,
	}
}

// Rebuild recomputes the full cached summary of a suggestion from the
// snapshot graph and persists it with replace semantics. Re-running for the
// same suggestion state produces the same document, so duplicate event
// delivery is harmless. A record without any usable package name, or a
// suggestion with an oversized derivation set, is skipped entirely: no
// partial document is ever persisted, and no error reaches the caller.
func (a *Aggregator) Rebuild(ctx context.Context, suggestionKey string) (*model.CachedSuggestion, error) {
	log := a.logger.Sugar()

	suggestion, err := a.store.Suggestion(ctx, suggestionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load suggestion %s: %w", suggestionKey, err)
	}

	record, err := a.store.CveRecord(ctx, suggestion.CveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load CVE record for suggestion %s: %w", suggestionKey, err)
	}

	if len(record.PackageNames()) == 0 {
		log.Warnf("CVE '%s' carries no package name, skipping suggestion cache", record.CveID)
		return nil, nil
	}

	derivations, err := a.store.LinkedDerivations(ctx, suggestionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load derivations for suggestion %s: %w", suggestionKey, err)
	}
	if len(derivations) > a.maxDerivations {
		log.Warnf("Suggestion for '%s' links %d derivations, above the cache ceiling of %d, skipping",
			record.CveID, len(derivations), a.maxDerivations)
		return nil, nil
	}

	packageEdits, err := a.store.PackageEdits(ctx, suggestionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load package edits for suggestion %s: %w", suggestionKey, err)
	}
	maintainersEdits, err := a.store.MaintainersEdits(ctx, suggestionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load maintainers edits for suggestion %s: %w", suggestionKey, err)
	}

	original := ChannelStructure(record.AllVersionConstraints(), derivations, a.channels, a.repoURL)
	active := ApplyPackageEdits(original, packageEdits)

	payload := model.SuggestionPayload{
		CveID:            record.CveID,
		Title:            record.Title,
		Description:      record.Description,
		AffectedProducts: affectedProducts(record),
		OriginalPackages: original,
		Packages:         active,
		Metrics:          record.Metrics,
		Maintainers:      MaintainersList(active, maintainersEdits),
	}

	cached := model.NewCachedSuggestion(suggestionKey, payload)
	created, err := a.store.ReplaceCachedSuggestion(ctx, cached)
	if err != nil {
		return nil, fmt.Errorf("failed to persist cached suggestion %s: %w", suggestionKey, err)
	}
	if created {
		log.Infof("CVE '%s' suggestion cached for the first time", record.CveID)
	} else {
		log.Infof("CVE '%s' suggestion cache updated", record.CveID)
	}
	return cached, nil
}

// ApplyEdits patches the existing cached summary after an edit-log change:
// the active package set and the maintainer list are re-derived from the
// cached original payload without re-querying the package graph. The write
// is a compare-and-swap on the document revision, retried on conflict so a
// second writer never silently clobbers a concurrent edit.
func (a *Aggregator) ApplyEdits(ctx context.Context, suggestionKey string) (*model.CachedSuggestion, error) {
	cached, err := a.store.CachedSuggestion(ctx, suggestionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached suggestion %s: %w", suggestionKey, err)
	}
	if cached == nil {
		// Nothing cached yet: fall through to a full rebuild.
		return a.Rebuild(ctx, suggestionKey)
	}

	patch := func() error {
		packageEdits, err := a.store.PackageEdits(ctx, suggestionKey)
		if err != nil {
			return backoff.Permanent(err)
		}
		maintainersEdits, err := a.store.MaintainersEdits(ctx, suggestionKey)
		if err != nil {
			return backoff.Permanent(err)
		}

		cached.Payload.Packages = ApplyPackageEdits(cached.Payload.OriginalPackages, packageEdits)
		cached.Payload.Maintainers = MaintainersList(cached.Payload.Packages, maintainersEdits)
		cached.UpdatedAt = time.Now().UTC()

		err = a.store.PatchCachedSuggestion(ctx, cached)
		if errors.Is(err, ErrRevConflict) {
			fresh, readErr := a.store.CachedSuggestion(ctx, suggestionKey)
			if readErr != nil {
				return backoff.Permanent(readErr)
			}
			if fresh == nil {
				return backoff.Permanent(fmt.Errorf("cached suggestion %s vanished during patch", suggestionKey))
			}
			cached = fresh
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(patch, bo); err != nil {
		return nil, fmt.Errorf("failed to patch cached suggestion %s: %w", suggestionKey, err)
	}
	return cached, nil
}

// affectedProducts summarizes the feed-side affected data per package name.
func affectedProducts(record *model.CveRecord) map[string]*model.AffectedPackage {
	products := make(map[string]*model.AffectedPackage)
	for _, affected := range record.Affected {
		if affected.PackageName == "" {
			continue
		}
		entry, ok := products[affected.PackageName]
		if !ok {
			entry = &model.AffectedPackage{
				VersionConstraints: []model.ConstraintSummary{},
				CPEs:               []string{},
				Purl:               util.NixPurl(affected.PackageName, ""),
			}
			products[affected.PackageName] = entry
		}
		for _, vc := range affected.Versions {
			summary := model.ConstraintSummary{Status: vc.Status, Constraint: vc.ConstraintString()}
			if !containsConstraint(entry.VersionConstraints, summary) {
				entry.VersionConstraints = append(entry.VersionConstraints, summary)
			}
		}
		for _, cpe := range affected.CPEs {
			if !util.Contains(entry.CPEs, cpe) {
				entry.CPEs = append(entry.CPEs, cpe)
			}
		}
	}
	return products
}

func containsConstraint(list []model.ConstraintSummary, summary model.ConstraintSummary) bool {
	for _, existing := range list {
		if existing == summary {
			return true
		}
	}
	return false
}
