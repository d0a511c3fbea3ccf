// Package services provides the ArangoDB-backed implementations of the
// matcher and aggregator store interfaces, plus the service wrappers driven
// by the event processor and the REST API.
package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/arangodb/shared"

	"github.com/tweag/nix-security-tracker/database"
	"github.com/tweag/nix-security-tracker/internal/suggest"
	"github.com/tweag/nix-security-tracker/model"
)

// TrackerStore implements matcher.DerivationSource and suggest.Store on top
// of the ArangoDB collections.
type TrackerStore struct {
	DB database.DBConnection
}

// NewTrackerStore wraps a database connection.
func NewTrackerStore(db database.DBConnection) *TrackerStore {
	return &TrackerStore{DB: db}
}

// CompletedEvaluations returns every evaluation in the completed state.
// Reference snapshot selection happens in the matcher.
func (s *TrackerStore) CompletedEvaluations(ctx context.Context) ([]model.Evaluation, error) {
	query := `
		FOR e IN evaluation
			FILTER e.state == @state
			RETURN e
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"state": string(model.EvalCompleted),
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var evaluations []model.Evaluation
	for cursor.HasMore() {
		var evaluation model.Evaluation
		if _, err := cursor.ReadDocument(ctx, &evaluation); err != nil {
			return nil, err
		}
		evaluations = append(evaluations, evaluation)
	}
	return evaluations, nil
}

// MatchDerivations returns derivations of the given evaluations whose name
// contains any of the terms, case-insensitive.
func (s *TrackerStore) MatchDerivations(ctx context.Context, evaluationKeys []string, terms []string) ([]model.Derivation, error) {
	query := `
		FOR d IN derivation
			FILTER d.evaluation_key IN @evaluations
			FILTER LENGTH(
				FOR t IN @terms
					FILTER CONTAINS(LOWER(d.name), LOWER(t))
					RETURN 1
			) > 0
			RETURN d
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"evaluations": evaluationKeys,
			"terms":       terms,
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var derivations []model.Derivation
	for cursor.HasMore() {
		var derivation model.Derivation
		if _, err := cursor.ReadDocument(ctx, &derivation); err != nil {
			return nil, err
		}
		derivations = append(derivations, derivation)
	}
	return derivations, nil
}

// SuggestionExists reports whether a suggestion exists for the CVE id.
func (s *TrackerStore) SuggestionExists(ctx context.Context, cveID string) (bool, error) {
	query := `
		FOR s IN suggestion
			FILTER s.cve_id == @cveID
			LIMIT 1
			RETURN s._key
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"cveID": cveID,
		},
	})
	if err != nil {
		return false, err
	}
	defer cursor.Close()
	return cursor.HasMore(), nil
}

// CreateSuggestion inserts the suggestion and one edge per candidate inside
// a single stream transaction. Either all rows are written or none, which
// preserves the invariant that a suggestion never has a partial link set.
func (s *TrackerStore) CreateSuggestion(ctx context.Context, suggestion *model.Suggestion, candidates map[string]model.ProvenanceFlags) error {
	tx, err := s.DB.Database.BeginTransaction(ctx, arangodb.TransactionCollections{
		Write: []string{database.ColSuggestion, database.EdgeSuggestion2Drv},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	abort := func(cause error) error {
		if abortErr := tx.Abort(ctx, nil); abortErr != nil {
			return fmt.Errorf("%w (abort failed: %v)", cause, abortErr)
		}
		return cause
	}

	suggestions, err := tx.GetCollection(ctx, database.ColSuggestion, nil)
	if err != nil {
		return abort(err)
	}
	meta, err := suggestions.CreateDocument(ctx, suggestion)
	if err != nil {
		return abort(err)
	}
	suggestion.Key = meta.Key

	edges, err := tx.GetCollection(ctx, database.EdgeSuggestion2Drv, nil)
	if err != nil {
		return abort(err)
	}
	for derivationKey, flags := range candidates {
		link := model.DerivationLink{
			From:            database.ColSuggestion + "/" + suggestion.Key,
			To:              database.ColDerivation + "/" + derivationKey,
			ProvenanceFlags: flags,
		}
		if _, err := edges.CreateDocument(ctx, link); err != nil {
			return abort(err)
		}
	}

	return tx.Commit(ctx, nil)
}

// Suggestion loads one suggestion by key.
func (s *TrackerStore) Suggestion(ctx context.Context, key string) (*model.Suggestion, error) {
	var suggestion model.Suggestion
	if _, err := s.DB.Collections[database.ColSuggestion].ReadDocument(ctx, key, &suggestion); err != nil {
		return nil, err
	}
	suggestion.Key = key
	return &suggestion, nil
}

// CveRecord loads one CVE record by key.
func (s *TrackerStore) CveRecord(ctx context.Context, key string) (*model.CveRecord, error) {
	var record model.CveRecord
	if _, err := s.DB.Collections[database.ColCve].ReadDocument(ctx, key, &record); err != nil {
		return nil, err
	}
	record.Key = key
	return &record, nil
}

// LinkedDerivations resolves every derivation linked to a suggestion with
// its owning evaluation. Links whose evaluation vanished are skipped.
func (s *TrackerStore) LinkedDerivations(ctx context.Context, suggestionKey string) ([]suggest.ResolvedDerivation, error) {
	query := `
		FOR d IN 1..1 OUTBOUND CONCAT('suggestion/', @key) suggestion2derivation
			LET e = DOCUMENT('evaluation', d.evaluation_key)
			FILTER e != null
			RETURN { derivation: d, evaluation: e }
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"key": suggestionKey,
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	type row struct {
		Derivation model.Derivation `json:"derivation"`
		Evaluation model.Evaluation `json:"evaluation"`
	}
	var resolved []suggest.ResolvedDerivation
	for cursor.HasMore() {
		var r row
		if _, err := cursor.ReadDocument(ctx, &r); err != nil {
			return nil, err
		}
		resolved = append(resolved, suggest.ResolvedDerivation{
			Derivation: r.Derivation,
			Evaluation: r.Evaluation,
		})
	}
	return resolved, nil
}

// PackageEdits lists the package edit log of a suggestion.
func (s *TrackerStore) PackageEdits(ctx context.Context, suggestionKey string) ([]model.PackageEdit, error) {
	query := `
		FOR e IN package_edit
			FILTER e.suggestion_key == @key
			RETURN e
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"key": suggestionKey,
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var edits []model.PackageEdit
	for cursor.HasMore() {
		var edit model.PackageEdit
		if _, err := cursor.ReadDocument(ctx, &edit); err != nil {
			return nil, err
		}
		edits = append(edits, edit)
	}
	return edits, nil
}

// MaintainersEdits lists the maintainer edit log of a suggestion.
func (s *TrackerStore) MaintainersEdits(ctx context.Context, suggestionKey string) ([]model.MaintainersEdit, error) {
	query := `
		FOR e IN maintainers_edit
			FILTER e.suggestion_key == @key
			RETURN e
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"key": suggestionKey,
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var edits []model.MaintainersEdit
	for cursor.HasMore() {
		var edit model.MaintainersEdit
		if _, err := cursor.ReadDocument(ctx, &edit); err != nil {
			return nil, err
		}
		edits = append(edits, edit)
	}
	return edits, nil
}

// CachedSuggestion loads the cached document with its revision, or nil when
// none exists yet.
func (s *TrackerStore) CachedSuggestion(ctx context.Context, suggestionKey string) (*model.CachedSuggestion, error) {
	var cached model.CachedSuggestion
	meta, err := s.DB.Collections[database.ColCachedSuggestion].ReadDocument(ctx, suggestionKey, &cached)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	cached.Key = suggestionKey
	cached.Rev = meta.Rev
	return &cached, nil
}

// ReplaceCachedSuggestion upserts the whole cached document, ignoring
// revisions. Reports whether it was created rather than updated.
func (s *TrackerStore) ReplaceCachedSuggestion(ctx context.Context, cached *model.CachedSuggestion) (bool, error) {
	col := s.DB.Collections[database.ColCachedSuggestion]
	cached.UpdatedAt = cached.UpdatedAt.UTC()

	replacement := *cached
	replacement.Rev = ""
	if _, err := col.ReplaceDocument(ctx, cached.Key, &replacement); err != nil {
		if !shared.IsNotFound(err) {
			return false, err
		}
		if _, err := col.CreateDocument(ctx, &replacement); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// PatchCachedSuggestion replaces the cached document only when its revision
// still matches, surfacing suggest.ErrRevConflict otherwise so the caller
// can re-read and retry.
func (s *TrackerStore) PatchCachedSuggestion(ctx context.Context, cached *model.CachedSuggestion) error {
	col := s.DB.Collections[database.ColCachedSuggestion]
	ignoreRevs := false
	opts := arangodb.CollectionDocumentReplaceOptions{IgnoreRevs: &ignoreRevs}
	if _, err := col.ReplaceDocumentWithOptions(ctx, cached.Key, cached, &opts); err != nil {
		if shared.IsArangoErrorWithCode(err, http.StatusPreconditionFailed) ||
			shared.IsArangoErrorWithCode(err, http.StatusConflict) {
			return suggest.ErrRevConflict
		}
		return err
	}
	return nil
}

// UpsertPackageEdit records (or re-types) the package edit of a suggestion.
func (s *TrackerStore) UpsertPackageEdit(ctx context.Context, suggestionKey, attribute string, editType model.EditType) error {
	query := `
		UPSERT { suggestion_key: @key, package_attribute: @attr }
		INSERT { suggestion_key: @key, package_attribute: @attr, edit_type: @type, created_at: @now }
		UPDATE { edit_type: @type }
		IN package_edit
	`
	return s.execute(ctx, query, map[string]interface{}{
		"key":  suggestionKey,
		"attr": attribute,
		"type": string(editType),
		"now":  time.Now().UTC(),
	})
}

// DeletePackageEdit drops the package edit of a suggestion, if any.
func (s *TrackerStore) DeletePackageEdit(ctx context.Context, suggestionKey, attribute string) error {
	query := `
		FOR e IN package_edit
			FILTER e.suggestion_key == @key AND e.package_attribute == @attr
			REMOVE e IN package_edit
	`
	return s.execute(ctx, query, map[string]interface{}{
		"key":  suggestionKey,
		"attr": attribute,
	})
}

// UpsertMaintainersEdit records (or re-types) the maintainer edit of a
// suggestion.
func (s *TrackerStore) UpsertMaintainersEdit(ctx context.Context, suggestionKey string, maintainer model.Maintainer, editType model.EditType) error {
	query := `
		UPSERT { suggestion_key: @key, github_id: @githubID }
		INSERT { suggestion_key: @key, github_id: @githubID, maintainer: @maintainer, edit_type: @type, created_at: @now }
		UPDATE { edit_type: @type, maintainer: @maintainer }
		IN maintainers_edit
	`
	return s.execute(ctx, query, map[string]interface{}{
		"key":        suggestionKey,
		"githubID":   maintainer.GithubID,
		"maintainer": maintainer,
		"type":       string(editType),
		"now":        time.Now().UTC(),
	})
}

// MaintainersEditFor returns the edit recorded for a maintainer on a
// suggestion, or nil.
func (s *TrackerStore) MaintainersEditFor(ctx context.Context, suggestionKey string, githubID int64) (*model.MaintainersEdit, error) {
	query := `
		FOR e IN maintainers_edit
			FILTER e.suggestion_key == @key AND e.github_id == @githubID
			LIMIT 1
			RETURN e
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"key":      suggestionKey,
			"githubID": githubID,
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()
	if !cursor.HasMore() {
		return nil, nil
	}
	var edit model.MaintainersEdit
	if _, err := cursor.ReadDocument(ctx, &edit); err != nil {
		return nil, err
	}
	return &edit, nil
}

// DeleteMaintainersEdit drops the maintainer edit of a suggestion, if any.
func (s *TrackerStore) DeleteMaintainersEdit(ctx context.Context, suggestionKey string, githubID int64) error {
	query := `
		FOR e IN maintainers_edit
			FILTER e.suggestion_key == @key AND e.github_id == @githubID
			REMOVE e IN maintainers_edit
	`
	return s.execute(ctx, query, map[string]interface{}{
		"key":      suggestionKey,
		"githubID": githubID,
	})
}

// SuggestionByCveID resolves a suggestion key from a CVE id, or "".
func (s *TrackerStore) SuggestionByCveID(ctx context.Context, cveID string) (string, error) {
	query := `
		FOR s IN suggestion
			FILTER s.cve_id == @cveID
			LIMIT 1
			RETURN s._key
	`
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"cveID": cveID,
		},
	})
	if err != nil {
		return "", err
	}
	defer cursor.Close()
	if !cursor.HasMore() {
		return "", nil
	}
	var key string
	if _, err := cursor.ReadDocument(ctx, &key); err != nil {
		return "", err
	}
	return key, nil
}

func (s *TrackerStore) execute(ctx context.Context, query string, bindVars map[string]interface{}) error {
	cursor, err := s.DB.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return err
	}
	return cursor.Close()
}
