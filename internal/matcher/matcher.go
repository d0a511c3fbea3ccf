// Package matcher implements automatic linkage of newly ingested CVE
// records to candidate derivations. For each record it searches the
// reference snapshot of every channel (the most recently updated completed
// evaluation) for derivations whose name contains one of the record's
// package names or product strings, and materializes the result as a
// pending suggestion with per-derivation provenance flags.
package matcher

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tweag/nix-security-tracker/model"
)

// DerivationSource is the package-graph store consumed by the matcher.
type DerivationSource interface {
	// CompletedEvaluations returns every evaluation in the completed state.
	CompletedEvaluations(ctx context.Context) ([]model.Evaluation, error)

	// MatchDerivations returns the derivations belonging to the given
	// evaluations whose name contains any of the terms, case-insensitive.
	MatchDerivations(ctx context.Context, evaluationKeys []string, terms []string) ([]model.Derivation, error)

	// SuggestionExists reports whether a suggestion already exists for the
	// CVE id.
	SuggestionExists(ctx context.Context, cveID string) (bool, error)

	// CreateSuggestion atomically inserts the suggestion and one link per
	// candidate. Either all rows are written or none.
	CreateSuggestion(ctx context.Context, suggestion *model.Suggestion, candidates map[string]model.ProvenanceFlags) error
}

// Outcome describes the result of one match pass.
type Outcome string

// Match outcomes. Only OutcomeCreated has a side effect.
const (
	OutcomeCreated        Outcome = "created"
	OutcomeAlreadyTriaged Outcome = "already_triaged"
	OutcomeAlreadyLinked  Outcome = "already_linked"
	OutcomeNoMatch        Outcome = "no_match"
	OutcomeTooManyMatches Outcome = "too_many_matches"
)

// Result carries the outcome of a match pass and, when a suggestion was
// created, the suggestion itself.
type Result struct {
	Outcome    Outcome
	Suggestion *model.Suggestion
	Candidates int
}

// Matcher runs candidate matching against a derivation source.
type Matcher struct {
	source     DerivationSource
	maxMatches int
	logger     *zap.Logger
}

// New creates a Matcher. maxMatches is the candidate-count ceiling above
// which a match pass is treated as noise and discarded.
func New(source DerivationSource, maxMatches int, logger *zap.Logger) *Matcher {
	return &Matcher{source: source, maxMatches: maxMatches, logger: logger}
}

// Match produces the initial suggestion for a CVE record, or explicitly
// produces none. Re-running Match for an already linked or triaged record
// is a no-op, so at-least-once event delivery is harmless.
func (m *Matcher) Match(ctx context.Context, record *model.CveRecord) (Result, error) {
	log := m.logger.Sugar()

	if record.Triaged {
		log.Infof("Record received for '%s', but already triaged, skipping linkage", record.CveID)
		return Result{Outcome: OutcomeAlreadyTriaged}, nil
	}

	exists, err := m.source.SuggestionExists(ctx, record.CveID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check existing suggestion for %s: %w", record.CveID, err)
	}
	if exists {
		log.Infof("Suggestion already exists for '%s', skipping", record.CveID)
		return Result{Outcome: OutcomeAlreadyLinked}, nil
	}

	names := record.PackageNames()
	products := record.Products()
	if len(names) == 0 && len(products) == 0 {
		log.Infof("Record '%s' carries no package name or product, no match attempted", record.CveID)
		return Result{Outcome: OutcomeNoMatch}, nil
	}

	candidates, err := m.produceCandidates(ctx, names, products)
	if err != nil {
		return Result{}, fmt.Errorf("failed to produce candidates for %s: %w", record.CveID, err)
	}

	if len(candidates) == 0 {
		log.Infof("No derivations matching '%s', ignoring", record.CveID)
		return Result{Outcome: OutcomeNoMatch}, nil
	}
	if len(candidates) > m.maxMatches {
		log.Warnf("More than %d derivations matching '%s', ignoring", m.maxMatches, record.CveID)
		return Result{Outcome: OutcomeTooManyMatches, Candidates: len(candidates)}, nil
	}

	suggestion := model.NewSuggestion(record.Key, record.CveID)
	if err := m.source.CreateSuggestion(ctx, suggestion, candidates); err != nil {
		return Result{}, fmt.Errorf("failed to create suggestion for %s: %w", record.CveID, err)
	}

	log.Infof("Matching suggestion for '%s': %d derivations found", record.CveID, len(candidates))
	return Result{Outcome: OutcomeCreated, Suggestion: suggestion, Candidates: len(candidates)}, nil
}

// produceCandidates searches the reference snapshot of every channel and
// annotates each matching derivation with its provenance flags, keyed by
// derivation key.
func (m *Matcher) produceCandidates(ctx context.Context, names, products []string) (map[string]model.ProvenanceFlags, error) {
	evaluations, err := m.source.CompletedEvaluations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list completed evaluations: %w", err)
	}

	reference := SelectReferenceEvaluations(evaluations)
	if len(reference) == 0 {
		return nil, nil
	}
	evaluationKeys := make([]string, 0, len(reference))
	for _, eval := range reference {
		evaluationKeys = append(evaluationKeys, eval.Key)
	}

	terms := append(append([]string(nil), names...), products...)
	derivations, err := m.source.MatchDerivations(ctx, evaluationKeys, terms)
	if err != nil {
		return nil, fmt.Errorf("failed to match derivations: %w", err)
	}

	candidates := make(map[string]model.ProvenanceFlags)
	for _, drv := range derivations {
		flags := provenance(drv.Name, names, products)
		if flags == 0 {
			continue
		}
		candidates[drv.Key] = flags
	}
	return candidates, nil
}

// SelectReferenceEvaluations picks the single reference snapshot per
// channel: the completed evaluation with the maximum update timestamp,
// ties broken by key. Evaluations in any other state never contribute.
func SelectReferenceEvaluations(evaluations []model.Evaluation) []model.Evaluation {
	latest := make(map[string]model.Evaluation)
	for _, eval := range evaluations {
		if eval.State != model.EvalCompleted {
			continue
		}
		current, ok := latest[eval.Channel]
		if !ok || newerEvaluation(eval, current) {
			latest[eval.Channel] = eval
		}
	}
	reference := make([]model.Evaluation, 0, len(latest))
	for _, eval := range latest {
		reference = append(reference, eval)
	}
	return reference
}

func newerEvaluation(a, b model.Evaluation) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.Key > b.Key
}

// provenance computes the flag bitmask for a derivation name against the
// record's matching keys. Both name-match flags may be set at once.
func provenance(drvName string, names, products []string) model.ProvenanceFlags {
	var flags model.ProvenanceFlags
	lower := strings.ToLower(drvName)
	for _, name := range names {
		if strings.Contains(lower, strings.ToLower(name)) {
			flags |= model.PackageNameMatch
			break
		}
	}
	for _, product := range products {
		if strings.Contains(lower, strings.ToLower(product)) {
			flags |= model.ProductMatch
			break
		}
	}
	return flags
}
