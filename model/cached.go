// Package model - cached suggestion read model presented to reviewers.
package model

import "time"

// ConstraintSummary is one (status, rendered constraint) pair of an affected
// product in the cached payload.
type ConstraintSummary struct {
	Status     VersionStatus `json:"status"`
	Constraint string        `json:"constraint"`
}

// AffectedPackage summarizes the feed-side data for one package name.
type AffectedPackage struct {
	VersionConstraints []ConstraintSummary `json:"version_constraints"`
	CPEs               []string            `json:"cpes"`
	Purl               string              `json:"purl,omitempty"`
}

// BranchVersion is the rollup of one sub-branch within a major channel.
type BranchVersion struct {
	Branch      string        `json:"branch"`
	Version     string        `json:"version"`
	Status      VersionStatus `json:"status"`
	SrcPosition string        `json:"src_position,omitempty"`
}

// ChannelVersion is the rollup of one (package attribute, major channel)
// slot. SubBranches is ordered by branch name, descending, so the rendered
// JSON is deterministic.
type ChannelVersion struct {
	MajorVersion    string          `json:"major_version"`
	Status          VersionStatus   `json:"status"`
	Updated         time.Time       `json:"updated"`
	UniformVersions bool            `json:"uniform_versions"`
	SrcPosition     string          `json:"src_position,omitempty"`
	SubBranches     []BranchVersion `json:"sub_branches"`
}

// PackageSummary is the per-attribute rollup across major channels.
type PackageSummary struct {
	Channels    map[string]*ChannelVersion `json:"channels"`
	Maintainers []Maintainer               `json:"maintainers"`
	Description string                     `json:"description,omitempty"`
	Purl        string                     `json:"purl,omitempty"`
}

// SuggestionPayload is the fully materialized aggregation of a suggestion.
// OriginalPackages is the pre-edit form; Packages is OriginalPackages minus
// attributes removed by package edits. Both are stored so the UI can show
// an ignored/active split without recomputation.
type SuggestionPayload struct {
	CveID            string                      `json:"cve_id"`
	Title            string                      `json:"title,omitempty"`
	Description      string                      `json:"description,omitempty"`
	AffectedProducts map[string]*AffectedPackage `json:"affected_products"`
	OriginalPackages map[string]*PackageSummary  `json:"original_packages"`
	Packages         map[string]*PackageSummary  `json:"packages"`
	Metrics          []Metric                    `json:"metrics"`
	Maintainers      []Maintainer                `json:"maintainers"`
}

// CachedSuggestion is the one-to-one derived read model of a suggestion.
// Not authoritative: always reconstructible from the suggestion, its edits
// and the snapshot graph. Rev carries the store revision used as the
// optimistic concurrency token for the edit-only patch path.
type CachedSuggestion struct {
	Key       string            `json:"_key,omitempty"`
	Rev       string            `json:"_rev,omitempty"`
	ObjType   string            `json:"objtype,omitempty"`
	Payload   SuggestionPayload `json:"payload"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewCachedSuggestion creates a CachedSuggestion keyed by its suggestion.
func NewCachedSuggestion(suggestionKey string, payload SuggestionPayload) *CachedSuggestion {
	return &CachedSuggestion{
		Key:       suggestionKey,
		ObjType:   "CachedSuggestion",
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
}
