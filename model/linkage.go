// Package model - suggestion linkage between CVE records and derivations,
// plus the user edit log.
package model

import "time"

// ProvenanceFlags records why a derivation was proposed as a candidate.
// Flags are advisory annotations; only the two name-match flags are ever
// set by the matcher today, the rest are reserved.
type ProvenanceFlags int

// Provenance flag bits.
const (
	PackageNameMatch ProvenanceFlags = 1 << iota
	ProductMatch
	VersionConstraintInRange
	VersionConstraintOutOfRange
	NoSourceVersionConstraint
	HardwareConstraintInRange
	KernelConstraintInRange
)

// Has reports whether all bits of flag are set.
func (f ProvenanceFlags) Has(flag ProvenanceFlags) bool {
	return f&flag == flag
}

// SuggestionStatus is the triage lifecycle state of a suggestion.
// Published is terminal.
type SuggestionStatus string

// Suggestion statuses.
const (
	SuggestionPending   SuggestionStatus = "pending"
	SuggestionAccepted  SuggestionStatus = "accepted"
	SuggestionRejected  SuggestionStatus = "rejected"
	SuggestionPublished SuggestionStatus = "published"
)

// Suggestion is a proposal to link a CVE record to a cluster of derivations
// (one document in the suggestion collection, links in the
// suggestion2derivation edge collection). At most one exists per CVE id,
// enforced by a unique index.
type Suggestion struct {
	Key       string           `json:"_key,omitempty"`
	ObjType   string           `json:"objtype,omitempty"`
	CveKey    string           `json:"cve_key"`
	CveID     string           `json:"cve_id"`
	Status    SuggestionStatus `json:"status"`
	Comment   string           `json:"comment,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewSuggestion creates a pending Suggestion for a CVE record.
func NewSuggestion(cveKey, cveID string) *Suggestion {
	now := time.Now().UTC()
	return &Suggestion{
		ObjType:   "Suggestion",
		CveKey:    cveKey,
		CveID:     cveID,
		Status:    SuggestionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DerivationLink is one suggestion2derivation edge carrying the provenance
// bitmask of the match.
type DerivationLink struct {
	From            string          `json:"_from"`
	To              string          `json:"_to"`
	ProvenanceFlags ProvenanceFlags `json:"provenance_flags"`
}

// EditType distinguishes add and remove edits.
type EditType string

// Edit types. PackageEdit only supports remove for now, add is reserved.
const (
	EditAdd    EditType = "add"
	EditRemove EditType = "remove"
)

// PackageEdit is a per-suggestion, per-package-attribute user override.
// Unique per (suggestion, attribute).
type PackageEdit struct {
	Key              string    `json:"_key,omitempty"`
	SuggestionKey    string    `json:"suggestion_key"`
	PackageAttribute string    `json:"package_attribute"`
	EditType         EditType  `json:"edit_type"`
	CreatedAt        time.Time `json:"created_at"`
}

// MaintainersEdit is a per-suggestion, per-maintainer user override.
// Unique per (suggestion, maintainer github id).
type MaintainersEdit struct {
	Key           string     `json:"_key,omitempty"`
	SuggestionKey string     `json:"suggestion_key"`
	GithubID      int64      `json:"github_id"`
	Maintainer    Maintainer `json:"maintainer"`
	EditType      EditType   `json:"edit_type"`
	CreatedAt     time.Time  `json:"created_at"`
}
