// Package model - CVE record structures as ingested from the CVE JSON feed.
package model

import (
	"fmt"
	"strings"
	"time"
)

// VersionStatus classifies a version constraint of an affected product.
type VersionStatus string

// Version constraint statuses as carried by CVE records.
const (
	StatusAffected   VersionStatus = "affected"
	StatusUnaffected VersionStatus = "unaffected"
	StatusUnknown    VersionStatus = "unknown"
)

// VersionConstraint is one version range of an AffectedProduct, already
// classified by the feed. The matcher and aggregator consume the status;
// range evaluation itself lives in internal/versioncheck.
type VersionConstraint struct {
	Status          VersionStatus `json:"status"`
	Version         string        `json:"version,omitempty"`
	LessThan        string        `json:"less_than,omitempty"`
	LessThanOrEqual string        `json:"less_than_or_equal,omitempty"`
	VersionType     string        `json:"version_type,omitempty"`
}

// ConstraintString renders the constraint in a human readable form for the
// cached suggestion payload.
func (vc VersionConstraint) ConstraintString() string {
	var parts []string
	if vc.Version != "" {
		parts = append(parts, ">= "+vc.Version)
	}
	if vc.LessThan != "" {
		parts = append(parts, "< "+vc.LessThan)
	}
	if vc.LessThanOrEqual != "" {
		parts = append(parts, "<= "+vc.LessThanOrEqual)
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, ", ")
}

// AffectedProduct is one product entry of a CVE record. PackageName and
// Product are the matching keys used by the candidate matcher; either may
// be empty.
type AffectedProduct struct {
	Vendor      string              `json:"vendor,omitempty"`
	Product     string              `json:"product,omitempty"`
	PackageName string              `json:"package_name,omitempty"`
	CPEs        []string            `json:"cpes,omitempty"`
	Versions    []VersionConstraint `json:"versions,omitempty"`
}

// Metric is an opaque severity metric attached to a CVE record (CVSS and
// friends). The aggregator passes these through to the cached payload.
type Metric struct {
	Format  string         `json:"format"`
	Scope   string         `json:"scope,omitempty"`
	Content map[string]any `json:"content,omitempty"`
}

// CveRecord represents a vulnerability record stored in the cve collection.
// Records are written by the ingestion pipeline and are read-only here.
type CveRecord struct {
	Key         string            `json:"_key,omitempty"`
	ObjType     string            `json:"objtype,omitempty"`
	CveID       string            `json:"cve_id"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	Triaged     bool              `json:"triaged"`
	Affected    []AffectedProduct `json:"affected,omitempty"`
	Metrics     []Metric          `json:"metrics,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewCveRecord creates a CveRecord with default values.
func NewCveRecord(cveID string) *CveRecord {
	now := time.Now().UTC()
	return &CveRecord{
		ObjType:   "CveRecord",
		CveID:     cveID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PackageNames returns the distinct non-empty package names of the record.
func (c *CveRecord) PackageNames() []string {
	return distinctNonEmpty(c.Affected, func(a AffectedProduct) string { return a.PackageName })
}

// Products returns the distinct non-empty product strings of the record.
func (c *CveRecord) Products() []string {
	return distinctNonEmpty(c.Affected, func(a AffectedProduct) string { return a.Product })
}

// AllVersionConstraints collects the version constraints of every affected
// product that carries a package name.
func (c *CveRecord) AllVersionConstraints() []VersionConstraint {
	var constraints []VersionConstraint
	for _, affected := range c.Affected {
		if affected.PackageName == "" {
			continue
		}
		constraints = append(constraints, affected.Versions...)
	}
	return constraints
}

func (c *CveRecord) String() string {
	return fmt.Sprintf("%s (triaged=%v)", c.CveID, c.Triaged)
}

func distinctNonEmpty(affected []AffectedProduct, get func(AffectedProduct) string) []string {
	seen := make(map[string]bool)
	var values []string
	for _, a := range affected {
		v := get(a)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}
