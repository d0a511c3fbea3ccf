// Package suggestions defines the GraphQL resolvers for suggestion
// browsing. Resolvers flatten the cached payload maps into sorted lists so
// query output is deterministic.
package suggestions

import (
	"context"
	"sort"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"

	"github.com/tweag/nix-security-tracker/database"
	"github.com/tweag/nix-security-tracker/model"
)

// SuggestionView is the GraphQL source shape of a suggestion.
type SuggestionView struct {
	Key              string             `json:"key"`
	CveID            string             `json:"cve_id"`
	Status           string             `json:"status"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	CreatedAt        string             `json:"created_at"`
	UpdatedAt        string             `json:"updated_at"`
	Maintainers      []model.Maintainer `json:"maintainers"`
	Packages         []PackageView      `json:"packages"`
	AffectedProducts []AffectedView     `json:"affected_products"`
}

// PackageView is one package attribute with its channel rollup.
type PackageView struct {
	Attribute   string             `json:"attribute"`
	Active      bool               `json:"active"`
	Description string             `json:"description"`
	Purl        string             `json:"purl"`
	Maintainers []model.Maintainer `json:"maintainers"`
	Channels    []ChannelView      `json:"channels"`
}

// ChannelView is one major channel rollup, named.
type ChannelView struct {
	Channel         string                `json:"channel"`
	MajorVersion    string                `json:"major_version"`
	Status          string                `json:"status"`
	Updated         string                `json:"updated"`
	UniformVersions bool                  `json:"uniform_versions"`
	SrcPosition     string                `json:"src_position"`
	SubBranches     []model.BranchVersion `json:"sub_branches"`
}

// AffectedView is the feed-side data for one package name.
type AffectedView struct {
	PackageName        string                    `json:"package_name"`
	VersionConstraints []model.ConstraintSummary `json:"version_constraints"`
	CPEs               []string                  `json:"cpes"`
	Purl               string                    `json:"purl"`
}

type row struct {
	Suggestion model.Suggestion        `json:"suggestion"`
	Cached     *model.CachedSuggestion `json:"cached"`
}

// ResolveSuggestions lists suggestions newest-first, optionally filtered by
// triage status.
func ResolveSuggestions(db database.DBConnection, status string, limit int) ([]SuggestionView, error) {
	query := `
		FOR s IN suggestion
			FILTER @status == null OR s.status == @status
			SORT s.created_at DESC
			LIMIT @limit
			RETURN { suggestion: s, cached: DOCUMENT('cached_suggestion', s._key) }
	`
	var statusVar interface{}
	if status != "" {
		statusVar = status
	}

	ctx := context.Background()
	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"status": statusVar,
			"limit":  limit,
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	views := []SuggestionView{}
	for cursor.HasMore() {
		var r row
		if _, err := cursor.ReadDocument(ctx, &r); err != nil {
			return nil, err
		}
		views = append(views, buildView(r))
	}
	return views, nil
}

// ResolveSuggestion loads one suggestion by CVE id, or nil.
func ResolveSuggestion(db database.DBConnection, cveID string) (interface{}, error) {
	query := `
		FOR s IN suggestion
			FILTER s.cve_id == @cveID
			LIMIT 1
			RETURN { suggestion: s, cached: DOCUMENT('cached_suggestion', s._key) }
	`
	ctx := context.Background()
	cursor, err := db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{
			"cveID": cveID,
		},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return nil, nil
	}
	var r row
	if _, err := cursor.ReadDocument(ctx, &r); err != nil {
		return nil, err
	}
	return buildView(r), nil
}

func buildView(r row) SuggestionView {
	view := SuggestionView{
		Key:              r.Suggestion.Key,
		CveID:            r.Suggestion.CveID,
		Status:           string(r.Suggestion.Status),
		CreatedAt:        r.Suggestion.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        r.Suggestion.UpdatedAt.Format(time.RFC3339),
		Maintainers:      []model.Maintainer{},
		Packages:         []PackageView{},
		AffectedProducts: []AffectedView{},
	}
	if r.Cached == nil {
		return view
	}

	payload := r.Cached.Payload
	view.Title = payload.Title
	view.Description = payload.Description
	if payload.Maintainers != nil {
		view.Maintainers = payload.Maintainers
	}

	for _, attribute := range sortedKeys(payload.OriginalPackages) {
		summary := payload.OriginalPackages[attribute]
		_, active := payload.Packages[attribute]
		pkg := PackageView{
			Attribute:   attribute,
			Active:      active,
			Description: summary.Description,
			Purl:        summary.Purl,
			Maintainers: summary.Maintainers,
			Channels:    []ChannelView{},
		}
		channelNames := make([]string, 0, len(summary.Channels))
		for name := range summary.Channels {
			channelNames = append(channelNames, name)
		}
		sort.Strings(channelNames)
		for _, name := range channelNames {
			channel := summary.Channels[name]
			pkg.Channels = append(pkg.Channels, ChannelView{
				Channel:         name,
				MajorVersion:    channel.MajorVersion,
				Status:          string(channel.Status),
				Updated:         channel.Updated.Format(time.RFC3339),
				UniformVersions: channel.UniformVersions,
				SrcPosition:     channel.SrcPosition,
				SubBranches:     channel.SubBranches,
			})
		}
		view.Packages = append(view.Packages, pkg)
	}

	productNames := make([]string, 0, len(payload.AffectedProducts))
	for name := range payload.AffectedProducts {
		productNames = append(productNames, name)
	}
	sort.Strings(productNames)
	for _, name := range productNames {
		affected := payload.AffectedProducts[name]
		view.AffectedProducts = append(view.AffectedProducts, AffectedView{
			PackageName:        name,
			VersionConstraints: affected.VersionConstraints,
			CPEs:               affected.CPEs,
			Purl:               affected.Purl,
		})
	}
	return view
}

func sortedKeys(packages map[string]*model.PackageSummary) []string {
	keys := make([]string, 0, len(packages))
	for key := range packages {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
