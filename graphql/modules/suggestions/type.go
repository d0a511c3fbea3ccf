// Package suggestions defines the GraphQL types for suggestion browsing.
package suggestions

import "github.com/graphql-go/graphql"

// MaintainerType represents a package maintainer.
var MaintainerType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Maintainer",
	Fields: graphql.Fields{
		"github_id": &graphql.Field{Type: graphql.Int},
		"github":    &graphql.Field{Type: graphql.String},
		"name":      &graphql.Field{Type: graphql.String},
		"email":     &graphql.Field{Type: graphql.String},
	},
})

// BranchVersionType represents the rollup of one sub-branch within a major
// channel.
var BranchVersionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "BranchVersion",
	Fields: graphql.Fields{
		"branch":       &graphql.Field{Type: graphql.String},
		"version":      &graphql.Field{Type: graphql.String},
		"status":       &graphql.Field{Type: graphql.String},
		"src_position": &graphql.Field{Type: graphql.String},
	},
})

// ChannelVersionType represents the rollup of one major channel for a
// package attribute.
var ChannelVersionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ChannelVersion",
	Fields: graphql.Fields{
		"channel":          &graphql.Field{Type: graphql.String},
		"major_version":    &graphql.Field{Type: graphql.String},
		"status":           &graphql.Field{Type: graphql.String},
		"updated":          &graphql.Field{Type: graphql.String},
		"uniform_versions": &graphql.Field{Type: graphql.Boolean},
		"src_position":     &graphql.Field{Type: graphql.String},
		"sub_branches":     &graphql.Field{Type: graphql.NewList(BranchVersionType)},
	},
})

// PackageType represents one package attribute of a suggestion. Active is
// false for attributes removed by a package edit.
var PackageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SuggestionPackage",
	Fields: graphql.Fields{
		"attribute":   &graphql.Field{Type: graphql.String},
		"active":      &graphql.Field{Type: graphql.Boolean},
		"description": &graphql.Field{Type: graphql.String},
		"purl":        &graphql.Field{Type: graphql.String},
		"maintainers": &graphql.Field{Type: graphql.NewList(MaintainerType)},
		"channels":    &graphql.Field{Type: graphql.NewList(ChannelVersionType)},
	},
})

// ConstraintSummaryType represents one rendered version constraint.
var ConstraintSummaryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ConstraintSummary",
	Fields: graphql.Fields{
		"status":     &graphql.Field{Type: graphql.String},
		"constraint": &graphql.Field{Type: graphql.String},
	},
})

// AffectedProductType represents the feed-side data for one package name.
var AffectedProductType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AffectedProduct",
	Fields: graphql.Fields{
		"package_name":        &graphql.Field{Type: graphql.String},
		"version_constraints": &graphql.Field{Type: graphql.NewList(ConstraintSummaryType)},
		"cpes":                &graphql.Field{Type: graphql.NewList(graphql.String)},
		"purl":                &graphql.Field{Type: graphql.String},
	},
})

// SuggestionType represents a suggestion with its cached summary.
var SuggestionType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Suggestion",
	Fields: graphql.Fields{
		"key":               &graphql.Field{Type: graphql.String},
		"cve_id":            &graphql.Field{Type: graphql.String},
		"status":            &graphql.Field{Type: graphql.String},
		"title":             &graphql.Field{Type: graphql.String},
		"description":       &graphql.Field{Type: graphql.String},
		"created_at":        &graphql.Field{Type: graphql.String},
		"updated_at":        &graphql.Field{Type: graphql.String},
		"maintainers":       &graphql.Field{Type: graphql.NewList(MaintainerType)},
		"packages":          &graphql.Field{Type: graphql.NewList(PackageType)},
		"affected_products": &graphql.Field{Type: graphql.NewList(AffectedProductType)},
	},
})
