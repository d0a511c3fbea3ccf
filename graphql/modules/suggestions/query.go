// Package suggestions defines the GraphQL queries for suggestion browsing.
package suggestions

import (
	"github.com/graphql-go/graphql"

	"github.com/tweag/nix-security-tracker/database"
)

// GetQueryFields returns the suggestion queries to be mounted in the root
// schema.
func GetQueryFields(db database.DBConnection) graphql.Fields {
	return graphql.Fields{
		"suggestions": &graphql.Field{
			Type: graphql.NewList(SuggestionType),
			Args: graphql.FieldConfigArgument{
				"status": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "pending"},
				"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				status := p.Args["status"].(string)
				if status == "all" {
					status = ""
				}
				limit := p.Args["limit"].(int)
				if limit < 1 || limit > 1000 {
					limit = 100
				}
				return ResolveSuggestions(db, status, limit)
			},
		},
		"suggestion": &graphql.Field{
			Type: SuggestionType,
			Args: graphql.FieldConfigArgument{
				"cve_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
			},
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				return ResolveSuggestion(db, p.Args["cve_id"].(string))
			},
		},
	}
}
