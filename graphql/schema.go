// Package graphql assembles the root schema from the module query fields.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/tweag/nix-security-tracker/database"
	"github.com/tweag/nix-security-tracker/graphql/modules/suggestions"
)

var db database.DBConnection

// InitDB stores the database connection used by the resolvers.
func InitDB(conn database.DBConnection) {
	db = conn
}

// CreateSchema builds the root query schema.
func CreateSchema() (graphql.Schema, error) {
	fields := graphql.Fields{}
	for name, field := range suggestions.GetQueryFields(db) {
		fields[name] = field
	}

	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name:   "Query",
		Fields: fields,
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: rootQuery})
}
