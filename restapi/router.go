// Package restapi provides the main router and initialization for REST API
// endpoints.
package restapi

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/tweag/nix-security-tracker/database"
	"github.com/tweag/nix-security-tracker/internal/services"
	"github.com/tweag/nix-security-tracker/restapi/modules/suggestions"
)

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
func SetupRoutes(app *fiber.App, db database.DBConnection, schema graphql.Schema, editService *services.EditService) {
	// API Group /api/v1
	api := app.Group("/api/v1")

	// GraphQL Route - Mounted within the api group to inherit path prefixes
	api.Post("/graphql", GraphQLHandler(schema))

	// Suggestion browsing
	api.Get("/suggestions", suggestions.ListSuggestions(db))
	api.Get("/suggestions/:cveid", suggestions.GetSuggestion(db))

	// Suggestion edit log
	editGroup := api.Group("/suggestions/:key")
	editGroup.Post("/packages/:attribute/ignore", suggestions.IgnorePackage(editService))
	editGroup.Post("/packages/:attribute/restore", suggestions.RestorePackage(editService))
	editGroup.Post("/maintainers", suggestions.AddMaintainer(editService))
	editGroup.Post("/maintainers/:githubid/ignore", suggestions.IgnoreMaintainer(editService))
	editGroup.Post("/maintainers/:githubid/restore", suggestions.RestoreMaintainer(editService))

	log.Println("API routes initialized successfully")
}
