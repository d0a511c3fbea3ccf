// package main provides the entry point for the security tracker backend:
// it wires the ArangoDB collections, the candidate matcher and suggestion
// aggregator workers, the Kafka event processor and the REST/GraphQL API.
package main

import (
	"context"
	"log"
	"os"

	"github.com/tweag/nix-security-tracker/database"
	"github.com/tweag/nix-security-tracker/events/modules/suggestions"
	"github.com/tweag/nix-security-tracker/internal/api"
	"github.com/tweag/nix-security-tracker/internal/kafka"
	"github.com/tweag/nix-security-tracker/internal/matcher"
	"github.com/tweag/nix-security-tracker/internal/services"
	"github.com/tweag/nix-security-tracker/internal/suggest"
	"github.com/tweag/nix-security-tracker/util"
)

func main() {
	// Initialize database connection
	db := database.InitializeDatabase()
	logger := database.Logger()

	// Channel classification, optionally extended from a YAML config
	channels := util.NewChannelClassifier()
	if path := os.Getenv("CHANNELS_CONFIG"); path != "" {
		loaded, err := util.LoadChannelClassifier(path)
		if err != nil {
			log.Fatalf("Failed to load channel config %s: %v", path, err)
		}
		channels = loaded
	}

	maxMatches := util.GetEnvIntDefault("SUGGEST_MAX_MATCHES", 1000)
	repoURL := util.GetEnvDefault("NIXPKGS_REPO_URL", util.DefaultNixpkgsRepoURL)

	store := services.NewTrackerStore(db)
	match := matcher.New(store, maxMatches, logger)
	aggregator := suggest.New(store, channels, repoURL, maxMatches, logger)

	producer := suggestions.NewProducer(kafka.Brokers(), kafka.Topic)
	defer producer.Close()

	editService := services.NewEditService(store, aggregator, producer)

	// Start the Kafka event processor
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	err := kafka.RunEventProcessor(ctx, kafka.Services{
		Match:       &services.MatchServiceWrapper{Store: store, Matcher: match, Publisher: producer},
		Aggregation: &services.SuggestionServiceWrapper{Aggregator: aggregator},
	})
	if err != nil {
		log.Printf("WARNING: Kafka event processor not started: %v", err)
	}

	// Create Fiber app
	app := api.NewFiberApp(db, editService)

	// Get port from environment or default to 3000
	port := os.Getenv("MS_PORT")
	if port == "" {
		port = "3000"
	}

	// Start server
	log.Printf("Starting server on port %s", port)
	log.Printf("GraphQL endpoint available at /api/v1/graphql")
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
