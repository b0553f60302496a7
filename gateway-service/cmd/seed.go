package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/investoriq/investoriq-api/gateway-service/internal/gateway"
	"github.com/investoriq/investoriq-api/gateway-service/internal/samples"
	"github.com/investoriq/investoriq-api/pkg/logger"
	"github.com/investoriq/investoriq-api/pkg/storage"
)

var (
	seedIfEmpty bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the store with sample listings",
	Long: `Seed the configured document store with sample properties and advisor requests.

Seeded documents get store-assigned ids and advisor requests start out pending,
the same as documents created through the API.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().BoolVar(&seedIfEmpty, "if-empty", false, "Only seed if the properties collection is empty")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(logger.ComponentSeed)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = seed(ctx, store, seedIfEmpty, log)
	return err
}

// seed writes the sample documents and returns how many were written
func seed(ctx context.Context, store storage.DocumentStore, ifEmpty bool, log *logger.Logger) (int, error) {
	if ifEmpty {
		existing, err := store.List(ctx, gateway.CollectionProperties)
		if err != nil {
			return 0, fmt.Errorf("failed to check if store is empty: %w", err)
		}
		if len(existing) > 0 {
			log.Info("Store is not empty, skipping seed (--if-empty flag)", "properties", len(existing))
			return 0, nil
		}
	}

	properties := samples.Properties()
	log.Section("SEEDING PROPERTIES")
	propertyIDs := make([]string, 0, len(properties))
	for _, doc := range properties {
		id, err := put(ctx, store, gateway.CollectionProperties, doc)
		if err != nil {
			return len(propertyIDs), err
		}
		propertyIDs = append(propertyIDs, id)
		log.Document(gateway.CollectionProperties, id, "Seeded property", "title", doc["title"])
	}

	requests := samples.AdvisorRequests(propertyIDs)
	log.Section("SEEDING ADVISOR REQUESTS")
	for _, doc := range requests {
		doc["status"] = gateway.StatusPending
		id, err := put(ctx, store, gateway.CollectionAdvisorRequests, doc)
		if err != nil {
			return len(propertyIDs), err
		}
		log.Document(gateway.CollectionAdvisorRequests, id, "Seeded advisor request", "propertyId", doc["propertyId"])
	}

	total := len(properties) + len(requests)
	log.Success("Seeding complete", "properties", len(properties), "advisor_requests", len(requests))
	return total, nil
}

func put(ctx context.Context, store storage.DocumentStore, collection string, doc storage.Document) (string, error) {
	id := store.NewID(collection)
	doc["id"] = id
	if err := store.Set(ctx, collection, id, doc); err != nil {
		return "", fmt.Errorf("failed to seed %s/%s: %w", collection, id, err)
	}
	return id, nil
}
