package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/investoriq/investoriq-api/gateway-service/internal/gateway"
	"github.com/investoriq/investoriq-api/pkg/config"
	"github.com/investoriq/investoriq-api/pkg/logger"
	"github.com/investoriq/investoriq-api/pkg/storage"
)

func TestSeedWritesSamples(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()

	n, err := seed(ctx, store, false, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, store.Len(gateway.CollectionProperties)+store.Len(gateway.CollectionAdvisorRequests), n)

	props, err := store.List(ctx, gateway.CollectionProperties)
	require.NoError(t, err)
	require.NotEmpty(t, props)
	ids := map[any]bool{}
	for _, p := range props {
		require.NotEmpty(t, p["id"])
		ids[p["id"]] = true
	}

	requests, err := store.List(ctx, gateway.CollectionAdvisorRequests)
	require.NoError(t, err)
	require.NotEmpty(t, requests)
	for _, r := range requests {
		assert.NotEmpty(t, r["id"])
		assert.Equal(t, gateway.StatusPending, r["status"])
		assert.True(t, ids[r["propertyId"]], "advisor request points at a seeded property")
	}
}

func TestSeedIfEmptySkipsPopulatedStore(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage()
	require.NoError(t, store.Set(ctx, gateway.CollectionProperties, "existing", storage.Document{"id": "existing"}))

	n, err := seed(ctx, store, true, logger.Discard())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, store.Len(gateway.CollectionProperties))
	assert.Zero(t, store.Len(gateway.CollectionAdvisorRequests))
}

func TestSeedIfEmptyFillsEmptyStore(t *testing.T) {
	store := storage.NewMemoryStorage()
	n, err := seed(context.Background(), store, true, logger.Discard())
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, err := openStore(ctx, config.StoreConfig{Backend: config.BackendMemory}, logger.Discard())
		require.NoError(t, err)
		defer store.Close()

		instrumented, ok := store.(*storage.Instrumented)
		require.True(t, ok)
		_, ok = instrumented.Unwrap().(*storage.MemoryStorage)
		assert.True(t, ok)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := openStore(ctx, config.StoreConfig{Backend: "redis"}, logger.Discard())
		assert.ErrorContains(t, err, `unknown store backend "redis"`)
	})
}

func TestStoreComponent(t *testing.T) {
	assert.Equal(t, logger.ComponentFirestore, storeComponent(config.BackendFirestore))
	assert.Equal(t, logger.ComponentS3, storeComponent(config.BackendS3))
	assert.Equal(t, logger.ComponentMongo, storeComponent(config.BackendMongo))
	assert.Equal(t, logger.ComponentStore, storeComponent(config.BackendMemory))
}
