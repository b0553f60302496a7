package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behavior every backend must share.
// collection should be unique per run for backends that persist between tests.
func runStoreContract(t *testing.T, store DocumentStore, collection string) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty collection lists as empty slice", func(t *testing.T) {
		docs, err := store.List(ctx, collection+"_empty")
		require.NoError(t, err)
		assert.NotNil(t, docs)
		assert.Empty(t, docs)
	})

	id := store.NewID(collection)
	require.NotEmpty(t, id)
	assert.NotEqual(t, id, store.NewID(collection), "ids must not repeat")

	t.Run("set then list returns the document", func(t *testing.T) {
		doc := Document{"address": "1 Main St", "price": int64(500000), "id": id}
		require.NoError(t, store.Set(ctx, collection, id, doc))

		docs, err := store.List(ctx, collection)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "1 Main St", docs[0]["address"])
		assert.EqualValues(t, 500000, docs[0]["price"])
		assert.Equal(t, id, docs[0]["id"])
	})

	t.Run("update merges fields", func(t *testing.T) {
		require.NoError(t, store.Update(ctx, collection, id, Document{"status": "approved"}))
		require.NoError(t, store.Update(ctx, collection, id, Document{"status": "approved"}))

		docs, err := store.List(ctx, collection)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "approved", docs[0]["status"])
		assert.Equal(t, "1 Main St", docs[0]["address"])
		assert.Equal(t, id, docs[0]["id"])
	})

	t.Run("empty update of existing document succeeds", func(t *testing.T) {
		require.NoError(t, store.Update(ctx, collection, id, Document{}))
	})

	t.Run("update of missing document is not found", func(t *testing.T) {
		err := store.Update(ctx, collection, "does-not-exist", Document{"status": "approved"})
		require.Error(t, err)
		assert.True(t, IsNotFound(err), "got %v", err)

		err = store.Update(ctx, collection, "does-not-exist", Document{})
		assert.True(t, IsNotFound(err), "got %v", err)
	})

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, store.Ping(ctx))
	})
}

func TestErrNotFound(t *testing.T) {
	err := error(&ErrNotFound{Collection: "advisor_requests", ID: "abc"})
	assert.Equal(t, "document not found: advisor_requests/abc", err.Error())
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(context.Canceled))
}
