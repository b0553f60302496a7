package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage provides an in-memory storage implementation for local development
type MemoryStorage struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

// memoryCollection keeps insertion order so listings are stable
type memoryCollection struct {
	order []string
	docs  map[string]Document
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		collections: make(map[string]*memoryCollection),
	}
}

// NewID allocates a random identifier
func (m *MemoryStorage) NewID(collection string) string {
	return uuid.NewString()
}

func (m *MemoryStorage) collection(name string) *memoryCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memoryCollection{docs: make(map[string]Document)}
		m.collections[name] = c
	}
	return c
}

// List returns copies of every document in insertion order
func (m *MemoryStorage) List(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return []Document{}, nil
	}
	result := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.docs[id].Clone())
	}
	return result, nil
}

// Set stores a copy of doc under id
func (m *MemoryStorage) Set(ctx context.Context, collection, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collection)
	if _, exists := c.docs[id]; !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = doc.Clone()
	return nil
}

// Update merges fields into an existing document
func (m *MemoryStorage) Update(ctx context.Context, collection, id string, fields Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return &ErrNotFound{Collection: collection, ID: id}
	}
	doc, ok := c.docs[id]
	if !ok {
		return &ErrNotFound{Collection: collection, ID: id}
	}
	doc.Merge(fields)
	return nil
}

// Get returns a copy of a single document.
func (m *MemoryStorage) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if c, ok := m.collections[collection]; ok {
		if doc, ok := c.docs[id]; ok {
			return doc.Clone(), nil
		}
	}
	return nil, &ErrNotFound{Collection: collection, ID: id}
}

// Ping checks if the storage backend is available
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (m *MemoryStorage) Close() error {
	return nil
}

// Len returns the number of documents in collection
func (m *MemoryStorage) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.collections[collection]; ok {
		return len(c.docs)
	}
	return 0
}
