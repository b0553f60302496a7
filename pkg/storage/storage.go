package storage

import (
	"context"
	"errors"
)

// DocumentStore is the contract every backend implements. Creation is two steps:
// NewID allocates the identifier, the caller writes it into the document, then Set
// persists the document under that identifier.
type DocumentStore interface {
	// NewID allocates a fresh identifier for a document in collection
	NewID(collection string) string

	// List returns every document in collection; an empty collection yields an empty slice
	List(ctx context.Context, collection string) ([]Document, error)

	// Set writes doc under id, replacing any previous document
	Set(ctx context.Context, collection, id string, doc Document) error

	// Update merges fields into the existing document; *ErrNotFound if it does not exist
	Update(ctx context.Context, collection, id string, fields Document) error

	// Ping checks if the storage backend is available
	Ping(ctx context.Context) error

	// Close releases the backend client
	Close() error
}

// ErrNotFound is returned when a document is not found
type ErrNotFound struct {
	Collection string
	ID         string
}

func (e *ErrNotFound) Error() string {
	return "document not found: " + e.Collection + "/" + e.ID
}

// IsNotFound reports whether err, or anything it wraps, is an *ErrNotFound
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}
