package storage

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig holds configuration for the Firestore backend
type FirestoreConfig struct {
	// ProjectID may be empty to detect it from the credentials
	ProjectID string
	// DatabaseID defaults to "(default)"
	DatabaseID string
	// CredentialsFile is a service-account JSON key; empty uses application default credentials
	CredentialsFile string
}

// FirestoreStorage implements DocumentStore on Cloud Firestore
type FirestoreStorage struct {
	client *firestore.Client
}

// NewFirestoreStorage opens a Firestore client. The client is safe for concurrent use.
// FIRESTORE_EMULATOR_HOST is honored by the SDK.
func NewFirestoreStorage(ctx context.Context, cfg FirestoreConfig) (*FirestoreStorage, error) {
	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	databaseID := cfg.DatabaseID
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreStorage{client: client}, nil
}

// NewID allocates a Firestore auto-ID locally without a round trip
func (s *FirestoreStorage) NewID(collection string) string {
	return s.client.Collection(collection).NewDoc().ID
}

// List streams the full collection
func (s *FirestoreStorage) List(ctx context.Context, collection string) ([]Document, error) {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	result := []Document{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", collection, err)
		}
		result = append(result, Document(snap.Data()))
	}
	return result, nil
}

// Set writes doc under id
func (s *FirestoreStorage) Set(ctx context.Context, collection, id string, doc Document) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, map[string]any(doc)); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Update merges top-level fields. Each key is sent as a single-segment FieldPath so
// keys containing dots are not split into nested paths.
func (s *FirestoreStorage) Update(ctx context.Context, collection, id string, fields Document) error {
	ref := s.client.Collection(collection).Doc(id)

	if len(fields) == 0 {
		// Firestore rejects an update without paths; report existence instead
		if _, err := ref.Get(ctx); err != nil {
			return s.translate(err, collection, id, "get")
		}
		return nil
	}

	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: v})
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		return s.translate(err, collection, id, "update")
	}
	return nil
}

func (s *FirestoreStorage) translate(err error, collection, id, op string) error {
	if status.Code(err) == codes.NotFound {
		return &ErrNotFound{Collection: collection, ID: id}
	}
	return fmt.Errorf("failed to %s %s/%s: %w", op, collection, id, err)
}

// Ping lists at most one collection to confirm credentials and connectivity
func (s *FirestoreStorage) Ping(ctx context.Context) error {
	_, err := s.client.Collections(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("failed to ping firestore: %w", err)
	}
	return nil
}

// Close releases the gRPC connection
func (s *FirestoreStorage) Close() error {
	return s.client.Close()
}
