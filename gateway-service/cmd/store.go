package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/investoriq/investoriq-api/pkg/config"
	"github.com/investoriq/investoriq-api/pkg/logger"
	"github.com/investoriq/investoriq-api/pkg/storage"
)

// openStore builds the configured backend and wraps it with instrumentation.
// The caller owns the returned store and must Close it.
func openStore(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (storage.DocumentStore, error) {
	var (
		store storage.DocumentStore
		err   error
	)
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn("Using in-memory store; data is lost on restart")
		store = storage.NewMemoryStorage()

	case config.BackendFirestore:
		log.Info("Connecting to Firestore",
			"project", cfg.Firestore.ProjectID,
			"database", cfg.Firestore.DatabaseID,
			"credentials", cfg.Firestore.CredentialsFile)
		store, err = storage.NewFirestoreStorage(ctx, storage.FirestoreConfig{
			ProjectID:       cfg.Firestore.ProjectID,
			DatabaseID:      cfg.Firestore.DatabaseID,
			CredentialsFile: cfg.Firestore.CredentialsFile,
		})

	case config.BackendS3:
		log.Info("Connecting to S3 storage",
			"host", cfg.S3.BucketHost,
			"port", cfg.S3.BucketPort,
			"bucket", cfg.S3.BucketName)
		store, err = storage.NewS3Storage(ctx, storage.S3Config{
			BucketHost:      cfg.S3.BucketHost,
			BucketPort:      cfg.S3.BucketPort,
			BucketName:      cfg.S3.BucketName,
			UseSSL:          cfg.S3.UseSSL,
			InsecureTLS:     cfg.S3.InsecureTLS,
			Region:          cfg.S3.Region,
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})

	case config.BackendMongo:
		log.Info("Connecting to MongoDB", "database", cfg.Mongo.Database)
		store, err = storage.NewMongoStorage(ctx, storage.MongoConfig{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s store: %w", cfg.Backend, err)
	}

	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to connect to %s store: %w", cfg.Backend, err)
	}
	log.Success("Store connected", "backend", cfg.Backend)

	return storage.Instrument(store, cfg.Backend, logger.New(storeComponent(cfg.Backend))), nil
}

// storeComponent tags store call logs with the backend in use
func storeComponent(backend string) logger.Component {
	switch backend {
	case config.BackendFirestore:
		return logger.ComponentFirestore
	case config.BackendS3:
		return logger.ComponentS3
	case config.BackendMongo:
		return logger.ComponentMongo
	default:
		return logger.ComponentStore
	}
}
