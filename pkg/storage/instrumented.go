package storage

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/investoriq/investoriq-api/pkg/logger"
	"github.com/investoriq/investoriq-api/pkg/metrics"
	"github.com/investoriq/investoriq-api/pkg/telemetry"
)

// Operation result labels
const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultTimeout  = "timeout"
	resultError    = "error"
)

// Instrumented decorates a DocumentStore with a span, metrics and a debug log line per call
type Instrumented struct {
	next    DocumentStore
	backend string
	log     *logger.Logger
}

// Instrument wraps store. backend names the implementation in spans and metrics.
func Instrument(store DocumentStore, backend string, log *logger.Logger) *Instrumented {
	return &Instrumented{next: store, backend: backend, log: log}
}

// Unwrap returns the decorated store
func (s *Instrumented) Unwrap() DocumentStore {
	return s.next
}

func (s *Instrumented) observe(ctx context.Context, op, collection, id string, call func(ctx context.Context) (int, error)) error {
	attrs := []attribute.KeyValue{
		telemetry.AttrStoreBackend.String(s.backend),
		telemetry.AttrCollection.String(collection),
	}
	if id != "" {
		attrs = append(attrs, telemetry.AttrDocumentID.String(id))
	}
	ctx, span := telemetry.StartSpan(ctx, "store."+op, attrs...)
	defer span.End()

	start := time.Now()
	n, err := call(ctx)
	elapsed := time.Since(start)

	result := resultOK
	switch {
	case err == nil:
		telemetry.SetSpanOK(span)
		switch op {
		case "list":
			span.SetAttributes(telemetry.AttrResultCount.Int(n))
		case "set", "update":
			span.SetAttributes(telemetry.AttrFieldCount.Int(n))
		}
	case IsNotFound(err):
		// Not-found is an expected outcome, not a store failure
		result = resultNotFound
		span.RecordError(err)
	case errors.Is(err, context.DeadlineExceeded):
		result = resultTimeout
		telemetry.SetSpanError(span, err)
	default:
		result = resultError
		telemetry.SetSpanError(span, err)
	}

	metrics.StoreOperations.WithLabelValues(s.backend, collection, op, result).Inc()
	metrics.StoreDuration.WithLabelValues(s.backend, op).Observe(elapsed.Seconds())

	s.log.Debug("Store call",
		"op", op,
		"collection", collection,
		"id", id,
		"result", result,
		"duration", elapsed)
	return err
}

// NewID delegates without instrumentation; allocation does no I/O
func (s *Instrumented) NewID(collection string) string {
	return s.next.NewID(collection)
}

func (s *Instrumented) List(ctx context.Context, collection string) ([]Document, error) {
	var docs []Document
	err := s.observe(ctx, "list", collection, "", func(ctx context.Context) (int, error) {
		var err error
		docs, err = s.next.List(ctx, collection)
		return len(docs), err
	})
	return docs, err
}

func (s *Instrumented) Set(ctx context.Context, collection, id string, doc Document) error {
	return s.observe(ctx, "set", collection, id, func(ctx context.Context) (int, error) {
		return len(doc), s.next.Set(ctx, collection, id, doc)
	})
}

func (s *Instrumented) Update(ctx context.Context, collection, id string, fields Document) error {
	return s.observe(ctx, "update", collection, id, func(ctx context.Context) (int, error) {
		return len(fields), s.next.Update(ctx, collection, id, fields)
	})
}

func (s *Instrumented) Ping(ctx context.Context) error {
	return s.observe(ctx, "ping", "", "", func(ctx context.Context) (int, error) {
		return 0, s.next.Ping(ctx)
	})
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}
