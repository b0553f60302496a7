package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/investoriq/investoriq-api/pkg/logger"
	"github.com/investoriq/investoriq-api/pkg/metrics"
	"github.com/investoriq/investoriq-api/pkg/telemetry"
)

// failingStore returns err from every call
type failingStore struct {
	*MemoryStorage
	err error
}

func (f *failingStore) List(ctx context.Context, collection string) ([]Document, error) {
	return nil, f.err
}

func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestInstrumentedContract(t *testing.T) {
	runStoreContract(t, Instrument(NewMemoryStorage(), "memory-contract", logger.Discard()), "properties")
}

func TestInstrumentedRecordsMetricsAndSpans(t *testing.T) {
	rec := withSpanRecorder(t)
	ctx := context.Background()
	store := Instrument(NewMemoryStorage(), "memory-metrics", logger.Discard())

	id := store.NewID("advisor_requests")
	require.NoError(t, store.Set(ctx, "advisor_requests", id, Document{"id": id}))
	_, err := store.List(ctx, "advisor_requests")
	require.NoError(t, err)
	err = store.Update(ctx, "advisor_requests", "missing", Document{"status": "approved"})
	require.True(t, IsNotFound(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("memory-metrics", "advisor_requests", "set", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("memory-metrics", "advisor_requests", "list", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("memory-metrics", "advisor_requests", "update", "not_found")))

	spans := rec.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "store.set", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Contains(t, spans[0].Attributes(), telemetry.AttrFieldCount.Int(1))
	assert.Equal(t, "store.list", spans[1].Name())
	assert.Equal(t, "store.update", spans[2].Name())
	assert.NotEqual(t, codes.Error, spans[2].Status().Code)
}

func TestInstrumentedRecordsFailures(t *testing.T) {
	rec := withSpanRecorder(t)
	boom := errors.New("permission denied")
	store := Instrument(&failingStore{MemoryStorage: NewMemoryStorage(), err: boom}, "memory-failing", logger.Discard())

	_, err := store.List(context.Background(), "properties")
	require.ErrorIs(t, err, boom)

	_, err = store.List(context.Background(), "properties")
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.StoreOperations.WithLabelValues("memory-failing", "properties", "list", "error")))
	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "permission denied", spans[0].Status().Description)
}

func TestInstrumentedUnwrap(t *testing.T) {
	mem := NewMemoryStorage()
	assert.Same(t, mem, Instrument(mem, "memory", logger.Discard()).Unwrap())
}
