package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/investoriq/investoriq-api"

// Span attribute keys for the document gateway.
var (
	AttrStoreBackend = attribute.Key("investoriq.store.backend")
	AttrCollection   = attribute.Key("investoriq.store.collection")
	AttrDocumentID   = attribute.Key("investoriq.document.id")
	AttrFieldCount   = attribute.Key("investoriq.document.field_count")
	AttrResultCount  = attribute.Key("investoriq.store.result_count")
)

// Tracer returns the project-wide OTel tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan creates a new span with the given name and optional attributes.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := Tracer().Start(ctx, name)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	return ctx, span
}

// SetSpanError records an error on the span and sets its status to Error.
func SetSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanOK sets the span status to OK.
func SetSpanOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// SetRoute renames the request span after the matched mux pattern, e.g.
// "PUT /api/advisor-requests/{request_id}", and records http.route.
func SetRoute(ctx context.Context, pattern string) {
	span := trace.SpanFromContext(ctx)
	span.SetName(pattern)
	route := pattern
	if _, path, ok := strings.Cut(pattern, " "); ok {
		route = path
	}
	span.SetAttributes(semconv.HTTPRoute(route))
}
