package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrManifest   = "walkabout.manifest"
	AttrTarget     = "walkabout.target"
	AttrLookupName = "walkabout.lookup.name"
	AttrSubjects   = "walkabout.subjects"
	AttrCandidate  = "walkabout.candidate"
	AttrCandidates = "walkabout.candidates"
	AttrEntries    = "walkabout.table.entries"

	AttrErrorMessage = "error.message"
)

// Span names.
const (
	SpanOrder   = "walkabout.order"
	SpanElect   = "walkabout.elect"
	SpanExplain = "walkabout.explain"
	SpanBuild   = "walkabout.manifest.build"
)

// Event names.
const (
	EventMismatch = "dispatch.mismatch"
)

// Run executes fn inside a span named name. An error returned by fn is
// recorded on the span and marks it failed; success marks it OK.
func Run(ctx context.Context, tracer trace.Tracer, name string, attrs []attribute.KeyValue, fn func(ctx context.Context, span trace.Span) error) error {
	ctx, span := tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	if err := fn(ctx, span); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
