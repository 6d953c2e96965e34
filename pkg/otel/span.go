package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WithServiceSpan wraps an outbound AI vendor call (whisper, gpt, tts)
// in a client span.
func WithServiceSpan(ctx context.Context, service, operation string, fn func(ctx context.Context) error) error {
	tracer := otel.Tracer("saathi-backend")

	spanCtx, span := tracer.Start(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("peer.service", service),
			attribute.String("ai.operation", operation),
		),
	)
	defer span.End()

	err := fn(spanCtx)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	return err
}
