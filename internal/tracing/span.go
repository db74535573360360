package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/recurl/internal/invoker"
)

// StartInvocationSpan starts a new span covering one executor invocation.
func StartInvocationSpan(ctx context.Context, tracer trace.Tracer, runID string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "executor invocation",
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(attribute.String("recurl.run_id", runID))
	return ctx, span
}

// EndInvocationSpan records the outcome on a span and finishes it.
func EndInvocationSpan(span trace.Span, out invoker.Outcome) {
	span.SetAttributes(
		attribute.Int64("recurl.elapsed_ms", out.Elapsed.Milliseconds()),
	)
	if out.Failed {
		span.SetAttributes(attribute.Int("recurl.exit_code", out.ExitCode))
		span.SetStatus(codes.Error, out.Stderr)
	} else {
		span.SetAttributes(attribute.String("recurl.status_code", out.Status))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
