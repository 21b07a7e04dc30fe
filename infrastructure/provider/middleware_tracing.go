package provider

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracedProvider wraps Summarize in an OpenTelemetry span so the fan-out
// shows up as one span per provider call under the orchestrator's trace.
type tracedProvider struct {
	SummaryProvider
	tracer trace.Tracer
}

// TracingMiddleware creates middleware that records an OpenTelemetry span
// around every summarization call.
func TracingMiddleware() Middleware {
	tracer := otel.Tracer("summarycmp/provider")
	return func(next SummaryProvider) SummaryProvider {
		return &tracedProvider{SummaryProvider: next, tracer: tracer}
	}
}

func (t *tracedProvider) Summarize(ctx context.Context, text, modelID string) Outcome {
	ctx, span := t.tracer.Start(ctx, "provider.Summarize",
		trace.WithAttributes(
			attribute.String("provider.key", t.Key()),
			attribute.String("provider.model", modelID),
			attribute.Int("input.length", len(text)),
		),
	)
	defer span.End()

	outcome := t.SummaryProvider.Summarize(ctx, text, modelID)

	span.SetAttributes(attribute.Int64("summarize.duration_ms", outcome.DurationMs))
	if outcome.Success {
		if outcome.InputTokens != nil {
			span.SetAttributes(attribute.Int("tokens.input", *outcome.InputTokens))
		}
		if outcome.OutputTokens != nil {
			span.SetAttributes(attribute.Int("tokens.output", *outcome.OutputTokens))
		}
	} else {
		// Failed outcomes are data, not errors; the span still marks them.
		span.SetStatus(codes.Error, outcome.ErrorMessage)
	}

	return outcome
}
