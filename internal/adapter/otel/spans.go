package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "regula"

// StartEvaluationSpan starts a span for one evaluation pass.
func StartEvaluationSpan(ctx context.Context, evaluationID, projectID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "evaluation",
		trace.WithAttributes(
			attribute.String("evaluation.id", evaluationID),
			attribute.String("project.id", projectID),
		),
	)
}

// StartExtractionSpan starts a span for one extraction job.
func StartExtractionSpan(ctx context.Context, guidelineID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "extraction",
		trace.WithAttributes(
			attribute.String("guideline.id", guidelineID),
		),
	)
}

// StartContextBuildSpan starts a span for building the evaluation context.
func StartContextBuildSpan(ctx context.Context, projectID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "context_build",
		trace.WithAttributes(
			attribute.String("project.id", projectID),
		),
	)
}
