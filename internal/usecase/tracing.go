package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"NewsAgent/internal/domain"
)

const tracerName = "NewsAgent/internal/usecase"

// startRunSpan starts the span covering a whole workflow run.
func (o *Orchestrator) startRunSpan(ctx context.Context, runID, goal string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "workflow.run")
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.String("run.goal", goal),
	)
	return ctx, span
}

func endRunSpan(span trace.Span, result *domain.RunResult, err error) {
	span.SetAttributes(
		attribute.Bool("run.success", result.Success),
		attribute.Bool("run.used_cache", result.UsedCache),
		attribute.String("run.priority", string(result.Priority)),
		attribute.Int("run.articles", len(result.Contents)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if !result.Success {
		span.SetStatus(codes.Error, "workflow halted")
	}
	span.End()
}

// startStepSpan starts a span for a single plan step.
func (o *Orchestrator) startStepSpan(ctx context.Context, step domain.WorkflowStep) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "step."+string(step.Action))
	span.SetAttributes(
		attribute.Int("step.ordinal", step.Step),
		attribute.Bool("step.required", step.Required),
		attribute.Int("step.retry_count", step.RetryCount),
	)
	return ctx, span
}

func endStepSpan(span trace.Span, status string, err error) {
	span.SetAttributes(attribute.String("step.status", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
