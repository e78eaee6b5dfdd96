package fsm

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrymomot/stateful/pkg/fsm"

// startEventSpan opens the root span of one OnEvent call using the global
// tracer provider. The caller ends it.
func startEventSpan(ctx context.Context, machine, event string, entity any) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "fsm.on_event", trace.WithAttributes(
		attribute.String("fsm.machine", machine),
		attribute.String("fsm.event", event),
		attribute.String("fsm.entity", entityType(entity)),
	))
}

func startActionSpan(ctx context.Context, name string, ev Event) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "fsm.action", trace.WithAttributes(
		attribute.String("fsm.action", name),
		attribute.String("fsm.event", ev.Name),
		attribute.String("fsm.from", ev.From),
		attribute.String("fsm.to", ev.To),
	))
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
