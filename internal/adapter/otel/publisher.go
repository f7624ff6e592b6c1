package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

// TracingPublisher wraps a domain.EventPublisher with OpenTelemetry tracing.
type TracingPublisher struct {
	next   domain.EventPublisher
	tracer trace.Tracer
}

// Compile-time check: TracingPublisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*TracingPublisher)(nil)

// NewTracingPublisher creates a tracing decorator around the given publisher.
func NewTracingPublisher(next domain.EventPublisher) *TracingPublisher {
	return &TracingPublisher{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (p *TracingPublisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	attrs := []attribute.KeyValue{
		attribute.String("event.name", string(event.Name)),
		attribute.String("event.entity_id", event.EntityID),
	}
	if event.PremisesID != "" {
		attrs = append(attrs, attribute.String("premises.id", event.PremisesID))
	}
	if event.BedspaceID != "" {
		attrs = append(attrs, attribute.String("bedspace.id", event.BedspaceID))
	}
	ctx, span := p.tracer.Start(ctx, "EventPublisher.Publish", trace.WithAttributes(attrs...))
	defer span.End()

	err := p.next.Publish(ctx, event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
