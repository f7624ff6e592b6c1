package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

const tracerName = "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/otel"

// TracingStore wraps a domain.Store with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
// Writes rejected by the store's own occupancy check are also counted.
type TracingStore struct {
	next      domain.Store
	tracer    trace.Tracer
	conflicts metric.Int64Counter
}

// Compile-time check: TracingStore implements domain.Store.
var _ domain.Store = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.Store) *TracingStore {
	conflicts, err := otel.Meter(tracerName).Int64Counter("cas3.store.occupancy_conflicts",
		metric.WithDescription("Booking and void writes rejected by the storage overlap check"),
	)
	if err != nil {
		otel.Handle(err)
	}
	return &TracingStore{
		next:      next,
		tracer:    otel.Tracer(tracerName),
		conflicts: conflicts,
	}
}

func (s *TracingStore) end(ctx context.Context, span trace.Span, kind string, err error) {
	defer span.End()
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, domain.ErrOccupancyConflict) && s.conflicts != nil {
		s.conflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("occupant.kind", kind)))
	}
}

func (s *TracingStore) CreatePremises(ctx context.Context, p domain.Premises) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreatePremises",
		trace.WithAttributes(
			attribute.String("premises.id", p.ID),
			attribute.String("premises.name", p.Name),
		),
	)
	err := s.next.CreatePremises(ctx, p)
	s.end(ctx, span, "", err)
	return err
}

func (s *TracingStore) GetPremises(ctx context.Context, id string) (domain.Premises, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetPremises",
		trace.WithAttributes(attribute.String("premises.id", id)),
	)
	p, err := s.next.GetPremises(ctx, id)
	s.end(ctx, span, "", err)
	return p, err
}

func (s *TracingStore) UpdatePremises(ctx context.Context, p domain.Premises, cascade []domain.Bedspace) error {
	ctx, span := s.tracer.Start(ctx, "Store.UpdatePremises",
		trace.WithAttributes(
			attribute.String("premises.id", p.ID),
			attribute.Int("cascade.count", len(cascade)),
		),
	)
	err := s.next.UpdatePremises(ctx, p, cascade)
	s.end(ctx, span, "", err)
	return err
}

func (s *TracingStore) CreateBedspace(ctx context.Context, b domain.Bedspace) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateBedspace",
		trace.WithAttributes(
			attribute.String("bedspace.id", b.ID),
			attribute.String("bedspace.reference", b.Reference),
			attribute.String("premises.id", b.PremisesID),
		),
	)
	err := s.next.CreateBedspace(ctx, b)
	s.end(ctx, span, "", err)
	return err
}

func (s *TracingStore) GetBedspace(ctx context.Context, id string) (domain.Bedspace, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetBedspace",
		trace.WithAttributes(attribute.String("bedspace.id", id)),
	)
	b, err := s.next.GetBedspace(ctx, id)
	s.end(ctx, span, "", err)
	return b, err
}

func (s *TracingStore) ListBedspaces(ctx context.Context, premisesID string) ([]domain.Bedspace, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListBedspaces",
		trace.WithAttributes(attribute.String("premises.id", premisesID)),
	)
	bedspaces, err := s.next.ListBedspaces(ctx, premisesID)
	if err == nil {
		span.SetAttributes(attribute.Int("result.count", len(bedspaces)))
	}
	s.end(ctx, span, "", err)
	return bedspaces, err
}

func (s *TracingStore) UpdateBedspace(ctx context.Context, b domain.Bedspace) error {
	ctx, span := s.tracer.Start(ctx, "Store.UpdateBedspace",
		trace.WithAttributes(attribute.String("bedspace.id", b.ID)),
	)
	err := s.next.UpdateBedspace(ctx, b)
	s.end(ctx, span, "", err)
	return err
}

func bookingAttributes(b domain.Booking) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("booking.id", b.ID),
		attribute.String("bedspace.id", b.BedspaceID),
		attribute.String("booking.status", string(b.Status())),
		attribute.String("booking.occupancy", b.OccupancyInterval().String()),
	)
}

func (s *TracingStore) CreateBooking(ctx context.Context, b domain.Booking) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateBooking", bookingAttributes(b))
	err := s.next.CreateBooking(ctx, b)
	s.end(ctx, span, string(domain.OccupantBooking), err)
	return err
}

func (s *TracingStore) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetBooking",
		trace.WithAttributes(attribute.String("booking.id", id)),
	)
	b, err := s.next.GetBooking(ctx, id)
	s.end(ctx, span, "", err)
	return b, err
}

func (s *TracingStore) UpdateBooking(ctx context.Context, b domain.Booking) error {
	ctx, span := s.tracer.Start(ctx, "Store.UpdateBooking", bookingAttributes(b))
	err := s.next.UpdateBooking(ctx, b)
	s.end(ctx, span, string(domain.OccupantBooking), err)
	return err
}

func voidAttributes(v domain.Void) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("void.id", v.ID),
		attribute.String("bedspace.id", v.BedspaceID),
		attribute.String("void.status", string(v.Status())),
	)
}

func (s *TracingStore) CreateVoid(ctx context.Context, v domain.Void) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateVoid", voidAttributes(v))
	err := s.next.CreateVoid(ctx, v)
	s.end(ctx, span, string(domain.OccupantLostBed), err)
	return err
}

func (s *TracingStore) GetVoid(ctx context.Context, id string) (domain.Void, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetVoid",
		trace.WithAttributes(attribute.String("void.id", id)),
	)
	v, err := s.next.GetVoid(ctx, id)
	s.end(ctx, span, "", err)
	return v, err
}

func (s *TracingStore) UpdateVoid(ctx context.Context, v domain.Void) error {
	ctx, span := s.tracer.Start(ctx, "Store.UpdateVoid", voidAttributes(v))
	err := s.next.UpdateVoid(ctx, v)
	s.end(ctx, span, string(domain.OccupantLostBed), err)
	return err
}

func (s *TracingStore) ListOccupancy(ctx context.Context, filter domain.OccupancyFilter) (domain.BedspaceOccupancy, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListOccupancy",
		trace.WithAttributes(
			attribute.String("filter.premises_id", filter.PremisesID),
			attribute.String("filter.bedspace_id", filter.BedspaceID),
			attribute.Bool("filter.include_cancelled", filter.IncludeCancelled),
		),
	)
	occupancy, err := s.next.ListOccupancy(ctx, filter)
	if err == nil {
		span.SetAttributes(
			attribute.Int("result.bookings", len(occupancy.Bookings)),
			attribute.Int("result.voids", len(occupancy.Voids)),
		)
	}
	s.end(ctx, span, "", err)
	return occupancy, err
}
