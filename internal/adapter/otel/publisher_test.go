package otel_test

import (
	"context"
	"fmt"
	"testing"

	"go.opentelemetry.io/otel/codes"

	adapter "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/otel"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

// --- Mock publisher ---

type mockPublisher struct {
	events []domain.DomainEvent
}

func (m *mockPublisher) Publish(_ context.Context, e domain.DomainEvent) error {
	m.events = append(m.events, e)
	return nil
}

type failingPublisher struct{}

func (p *failingPublisher) Publish(_ context.Context, _ domain.DomainEvent) error {
	return fmt.Errorf("publish failed")
}

// --- Tests ---

func TestTracingPublisher_Publish_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockPublisher{}
	pub := adapter.NewTracingPublisher(inner)

	event := domain.DomainEvent{
		Name:       domain.EventBookingArrived,
		EntityID:   "bk-1",
		PremisesID: "p-1",
		BedspaceID: "bs-1",
		Status:     string(domain.BookingArrived),
	}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "EventPublisher.Publish" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "EventPublisher.Publish")
	}

	assertAttribute(t, spans[0], "event.name", "booking.arrived")
	assertAttribute(t, spans[0], "event.entity_id", "bk-1")
	assertAttribute(t, spans[0], "premises.id", "p-1")
	assertAttribute(t, spans[0], "bedspace.id", "bs-1")

	if len(inner.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(inner.events))
	}
}

func TestTracingPublisher_Publish_OmitsEmptyScope(t *testing.T) {
	exporter := setupTestTracer(t)
	pub := adapter.NewTracingPublisher(&mockPublisher{})

	event := domain.DomainEvent{Name: domain.EventPremisesCreated, EntityID: "p-1"}
	if err := pub.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	for _, attr := range spans[0].Attributes {
		if attr.Key == "bedspace.id" {
			t.Errorf("unexpected bedspace.id attribute %q", attr.Value.Emit())
		}
	}
}

func TestTracingPublisher_Publish_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	pub := adapter.NewTracingPublisher(&failingPublisher{})

	err := pub.Publish(context.Background(), domain.DomainEvent{Name: domain.EventVoidCancelled, EntityID: "v-1"})
	if err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}
