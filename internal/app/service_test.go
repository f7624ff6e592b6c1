package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	fsmadapter "github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/adapter/fsm"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/app"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

// --- Mocks ---

type mockStore struct {
	premises  map[string]domain.Premises
	bedspaces map[string]domain.Bedspace
	bookings  map[string]domain.Booking
	voids     map[string]domain.Void

	// race is slipped into the store by the next booking write, which then
	// fails the way a concurrent writer would make it fail.
	race *domain.Booking
}

func newMockStore() *mockStore {
	return &mockStore{
		premises:  make(map[string]domain.Premises),
		bedspaces: make(map[string]domain.Bedspace),
		bookings:  make(map[string]domain.Booking),
		voids:     make(map[string]domain.Void),
	}
}

func (m *mockStore) CreatePremises(_ context.Context, p domain.Premises) error {
	m.premises[p.ID] = p
	return nil
}

func (m *mockStore) GetPremises(_ context.Context, id string) (domain.Premises, error) {
	p, ok := m.premises[id]
	if !ok {
		return domain.Premises{}, domain.ErrPremisesNotFound
	}
	return p, nil
}

func (m *mockStore) UpdatePremises(_ context.Context, p domain.Premises, cascade []domain.Bedspace) error {
	if _, ok := m.premises[p.ID]; !ok {
		return domain.ErrPremisesNotFound
	}
	m.premises[p.ID] = p
	for _, b := range cascade {
		m.bedspaces[b.ID] = b
	}
	return nil
}

func (m *mockStore) CreateBedspace(_ context.Context, b domain.Bedspace) error {
	for _, existing := range m.bedspaces {
		if existing.PremisesID == b.PremisesID && existing.Reference == b.Reference {
			return &domain.BedspaceReferenceConflictError{PremisesID: b.PremisesID, Reference: b.Reference}
		}
	}
	m.bedspaces[b.ID] = b
	return nil
}

func (m *mockStore) GetBedspace(_ context.Context, id string) (domain.Bedspace, error) {
	b, ok := m.bedspaces[id]
	if !ok {
		return domain.Bedspace{}, domain.ErrBedspaceNotFound
	}
	return b, nil
}

func (m *mockStore) ListBedspaces(_ context.Context, premisesID string) ([]domain.Bedspace, error) {
	var out []domain.Bedspace
	for _, b := range m.bedspaces {
		if b.PremisesID == premisesID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateBedspace(_ context.Context, b domain.Bedspace) error {
	m.bedspaces[b.ID] = b
	return nil
}

func (m *mockStore) writeBooking(b domain.Booking) error {
	if m.race != nil {
		m.bookings[m.race.ID] = *m.race
		m.race = nil
		return domain.ErrOccupancyConflict
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *mockStore) CreateBooking(_ context.Context, b domain.Booking) error {
	return m.writeBooking(b)
}

func (m *mockStore) GetBooking(_ context.Context, id string) (domain.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return b, nil
}

func (m *mockStore) UpdateBooking(_ context.Context, b domain.Booking) error {
	return m.writeBooking(b)
}

func (m *mockStore) CreateVoid(_ context.Context, v domain.Void) error {
	m.voids[v.ID] = v
	return nil
}

func (m *mockStore) GetVoid(_ context.Context, id string) (domain.Void, error) {
	v, ok := m.voids[id]
	if !ok {
		return domain.Void{}, domain.ErrVoidNotFound
	}
	return v, nil
}

func (m *mockStore) UpdateVoid(_ context.Context, v domain.Void) error {
	m.voids[v.ID] = v
	return nil
}

func (m *mockStore) ListOccupancy(_ context.Context, filter domain.OccupancyFilter) (domain.BedspaceOccupancy, error) {
	match := func(premisesID, bedspaceID string) bool {
		return (filter.PremisesID == "" || filter.PremisesID == premisesID) &&
			(filter.BedspaceID == "" || filter.BedspaceID == bedspaceID)
	}
	var out domain.BedspaceOccupancy
	for _, b := range m.bookings {
		if match(b.PremisesID, b.BedspaceID) {
			out.Bookings = append(out.Bookings, b)
		}
	}
	for _, v := range m.voids {
		if match(v.PremisesID, v.BedspaceID) {
			out.Voids = append(out.Voids, v)
		}
	}
	return out, nil
}

type mockPublisher struct {
	events []domain.DomainEvent
}

func (m *mockPublisher) Publish(_ context.Context, e domain.DomainEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *mockPublisher) names() []domain.EventName {
	out := make([]domain.EventName, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Name)
	}
	return out
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// --- Helpers ---

// testToday is a Monday.
var testToday = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*app.Service, *mockStore, *mockPublisher) {
	t.Helper()
	store := newMockStore()
	pub := &mockPublisher{}
	validators := app.Validators{
		Booking:  fsmadapter.NewBookingValidator(),
		Schedule: fsmadapter.NewScheduleValidator(),
		Void:     fsmadapter.NewVoidValidator(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return app.NewService(store, pub, validators, fixedClock{now: testToday}, logger), store, pub
}

func day(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return d
}

func mustPremises(t *testing.T, svc *app.Service) domain.Premises {
	t.Helper()
	p, err := svc.CreatePremises(context.Background(), app.CreatePremisesInput{
		Name:     "Harbour House",
		Postcode: "LS1 1AA",
	})
	if err != nil {
		t.Fatalf("CreatePremises: %v", err)
	}
	return p
}

func mustBedspace(t *testing.T, svc *app.Service, premisesID, reference string) domain.Bedspace {
	t.Helper()
	b, err := svc.CreateBedspace(context.Background(), app.CreateBedspaceInput{
		PremisesID: premisesID,
		Reference:  reference,
	})
	if err != nil {
		t.Fatalf("CreateBedspace: %v", err)
	}
	return b
}

func mustBooking(t *testing.T, svc *app.Service, bedspaceID, arrival, departure string) domain.Booking {
	t.Helper()
	b, err := svc.CreateBooking(context.Background(), app.CreateBookingInput{
		BedspaceID:    bedspaceID,
		CRN:           "X123456",
		ArrivalDate:   day(t, arrival),
		DepartureDate: day(t, departure),
	})
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	return b
}

func requireFieldCode(t *testing.T, err error, field, code string) domain.FieldError {
	t.Helper()
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *domain.ValidationError", err)
	}
	fe, ok := ve.Field(field)
	if !ok {
		t.Fatalf("no error on %q in %v", field, ve)
	}
	if fe.Code != code {
		t.Errorf("%s code = %q, want %q", field, fe.Code, code)
	}
	return fe
}
