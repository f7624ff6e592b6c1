package domain_test

import (
	"testing"

	"cloud.google.com/go/civil"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

func day(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return d
}

func dayPtr(t *testing.T, s string) *civil.Date {
	t.Helper()
	d := day(t, s)
	return &d
}

func newTestBooking(t *testing.T, id, arrival, departure string, workingDays int) domain.Booking {
	t.Helper()
	return domain.Booking{
		ID:            id,
		BedspaceID:    "bs-1",
		CRN:           "X123456",
		ArrivalDate:   day(t, arrival),
		DepartureDate: day(t, departure),
		Turnaround:    &domain.Turnaround{WorkingDays: workingDays},
	}
}

func newTestVoid(t *testing.T, id, start, end string) domain.Void {
	t.Helper()
	return domain.Void{
		ID:         id,
		BedspaceID: "bs-1",
		StartDate:  day(t, start),
		EndDate:    day(t, end),
		Reason:     "repairs",
	}
}

func requireValidation(t *testing.T, err error) *domain.ValidationError {
	t.Helper()
	ve, ok := err.(*domain.ValidationError)
	if !ok {
		t.Fatalf("error = %v (%T), want *domain.ValidationError", err, err)
	}
	return ve
}

func requireFieldCode(t *testing.T, err error, field, code string) domain.FieldError {
	t.Helper()
	ve := requireValidation(t, err)
	fe, ok := ve.Field(field)
	if !ok {
		t.Fatalf("no error on field %q in %v", field, ve)
	}
	if fe.Code != code {
		t.Fatalf("%s code = %q, want %q", field, fe.Code, code)
	}
	return fe
}

func requireTransitionError(t *testing.T, err error) *domain.TransitionError {
	t.Helper()
	te, ok := err.(*domain.TransitionError)
	if !ok {
		t.Fatalf("error = %v (%T), want *domain.TransitionError", err, err)
	}
	return te
}
