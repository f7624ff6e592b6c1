package app_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/app"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

func TestCreateBooking_UsesPremisesTurnaround(t *testing.T) {
	svc, store, pub := newTestService(t)
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")

	b := mustBooking(t, svc, bs.ID, "2024-06-10", "2024-06-14")

	if b.Status() != domain.BookingProvisional {
		t.Errorf("Status = %q, want %q", b.Status(), domain.BookingProvisional)
	}
	if b.PremisesID != p.ID {
		t.Errorf("PremisesID = %q, want %q", b.PremisesID, p.ID)
	}
	if got := b.TurnaroundWorkingDays(); got != domain.DefaultTurnaroundWorkingDays {
		t.Errorf("turnaround = %d, want %d", got, domain.DefaultTurnaroundWorkingDays)
	}
	// Friday departure plus two working days.
	if got, want := b.OccupancyInterval().End, day(t, "2024-06-18"); got != want {
		t.Errorf("occupancy end = %s, want %s", got, want)
	}
	if _, ok := store.bookings[b.ID]; !ok {
		t.Error("booking not persisted")
	}

	last := pub.events[len(pub.events)-1]
	if last.Name != domain.EventBookingCreated {
		t.Errorf("event = %q, want %q", last.Name, domain.EventBookingCreated)
	}
	if last.BedspaceID != bs.ID || last.EffectiveOn != "2024-06-10" {
		t.Errorf("event = %+v", last)
	}
}

func TestCreateBooking_ConflictsWithTurnaround(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")
	first := mustBooking(t, svc, bs.ID, "2024-06-10", "2024-06-14")

	// The turnaround runs to 2024-06-18; a booking starting that day touches it.
	_, err := svc.CreateBooking(context.Background(), app.CreateBookingInput{
		BedspaceID:    bs.ID,
		CRN:           "Y654321",
		ArrivalDate:   day(t, "2024-06-18"),
		DepartureDate: day(t, "2024-06-25"),
	})
	fe := requireFieldCode(t, err, domain.FieldArrivalDate, domain.CodeConflict)
	if fe.Conflict == nil || fe.Conflict.ID != first.ID {
		t.Errorf("conflict = %+v, want booking %s", fe.Conflict, first.ID)
	}
	requireFieldCode(t, err, domain.FieldDepartureDate, domain.CodeConflict)

	mustBooking(t, svc, bs.ID, "2024-06-19", "2024-06-25")
}

func TestCreateBooking_ExplicitTurnaround(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")

	zero := 0
	b, err := svc.CreateBooking(context.Background(), app.CreateBookingInput{
		BedspaceID:            bs.ID,
		CRN:                   "X123456",
		ArrivalDate:           day(t, "2024-06-10"),
		DepartureDate:         day(t, "2024-06-14"),
		TurnaroundWorkingDays: &zero,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := b.OccupancyInterval().End; got != day(t, "2024-06-14") {
		t.Errorf("occupancy end = %s, want 2024-06-14", got)
	}
}

func TestCreateBooking_BedspaceNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.CreateBooking(context.Background(), app.CreateBookingInput{
		BedspaceID:    "missing",
		CRN:           "X123456",
		ArrivalDate:   day(t, "2024-06-10"),
		DepartureDate: day(t, "2024-06-14"),
	})
	if !errors.Is(err, domain.ErrBedspaceNotFound) {
		t.Errorf("expected ErrBedspaceNotFound, got %v", err)
	}
}

func TestCreateBooking_StoreRejectionIsExplained(t *testing.T) {
	svc, store, _ := newTestService(t)
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")

	store.race = &domain.Booking{
		ID:            "concurrent",
		PremisesID:    p.ID,
		BedspaceID:    bs.ID,
		CRN:           "Z000001",
		ArrivalDate:   day(t, "2024-06-12"),
		DepartureDate: day(t, "2024-06-20"),
	}

	_, err := svc.CreateBooking(context.Background(), app.CreateBookingInput{
		BedspaceID:    bs.ID,
		CRN:           "X123456",
		ArrivalDate:   day(t, "2024-06-10"),
		DepartureDate: day(t, "2024-06-14"),
	})
	fe := requireFieldCode(t, err, domain.FieldArrivalDate, domain.CodeConflict)
	if fe.Conflict == nil || fe.Conflict.ID != "concurrent" {
		t.Errorf("conflict = %+v, want the concurrent booking", fe.Conflict)
	}
}

func TestBookingWorkflow(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")
	b := mustBooking(t, svc, bs.ID, "2024-05-20", "2024-05-31")

	b, err := svc.ConfirmBooking(ctx, b.ID, "")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if b.Status() != domain.BookingConfirmed {
		t.Fatalf("Status = %q, want confirmed", b.Status())
	}

	b, err = svc.MarkArrived(ctx, b.ID, domain.Arrival{
		ArrivalDate:           day(t, "2024-05-20"),
		ExpectedDepartureDate: day(t, "2024-05-31"),
	})
	if err != nil {
		t.Fatalf("arrive: %v", err)
	}

	b, err = svc.MarkDeparted(ctx, b.ID, domain.Departure{
		DepartureDate: day(t, "2024-06-01"),
		Reason:        "Moved on",
	})
	if err != nil {
		t.Fatalf("depart: %v", err)
	}
	if b.Status() != domain.BookingDeparted {
		t.Errorf("Status = %q, want departed", b.Status())
	}
	if got := b.EffectiveDepartureDate(); got != day(t, "2024-06-01") {
		t.Errorf("effective departure = %s, want 2024-06-01", got)
	}

	want := []domain.EventName{
		domain.EventBookingCreated,
		domain.EventBookingConfirmed,
		domain.EventBookingArrived,
		domain.EventBookingDeparted,
	}
	got := pub.names()
	if !slices.Equal(got[len(got)-len(want):], want) {
		t.Errorf("events = %v, want suffix %v", got, want)
	}
}

func TestMarkArrived_RequiresConfirmation(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")
	b := mustBooking(t, svc, bs.ID, "2024-06-10", "2024-06-14")

	_, err := svc.MarkArrived(context.Background(), b.ID, domain.Arrival{
		ArrivalDate:           day(t, "2024-06-10"),
		ExpectedDepartureDate: day(t, "2024-06-14"),
	})
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if trErr.Current != string(domain.BookingProvisional) {
		t.Errorf("current = %q, want provisional", trErr.Current)
	}
}

func TestMarkDeparted_InFuture(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")
	b := mustBooking(t, svc, bs.ID, "2024-05-20", "2024-06-14")

	if _, err := svc.ConfirmBooking(ctx, b.ID, ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if _, err := svc.MarkArrived(ctx, b.ID, domain.Arrival{
		ArrivalDate:           day(t, "2024-05-20"),
		ExpectedDepartureDate: day(t, "2024-06-14"),
	}); err != nil {
		t.Fatalf("arrive: %v", err)
	}

	_, err := svc.MarkDeparted(ctx, b.ID, domain.Departure{DepartureDate: day(t, "2024-06-04")})
	requireFieldCode(t, err, domain.FieldDepartureDate, domain.CodeInFuture)
}

func TestCancelBooking_ReleasesBedspace(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")
	b := mustBooking(t, svc, bs.ID, "2024-06-10", "2024-06-14")

	cancelled, err := svc.CancelBooking(ctx, b.ID, domain.Cancellation{Reason: "Withdrawn"})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Cancellation.CancelledOn != day(t, "2024-06-03") {
		t.Errorf("cancelled on = %s, want today", cancelled.Cancellation.CancelledOn)
	}
	if last := pub.events[len(pub.events)-1]; last.Status != string(domain.BookingCancelled) {
		t.Errorf("event status = %q, want cancelled", last.Status)
	}

	mustBooking(t, svc, bs.ID, "2024-06-10", "2024-06-14")

	if _, err := svc.ConfirmBooking(ctx, b.ID, ""); err == nil {
		t.Error("confirming a cancelled booking succeeded")
	}
}

func TestExtendBooking_OverstayNeedsAuthorisation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")
	b := mustBooking(t, svc, bs.ID, "2024-06-10", "2024-06-14")

	// 85 nights from arrival.
	req := domain.DepartureChangeRequest{NewDepartureDate: day(t, "2024-09-03")}
	_, _, err := svc.ExtendBooking(ctx, b.ID, req)
	requireFieldCode(t, err, domain.FieldIsAuthorised, domain.CodeEmpty)

	authorised := false
	req.IsAuthorised = &authorised
	_, _, err = svc.ExtendBooking(ctx, b.ID, req)
	requireFieldCode(t, err, domain.FieldReason, domain.CodeEmpty)

	req.Reason = "Awaiting move-on accommodation"
	updated, change, err := svc.ExtendBooking(ctx, b.ID, req)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if change.Kind != domain.ChangeOverstay {
		t.Errorf("kind = %q, want overstay", change.Kind)
	}
	if got := updated.EffectiveDepartureDate(); got != day(t, "2024-09-03") {
		t.Errorf("effective departure = %s, want 2024-09-03", got)
	}
}

func TestExtendBooking_ShorteningThenExtensionTailWins(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")
	b := mustBooking(t, svc, bs.ID, "2024-06-10", "2024-06-28")

	if _, _, err := svc.ExtendBooking(ctx, b.ID, domain.DepartureChangeRequest{NewDepartureDate: day(t, "2024-07-05")}); err != nil {
		t.Fatalf("extend: %v", err)
	}
	updated, change, err := svc.ExtendBooking(ctx, b.ID, domain.DepartureChangeRequest{NewDepartureDate: day(t, "2024-06-21")})
	if err != nil {
		t.Fatalf("shorten: %v", err)
	}
	if change.Label() != domain.LabelShortening {
		t.Errorf("label = %q, want shortening", change.Label())
	}
	if got := updated.EffectiveDepartureDate(); got != day(t, "2024-06-21") {
		t.Errorf("effective departure = %s, want 2024-06-21", got)
	}
	if len(updated.History) != 2 {
		t.Errorf("history length = %d, want 2", len(updated.History))
	}
}

func TestExtendBooking_Conflict(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")
	b := mustBooking(t, svc, bs.ID, "2024-06-10", "2024-06-14")
	next := mustBooking(t, svc, bs.ID, "2024-06-24", "2024-06-28")

	_, _, err := svc.ExtendBooking(context.Background(), b.ID, domain.DepartureChangeRequest{NewDepartureDate: day(t, "2024-06-21")})
	fe := requireFieldCode(t, err, domain.FieldNewDepartureDate, domain.CodeConflict)
	if fe.Conflict == nil || fe.Conflict.ID != next.ID {
		t.Errorf("conflict = %+v, want %s", fe.Conflict, next.ID)
	}
}

func TestChangeTurnaround(t *testing.T) {
	svc, _, pub := newTestService(t)
	ctx := context.Background()
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")
	b := mustBooking(t, svc, bs.ID, "2024-06-10", "2024-06-14")
	mustBooking(t, svc, bs.ID, "2024-06-20", "2024-06-28")

	// Five working days would run to 2024-06-21.
	_, err := svc.ChangeTurnaround(ctx, b.ID, 5)
	requireFieldCode(t, err, domain.FieldWorkingDays, domain.CodeConflict)

	_, err = svc.ChangeTurnaround(ctx, b.ID, -1)
	requireFieldCode(t, err, domain.FieldWorkingDays, domain.CodeNotPositiveInteger)

	updated, err := svc.ChangeTurnaround(ctx, b.ID, 3)
	if err != nil {
		t.Fatalf("change turnaround: %v", err)
	}
	if got := updated.OccupancyInterval().End; got != day(t, "2024-06-19") {
		t.Errorf("occupancy end = %s, want 2024-06-19", got)
	}
	if last := pub.events[len(pub.events)-1]; last.Name != domain.EventBookingTurnaroundChanged || last.EffectiveOn != "2024-06-19" {
		t.Errorf("event = %+v", last)
	}
}

func TestEvaluateOverstay(t *testing.T) {
	svc, _, _ := newTestService(t)
	p := mustPremises(t, svc)
	bs := mustBedspace(t, svc, p.ID, "Room 1")
	b := mustBooking(t, svc, bs.ID, "2024-06-10", "2024-06-14")

	check, err := svc.EvaluateOverstay(context.Background(), b.ID, day(t, "2024-09-04"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !check.Evaluation.IsOverstay || check.Evaluation.NightsOverLimit != 2 {
		t.Errorf("evaluation = %+v, want 2 nights over", check.Evaluation)
	}
	if check.Label != domain.LabelOverstay {
		t.Errorf("label = %q, want overstay", check.Label)
	}

	check, err = svc.EvaluateOverstay(context.Background(), b.ID, day(t, "2024-06-12"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.Label != domain.LabelShortening {
		t.Errorf("label = %q, want shortening", check.Label)
	}

	_, err = svc.EvaluateOverstay(context.Background(), b.ID, day(t, "2024-06-10"))
	requireFieldCode(t, err, domain.FieldNewDepartureDate, domain.CodeBeforeArrivalDate)
}
