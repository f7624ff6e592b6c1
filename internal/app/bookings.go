package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

type CreateBookingInput struct {
	BedspaceID    string
	CRN           string
	ArrivalDate   civil.Date
	DepartureDate civil.Date
	// TurnaroundWorkingDays defaults to the premises' turnaround.
	TurnaroundWorkingDays *int
}

// CreateBooking books a bedspace. The booking occupies it from arrival until
// the end of the turnaround after departure.
func (s *Service) CreateBooking(ctx context.Context, in CreateBookingInput) (domain.Booking, error) {
	bedspace, err := s.store.GetBedspace(ctx, in.BedspaceID)
	if err != nil {
		return domain.Booking{}, err
	}
	premises, err := s.store.GetPremises(ctx, bedspace.PremisesID)
	if err != nil {
		return domain.Booking{}, err
	}
	turnaround := premises.TurnaroundWorkingDays
	if in.TurnaroundWorkingDays != nil {
		turnaround = *in.TurnaroundWorkingDays
	}
	occupants, err := s.occupants(ctx, bedspace.ID)
	if err != nil {
		return domain.Booking{}, err
	}

	b, err := domain.NewBooking(domain.NewBookingInput{
		ID:                    newID(),
		PremisesID:            premises.ID,
		BedspaceID:            bedspace.ID,
		CRN:                   in.CRN,
		ArrivalDate:           in.ArrivalDate,
		DepartureDate:         in.DepartureDate,
		TurnaroundWorkingDays: turnaround,
		CreatedAt:             s.clock.Now().UTC(),
	}, occupants)
	if err != nil {
		return domain.Booking{}, err
	}

	if err := s.store.CreateBooking(ctx, b); err != nil {
		return domain.Booking{}, s.explainConflict(ctx, fmt.Errorf("creating booking: %w", err), b.BedspaceID,
			bookingCandidate(b), domain.FieldArrivalDate, domain.FieldDepartureDate)
	}
	if err := s.publish(ctx, bookingEvent(domain.EventBookingCreated, b, b.ArrivalDate)); err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

// loadForEvent fetches a booking and checks event is allowed from its
// current status.
func (s *Service) loadForEvent(ctx context.Context, id string, event domain.BookingEvent) (domain.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return domain.Booking{}, err
	}
	if _, err := s.validators.Booking.Apply(ctx, b.Status(), event); err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func (s *Service) ConfirmBooking(ctx context.Context, id, notes string) (domain.Booking, error) {
	b, err := s.loadForEvent(ctx, id, domain.EventConfirm)
	if err != nil {
		return domain.Booking{}, err
	}
	today := s.Today()
	updated, err := domain.ConfirmBooking(b, domain.Confirmation{ConfirmedOn: today, Notes: notes})
	if err != nil {
		return domain.Booking{}, err
	}
	return s.saveBooking(ctx, updated, domain.EventBookingConfirmed, today)
}

// MarkArrived records the arrival. A changed arrival date or expected
// departure date is conflict-checked.
func (s *Service) MarkArrived(ctx context.Context, id string, arrival domain.Arrival) (domain.Booking, error) {
	b, err := s.loadForEvent(ctx, id, domain.EventArrive)
	if err != nil {
		return domain.Booking{}, err
	}
	occupants, err := s.occupants(ctx, b.BedspaceID)
	if err != nil {
		return domain.Booking{}, err
	}
	updated, err := domain.MarkArrived(b, arrival, occupants)
	if err != nil {
		return domain.Booking{}, err
	}

	var fields []string
	if updated.ArrivalDate != b.ArrivalDate {
		fields = append(fields, domain.FieldArrivalDate)
	}
	if updated.EffectiveDepartureDate() != b.EffectiveDepartureDate() {
		fields = append(fields, domain.FieldExpectedDepartureDate)
	}
	return s.saveBooking(ctx, updated, domain.EventBookingArrived, arrival.ArrivalDate, fields...)
}

// MarkDeparted records the departure. The departure date must not be in the
// future.
func (s *Service) MarkDeparted(ctx context.Context, id string, departure domain.Departure) (domain.Booking, error) {
	b, err := s.loadForEvent(ctx, id, domain.EventDepart)
	if err != nil {
		return domain.Booking{}, err
	}
	occupants, err := s.occupants(ctx, b.BedspaceID)
	if err != nil {
		return domain.Booking{}, err
	}
	updated, err := domain.MarkDeparted(b, departure, occupants, s.Today())
	if err != nil {
		return domain.Booking{}, err
	}
	return s.saveBooking(ctx, updated, domain.EventBookingDeparted, departure.DepartureDate, domain.FieldDepartureDate)
}

// CancelBooking releases the bedspace. A zero CancelledOn means today.
func (s *Service) CancelBooking(ctx context.Context, id string, cancellation domain.Cancellation) (domain.Booking, error) {
	b, err := s.loadForEvent(ctx, id, domain.EventCancel)
	if err != nil {
		return domain.Booking{}, err
	}
	if cancellation.CancelledOn == (civil.Date{}) {
		cancellation.CancelledOn = s.Today()
	}
	updated, err := domain.CancelBooking(b, cancellation)
	if err != nil {
		return domain.Booking{}, err
	}
	return s.saveBooking(ctx, updated, domain.EventBookingCancelled, cancellation.CancelledOn)
}

// ExtendBooking moves the departure date, recording an overstay when the
// stay passes the maximum.
func (s *Service) ExtendBooking(ctx context.Context, id string, req domain.DepartureChangeRequest) (domain.Booking, domain.DepartureChange, error) {
	b, err := s.loadForEvent(ctx, id, domain.EventExtend)
	if err != nil {
		return domain.Booking{}, domain.DepartureChange{}, err
	}
	occupants, err := s.occupants(ctx, b.BedspaceID)
	if err != nil {
		return domain.Booking{}, domain.DepartureChange{}, err
	}
	updated, change, err := domain.ExtendBooking(b, req, occupants, s.Today())
	if err != nil {
		return domain.Booking{}, domain.DepartureChange{}, err
	}
	saved, err := s.saveBooking(ctx, updated, domain.EventBookingExtended, req.NewDepartureDate, domain.FieldNewDepartureDate)
	if err != nil {
		return domain.Booking{}, domain.DepartureChange{}, err
	}
	return saved, change, nil
}

func (s *Service) ChangeTurnaround(ctx context.Context, id string, workingDays int) (domain.Booking, error) {
	b, err := s.loadForEvent(ctx, id, domain.EventChangeTurnaround)
	if err != nil {
		return domain.Booking{}, err
	}
	occupants, err := s.occupants(ctx, b.BedspaceID)
	if err != nil {
		return domain.Booking{}, err
	}
	updated, err := domain.ChangeTurnaround(b, workingDays, occupants)
	if err != nil {
		return domain.Booking{}, err
	}
	return s.saveBooking(ctx, updated, domain.EventBookingTurnaroundChanged,
		updated.TurnaroundWindow().EffectiveEndDate, domain.FieldWorkingDays)
}

// OverstayCheck previews how a proposed departure date would be treated.
type OverstayCheck struct {
	Evaluation            domain.OverstayEvaluation
	Label                 domain.DepartureChangeLabel
	PreviousDepartureDate civil.Date
}

func (s *Service) EvaluateOverstay(ctx context.Context, id string, newDepartureDate civil.Date) (OverstayCheck, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return OverstayCheck{}, err
	}
	if !newDepartureDate.After(b.ArrivalDate) {
		return OverstayCheck{}, domain.NewValidationError(domain.FieldNewDepartureDate, domain.CodeBeforeArrivalDate)
	}
	previous := b.EffectiveDepartureDate()
	eval := domain.EvaluateOverstay(b.ArrivalDate, newDepartureDate)
	return OverstayCheck{
		Evaluation:            eval,
		Label:                 domain.ClassifyDepartureChange(previous, newDepartureDate, eval),
		PreviousDepartureDate: previous,
	}, nil
}

// saveBooking stores b and publishes name. conflictFields are the fields a
// storage-level overlap rejection is reported against.
func (s *Service) saveBooking(ctx context.Context, b domain.Booking, name domain.EventName, effectiveOn civil.Date, conflictFields ...string) (domain.Booking, error) {
	b.UpdatedAt = s.clock.Now().UTC()
	if err := s.store.UpdateBooking(ctx, b); err != nil {
		err = fmt.Errorf("updating booking: %w", err)
		if len(conflictFields) == 0 {
			return domain.Booking{}, err
		}
		return domain.Booking{}, s.explainConflict(ctx, err, b.BedspaceID, bookingCandidate(b), conflictFields...)
	}
	if err := s.publish(ctx, bookingEvent(name, b, effectiveOn)); err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func bookingCandidate(b domain.Booking) domain.Candidate {
	return domain.Candidate{Interval: b.OccupancyInterval(), Kind: domain.OccupantBooking, ID: b.ID}
}

func bookingEvent(name domain.EventName, b domain.Booking, effectiveOn civil.Date) domain.DomainEvent {
	return domain.DomainEvent{
		Name:        name,
		EntityID:    b.ID,
		PremisesID:  b.PremisesID,
		BedspaceID:  b.BedspaceID,
		Status:      string(b.Status()),
		EffectiveOn: effectiveOn.String(),
	}
}
