package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// BookingStatus is the lifecycle state of a booking. It is always derived
// from the sub-records present, never stored.
type BookingStatus string

const (
	BookingProvisional BookingStatus = "provisional"
	BookingConfirmed   BookingStatus = "confirmed"
	BookingArrived     BookingStatus = "arrived"
	BookingDeparted    BookingStatus = "departed"
	BookingCancelled   BookingStatus = "cancelled"
)

// BookingEvent is an action recorded against a booking.
type BookingEvent string

const (
	EventConfirm          BookingEvent = "confirm"
	EventArrive           BookingEvent = "arrive"
	EventDepart           BookingEvent = "depart"
	EventCancel           BookingEvent = "cancel"
	EventExtend           BookingEvent = "extend"
	EventChangeTurnaround BookingEvent = "change_turnaround"
)

// BookingTransitions defines the booking workflow. Extensions and
// turnaround changes keep the booking in its state.
var BookingTransitions = []Transition[BookingStatus, BookingEvent]{
	{Event: EventConfirm, Src: BookingProvisional, Dst: BookingConfirmed},
	{Event: EventArrive, Src: BookingConfirmed, Dst: BookingArrived},
	{Event: EventDepart, Src: BookingArrived, Dst: BookingDeparted},
	{Event: EventCancel, Src: BookingProvisional, Dst: BookingCancelled},
	{Event: EventCancel, Src: BookingConfirmed, Dst: BookingCancelled},
	{Event: EventExtend, Src: BookingProvisional, Dst: BookingProvisional},
	{Event: EventExtend, Src: BookingConfirmed, Dst: BookingConfirmed},
	{Event: EventExtend, Src: BookingArrived, Dst: BookingArrived},
	{Event: EventChangeTurnaround, Src: BookingProvisional, Dst: BookingProvisional},
	{Event: EventChangeTurnaround, Src: BookingConfirmed, Dst: BookingConfirmed},
	{Event: EventChangeTurnaround, Src: BookingArrived, Dst: BookingArrived},
	{Event: EventChangeTurnaround, Src: BookingDeparted, Dst: BookingDeparted},
}

type Confirmation struct {
	ConfirmedOn civil.Date
	Notes       string
}

// Arrival records the person moving in. It may restate the booked dates.
type Arrival struct {
	ArrivalDate           civil.Date
	ExpectedDepartureDate civil.Date
	Notes                 string
}

type Departure struct {
	DepartureDate  civil.Date
	Reason         string
	MoveOnCategory string
	Notes          string
}

type Cancellation struct {
	CancelledOn civil.Date
	Reason      string
	Notes       string
}

// DepartureChangeKind says what moved a booking's departure date.
type DepartureChangeKind string

const (
	ChangeExtension DepartureChangeKind = "extension"
	ChangeOverstay  DepartureChangeKind = "overstay"
	ChangeArrival   DepartureChangeKind = "arrival"
	ChangeDeparture DepartureChangeKind = "departure"
)

// DepartureChange is one immutable entry in a booking's departure history.
type DepartureChange struct {
	Kind                  DepartureChangeKind
	PreviousDepartureDate civil.Date
	NewDepartureDate      civil.Date
	IsAuthorised          *bool
	Reason                string
	Notes                 string
	RecordedOn            civil.Date
}

// Label describes the change for messaging.
func (c DepartureChange) Label() DepartureChangeLabel {
	if c.Kind == ChangeOverstay {
		return LabelOverstay
	}
	if c.NewDepartureDate.Before(c.PreviousDepartureDate) {
		return LabelShortening
	}
	return LabelExtension
}

// Booking occupies one bedspace from ArrivalDate until its effective
// departure date plus turnaround.
type Booking struct {
	ID            string
	PremisesID    string
	BedspaceID    string
	CRN           string
	ArrivalDate   civil.Date
	DepartureDate civil.Date

	Confirmation *Confirmation
	Arrival      *Arrival
	Departure    *Departure
	Cancellation *Cancellation
	Turnaround   *Turnaround

	// History is append-only and ordered by creation; its tail is current.
	History []DepartureChange

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DeriveBookingStatus computes a booking's status from the sub-records it
// carries. Calendar position is not consulted: a booking with an Arrival is
// arrived even when its arrival date is still ahead.
func DeriveBookingStatus(b Booking) BookingStatus {
	switch {
	case b.Cancellation != nil:
		return BookingCancelled
	case b.Departure != nil:
		return BookingDeparted
	case b.Arrival != nil:
		return BookingArrived
	case b.Confirmation != nil:
		return BookingConfirmed
	default:
		return BookingProvisional
	}
}

// Status is DeriveBookingStatus(b).
func (b Booking) Status() BookingStatus {
	return DeriveBookingStatus(b)
}

// EffectiveDepartureDate is the tail of the departure history, or the
// booked departure date when nothing has changed it. A shortened booking
// returns its earlier date.
func (b Booking) EffectiveDepartureDate() civil.Date {
	if n := len(b.History); n > 0 {
		return b.History[n-1].NewDepartureDate
	}
	return b.DepartureDate
}

// TurnaroundWorkingDays is zero when no turnaround has been recorded.
func (b Booking) TurnaroundWorkingDays() int {
	if b.Turnaround == nil {
		return 0
	}
	return b.Turnaround.WorkingDays
}

// TurnaroundWindow is the turnaround following the effective departure.
func (b Booking) TurnaroundWindow() TurnaroundWindow {
	return ComputeTurnaround(b.EffectiveDepartureDate(), b.TurnaroundWorkingDays())
}

// OccupancyInterval is the span during which the booking holds its bedspace.
func (b Booking) OccupancyInterval() Interval {
	return Interval{Start: b.ArrivalDate, End: b.TurnaroundWindow().EffectiveEndDate}
}

// NewBookingInput carries the fields submitted to create a booking.
type NewBookingInput struct {
	ID                    string
	PremisesID            string
	BedspaceID            string
	CRN                   string
	ArrivalDate           civil.Date
	DepartureDate         civil.Date
	TurnaroundWorkingDays int
	CreatedAt             time.Time
}

// NewBooking creates a provisional booking and checks its dates against the
// bedspace's current occupants.
func NewBooking(in NewBookingInput, occupants []Occupant) (Booking, error) {
	var v validation
	if in.CRN == "" {
		v.add("crn", CodeEmpty)
	}
	if !in.DepartureDate.After(in.ArrivalDate) {
		v.add(FieldDepartureDate, CodeBeforeArrivalDate)
	}
	v.merge(ValidateWorkingDays(in.TurnaroundWorkingDays))
	if err := v.err(); err != nil {
		return Booking{}, err
	}

	b := Booking{
		ID:            in.ID,
		PremisesID:    in.PremisesID,
		BedspaceID:    in.BedspaceID,
		CRN:           in.CRN,
		ArrivalDate:   in.ArrivalDate,
		DepartureDate: in.DepartureDate,
		Turnaround:    &Turnaround{WorkingDays: in.TurnaroundWorkingDays},
		CreatedAt:     in.CreatedAt,
		UpdatedAt:     in.CreatedAt,
	}

	candidate := Candidate{Interval: b.OccupancyInterval(), Kind: OccupantBooking, ID: b.ID}
	if err := CheckConflict(candidate, occupants, FieldArrivalDate, FieldDepartureDate); err != nil {
		return Booking{}, err
	}
	return b, nil
}

func (b Booking) transition(event BookingEvent) error {
	_, err := applyTransition(MachineBooking, BookingTransitions, b.Status(), event)
	return err
}

// clone copies the booking so that appending history never aliases the
// caller's slice.
func (b Booking) clone() Booking {
	b.History = append([]DepartureChange(nil), b.History...)
	return b
}

// ConfirmBooking records a confirmation.
func ConfirmBooking(b Booking, c Confirmation) (Booking, error) {
	if err := b.transition(EventConfirm); err != nil {
		return Booking{}, err
	}
	b = b.clone()
	b.Confirmation = &c
	return b, nil
}

// MarkArrived records an arrival. A restated arrival date or expected
// departure date is re-checked for conflicts against the changed fields only.
func MarkArrived(b Booking, a Arrival, occupants []Occupant) (Booking, error) {
	if err := b.transition(EventArrive); err != nil {
		return Booking{}, err
	}
	if !a.ExpectedDepartureDate.After(a.ArrivalDate) {
		return Booking{}, NewValidationError(FieldExpectedDepartureDate, CodeBeforeArrivalDate)
	}

	var changed []string
	updated := b.clone()
	if a.ArrivalDate != b.ArrivalDate {
		changed = append(changed, FieldArrivalDate)
		updated.ArrivalDate = a.ArrivalDate
	}
	if previous := b.EffectiveDepartureDate(); a.ExpectedDepartureDate != previous {
		changed = append(changed, FieldExpectedDepartureDate)
		updated.History = append(updated.History, DepartureChange{
			Kind:                  ChangeArrival,
			PreviousDepartureDate: previous,
			NewDepartureDate:      a.ExpectedDepartureDate,
			Notes:                 a.Notes,
			RecordedOn:            a.ArrivalDate,
		})
	}
	updated.Arrival = &a

	if len(changed) > 0 {
		candidate := Candidate{Interval: updated.OccupancyInterval(), Kind: OccupantBooking, ID: b.ID}
		if err := CheckConflict(candidate, occupants, changed...); err != nil {
			return Booking{}, err
		}
	}
	return updated, nil
}

// MarkDeparted records a departure. The departure date cannot be in the
// future or before arrival; a departure later than expected is checked for
// conflicts.
func MarkDeparted(b Booking, d Departure, occupants []Occupant, now civil.Date) (Booking, error) {
	if err := b.transition(EventDepart); err != nil {
		return Booking{}, err
	}

	var v validation
	if d.DepartureDate.Before(b.ArrivalDate) {
		v.add(FieldDepartureDate, CodeBeforeArrivalDate)
	}
	if d.DepartureDate.After(now) {
		v.add(FieldDepartureDate, CodeInFuture)
	}
	if err := v.err(); err != nil {
		return Booking{}, err
	}

	updated := b.clone()
	if previous := b.EffectiveDepartureDate(); d.DepartureDate != previous {
		updated.History = append(updated.History, DepartureChange{
			Kind:                  ChangeDeparture,
			PreviousDepartureDate: previous,
			NewDepartureDate:      d.DepartureDate,
			Notes:                 d.Notes,
			RecordedOn:            now,
		})
	}
	updated.Departure = &d

	if updated.EffectiveDepartureDate().After(b.EffectiveDepartureDate()) {
		candidate := Candidate{Interval: updated.OccupancyInterval(), Kind: OccupantBooking, ID: b.ID}
		if err := CheckConflict(candidate, occupants, FieldDepartureDate); err != nil {
			return Booking{}, err
		}
	}
	return updated, nil
}

// CancelBooking records a cancellation. Cancellation is terminal.
func CancelBooking(b Booking, c Cancellation) (Booking, error) {
	if err := b.transition(EventCancel); err != nil {
		return Booking{}, err
	}
	b = b.clone()
	b.Cancellation = &c
	return b, nil
}

// DepartureChangeRequest is a submitted extension, shortening or overstay.
type DepartureChangeRequest struct {
	NewDepartureDate civil.Date
	IsAuthorised     *bool
	Reason           string
	Notes            string
}

// ExtendBooking moves the departure date. A stay beyond MaxStayNights is
// recorded as an overstay and needs an authorisation decision and, when
// unauthorised, a reason.
func ExtendBooking(b Booking, req DepartureChangeRequest, occupants []Occupant, now civil.Date) (Booking, DepartureChange, error) {
	if err := b.transition(EventExtend); err != nil {
		return Booking{}, DepartureChange{}, err
	}

	var v validation
	if !req.NewDepartureDate.After(b.ArrivalDate) {
		v.add(FieldNewDepartureDate, CodeBeforeArrivalDate)
	}
	eval := EvaluateOverstay(b.ArrivalDate, req.NewDepartureDate)
	if eval.IsOverstay {
		if req.IsAuthorised == nil {
			v.add(FieldIsAuthorised, CodeEmpty)
		} else if !*req.IsAuthorised && req.Reason == "" {
			v.add(FieldReason, CodeEmpty)
		}
	}
	if err := v.err(); err != nil {
		return Booking{}, DepartureChange{}, err
	}

	change := DepartureChange{
		Kind:                  ChangeExtension,
		PreviousDepartureDate: b.EffectiveDepartureDate(),
		NewDepartureDate:      req.NewDepartureDate,
		Notes:                 req.Notes,
		RecordedOn:            now,
	}
	if eval.IsOverstay {
		change.Kind = ChangeOverstay
		change.IsAuthorised = req.IsAuthorised
		change.Reason = req.Reason
	}

	updated := b.clone()
	updated.History = append(updated.History, change)

	candidate := Candidate{Interval: updated.OccupancyInterval(), Kind: OccupantBooking, ID: b.ID}
	if err := CheckConflict(candidate, occupants, FieldNewDepartureDate); err != nil {
		return Booking{}, DepartureChange{}, err
	}
	return updated, change, nil
}

// ChangeTurnaround replaces the booking's turnaround length.
func ChangeTurnaround(b Booking, workingDays int, occupants []Occupant) (Booking, error) {
	if err := b.transition(EventChangeTurnaround); err != nil {
		return Booking{}, err
	}
	if err := ValidateWorkingDays(workingDays); err != nil {
		return Booking{}, err
	}

	updated := b.clone()
	updated.Turnaround = &Turnaround{WorkingDays: workingDays}

	candidate := Candidate{Interval: updated.OccupancyInterval(), Kind: OccupantBooking, ID: b.ID}
	if err := CheckConflict(candidate, occupants, FieldWorkingDays); err != nil {
		return Booking{}, err
	}
	return updated, nil
}
