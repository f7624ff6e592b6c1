package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// VoidStatus is derived from whether the void has been cancelled.
type VoidStatus string

const (
	VoidActive    VoidStatus = "active"
	VoidCancelled VoidStatus = "cancelled"
)

type VoidEvent string

const (
	EventVoidUpdate VoidEvent = "update"
	EventVoidCancel VoidEvent = "cancel"
)

var VoidTransitions = []Transition[VoidStatus, VoidEvent]{
	{Event: EventVoidUpdate, Src: VoidActive, Dst: VoidActive},
	{Event: EventVoidCancel, Src: VoidActive, Dst: VoidCancelled},
}

type VoidCancellation struct {
	CancelledOn civil.Date
	Notes       string
}

// Void takes a bedspace out of service for [StartDate, EndDate].
type Void struct {
	ID           string
	PremisesID   string
	BedspaceID   string
	StartDate    civil.Date
	EndDate      civil.Date
	Reason       string
	Notes        string
	Cancellation *VoidCancellation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (v Void) Status() VoidStatus {
	if v.Cancellation != nil {
		return VoidCancelled
	}
	return VoidActive
}

type NewVoidInput struct {
	ID         string
	PremisesID string
	BedspaceID string
	StartDate  civil.Date
	EndDate    civil.Date
	Reason     string
	Notes      string
	CreatedAt  time.Time
}

func validateVoidDates(start, end civil.Date) error {
	if end.Before(start) {
		return NewValidationError(FieldEndDate, CodeBeforeStartDate)
	}
	return nil
}

// NewVoid creates an active void, rejecting it if it overlaps anything
// already on the bedspace.
func NewVoid(in NewVoidInput, occupants []Occupant) (Void, error) {
	var v validation
	if in.Reason == "" {
		v.add(FieldReason, CodeEmpty)
	}
	v.merge(validateVoidDates(in.StartDate, in.EndDate))
	if err := v.err(); err != nil {
		return Void{}, err
	}

	void := Void{
		ID:         in.ID,
		PremisesID: in.PremisesID,
		BedspaceID: in.BedspaceID,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Reason:     in.Reason,
		Notes:      in.Notes,
		CreatedAt:  in.CreatedAt,
		UpdatedAt:  in.CreatedAt,
	}
	candidate := Candidate{Interval: Interval{Start: in.StartDate, End: in.EndDate}, Kind: OccupantLostBed, ID: in.ID}
	if err := CheckConflict(candidate, occupants, FieldStartDate, FieldEndDate); err != nil {
		return Void{}, err
	}
	return void, nil
}

// UpdateVoidDates moves an active void. Conflicts are reported against
// whichever of startDate and endDate actually changed.
func UpdateVoidDates(v Void, start, end civil.Date, occupants []Occupant) (Void, error) {
	if _, err := applyTransition(MachineVoid, VoidTransitions, v.Status(), EventVoidUpdate); err != nil {
		return Void{}, err
	}
	if err := validateVoidDates(start, end); err != nil {
		return Void{}, err
	}

	var changed []string
	if start != v.StartDate {
		changed = append(changed, FieldStartDate)
	}
	if end != v.EndDate {
		changed = append(changed, FieldEndDate)
	}
	if len(changed) == 0 {
		return v, nil
	}

	v.StartDate = start
	v.EndDate = end
	candidate := Candidate{Interval: Interval{Start: start, End: end}, Kind: OccupantLostBed, ID: v.ID}
	if err := CheckConflict(candidate, occupants, changed...); err != nil {
		return Void{}, err
	}
	return v, nil
}

// CancelVoid releases the bedspace held by v.
func CancelVoid(v Void, c VoidCancellation) (Void, error) {
	if _, err := applyTransition(MachineVoid, VoidTransitions, v.Status(), EventVoidCancel); err != nil {
		return Void{}, err
	}
	v.Cancellation = &c
	return v, nil
}
