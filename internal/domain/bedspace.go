package domain

import (
	"time"

	"cloud.google.com/go/civil"
)

// Bedspace is a single lettable unit within a premises. It is never deleted,
// only archived.
type Bedspace struct {
	ID         string
	PremisesID string
	Reference  string
	Notes      string
	Schedule   ArchiveSchedule
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (b Bedspace) Status(now civil.Date) ArchiveStatus {
	return b.Schedule.Status(now)
}

type NewBedspaceInput struct {
	ID         string
	PremisesID string
	Reference  string
	Notes      string
	StartDate  civil.Date
	CreatedAt  time.Time
}

// NewBedspace creates a bedspace going live on StartDate. A future start
// makes it upcoming.
func NewBedspace(in NewBedspaceInput) (Bedspace, error) {
	if in.Reference == "" {
		return Bedspace{}, NewValidationError(FieldReference, CodeEmpty)
	}
	return Bedspace{
		ID:         in.ID,
		PremisesID: in.PremisesID,
		Reference:  in.Reference,
		Notes:      in.Notes,
		Schedule:   ArchiveSchedule{StartDate: datePtr(in.StartDate)},
		CreatedAt:  in.CreatedAt,
		UpdatedAt:  in.CreatedAt,
	}, nil
}

// ScheduleBedspaceArchive archives b on endDate. Bookings, turnarounds and
// voids ending after endDate block it; one ending on endDate does not.
func ScheduleBedspaceArchive(b Bedspace, endDate, now civil.Date, occupants []Occupant) (Bedspace, error) {
	if err := b.Schedule.transition(ArchiveEventFor(endDate, now), now); err != nil {
		return b, err
	}
	v := b.Schedule.archiveErrors(endDate, now)
	if o, blocked := occupancyBlocking(occupants, endDate); blocked {
		v.addError(FieldError{Field: FieldEndDate, Code: existingOccupancyCode(o), Conflict: &o})
	}
	if err := v.err(); err != nil {
		return b, err
	}
	b.Schedule = b.Schedule.archived(endDate, now)
	return b, nil
}

// ScheduleBedspaceUnarchive restarts b on restartDate.
func ScheduleBedspaceUnarchive(b Bedspace, restartDate, now civil.Date) (Bedspace, error) {
	s, err := b.Schedule.ScheduleUnarchive(restartDate, now)
	if err != nil {
		return b, err
	}
	b.Schedule = s
	return b, nil
}

// CancelBedspaceArchive clears a pending archive on b.
func CancelBedspaceArchive(b Bedspace, now civil.Date) (Bedspace, error) {
	s, err := b.Schedule.CancelArchive(now)
	if err != nil {
		return b, err
	}
	b.Schedule = s
	return b, nil
}

// CancelBedspaceUnarchive clears a pending restart on b.
func CancelBedspaceUnarchive(b Bedspace, now civil.Date) (Bedspace, error) {
	s, err := b.Schedule.CancelUnarchive(now)
	if err != nil {
		return b, err
	}
	b.Schedule = s
	return b, nil
}
