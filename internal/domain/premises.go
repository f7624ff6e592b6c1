package domain

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"
)

// Premises is a property owning a set of bedspaces. Its status has the same
// shape as a bedspace's and is derived from its own ArchiveSchedule.
type Premises struct {
	ID           string
	Name         string
	AddressLine1 string
	Town         string
	Postcode     string
	Notes        string

	// TurnaroundWorkingDays is copied into every new booking.
	TurnaroundWorkingDays int

	Schedule  ArchiveSchedule
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Premises) Status(now civil.Date) ArchiveStatus {
	return p.Schedule.Status(now)
}

type NewPremisesInput struct {
	ID                    string
	Name                  string
	AddressLine1          string
	Town                  string
	Postcode              string
	Notes                 string
	TurnaroundWorkingDays *int
	StartDate             civil.Date
	CreatedAt             time.Time
}

// NewPremises creates a premises going live on StartDate. Without an explicit
// turnaround it uses DefaultTurnaroundWorkingDays.
func NewPremises(in NewPremisesInput) (Premises, error) {
	var v validation
	if in.Name == "" {
		v.add("name", CodeEmpty)
	}
	if in.Postcode == "" {
		v.add("postcode", CodeEmpty)
	}
	turnaround := DefaultTurnaroundWorkingDays
	if in.TurnaroundWorkingDays != nil {
		turnaround = *in.TurnaroundWorkingDays
		v.merge(ValidateWorkingDays(turnaround))
	}
	if err := v.err(); err != nil {
		return Premises{}, err
	}
	return Premises{
		ID:                    in.ID,
		Name:                  in.Name,
		AddressLine1:          in.AddressLine1,
		Town:                  in.Town,
		Postcode:              in.Postcode,
		Notes:                 in.Notes,
		TurnaroundWorkingDays: turnaround,
		Schedule:              ArchiveSchedule{StartDate: datePtr(in.StartDate)},
		CreatedAt:             in.CreatedAt,
		UpdatedAt:             in.CreatedAt,
	}, nil
}

// PremisesBedspace is a bedspace together with its current occupants.
type PremisesBedspace struct {
	Bedspace  Bedspace
	Occupants []Occupant
}

// BlockingBedspace identifies a bedspace whose occupancy runs past a
// requested premises archive date.
type BlockingBedspace struct {
	BedspaceID string
	Reference  string
	LatestEnd  civil.Date
	Kind       OccupantKind
	OccupantID string
}

// BlockingBedspaces returns every bedspace still occupied after archiveDate,
// sorted by reference then id.
func BlockingBedspaces(bedspaces []PremisesBedspace, archiveDate civil.Date) []BlockingBedspace {
	var out []BlockingBedspace
	for _, pb := range bedspaces {
		o, blocked := occupancyBlocking(pb.Occupants, archiveDate)
		if !blocked {
			continue
		}
		out = append(out, BlockingBedspace{
			BedspaceID: pb.Bedspace.ID,
			Reference:  pb.Bedspace.Reference,
			LatestEnd:  o.Interval.End,
			Kind:       o.Kind,
			OccupantID: o.ID,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Reference != out[j].Reference {
			return out[i].Reference < out[j].Reference
		}
		return out[i].BedspaceID < out[j].BedspaceID
	})
	return out
}

// SchedulePremisesArchive archives p on endDate and carries the date down to
// every live bedspace that would otherwise outlast it. All blocking
// bedspaces are reported together. The returned bedspaces are the ones
// changed by the cascade.
func SchedulePremisesArchive(p Premises, bedspaces []PremisesBedspace, endDate, now civil.Date) (Premises, []Bedspace, error) {
	if err := p.Schedule.transition(ArchiveEventFor(endDate, now), now); err != nil {
		return p, nil, err
	}
	v := p.Schedule.archiveErrors(endDate, now)
	if blocking := BlockingBedspaces(bedspaces, endDate); len(blocking) > 0 {
		v.addError(FieldError{Field: FieldEndDate, Code: CodeExistingBookings, Blocking: blocking})
	}
	if err := v.err(); err != nil {
		return p, nil, err
	}

	p.Schedule = p.Schedule.archived(endDate, now)

	var changed []Bedspace
	for _, pb := range bedspaces {
		b := pb.Bedspace
		settled := b.Schedule.Settle(now)
		if settled.Status(now) == StatusArchived {
			continue
		}
		if settled.EndDate != nil && !settled.EndDate.After(endDate) {
			continue
		}
		bedspaceEnd := endDate
		if settled.StartDate != nil {
			bedspaceEnd = MaxDate(endDate, *settled.StartDate)
		}
		settled.EndDate = datePtr(bedspaceEnd)
		b.Schedule = settled
		changed = append(changed, b)
	}
	return p, changed, nil
}

// SchedulePremisesUnarchive restarts p on restartDate along with the
// bedspaces that were archived on the same date as p.
func SchedulePremisesUnarchive(p Premises, bedspaces []Bedspace, restartDate, now civil.Date) (Premises, []Bedspace, error) {
	archivedOn := p.Schedule.Settle(now).EndDate
	s, err := p.Schedule.ScheduleUnarchive(restartDate, now)
	if err != nil {
		return p, nil, err
	}
	p.Schedule = s

	if archivedOn == nil {
		return p, nil, nil
	}
	var changed []Bedspace
	for _, b := range bedspaces {
		settled := b.Schedule.Settle(now)
		if !sameDate(settled.EndDate, archivedOn) || b.Schedule.State(now) != StateArchived {
			continue
		}
		b.Schedule = settled.unarchived(restartDate, now)
		changed = append(changed, b)
	}
	return p, changed, nil
}

// CancelPremisesArchive clears a pending archive on p and on the bedspaces
// that were scheduled with it.
func CancelPremisesArchive(p Premises, bedspaces []Bedspace, now civil.Date) (Premises, []Bedspace, error) {
	pending := p.Schedule.PendingArchiveDate(now)
	s, err := p.Schedule.CancelArchive(now)
	if err != nil || pending == nil {
		return p, nil, err
	}
	p.Schedule = s

	var changed []Bedspace
	for _, b := range bedspaces {
		if !sameDate(b.Schedule.PendingArchiveDate(now), pending) {
			continue
		}
		bs, err := b.Schedule.CancelArchive(now)
		if err != nil {
			continue
		}
		b.Schedule = bs
		changed = append(changed, b)
	}
	return p, changed, nil
}

// CancelPremisesUnarchive clears a pending restart on p and on the bedspaces
// that were restarted with it.
func CancelPremisesUnarchive(p Premises, bedspaces []Bedspace, now civil.Date) (Premises, []Bedspace, error) {
	pending := p.Schedule.PendingUnarchiveDate(now)
	s, err := p.Schedule.CancelUnarchive(now)
	if err != nil || pending == nil {
		return p, nil, err
	}
	p.Schedule = s

	var changed []Bedspace
	for _, b := range bedspaces {
		if !sameDate(b.Schedule.PendingUnarchiveDate(now), pending) {
			continue
		}
		bs, err := b.Schedule.CancelUnarchive(now)
		if err != nil {
			continue
		}
		b.Schedule = bs
		changed = append(changed, b)
	}
	return p, changed, nil
}
