package domain

import (
	"sort"

	"cloud.google.com/go/civil"
)

// OccupantKind tags what is holding a bedspace.
type OccupantKind string

const (
	OccupantBooking OccupantKind = "booking"
	OccupantLostBed OccupantKind = "lost-bed"
)

// Occupant is a booking or void expanded to the dates it keeps a bedspace busy.
type Occupant struct {
	Kind       OccupantKind
	ID         string
	BedspaceID string
	Interval   Interval
}

// BookingOccupant expands a booking to [arrival, end of turnaround].
func BookingOccupant(b Booking) Occupant {
	return Occupant{
		Kind:       OccupantBooking,
		ID:         b.ID,
		BedspaceID: b.BedspaceID,
		Interval:   b.OccupancyInterval(),
	}
}

// VoidOccupant expands a void to [start, end].
func VoidOccupant(v Void) Occupant {
	return Occupant{
		Kind:       OccupantLostBed,
		ID:         v.ID,
		BedspaceID: v.BedspaceID,
		Interval:   Interval{Start: v.StartDate, End: v.EndDate},
	}
}

// BedspaceOccupancy is a snapshot of everything placed on one bedspace.
type BedspaceOccupancy struct {
	Bookings []Booking
	Voids    []Void
}

// Occupants returns the occupancy intervals of every booking and void that
// is not cancelled.
func (o BedspaceOccupancy) Occupants() []Occupant {
	out := make([]Occupant, 0, len(o.Bookings)+len(o.Voids))
	for _, b := range o.Bookings {
		if b.Status() == BookingCancelled {
			continue
		}
		out = append(out, BookingOccupant(b))
	}
	for _, v := range o.Voids {
		if v.Status() == VoidCancelled {
			continue
		}
		out = append(out, VoidOccupant(v))
	}
	return out
}

// Candidate is a proposed occupancy being checked. Kind and ID identify the
// entity being re-validated so it never conflicts with itself; both are
// empty for something not yet created.
type Candidate struct {
	Interval Interval
	Kind     OccupantKind
	ID       string
}

func (c Candidate) isSelf(o Occupant) bool {
	return c.ID != "" && c.Kind == o.Kind && c.ID == o.ID
}

// FindConflicts returns every occupant overlapping the candidate, ordered
// by start date then id.
func FindConflicts(candidate Candidate, occupants []Occupant) []Occupant {
	var out []Occupant
	for _, o := range occupants {
		if candidate.isSelf(o) {
			continue
		}
		if candidate.Interval.Overlaps(o.Interval) {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := CompareDates(out[i].Interval.Start, out[j].Interval.Start); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// FindConflict returns the earliest occupant overlapping the candidate.
func FindConflict(candidate Candidate, occupants []Occupant) (Occupant, bool) {
	conflicts := FindConflicts(candidate, occupants)
	if len(conflicts) == 0 {
		return Occupant{}, false
	}
	return conflicts[0], true
}

// ConflictFailure reports a collision against each of the given fields.
func ConflictFailure(conflict Occupant, fields ...string) *ValidationError {
	ve := &ValidationError{}
	for _, f := range fields {
		c := conflict
		ve.Errors = append(ve.Errors, FieldError{Field: f, Code: CodeConflict, Conflict: &c})
	}
	return ve
}

// CheckConflict runs the detector and, on a collision, tags the given
// fields. It returns nil when the candidate is free.
func CheckConflict(candidate Candidate, occupants []Occupant, fields ...string) error {
	conflict, found := FindConflict(candidate, occupants)
	if !found {
		return nil
	}
	return ConflictFailure(conflict, fields...)
}

// LatestOccupancyEnd returns the occupant whose interval ends last. Ties go
// to bookings, then to the lowest id.
func LatestOccupancyEnd(occupants []Occupant) (Occupant, bool) {
	if len(occupants) == 0 {
		return Occupant{}, false
	}
	latest := occupants[0]
	for _, o := range occupants[1:] {
		switch c := CompareDates(o.Interval.End, latest.Interval.End); {
		case c > 0:
			latest = o
		case c == 0 && o.Kind != latest.Kind && o.Kind == OccupantBooking:
			latest = o
		case c == 0 && o.Kind == latest.Kind && o.ID < latest.ID:
			latest = o
		}
	}
	return latest, true
}

// occupancyBlocking checks whether anything on a bedspace is still in place
// after archiveDate. Occupancy ending on archiveDate itself does not block.
func occupancyBlocking(occupants []Occupant, archiveDate civil.Date) (Occupant, bool) {
	latest, ok := LatestOccupancyEnd(occupants)
	if !ok || !latest.Interval.End.After(archiveDate) {
		return Occupant{}, false
	}
	return latest, true
}

func existingOccupancyCode(o Occupant) string {
	if o.Kind == OccupantLostBed {
		return CodeExistingVoid
	}
	return CodeExistingBookings
}
