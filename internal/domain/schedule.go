package domain

import "cloud.google.com/go/civil"

// ArchiveStatus is the derived availability of a premises or bedspace.
type ArchiveStatus string

const (
	StatusOnline   ArchiveStatus = "online"
	StatusUpcoming ArchiveStatus = "upcoming"
	StatusArchived ArchiveStatus = "archived"
)

// ScheduleState refines ArchiveStatus with whether a change is pending.
// It is what the schedule transition table is keyed on.
type ScheduleState string

const (
	StateOnline             ScheduleState = "online"
	StateArchiveScheduled   ScheduleState = "archive_scheduled"
	StateArchived           ScheduleState = "archived"
	StateUnarchiveScheduled ScheduleState = "unarchive_scheduled"
	StateUpcoming           ScheduleState = "upcoming"
)

type ScheduleEvent string

const (
	EventArchive           ScheduleEvent = "archive"
	EventScheduleArchive   ScheduleEvent = "schedule_archive"
	EventCancelArchive     ScheduleEvent = "cancel_archive"
	EventUnarchive         ScheduleEvent = "unarchive"
	EventScheduleUnarchive ScheduleEvent = "schedule_unarchive"
	EventCancelUnarchive   ScheduleEvent = "cancel_unarchive"
)

// ScheduleTransitions is shared by premises and bedspaces. A pending change
// has to be cancelled before another one can be scheduled. An upcoming
// entity may be archived as long as the end date is not before its start.
var ScheduleTransitions = []Transition[ScheduleState, ScheduleEvent]{
	{Event: EventArchive, Src: StateOnline, Dst: StateArchived},
	{Event: EventScheduleArchive, Src: StateOnline, Dst: StateArchiveScheduled},
	{Event: EventArchive, Src: StateUpcoming, Dst: StateArchived},
	{Event: EventScheduleArchive, Src: StateUpcoming, Dst: StateArchiveScheduled},
	{Event: EventCancelArchive, Src: StateArchiveScheduled, Dst: StateOnline},
	{Event: EventUnarchive, Src: StateArchived, Dst: StateOnline},
	{Event: EventScheduleUnarchive, Src: StateArchived, Dst: StateUnarchiveScheduled},
	{Event: EventCancelUnarchive, Src: StateUnarchiveScheduled, Dst: StateArchived},
}

// ArchiveEventFor picks the archive event for a requested end date.
func ArchiveEventFor(endDate, now civil.Date) ScheduleEvent {
	if endDate.After(now) {
		return EventScheduleArchive
	}
	return EventArchive
}

// UnarchiveEventFor picks the unarchive event for a requested restart date.
func UnarchiveEventFor(restartDate, now civil.Date) ScheduleEvent {
	if restartDate.After(now) {
		return EventScheduleUnarchive
	}
	return EventUnarchive
}

// ArchiveSchedule holds the dates an entity's status is derived from.
//
// StartDate is when the entity went (or goes) live and EndDate when it
// goes offline. ScheduledUnarchiveDate is a pending restart that has not
// been folded into StartDate yet; LastArchivedDate remembers the EndDate
// that a restart replaced.
type ArchiveSchedule struct {
	StartDate              *civil.Date
	EndDate                *civil.Date
	ScheduledUnarchiveDate *civil.Date
	LastArchivedDate       *civil.Date
}

// Settle folds a pending unarchive that has taken effect by now into the
// live dates. The receiver is not modified.
func (s ArchiveSchedule) Settle(now civil.Date) ArchiveSchedule {
	if s.ScheduledUnarchiveDate == nil || s.ScheduledUnarchiveDate.After(now) {
		return s
	}
	return s.restarted(*s.ScheduledUnarchiveDate)
}

func (s ArchiveSchedule) restarted(restartDate civil.Date) ArchiveSchedule {
	if s.EndDate != nil {
		s.LastArchivedDate = s.EndDate
	}
	s.StartDate = datePtr(restartDate)
	s.EndDate = nil
	s.ScheduledUnarchiveDate = nil
	return s
}

// Status derives online, upcoming or archived as of now. Archiving takes
// effect on EndDate itself.
func (s ArchiveSchedule) Status(now civil.Date) ArchiveStatus {
	s = s.Settle(now)
	switch {
	case s.StartDate == nil:
		return StatusArchived
	case s.EndDate != nil && !s.EndDate.After(now):
		return StatusArchived
	case s.StartDate.After(now):
		return StatusUpcoming
	default:
		return StatusOnline
	}
}

// State is Status plus whether an archive or unarchive is pending. An
// upcoming entity that already has an end date is archive_scheduled.
func (s ArchiveSchedule) State(now civil.Date) ScheduleState {
	if s.ScheduledUnarchiveDate != nil && s.ScheduledUnarchiveDate.After(now) {
		return StateUnarchiveScheduled
	}
	status := s.Status(now)
	switch {
	case status == StatusArchived:
		return StateArchived
	case s.Settle(now).EndDate != nil:
		return StateArchiveScheduled
	case status == StatusUpcoming:
		return StateUpcoming
	default:
		return StateOnline
	}
}

// PendingArchiveDate is the archive date still ahead of now, if any.
func (s ArchiveSchedule) PendingArchiveDate(now civil.Date) *civil.Date {
	if s.State(now) != StateArchiveScheduled {
		return nil
	}
	return s.Settle(now).EndDate
}

// PendingUnarchiveDate is the restart date still ahead of now, if any.
func (s ArchiveSchedule) PendingUnarchiveDate(now civil.Date) *civil.Date {
	if s.State(now) != StateUnarchiveScheduled {
		return nil
	}
	return s.ScheduledUnarchiveDate
}

func (s ArchiveSchedule) transition(event ScheduleEvent, now civil.Date) error {
	_, err := applyTransition(MachineSchedule, ScheduleTransitions, s.State(now), event)
	return err
}

func (s ArchiveSchedule) archiveErrors(endDate, now civil.Date) validation {
	var v validation
	if endDate.Before(now) {
		v.add(FieldEndDate, CodeInPast)
	}
	if start := s.Settle(now).StartDate; start != nil && endDate.Before(*start) {
		v.add(FieldEndDate, CodeBeforeStartDate)
	}
	return v
}

func (s ArchiveSchedule) unarchiveErrors(restartDate, now civil.Date) validation {
	var v validation
	if restartDate.Before(now) {
		v.add(FieldRestartDate, CodeInPast)
	}
	if end := s.Settle(now).EndDate; end != nil && restartDate.Before(*end) {
		v.add(FieldRestartDate, CodeBeforeLastArchivedDate)
	}
	return v
}

func (s ArchiveSchedule) archived(endDate, now civil.Date) ArchiveSchedule {
	s = s.Settle(now)
	s.EndDate = datePtr(endDate)
	return s
}

func (s ArchiveSchedule) unarchived(restartDate, now civil.Date) ArchiveSchedule {
	s = s.Settle(now)
	if restartDate.After(now) {
		s.ScheduledUnarchiveDate = datePtr(restartDate)
		return s
	}
	return s.restarted(restartDate)
}

// ScheduleArchive takes the entity offline on endDate. An endDate of today
// archives immediately.
func (s ArchiveSchedule) ScheduleArchive(endDate, now civil.Date) (ArchiveSchedule, error) {
	if err := s.transition(ArchiveEventFor(endDate, now), now); err != nil {
		return s, err
	}
	v := s.archiveErrors(endDate, now)
	if err := v.err(); err != nil {
		return s, err
	}
	return s.archived(endDate, now), nil
}

// ScheduleUnarchive brings an archived entity back on restartDate. It cannot
// restart before the date it went offline.
func (s ArchiveSchedule) ScheduleUnarchive(restartDate, now civil.Date) (ArchiveSchedule, error) {
	if err := s.transition(UnarchiveEventFor(restartDate, now), now); err != nil {
		return s, err
	}
	v := s.unarchiveErrors(restartDate, now)
	if err := v.err(); err != nil {
		return s, err
	}
	return s.unarchived(restartDate, now), nil
}

// CancelArchive clears an archive date that has not taken effect. With
// nothing pending, including an archive that already happened, the
// schedule is returned unchanged.
func (s ArchiveSchedule) CancelArchive(now civil.Date) (ArchiveSchedule, error) {
	if s.PendingArchiveDate(now) == nil {
		return s, nil
	}
	if err := s.transition(EventCancelArchive, now); err != nil {
		return s, err
	}
	settled := s.Settle(now)
	settled.EndDate = nil
	return settled, nil
}

// CancelUnarchive clears a restart date that has not taken effect. With
// nothing pending the schedule is returned unchanged.
func (s ArchiveSchedule) CancelUnarchive(now civil.Date) (ArchiveSchedule, error) {
	if s.PendingUnarchiveDate(now) == nil {
		return s, nil
	}
	if err := s.transition(EventCancelUnarchive, now); err != nil {
		return s, err
	}
	s.ScheduledUnarchiveDate = nil
	return s, nil
}
