package domain

import "time"

// EventName identifies a recorded state change.
type EventName string

const (
	EventPremisesCreated            EventName = "premises.created"
	EventPremisesArchived           EventName = "premises.archived"
	EventPremisesUnarchived         EventName = "premises.unarchived"
	EventPremisesArchiveCancelled   EventName = "premises.archive_cancelled"
	EventPremisesUnarchiveCancelled EventName = "premises.unarchive_cancelled"

	EventBedspaceCreated            EventName = "bedspace.created"
	EventBedspaceArchived           EventName = "bedspace.archived"
	EventBedspaceUnarchived         EventName = "bedspace.unarchived"
	EventBedspaceArchiveCancelled   EventName = "bedspace.archive_cancelled"
	EventBedspaceUnarchiveCancelled EventName = "bedspace.unarchive_cancelled"

	EventBookingCreated           EventName = "booking.created"
	EventBookingConfirmed         EventName = "booking.confirmed"
	EventBookingArrived           EventName = "booking.arrived"
	EventBookingDeparted          EventName = "booking.departed"
	EventBookingCancelled         EventName = "booking.cancelled"
	EventBookingExtended          EventName = "booking.extended"
	EventBookingTurnaroundChanged EventName = "booking.turnaround_changed"

	EventVoidCreated   EventName = "void.created"
	EventVoidUpdated   EventName = "void.updated"
	EventVoidCancelled EventName = "void.cancelled"
)

// DomainEvent is a snapshot of what changed, published after the change
// has been stored.
type DomainEvent struct {
	Name        EventName
	EntityID    string
	PremisesID  string
	BedspaceID  string
	Status      string
	EffectiveOn string
	OccurredAt  time.Time
}
