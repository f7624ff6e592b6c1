package domain

import "context"

// PremisesRepository defines the persistence contract for premises.
type PremisesRepository interface {
	CreatePremises(ctx context.Context, p Premises) error
	GetPremises(ctx context.Context, id string) (Premises, error)
	// UpdatePremises stores p together with the bedspaces its schedule change
	// cascaded to, atomically.
	UpdatePremises(ctx context.Context, p Premises, cascade []Bedspace) error
}

// BedspaceRepository defines the persistence contract for bedspaces.
type BedspaceRepository interface {
	CreateBedspace(ctx context.Context, b Bedspace) error
	GetBedspace(ctx context.Context, id string) (Bedspace, error)
	ListBedspaces(ctx context.Context, premisesID string) ([]Bedspace, error)
	UpdateBedspace(ctx context.Context, b Bedspace) error
}

// BookingRepository defines the persistence contract for bookings.
// Create and Update re-check occupancy inside the write and fail with
// ErrOccupancyConflict when another booking or void overlaps.
type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) error
	GetBooking(ctx context.Context, id string) (Booking, error)
	UpdateBooking(ctx context.Context, b Booking) error
}

// VoidRepository defines the persistence contract for voids, with the same
// occupancy guarantee as BookingRepository.
type VoidRepository interface {
	CreateVoid(ctx context.Context, v Void) error
	GetVoid(ctx context.Context, id string) (Void, error)
	UpdateVoid(ctx context.Context, v Void) error
}

// OccupancyFilter narrows an occupancy snapshot. Empty fields match all.
type OccupancyFilter struct {
	PremisesID       string
	BedspaceID       string
	IncludeCancelled bool
}

// OccupancyReader loads the bookings and voids conflict checks run against.
type OccupancyReader interface {
	ListOccupancy(ctx context.Context, filter OccupancyFilter) (BedspaceOccupancy, error)
}

// Store is everything the service persists.
type Store interface {
	PremisesRepository
	BedspaceRepository
	BookingRepository
	VoidRepository
	OccupancyReader
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// TransitionValidator checks an event against a state machine and returns
// the state it leads to.
type TransitionValidator[S ~string, E ~string] interface {
	Apply(ctx context.Context, current S, event E) (S, error)
}
