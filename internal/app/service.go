package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

// Clock supplies the current time. The engine only ever sees the date part.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Validators gate every state change before the domain applies it.
type Validators struct {
	Booking  domain.TransitionValidator[domain.BookingStatus, domain.BookingEvent]
	Schedule domain.TransitionValidator[domain.ScheduleState, domain.ScheduleEvent]
	Void     domain.TransitionValidator[domain.VoidStatus, domain.VoidEvent]
}

// Service orchestrates premises, bedspace, booking and void operations.
// Each write loads the current occupancy, runs the engine, stores the result
// and publishes an event.
type Service struct {
	store      domain.Store
	publisher  domain.EventPublisher
	validators Validators
	clock      Clock
	logger     *slog.Logger

	defaultTurnaround *int
}

// NewService creates a service with the given adapters. A nil clock uses
// the wall clock and a nil logger uses slog.Default().
func NewService(store domain.Store, publisher domain.EventPublisher, validators Validators, clock Clock, logger *slog.Logger) *Service {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		publisher:  publisher,
		validators: validators,
		clock:      clock,
		logger:     logger,
	}
}

// WithDefaultTurnaround sets the turnaround given to premises created
// without one.
func (s *Service) WithDefaultTurnaround(workingDays int) *Service {
	s.defaultTurnaround = &workingDays
	return s
}

// Today is the calendar date statuses are derived against.
func (s *Service) Today() civil.Date {
	return domain.Today(s.clock.Now())
}

func newID() string {
	return uuid.NewString()
}

func (s *Service) publish(ctx context.Context, event domain.DomainEvent) error {
	event.OccurredAt = s.clock.Now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		return fmt.Errorf("publishing %s event: %w", event.Name, err)
	}
	s.logger.InfoContext(ctx, "state change recorded",
		"event", event.Name,
		"entity_id", event.EntityID,
		"status", event.Status,
	)
	return nil
}

func (s *Service) occupants(ctx context.Context, bedspaceID string) ([]domain.Occupant, error) {
	occupancy, err := s.store.ListOccupancy(ctx, domain.OccupancyFilter{BedspaceID: bedspaceID})
	if err != nil {
		return nil, fmt.Errorf("loading occupancy for bedspace %s: %w", bedspaceID, err)
	}
	return occupancy.Occupants(), nil
}

// explainConflict turns a storage-level overlap rejection into the same
// field-tagged failure the engine would have produced, using a fresh
// snapshot. Other errors pass through.
func (s *Service) explainConflict(ctx context.Context, err error, bedspaceID string, candidate domain.Candidate, fields ...string) error {
	if !errors.Is(err, domain.ErrOccupancyConflict) {
		return err
	}
	s.logger.WarnContext(ctx, "overlap rejected by store",
		"bedspace_id", bedspaceID,
		"candidate_id", candidate.ID,
		"interval", candidate.Interval.String(),
	)
	occupants, loadErr := s.occupants(ctx, bedspaceID)
	if loadErr != nil {
		return errors.Join(err, loadErr)
	}
	if conflictErr := domain.CheckConflict(candidate, occupants, fields...); conflictErr != nil {
		return conflictErr
	}
	return err
}

// FindConflicts lists everything on the bedspace overlapping [start, end].
// excludeKind and excludeID leave out the entity being edited.
func (s *Service) FindConflicts(ctx context.Context, bedspaceID string, start, end civil.Date, excludeKind domain.OccupantKind, excludeID string) ([]domain.Occupant, error) {
	if end.Before(start) {
		return nil, domain.NewValidationError(domain.FieldEndDate, domain.CodeBeforeStartDate)
	}
	if _, err := s.store.GetBedspace(ctx, bedspaceID); err != nil {
		return nil, err
	}
	occupants, err := s.occupants(ctx, bedspaceID)
	if err != nil {
		return nil, err
	}
	candidate := domain.Candidate{
		Interval: domain.Interval{Start: start, End: end},
		Kind:     excludeKind,
		ID:       excludeID,
	}
	return domain.FindConflicts(candidate, occupants), nil
}
