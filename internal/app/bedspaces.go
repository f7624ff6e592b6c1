package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

type CreateBedspaceInput struct {
	PremisesID string
	Reference  string
	Notes      string
	// StartDate defaults to today.
	StartDate *civil.Date
}

// CreateBedspace adds a bedspace to a premises. References are unique
// within a premises.
func (s *Service) CreateBedspace(ctx context.Context, in CreateBedspaceInput) (domain.Bedspace, error) {
	if _, err := s.store.GetPremises(ctx, in.PremisesID); err != nil {
		return domain.Bedspace{}, err
	}
	start := s.Today()
	if in.StartDate != nil {
		start = *in.StartDate
	}
	b, err := domain.NewBedspace(domain.NewBedspaceInput{
		ID:         newID(),
		PremisesID: in.PremisesID,
		Reference:  in.Reference,
		Notes:      in.Notes,
		StartDate:  start,
		CreatedAt:  s.clock.Now().UTC(),
	})
	if err != nil {
		return domain.Bedspace{}, err
	}
	if err := s.store.CreateBedspace(ctx, b); err != nil {
		return domain.Bedspace{}, fmt.Errorf("creating bedspace: %w", err)
	}
	if err := s.publish(ctx, bedspaceEvent(domain.EventBedspaceCreated, b, s.Today(), nil)); err != nil {
		return domain.Bedspace{}, err
	}
	return b, nil
}

func (s *Service) GetBedspace(ctx context.Context, id string) (domain.Bedspace, error) {
	return s.store.GetBedspace(ctx, id)
}

func (s *Service) ListBedspaces(ctx context.Context, premisesID string) ([]domain.Bedspace, error) {
	if _, err := s.store.GetPremises(ctx, premisesID); err != nil {
		return nil, err
	}
	return s.store.ListBedspaces(ctx, premisesID)
}

// ArchiveBedspace schedules (or performs) the archive of a bedspace. Any
// booking, turnaround or void still running after endDate blocks it.
func (s *Service) ArchiveBedspace(ctx context.Context, id string, endDate civil.Date) (domain.Bedspace, error) {
	b, err := s.store.GetBedspace(ctx, id)
	if err != nil {
		return domain.Bedspace{}, err
	}
	today := s.Today()
	if _, err := s.validators.Schedule.Apply(ctx, b.Schedule.State(today), domain.ArchiveEventFor(endDate, today)); err != nil {
		return domain.Bedspace{}, err
	}
	occupants, err := s.occupants(ctx, id)
	if err != nil {
		return domain.Bedspace{}, err
	}
	updated, err := domain.ScheduleBedspaceArchive(b, endDate, today, occupants)
	if err != nil {
		return domain.Bedspace{}, err
	}
	return s.saveBedspace(ctx, updated, domain.EventBedspaceArchived, &endDate)
}

func (s *Service) UnarchiveBedspace(ctx context.Context, id string, restartDate civil.Date) (domain.Bedspace, error) {
	b, err := s.store.GetBedspace(ctx, id)
	if err != nil {
		return domain.Bedspace{}, err
	}
	today := s.Today()
	if _, err := s.validators.Schedule.Apply(ctx, b.Schedule.State(today), domain.UnarchiveEventFor(restartDate, today)); err != nil {
		return domain.Bedspace{}, err
	}
	updated, err := domain.ScheduleBedspaceUnarchive(b, restartDate, today)
	if err != nil {
		return domain.Bedspace{}, err
	}
	return s.saveBedspace(ctx, updated, domain.EventBedspaceUnarchived, &restartDate)
}

// CancelBedspaceArchive withdraws a pending archive; with nothing pending the
// bedspace is returned unchanged.
func (s *Service) CancelBedspaceArchive(ctx context.Context, id string) (domain.Bedspace, error) {
	b, err := s.store.GetBedspace(ctx, id)
	if err != nil {
		return domain.Bedspace{}, err
	}
	today := s.Today()
	pending := b.Schedule.PendingArchiveDate(today)
	if pending != nil {
		if _, err := s.validators.Schedule.Apply(ctx, b.Schedule.State(today), domain.EventCancelArchive); err != nil {
			return domain.Bedspace{}, err
		}
	}
	updated, err := domain.CancelBedspaceArchive(b, today)
	if err != nil {
		return domain.Bedspace{}, err
	}
	if pending == nil {
		return b, nil
	}
	return s.saveBedspace(ctx, updated, domain.EventBedspaceArchiveCancelled, nil)
}

func (s *Service) CancelBedspaceUnarchive(ctx context.Context, id string) (domain.Bedspace, error) {
	b, err := s.store.GetBedspace(ctx, id)
	if err != nil {
		return domain.Bedspace{}, err
	}
	today := s.Today()
	pending := b.Schedule.PendingUnarchiveDate(today)
	if pending != nil {
		if _, err := s.validators.Schedule.Apply(ctx, b.Schedule.State(today), domain.EventCancelUnarchive); err != nil {
			return domain.Bedspace{}, err
		}
	}
	updated, err := domain.CancelBedspaceUnarchive(b, today)
	if err != nil {
		return domain.Bedspace{}, err
	}
	if pending == nil {
		return b, nil
	}
	return s.saveBedspace(ctx, updated, domain.EventBedspaceUnarchiveCancelled, nil)
}

func (s *Service) saveBedspace(ctx context.Context, b domain.Bedspace, name domain.EventName, effectiveOn *civil.Date) (domain.Bedspace, error) {
	b.UpdatedAt = s.clock.Now().UTC()
	if err := s.store.UpdateBedspace(ctx, b); err != nil {
		return domain.Bedspace{}, fmt.Errorf("updating bedspace: %w", err)
	}
	if err := s.publish(ctx, bedspaceEvent(name, b, s.Today(), effectiveOn)); err != nil {
		return domain.Bedspace{}, err
	}
	return b, nil
}

func bedspaceEvent(name domain.EventName, b domain.Bedspace, today civil.Date, effectiveOn *civil.Date) domain.DomainEvent {
	e := domain.DomainEvent{
		Name:       name,
		EntityID:   b.ID,
		PremisesID: b.PremisesID,
		BedspaceID: b.ID,
		Status:     string(b.Status(today)),
	}
	if effectiveOn != nil {
		e.EffectiveOn = effectiveOn.String()
	}
	return e
}
