package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

type CreatePremisesInput struct {
	Name                  string
	AddressLine1          string
	Town                  string
	Postcode              string
	Notes                 string
	TurnaroundWorkingDays *int
	// StartDate defaults to today.
	StartDate *civil.Date
}

func (s *Service) CreatePremises(ctx context.Context, in CreatePremisesInput) (domain.Premises, error) {
	start := s.Today()
	if in.StartDate != nil {
		start = *in.StartDate
	}
	turnaround := in.TurnaroundWorkingDays
	if turnaround == nil {
		turnaround = s.defaultTurnaround
	}
	p, err := domain.NewPremises(domain.NewPremisesInput{
		ID:                    newID(),
		Name:                  in.Name,
		AddressLine1:          in.AddressLine1,
		Town:                  in.Town,
		Postcode:              in.Postcode,
		Notes:                 in.Notes,
		TurnaroundWorkingDays: turnaround,
		StartDate:             start,
		CreatedAt:             s.clock.Now().UTC(),
	})
	if err != nil {
		return domain.Premises{}, err
	}
	if err := s.store.CreatePremises(ctx, p); err != nil {
		return domain.Premises{}, fmt.Errorf("creating premises: %w", err)
	}
	if err := s.publish(ctx, premisesEvent(domain.EventPremisesCreated, p, s.Today(), nil)); err != nil {
		return domain.Premises{}, err
	}
	return p, nil
}

func (s *Service) GetPremises(ctx context.Context, id string) (domain.Premises, error) {
	return s.store.GetPremises(ctx, id)
}

// premisesBedspaces pairs each bedspace of the premises with its occupants.
func (s *Service) premisesBedspaces(ctx context.Context, premisesID string) ([]domain.PremisesBedspace, error) {
	bedspaces, err := s.store.ListBedspaces(ctx, premisesID)
	if err != nil {
		return nil, fmt.Errorf("listing bedspaces: %w", err)
	}
	occupancy, err := s.store.ListOccupancy(ctx, domain.OccupancyFilter{PremisesID: premisesID})
	if err != nil {
		return nil, fmt.Errorf("loading occupancy for premises %s: %w", premisesID, err)
	}
	byBedspace := make(map[string][]domain.Occupant)
	for _, o := range occupancy.Occupants() {
		byBedspace[o.BedspaceID] = append(byBedspace[o.BedspaceID], o)
	}
	out := make([]domain.PremisesBedspace, 0, len(bedspaces))
	for _, b := range bedspaces {
		out = append(out, domain.PremisesBedspace{Bedspace: b, Occupants: byBedspace[b.ID]})
	}
	return out, nil
}

// ArchivePremises schedules (or, for today or earlier, performs) the archive
// of a premises and every bedspace that would outlive it.
func (s *Service) ArchivePremises(ctx context.Context, id string, endDate civil.Date) (domain.Premises, error) {
	p, err := s.store.GetPremises(ctx, id)
	if err != nil {
		return domain.Premises{}, err
	}
	today := s.Today()
	if _, err := s.validators.Schedule.Apply(ctx, p.Schedule.State(today), domain.ArchiveEventFor(endDate, today)); err != nil {
		return domain.Premises{}, err
	}
	bedspaces, err := s.premisesBedspaces(ctx, id)
	if err != nil {
		return domain.Premises{}, err
	}
	updated, cascade, err := domain.SchedulePremisesArchive(p, bedspaces, endDate, today)
	if err != nil {
		return domain.Premises{}, err
	}
	return s.savePremises(ctx, updated, cascade, domain.EventPremisesArchived, &endDate)
}

func (s *Service) UnarchivePremises(ctx context.Context, id string, restartDate civil.Date) (domain.Premises, error) {
	p, err := s.store.GetPremises(ctx, id)
	if err != nil {
		return domain.Premises{}, err
	}
	today := s.Today()
	if _, err := s.validators.Schedule.Apply(ctx, p.Schedule.State(today), domain.UnarchiveEventFor(restartDate, today)); err != nil {
		return domain.Premises{}, err
	}
	bedspaces, err := s.store.ListBedspaces(ctx, id)
	if err != nil {
		return domain.Premises{}, fmt.Errorf("listing bedspaces: %w", err)
	}
	updated, cascade, err := domain.SchedulePremisesUnarchive(p, bedspaces, restartDate, today)
	if err != nil {
		return domain.Premises{}, err
	}
	return s.savePremises(ctx, updated, cascade, domain.EventPremisesUnarchived, &restartDate)
}

// CancelPremisesArchive withdraws a pending archive. With nothing pending the
// premises is returned unchanged and nothing is published.
func (s *Service) CancelPremisesArchive(ctx context.Context, id string) (domain.Premises, error) {
	p, err := s.store.GetPremises(ctx, id)
	if err != nil {
		return domain.Premises{}, err
	}
	today := s.Today()
	pending := p.Schedule.PendingArchiveDate(today)
	if pending != nil {
		if _, err := s.validators.Schedule.Apply(ctx, p.Schedule.State(today), domain.EventCancelArchive); err != nil {
			return domain.Premises{}, err
		}
	}
	bedspaces, err := s.store.ListBedspaces(ctx, id)
	if err != nil {
		return domain.Premises{}, fmt.Errorf("listing bedspaces: %w", err)
	}
	updated, cascade, err := domain.CancelPremisesArchive(p, bedspaces, today)
	if err != nil {
		return domain.Premises{}, err
	}
	if pending == nil {
		return p, nil
	}
	return s.savePremises(ctx, updated, cascade, domain.EventPremisesArchiveCancelled, nil)
}

func (s *Service) CancelPremisesUnarchive(ctx context.Context, id string) (domain.Premises, error) {
	p, err := s.store.GetPremises(ctx, id)
	if err != nil {
		return domain.Premises{}, err
	}
	today := s.Today()
	pending := p.Schedule.PendingUnarchiveDate(today)
	if pending != nil {
		if _, err := s.validators.Schedule.Apply(ctx, p.Schedule.State(today), domain.EventCancelUnarchive); err != nil {
			return domain.Premises{}, err
		}
	}
	bedspaces, err := s.store.ListBedspaces(ctx, id)
	if err != nil {
		return domain.Premises{}, fmt.Errorf("listing bedspaces: %w", err)
	}
	updated, cascade, err := domain.CancelPremisesUnarchive(p, bedspaces, today)
	if err != nil {
		return domain.Premises{}, err
	}
	if pending == nil {
		return p, nil
	}
	return s.savePremises(ctx, updated, cascade, domain.EventPremisesUnarchiveCancelled, nil)
}

func (s *Service) savePremises(ctx context.Context, p domain.Premises, cascade []domain.Bedspace, name domain.EventName, effectiveOn *civil.Date) (domain.Premises, error) {
	now := s.clock.Now().UTC()
	p.UpdatedAt = now
	for i := range cascade {
		cascade[i].UpdatedAt = now
	}
	if err := s.store.UpdatePremises(ctx, p, cascade); err != nil {
		return domain.Premises{}, fmt.Errorf("updating premises: %w", err)
	}
	today := s.Today()
	if err := s.publish(ctx, premisesEvent(name, p, today, effectiveOn)); err != nil {
		return domain.Premises{}, err
	}
	for _, b := range cascade {
		if err := s.publish(ctx, bedspaceEvent(cascadeEventName(name), b, today, effectiveOn)); err != nil {
			return domain.Premises{}, err
		}
	}
	return p, nil
}

// cascadeEventName is the bedspace event matching a premises schedule event.
func cascadeEventName(name domain.EventName) domain.EventName {
	switch name {
	case domain.EventPremisesArchived:
		return domain.EventBedspaceArchived
	case domain.EventPremisesUnarchived:
		return domain.EventBedspaceUnarchived
	case domain.EventPremisesArchiveCancelled:
		return domain.EventBedspaceArchiveCancelled
	case domain.EventPremisesUnarchiveCancelled:
		return domain.EventBedspaceUnarchiveCancelled
	}
	return name
}

func premisesEvent(name domain.EventName, p domain.Premises, today civil.Date, effectiveOn *civil.Date) domain.DomainEvent {
	e := domain.DomainEvent{
		Name:       name,
		EntityID:   p.ID,
		PremisesID: p.ID,
		Status:     string(p.Status(today)),
	}
	if effectiveOn != nil {
		e.EffectiveOn = effectiveOn.String()
	}
	return e
}
