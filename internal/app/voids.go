package app

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

type CreateVoidInput struct {
	BedspaceID string
	StartDate  civil.Date
	EndDate    civil.Date
	Reason     string
	Notes      string
}

// CreateVoid takes a bedspace out of service. It cannot overlap a booking,
// its turnaround, or another void.
func (s *Service) CreateVoid(ctx context.Context, in CreateVoidInput) (domain.Void, error) {
	bedspace, err := s.store.GetBedspace(ctx, in.BedspaceID)
	if err != nil {
		return domain.Void{}, err
	}
	occupants, err := s.occupants(ctx, bedspace.ID)
	if err != nil {
		return domain.Void{}, err
	}
	v, err := domain.NewVoid(domain.NewVoidInput{
		ID:         newID(),
		PremisesID: bedspace.PremisesID,
		BedspaceID: bedspace.ID,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
		Reason:     in.Reason,
		Notes:      in.Notes,
		CreatedAt:  s.clock.Now().UTC(),
	}, occupants)
	if err != nil {
		return domain.Void{}, err
	}
	if err := s.store.CreateVoid(ctx, v); err != nil {
		return domain.Void{}, s.explainConflict(ctx, fmt.Errorf("creating void: %w", err), v.BedspaceID,
			voidCandidate(v), domain.FieldStartDate, domain.FieldEndDate)
	}
	if err := s.publish(ctx, voidEvent(domain.EventVoidCreated, v, v.StartDate)); err != nil {
		return domain.Void{}, err
	}
	return v, nil
}

func (s *Service) GetVoid(ctx context.Context, id string) (domain.Void, error) {
	return s.store.GetVoid(ctx, id)
}

// UpdateVoidDates moves a void. Only the dates that changed are
// conflict-checked and reported.
func (s *Service) UpdateVoidDates(ctx context.Context, id string, start, end civil.Date) (domain.Void, error) {
	v, err := s.store.GetVoid(ctx, id)
	if err != nil {
		return domain.Void{}, err
	}
	if _, err := s.validators.Void.Apply(ctx, v.Status(), domain.EventVoidUpdate); err != nil {
		return domain.Void{}, err
	}
	occupants, err := s.occupants(ctx, v.BedspaceID)
	if err != nil {
		return domain.Void{}, err
	}
	updated, err := domain.UpdateVoidDates(v, start, end, occupants)
	if err != nil {
		return domain.Void{}, err
	}
	if updated.StartDate == v.StartDate && updated.EndDate == v.EndDate {
		return v, nil
	}

	var fields []string
	if updated.StartDate != v.StartDate {
		fields = append(fields, domain.FieldStartDate)
	}
	if updated.EndDate != v.EndDate {
		fields = append(fields, domain.FieldEndDate)
	}
	updated.UpdatedAt = s.clock.Now().UTC()
	if err := s.store.UpdateVoid(ctx, updated); err != nil {
		return domain.Void{}, s.explainConflict(ctx, fmt.Errorf("updating void: %w", err), v.BedspaceID,
			voidCandidate(updated), fields...)
	}
	if err := s.publish(ctx, voidEvent(domain.EventVoidUpdated, updated, updated.StartDate)); err != nil {
		return domain.Void{}, err
	}
	return updated, nil
}

// CancelVoid releases the bedspace. A zero CancelledOn means today.
func (s *Service) CancelVoid(ctx context.Context, id string, cancellation domain.VoidCancellation) (domain.Void, error) {
	v, err := s.store.GetVoid(ctx, id)
	if err != nil {
		return domain.Void{}, err
	}
	if _, err := s.validators.Void.Apply(ctx, v.Status(), domain.EventVoidCancel); err != nil {
		return domain.Void{}, err
	}
	if cancellation.CancelledOn == (civil.Date{}) {
		cancellation.CancelledOn = s.Today()
	}
	updated, err := domain.CancelVoid(v, cancellation)
	if err != nil {
		return domain.Void{}, err
	}
	updated.UpdatedAt = s.clock.Now().UTC()
	if err := s.store.UpdateVoid(ctx, updated); err != nil {
		return domain.Void{}, fmt.Errorf("updating void: %w", err)
	}
	if err := s.publish(ctx, voidEvent(domain.EventVoidCancelled, updated, cancellation.CancelledOn)); err != nil {
		return domain.Void{}, err
	}
	return updated, nil
}

func voidCandidate(v domain.Void) domain.Candidate {
	return domain.Candidate{
		Interval: domain.Interval{Start: v.StartDate, End: v.EndDate},
		Kind:     domain.OccupantLostBed,
		ID:       v.ID,
	}
}

func voidEvent(name domain.EventName, v domain.Void, effectiveOn civil.Date) domain.DomainEvent {
	return domain.DomainEvent{
		Name:        name,
		EntityID:    v.ID,
		PremisesID:  v.PremisesID,
		BedspaceID:  v.BedspaceID,
		Status:      string(v.Status()),
		EffectiveOn: effectiveOn.String(),
	}
}
