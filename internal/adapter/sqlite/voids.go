package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

var voidColumns = []string{
	"id", "premises_id", "bedspace_id", "start_date", "end_date", "reason", "notes",
	"cancelled_on", "cancellation_notes", "created_at", "updated_at",
}

func (s *Store) CreateVoid(ctx context.Context, v domain.Void) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		interval := domain.Interval{Start: v.StartDate, End: v.EndDate}
		if err := checkOccupancy(ctx, tx, v.BedspaceID, interval, domain.OccupantLostBed, v.ID); err != nil {
			return err
		}

		cancelledOn, cancellationNotes := voidCancellationArgs(v)
		_, err := exec(ctx, tx, builder.Insert("voids").Columns(voidColumns...).Values(
			v.ID, v.PremisesID, v.BedspaceID, dateArg(v.StartDate), dateArg(v.EndDate), v.Reason, v.Notes,
			cancelledOn, cancellationNotes, formatTime(v.CreatedAt), formatTime(v.UpdatedAt),
		))
		if err != nil {
			return fmt.Errorf("inserting void: %w", err)
		}
		return nil
	})
}

func (s *Store) GetVoid(ctx context.Context, id string) (domain.Void, error) {
	voids, err := loadVoids(ctx, s.db, builder.Select(voidColumns...).From("voids").Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Void{}, err
	}
	if len(voids) == 0 {
		return domain.Void{}, domain.ErrVoidNotFound
	}
	return voids[0], nil
}

func (s *Store) UpdateVoid(ctx context.Context, v domain.Void) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if v.Cancellation == nil {
			interval := domain.Interval{Start: v.StartDate, End: v.EndDate}
			if err := checkOccupancy(ctx, tx, v.BedspaceID, interval, domain.OccupantLostBed, v.ID); err != nil {
				return err
			}
		}

		cancelledOn, cancellationNotes := voidCancellationArgs(v)
		result, err := exec(ctx, tx, builder.Update("voids").
			SetMap(map[string]any{
				"start_date":         dateArg(v.StartDate),
				"end_date":           dateArg(v.EndDate),
				"reason":             v.Reason,
				"notes":              v.Notes,
				"cancelled_on":       cancelledOn,
				"cancellation_notes": cancellationNotes,
				"updated_at":         formatTime(v.UpdatedAt),
			}).
			Where(sq.Eq{"id": v.ID}))
		if err != nil {
			return fmt.Errorf("updating void: %w", err)
		}
		return requireAffected(result, domain.ErrVoidNotFound)
	})
}

func voidCancellationArgs(v domain.Void) (any, string) {
	if v.Cancellation == nil {
		return nil, ""
	}
	return dateArg(v.Cancellation.CancelledOn), v.Cancellation.Notes
}

func loadVoids(ctx context.Context, q queryer, sel sq.SelectBuilder) ([]domain.Void, error) {
	rows, err := query(ctx, q, sel)
	if err != nil {
		return nil, fmt.Errorf("querying voids: %w", err)
	}
	defer rows.Close()

	var voids []domain.Void
	for rows.Next() {
		var v domain.Void
		var start, end, createdAt, updatedAt, cancellationNotes string
		var cancelledOn sql.NullString
		if err := rows.Scan(
			&v.ID, &v.PremisesID, &v.BedspaceID, &start, &end, &v.Reason, &v.Notes,
			&cancelledOn, &cancellationNotes, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning void row: %w", err)
		}
		if v.StartDate, err = parseDate(start); err != nil {
			return nil, err
		}
		if v.EndDate, err = parseDate(end); err != nil {
			return nil, err
		}
		if cancelledOn.Valid {
			c := domain.VoidCancellation{Notes: cancellationNotes}
			if c.CancelledOn, err = parseDate(cancelledOn.String); err != nil {
				return nil, err
			}
			v.Cancellation = &c
		}
		if v.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if v.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		voids = append(voids, v)
	}
	return voids, rows.Err()
}
