package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

var premisesColumns = []string{
	"id", "name", "address_line1", "town", "postcode", "notes", "turnaround_working_days",
	"start_date", "end_date", "scheduled_unarchive_date", "last_archived_date",
	"created_at", "updated_at",
}

var bedspaceColumns = []string{
	"id", "premises_id", "reference", "notes",
	"start_date", "end_date", "scheduled_unarchive_date", "last_archived_date",
	"created_at", "updated_at",
}

func scheduleValues(s domain.ArchiveSchedule) []any {
	return []any{
		nullDateArg(s.StartDate),
		nullDateArg(s.EndDate),
		nullDateArg(s.ScheduledUnarchiveDate),
		nullDateArg(s.LastArchivedDate),
	}
}

func scheduleSet(s domain.ArchiveSchedule) map[string]any {
	return map[string]any{
		"start_date":               nullDateArg(s.StartDate),
		"end_date":                 nullDateArg(s.EndDate),
		"scheduled_unarchive_date": nullDateArg(s.ScheduledUnarchiveDate),
		"last_archived_date":       nullDateArg(s.LastArchivedDate),
	}
}

// scheduleColumns receives the four nullable schedule dates of a row.
type scheduleColumns struct {
	start, end, unarchive, lastArchived sql.NullString
}

func (c *scheduleColumns) dest() []any {
	return []any{&c.start, &c.end, &c.unarchive, &c.lastArchived}
}

func (c *scheduleColumns) schedule() (domain.ArchiveSchedule, error) {
	var s domain.ArchiveSchedule
	var err error
	if s.StartDate, err = parseNullDate(c.start); err != nil {
		return s, err
	}
	if s.EndDate, err = parseNullDate(c.end); err != nil {
		return s, err
	}
	if s.ScheduledUnarchiveDate, err = parseNullDate(c.unarchive); err != nil {
		return s, err
	}
	s.LastArchivedDate, err = parseNullDate(c.lastArchived)
	return s, err
}

func (s *Store) CreatePremises(ctx context.Context, p domain.Premises) error {
	values := append([]any{
		p.ID, p.Name, p.AddressLine1, p.Town, p.Postcode, p.Notes, p.TurnaroundWorkingDays,
	}, scheduleValues(p.Schedule)...)
	values = append(values, formatTime(p.CreatedAt), formatTime(p.UpdatedAt))

	if _, err := exec(ctx, s.db, builder.Insert("premises").Columns(premisesColumns...).Values(values...)); err != nil {
		return fmt.Errorf("inserting premises: %w", err)
	}
	return nil
}

func (s *Store) GetPremises(ctx context.Context, id string) (domain.Premises, error) {
	row, err := queryRow(ctx, s.db, builder.Select(premisesColumns...).From("premises").Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Premises{}, err
	}

	var p domain.Premises
	var sc scheduleColumns
	var createdAt, updatedAt string
	dest := append([]any{&p.ID, &p.Name, &p.AddressLine1, &p.Town, &p.Postcode, &p.Notes, &p.TurnaroundWorkingDays}, sc.dest()...)
	dest = append(dest, &createdAt, &updatedAt)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Premises{}, domain.ErrPremisesNotFound
		}
		return domain.Premises{}, fmt.Errorf("scanning premises: %w", err)
	}
	if p.Schedule, err = sc.schedule(); err != nil {
		return domain.Premises{}, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Premises{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Premises{}, err
	}
	return p, nil
}

// UpdatePremises stores p and the bedspaces its schedule change cascaded to
// in one transaction.
func (s *Store) UpdatePremises(ctx context.Context, p domain.Premises, cascade []domain.Bedspace) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		set := scheduleSet(p.Schedule)
		set["name"] = p.Name
		set["address_line1"] = p.AddressLine1
		set["town"] = p.Town
		set["postcode"] = p.Postcode
		set["notes"] = p.Notes
		set["turnaround_working_days"] = p.TurnaroundWorkingDays
		set["updated_at"] = formatTime(p.UpdatedAt)

		result, err := exec(ctx, tx, builder.Update("premises").SetMap(set).Where(sq.Eq{"id": p.ID}))
		if err != nil {
			return fmt.Errorf("updating premises: %w", err)
		}
		if err := requireAffected(result, domain.ErrPremisesNotFound); err != nil {
			return err
		}

		for _, b := range cascade {
			if err := updateBedspace(ctx, tx, b); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) CreateBedspace(ctx context.Context, b domain.Bedspace) error {
	values := append([]any{b.ID, b.PremisesID, b.Reference, b.Notes}, scheduleValues(b.Schedule)...)
	values = append(values, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))

	if _, err := exec(ctx, s.db, builder.Insert("bedspaces").Columns(bedspaceColumns...).Values(values...)); err != nil {
		if isUniqueViolation(err) {
			return &domain.BedspaceReferenceConflictError{PremisesID: b.PremisesID, Reference: b.Reference}
		}
		return fmt.Errorf("inserting bedspace: %w", err)
	}
	return nil
}

func (s *Store) GetBedspace(ctx context.Context, id string) (domain.Bedspace, error) {
	row, err := queryRow(ctx, s.db, builder.Select(bedspaceColumns...).From("bedspaces").Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Bedspace{}, err
	}
	b, err := scanBedspace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Bedspace{}, domain.ErrBedspaceNotFound
	}
	return b, err
}

// ListBedspaces returns a premises' bedspaces ordered by reference.
func (s *Store) ListBedspaces(ctx context.Context, premisesID string) ([]domain.Bedspace, error) {
	rows, err := query(ctx, s.db, builder.Select(bedspaceColumns...).
		From("bedspaces").
		Where(sq.Eq{"premises_id": premisesID}).
		OrderBy("reference", "id"))
	if err != nil {
		return nil, fmt.Errorf("listing bedspaces: %w", err)
	}
	defer rows.Close()

	var bedspaces []domain.Bedspace
	for rows.Next() {
		b, err := scanBedspace(rows)
		if err != nil {
			return nil, err
		}
		bedspaces = append(bedspaces, b)
	}
	return bedspaces, rows.Err()
}

func (s *Store) UpdateBedspace(ctx context.Context, b domain.Bedspace) error {
	return updateBedspace(ctx, s.db, b)
}

func updateBedspace(ctx context.Context, q queryer, b domain.Bedspace) error {
	set := scheduleSet(b.Schedule)
	set["reference"] = b.Reference
	set["notes"] = b.Notes
	set["updated_at"] = formatTime(b.UpdatedAt)

	result, err := exec(ctx, q, builder.Update("bedspaces").SetMap(set).Where(sq.Eq{"id": b.ID}))
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.BedspaceReferenceConflictError{PremisesID: b.PremisesID, Reference: b.Reference}
		}
		return fmt.Errorf("updating bedspace: %w", err)
	}
	return requireAffected(result, domain.ErrBedspaceNotFound)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBedspace(row rowScanner) (domain.Bedspace, error) {
	var b domain.Bedspace
	var sc scheduleColumns
	var createdAt, updatedAt string
	dest := append([]any{&b.ID, &b.PremisesID, &b.Reference, &b.Notes}, sc.dest()...)
	dest = append(dest, &createdAt, &updatedAt)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Bedspace{}, err
		}
		return domain.Bedspace{}, fmt.Errorf("scanning bedspace: %w", err)
	}
	var err error
	if b.Schedule, err = sc.schedule(); err != nil {
		return domain.Bedspace{}, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Bedspace{}, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Bedspace{}, err
	}
	return b, nil
}
