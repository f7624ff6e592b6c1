package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

// bookingSelect loads a booking row with its one-to-one sub-records.
func bookingSelect() sq.SelectBuilder {
	return builder.Select(
		"b.id", "b.premises_id", "b.bedspace_id", "b.crn", "b.arrival_date", "b.departure_date",
		"b.turnaround_working_days", "b.created_at", "b.updated_at",
		"c.confirmed_on", "c.notes",
		"a.arrival_date", "a.expected_departure_date", "a.notes",
		"d.departure_date", "d.reason", "d.move_on_category", "d.notes",
		"x.cancelled_on", "x.reason", "x.notes",
	).
		From("bookings b").
		LeftJoin("booking_confirmations c ON c.booking_id = b.id").
		LeftJoin("booking_arrivals a ON a.booking_id = b.id").
		LeftJoin("booking_departures d ON d.booking_id = b.id").
		LeftJoin("booking_cancellations x ON x.booking_id = b.id")
}

func (s *Store) CreateBooking(ctx context.Context, b domain.Booking) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkOccupancy(ctx, tx, b.BedspaceID, b.OccupancyInterval(), domain.OccupantBooking, b.ID); err != nil {
			return err
		}

		interval := b.OccupancyInterval()
		_, err := exec(ctx, tx, builder.Insert("bookings").
			Columns(
				"id", "premises_id", "bedspace_id", "crn", "arrival_date", "departure_date",
				"turnaround_working_days", "occupancy_start", "occupancy_end", "cancelled",
				"created_at", "updated_at",
			).
			Values(
				b.ID, b.PremisesID, b.BedspaceID, b.CRN, dateArg(b.ArrivalDate), dateArg(b.DepartureDate),
				turnaroundArg(b.Turnaround), dateArg(interval.Start), dateArg(interval.End), b.Cancellation != nil,
				formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
			))
		if err != nil {
			return fmt.Errorf("inserting booking: %w", err)
		}
		return writeBookingRecords(ctx, tx, b)
	})
}

func (s *Store) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	bookings, err := loadBookings(ctx, s.db, bookingSelect().Where(sq.Eq{"b.id": id}))
	if err != nil {
		return domain.Booking{}, err
	}
	if len(bookings) == 0 {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	return bookings[0], nil
}

// UpdateBooking stores b's current state. Departure history is append-only:
// entries already stored are never rewritten.
func (s *Store) UpdateBooking(ctx context.Context, b domain.Booking) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		interval := b.OccupancyInterval()
		if b.Cancellation == nil {
			if err := checkOccupancy(ctx, tx, b.BedspaceID, interval, domain.OccupantBooking, b.ID); err != nil {
				return err
			}
		}

		result, err := exec(ctx, tx, builder.Update("bookings").
			SetMap(map[string]any{
				"arrival_date":            dateArg(b.ArrivalDate),
				"departure_date":          dateArg(b.DepartureDate),
				"turnaround_working_days": turnaroundArg(b.Turnaround),
				"occupancy_start":         dateArg(interval.Start),
				"occupancy_end":           dateArg(interval.End),
				"cancelled":               b.Cancellation != nil,
				"updated_at":              formatTime(b.UpdatedAt),
			}).
			Where(sq.Eq{"id": b.ID}))
		if err != nil {
			return fmt.Errorf("updating booking: %w", err)
		}
		if err := requireAffected(result, domain.ErrBookingNotFound); err != nil {
			return err
		}
		return writeBookingRecords(ctx, tx, b)
	})
}

func turnaroundArg(t *domain.Turnaround) any {
	if t == nil {
		return nil
	}
	return t.WorkingDays
}

// writeBookingRecords upserts the sub-records present on b and appends any
// history entries not yet stored.
func writeBookingRecords(ctx context.Context, tx *sql.Tx, b domain.Booking) error {
	var stmts []sq.InsertBuilder
	if c := b.Confirmation; c != nil {
		stmts = append(stmts, builder.Insert("booking_confirmations").Options("OR REPLACE").
			Columns("booking_id", "confirmed_on", "notes").
			Values(b.ID, dateArg(c.ConfirmedOn), c.Notes))
	}
	if a := b.Arrival; a != nil {
		stmts = append(stmts, builder.Insert("booking_arrivals").Options("OR REPLACE").
			Columns("booking_id", "arrival_date", "expected_departure_date", "notes").
			Values(b.ID, dateArg(a.ArrivalDate), dateArg(a.ExpectedDepartureDate), a.Notes))
	}
	if d := b.Departure; d != nil {
		stmts = append(stmts, builder.Insert("booking_departures").Options("OR REPLACE").
			Columns("booking_id", "departure_date", "reason", "move_on_category", "notes").
			Values(b.ID, dateArg(d.DepartureDate), d.Reason, d.MoveOnCategory, d.Notes))
	}
	if x := b.Cancellation; x != nil {
		stmts = append(stmts, builder.Insert("booking_cancellations").Options("OR REPLACE").
			Columns("booking_id", "cancelled_on", "reason", "notes").
			Values(b.ID, dateArg(x.CancelledOn), x.Reason, x.Notes))
	}
	for seq, h := range b.History {
		var authorised any
		if h.IsAuthorised != nil {
			authorised = *h.IsAuthorised
		}
		stmts = append(stmts, builder.Insert("booking_departure_changes").Options("OR IGNORE").
			Columns(
				"booking_id", "seq", "kind", "previous_departure_date", "new_departure_date",
				"is_authorised", "reason", "notes", "recorded_on",
			).
			Values(
				b.ID, seq, string(h.Kind), dateArg(h.PreviousDepartureDate), dateArg(h.NewDepartureDate),
				authorised, h.Reason, h.Notes, dateArg(h.RecordedOn),
			))
	}

	for _, stmt := range stmts {
		if _, err := exec(ctx, tx, stmt); err != nil {
			return fmt.Errorf("writing booking records: %w", err)
		}
	}
	return nil
}

// loadBookings runs a bookingSelect query and attaches each booking's
// departure history.
func loadBookings(ctx context.Context, q queryer, sel sq.SelectBuilder) ([]domain.Booking, error) {
	rows, err := query(ctx, q, sel)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, nil
	}

	ids := make([]string, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
	}
	history, err := loadHistory(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		bookings[i].History = history[bookings[i].ID]
	}
	return bookings, nil
}

func scanBooking(rows *sql.Rows) (domain.Booking, error) {
	var b domain.Booking
	var arrival, departure, createdAt, updatedAt string
	var turnaround sql.NullInt64
	var confirmedOn, confirmationNotes sql.NullString
	var arrivedOn, expectedDeparture, arrivalNotes sql.NullString
	var departedOn, departureReason, moveOn, departureNotes sql.NullString
	var cancelledOn, cancellationReason, cancellationNotes sql.NullString

	err := rows.Scan(
		&b.ID, &b.PremisesID, &b.BedspaceID, &b.CRN, &arrival, &departure,
		&turnaround, &createdAt, &updatedAt,
		&confirmedOn, &confirmationNotes,
		&arrivedOn, &expectedDeparture, &arrivalNotes,
		&departedOn, &departureReason, &moveOn, &departureNotes,
		&cancelledOn, &cancellationReason, &cancellationNotes,
	)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("scanning booking row: %w", err)
	}

	if b.ArrivalDate, err = parseDate(arrival); err != nil {
		return domain.Booking{}, err
	}
	if b.DepartureDate, err = parseDate(departure); err != nil {
		return domain.Booking{}, err
	}
	if turnaround.Valid {
		b.Turnaround = &domain.Turnaround{WorkingDays: int(turnaround.Int64)}
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Booking{}, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.Booking{}, err
	}

	if confirmedOn.Valid {
		c := domain.Confirmation{Notes: confirmationNotes.String}
		if c.ConfirmedOn, err = parseDate(confirmedOn.String); err != nil {
			return domain.Booking{}, err
		}
		b.Confirmation = &c
	}
	if arrivedOn.Valid {
		a := domain.Arrival{Notes: arrivalNotes.String}
		if a.ArrivalDate, err = parseDate(arrivedOn.String); err != nil {
			return domain.Booking{}, err
		}
		if a.ExpectedDepartureDate, err = parseDate(expectedDeparture.String); err != nil {
			return domain.Booking{}, err
		}
		b.Arrival = &a
	}
	if departedOn.Valid {
		d := domain.Departure{Reason: departureReason.String, MoveOnCategory: moveOn.String, Notes: departureNotes.String}
		if d.DepartureDate, err = parseDate(departedOn.String); err != nil {
			return domain.Booking{}, err
		}
		b.Departure = &d
	}
	if cancelledOn.Valid {
		x := domain.Cancellation{Reason: cancellationReason.String, Notes: cancellationNotes.String}
		if x.CancelledOn, err = parseDate(cancelledOn.String); err != nil {
			return domain.Booking{}, err
		}
		b.Cancellation = &x
	}
	return b, nil
}

func loadHistory(ctx context.Context, q queryer, bookingIDs []string) (map[string][]domain.DepartureChange, error) {
	rows, err := query(ctx, q, builder.Select(
		"booking_id", "kind", "previous_departure_date", "new_departure_date",
		"is_authorised", "reason", "notes", "recorded_on",
	).
		From("booking_departure_changes").
		Where(sq.Eq{"booking_id": bookingIDs}).
		OrderBy("booking_id", "seq"))
	if err != nil {
		return nil, fmt.Errorf("querying departure history: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.DepartureChange)
	for rows.Next() {
		var id, kind, previous, next, recorded string
		var authorised sql.NullBool
		var h domain.DepartureChange
		if err := rows.Scan(&id, &kind, &previous, &next, &authorised, &h.Reason, &h.Notes, &recorded); err != nil {
			return nil, fmt.Errorf("scanning departure change: %w", err)
		}
		h.Kind = domain.DepartureChangeKind(kind)
		if authorised.Valid {
			v := authorised.Bool
			h.IsAuthorised = &v
		}
		if h.PreviousDepartureDate, err = parseDate(previous); err != nil {
			return nil, err
		}
		if h.NewDepartureDate, err = parseDate(next); err != nil {
			return nil, err
		}
		if h.RecordedOn, err = parseDate(recorded); err != nil {
			return nil, err
		}
		out[id] = append(out[id], h)
	}
	return out, rows.Err()
}

// checkOccupancy is the authoritative overlap check, run inside the write
// transaction. Touching dates overlap.
func checkOccupancy(ctx context.Context, tx *sql.Tx, bedspaceID string, interval domain.Interval, kind domain.OccupantKind, id string) error {
	bookings := builder.Select("1").From("bookings").
		Where(sq.Eq{"bedspace_id": bedspaceID, "cancelled": false}).
		Where(sq.LtOrEq{"occupancy_start": dateArg(interval.End)}).
		Where(sq.GtOrEq{"occupancy_end": dateArg(interval.Start)}).
		Limit(1)
	voids := builder.Select("1").From("voids").
		Where(sq.Eq{"bedspace_id": bedspaceID, "cancelled_on": nil}).
		Where(sq.LtOrEq{"start_date": dateArg(interval.End)}).
		Where(sq.GtOrEq{"end_date": dateArg(interval.Start)}).
		Limit(1)

	switch kind {
	case domain.OccupantBooking:
		bookings = bookings.Where(sq.NotEq{"id": id})
	case domain.OccupantLostBed:
		voids = voids.Where(sq.NotEq{"id": id})
	}

	for _, sel := range []sq.SelectBuilder{bookings, voids} {
		row, err := queryRow(ctx, tx, sel)
		if err != nil {
			return err
		}
		var found int
		err = row.Scan(&found)
		switch {
		case err == nil:
			return domain.ErrOccupancyConflict
		case errors.Is(err, sql.ErrNoRows):
			continue
		default:
			return fmt.Errorf("checking occupancy: %w", err)
		}
	}
	return nil
}
