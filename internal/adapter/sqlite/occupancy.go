package sqlite

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

// ListOccupancy loads the bookings and voids matching filter, ordered by
// start date then id.
func (s *Store) ListOccupancy(ctx context.Context, filter domain.OccupancyFilter) (domain.BedspaceOccupancy, error) {
	bookingWhere := sq.Eq{}
	voidWhere := sq.Eq{}
	if filter.PremisesID != "" {
		bookingWhere["b.premises_id"] = filter.PremisesID
		voidWhere["premises_id"] = filter.PremisesID
	}
	if filter.BedspaceID != "" {
		bookingWhere["b.bedspace_id"] = filter.BedspaceID
		voidWhere["bedspace_id"] = filter.BedspaceID
	}
	if !filter.IncludeCancelled {
		bookingWhere["b.cancelled"] = false
		voidWhere["cancelled_on"] = nil
	}

	bookings, err := loadBookings(ctx, s.db, bookingSelect().Where(bookingWhere).OrderBy("b.arrival_date", "b.id"))
	if err != nil {
		return domain.BedspaceOccupancy{}, err
	}
	voids, err := loadVoids(ctx, s.db, builder.Select(voidColumns...).
		From("voids").
		Where(voidWhere).
		OrderBy("start_date", "id"))
	if err != nil {
		return domain.BedspaceOccupancy{}, err
	}
	return domain.BedspaceOccupancy{Bookings: bookings, Voids: voids}, nil
}
