package http

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

const timestampFormat = "2006-01-02T15:04:05Z"

// ScheduleResponse exposes the dates an archive status is derived from.
type ScheduleResponse struct {
	Status                 string `json:"status" doc:"Derived status: upcoming, online or archived"`
	StartDate              string `json:"startDate,omitempty" doc:"Date the entity went or goes live"`
	EndDate                string `json:"endDate,omitempty" doc:"Date the entity goes offline"`
	ScheduledUnarchiveDate string `json:"scheduledUnarchiveDate,omitempty" doc:"Pending restart date"`
	LastArchivedDate       string `json:"lastArchivedDate,omitempty" doc:"Archive date replaced by the last restart"`
}

func toScheduleResponse(s domain.ArchiveSchedule, today civil.Date) ScheduleResponse {
	return ScheduleResponse{
		Status:                 string(s.Status(today)),
		StartDate:              optionalDate(s.StartDate),
		EndDate:                optionalDate(s.EndDate),
		ScheduledUnarchiveDate: optionalDate(s.ScheduledUnarchiveDate),
		LastArchivedDate:       optionalDate(s.LastArchivedDate),
	}
}

// PremisesResponse is the API representation of a premises.
type PremisesResponse struct {
	ID                    string `json:"id" doc:"Unique identifier"`
	Name                  string `json:"name"`
	AddressLine1          string `json:"addressLine1,omitempty"`
	Town                  string `json:"town,omitempty"`
	Postcode              string `json:"postcode"`
	Notes                 string `json:"notes,omitempty"`
	TurnaroundWorkingDays int    `json:"turnaroundWorkingDays" doc:"Default turnaround for new bookings"`
	ScheduleResponse
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toPremisesResponse(p domain.Premises, today civil.Date) PremisesResponse {
	return PremisesResponse{
		ID:                    p.ID,
		Name:                  p.Name,
		AddressLine1:          p.AddressLine1,
		Town:                  p.Town,
		Postcode:              p.Postcode,
		Notes:                 p.Notes,
		TurnaroundWorkingDays: p.TurnaroundWorkingDays,
		ScheduleResponse:      toScheduleResponse(p.Schedule, today),
		CreatedAt:             timestamp(p.CreatedAt),
		UpdatedAt:             timestamp(p.UpdatedAt),
	}
}

// BedspaceResponse is the API representation of a bedspace.
type BedspaceResponse struct {
	ID         string `json:"id" doc:"Unique identifier"`
	PremisesID string `json:"premisesId"`
	Reference  string `json:"reference" doc:"Reference unique within the premises"`
	Notes      string `json:"notes,omitempty"`
	ScheduleResponse
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toBedspaceResponse(b domain.Bedspace, today civil.Date) BedspaceResponse {
	return BedspaceResponse{
		ID:               b.ID,
		PremisesID:       b.PremisesID,
		Reference:        b.Reference,
		Notes:            b.Notes,
		ScheduleResponse: toScheduleResponse(b.Schedule, today),
		CreatedAt:        timestamp(b.CreatedAt),
		UpdatedAt:        timestamp(b.UpdatedAt),
	}
}

// DepartureChangeResponse is one entry of a booking's departure history.
type DepartureChangeResponse struct {
	Kind                  string `json:"kind" doc:"extension, overstay, arrival or departure"`
	Label                 string `json:"label" doc:"extension, shortening or overstay"`
	PreviousDepartureDate string `json:"previousDepartureDate"`
	NewDepartureDate      string `json:"newDepartureDate"`
	IsAuthorised          *bool  `json:"isAuthorised,omitempty"`
	Reason                string `json:"reason,omitempty"`
	Notes                 string `json:"notes,omitempty"`
	RecordedOn            string `json:"recordedOn"`
}

func toDepartureChangeResponse(c domain.DepartureChange) DepartureChangeResponse {
	return DepartureChangeResponse{
		Kind:                  string(c.Kind),
		Label:                 string(c.Label()),
		PreviousDepartureDate: c.PreviousDepartureDate.String(),
		NewDepartureDate:      c.NewDepartureDate.String(),
		IsAuthorised:          c.IsAuthorised,
		Reason:                c.Reason,
		Notes:                 c.Notes,
		RecordedOn:            c.RecordedOn.String(),
	}
}

// BookingResponse is the API representation of a booking.
type BookingResponse struct {
	ID                     string                    `json:"id" doc:"Unique identifier"`
	PremisesID             string                    `json:"premisesId"`
	BedspaceID             string                    `json:"bedspaceId"`
	CRN                    string                    `json:"crn" doc:"Case reference number"`
	Status                 string                    `json:"status" doc:"Derived booking status"`
	ArrivalDate            string                    `json:"arrivalDate"`
	DepartureDate          string                    `json:"departureDate" doc:"Departure date as booked"`
	EffectiveDepartureDate string                    `json:"effectiveDepartureDate" doc:"Departure date after every recorded change"`
	TurnaroundWorkingDays  int                       `json:"turnaroundWorkingDays"`
	TurnaroundEndDate      string                    `json:"turnaroundEndDate" doc:"Last day the bedspace stays unavailable"`
	ConfirmedOn            string                    `json:"confirmedOn,omitempty"`
	CancelledOn            string                    `json:"cancelledOn,omitempty"`
	CancellationReason     string                    `json:"cancellationReason,omitempty"`
	DepartureReason        string                    `json:"departureReason,omitempty"`
	MoveOnCategory         string                    `json:"moveOnCategory,omitempty"`
	History                []DepartureChangeResponse `json:"history"`
	CreatedAt              string                    `json:"createdAt"`
	UpdatedAt              string                    `json:"updatedAt"`
}

func toBookingResponse(b domain.Booking) BookingResponse {
	window := b.TurnaroundWindow()
	resp := BookingResponse{
		ID:                     b.ID,
		PremisesID:             b.PremisesID,
		BedspaceID:             b.BedspaceID,
		CRN:                    b.CRN,
		Status:                 string(b.Status()),
		ArrivalDate:            b.ArrivalDate.String(),
		DepartureDate:          b.DepartureDate.String(),
		EffectiveDepartureDate: b.EffectiveDepartureDate().String(),
		TurnaroundWorkingDays:  b.TurnaroundWorkingDays(),
		TurnaroundEndDate:      window.EffectiveEndDate.String(),
		History:                make([]DepartureChangeResponse, len(b.History)),
		CreatedAt:              timestamp(b.CreatedAt),
		UpdatedAt:              timestamp(b.UpdatedAt),
	}
	for i, c := range b.History {
		resp.History[i] = toDepartureChangeResponse(c)
	}
	if b.Confirmation != nil {
		resp.ConfirmedOn = b.Confirmation.ConfirmedOn.String()
	}
	if b.Cancellation != nil {
		resp.CancelledOn = b.Cancellation.CancelledOn.String()
		resp.CancellationReason = b.Cancellation.Reason
	}
	if b.Departure != nil {
		resp.DepartureReason = b.Departure.Reason
		resp.MoveOnCategory = b.Departure.MoveOnCategory
	}
	return resp
}

// VoidResponse is the API representation of a void (lost bed).
type VoidResponse struct {
	ID          string `json:"id" doc:"Unique identifier"`
	PremisesID  string `json:"premisesId"`
	BedspaceID  string `json:"bedspaceId"`
	Status      string `json:"status" doc:"active or cancelled"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Reason      string `json:"reason"`
	Notes       string `json:"notes,omitempty"`
	CancelledOn string `json:"cancelledOn,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toVoidResponse(v domain.Void) VoidResponse {
	resp := VoidResponse{
		ID:         v.ID,
		PremisesID: v.PremisesID,
		BedspaceID: v.BedspaceID,
		Status:     string(v.Status()),
		StartDate:  v.StartDate.String(),
		EndDate:    v.EndDate.String(),
		Reason:     v.Reason,
		Notes:      v.Notes,
		CreatedAt:  timestamp(v.CreatedAt),
		UpdatedAt:  timestamp(v.UpdatedAt),
	}
	if v.Cancellation != nil {
		resp.CancelledOn = v.Cancellation.CancelledOn.String()
	}
	return resp
}

// OccupantResponse is a booking or void holding a bedspace over a date range.
type OccupantResponse struct {
	Kind       string `json:"kind" doc:"booking or lost-bed"`
	ID         string `json:"id"`
	BedspaceID string `json:"bedspaceId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate" doc:"Last occupied day, turnaround included"`
}

func toOccupantResponse(o domain.Occupant) OccupantResponse {
	return OccupantResponse{
		Kind:       string(o.Kind),
		ID:         o.ID,
		BedspaceID: o.BedspaceID,
		StartDate:  o.Interval.Start.String(),
		EndDate:    o.Interval.End.String(),
	}
}

// BlockingBedspaceResponse names a bedspace preventing a premises archive.
type BlockingBedspaceResponse struct {
	BedspaceID string `json:"bedspaceId"`
	Reference  string `json:"reference"`
	LatestEnd  string `json:"latestEnd"`
	Kind       string `json:"kind"`
	OccupantID string `json:"occupantId"`
}

func toBlockingResponses(blocking []domain.BlockingBedspace) []BlockingBedspaceResponse {
	out := make([]BlockingBedspaceResponse, len(blocking))
	for i, b := range blocking {
		out[i] = BlockingBedspaceResponse{
			BedspaceID: b.BedspaceID,
			Reference:  b.Reference,
			LatestEnd:  b.LatestEnd.String(),
			Kind:       string(b.Kind),
			OccupantID: b.OccupantID,
		}
	}
	return out
}

func optionalDate(d *civil.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}
