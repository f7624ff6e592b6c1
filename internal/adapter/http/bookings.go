package http

import (
	"context"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/danielgtaylor/huma/v2"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/app"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

// --- Create Booking ---

type CreateBookingInput struct {
	BedspaceID string `path:"id" doc:"Bedspace ID"`
	Body       struct {
		CRN                   string `json:"crn" minLength:"1" maxLength:"16" doc:"Case reference number"`
		ArrivalDate           string `json:"arrivalDate" doc:"YYYY-MM-DD"`
		DepartureDate         string `json:"departureDate" doc:"YYYY-MM-DD"`
		TurnaroundWorkingDays *int   `json:"turnaroundWorkingDays,omitempty" doc:"Defaults to the premises turnaround"`
	}
}

type BookingOutput struct {
	Body BookingResponse
}

type BookingIDInput struct {
	ID string `path:"id" doc:"Booking ID"`
}

// --- Booking events ---

type ConfirmBookingInput struct {
	ID   string `path:"id" doc:"Booking ID"`
	Body struct {
		Notes string `json:"notes,omitempty"`
	} `required:"false"`
}

type ArrivalInput struct {
	ID   string `path:"id" doc:"Booking ID"`
	Body struct {
		ArrivalDate           string `json:"arrivalDate" doc:"YYYY-MM-DD"`
		ExpectedDepartureDate string `json:"expectedDepartureDate" doc:"YYYY-MM-DD"`
		Notes                 string `json:"notes,omitempty"`
	}
}

type DepartureInput struct {
	ID   string `path:"id" doc:"Booking ID"`
	Body struct {
		DepartureDate  string `json:"departureDate" doc:"YYYY-MM-DD, not in the future"`
		Reason         string `json:"reason" minLength:"1"`
		MoveOnCategory string `json:"moveOnCategory,omitempty"`
		Notes          string `json:"notes,omitempty"`
	}
}

type CancellationInput struct {
	ID   string `path:"id" doc:"Booking ID"`
	Body struct {
		CancelledOn string `json:"cancelledOn,omitempty" doc:"YYYY-MM-DD, defaults to today"`
		Reason      string `json:"reason" minLength:"1"`
		Notes       string `json:"notes,omitempty"`
	}
}

type ExtensionInput struct {
	ID   string `path:"id" doc:"Booking ID"`
	Body struct {
		NewDepartureDate string `json:"newDepartureDate" doc:"YYYY-MM-DD"`
		IsAuthorised     *bool  `json:"isAuthorised,omitempty" doc:"Required when the stay exceeds the maximum"`
		Reason           string `json:"reason,omitempty" doc:"Required for an unauthorised overstay"`
		Notes            string `json:"notes,omitempty"`
	}
}

type ExtensionOutput struct {
	Body struct {
		Booking BookingResponse         `json:"booking"`
		Change  DepartureChangeResponse `json:"change"`
	}
}

type TurnaroundInput struct {
	ID   string `path:"id" doc:"Booking ID"`
	Body struct {
		WorkingDays int `json:"workingDays" doc:"Working days the bedspace stays unavailable after departure"`
	}
}

type OverstayInput struct {
	ID               string `path:"id" doc:"Booking ID"`
	NewDepartureDate string `query:"newDepartureDate" required:"true" doc:"Proposed departure date (YYYY-MM-DD)"`
}

type OverstayOutput struct {
	Body struct {
		Nights                int    `json:"nights"`
		NightsOverLimit       int    `json:"nightsOverLimit"`
		IsOverstay            bool   `json:"isOverstay"`
		Label                 string `json:"label" doc:"extension, shortening or overstay"`
		PreviousDepartureDate string `json:"previousDepartureDate"`
	}
}

// --- Voids ---

type CreateVoidInput struct {
	BedspaceID string `path:"id" doc:"Bedspace ID"`
	Body       struct {
		StartDate string `json:"startDate" doc:"YYYY-MM-DD"`
		EndDate   string `json:"endDate" doc:"YYYY-MM-DD"`
		Reason    string `json:"reason" minLength:"1"`
		Notes     string `json:"notes,omitempty"`
	}
}

type VoidOutput struct {
	Body VoidResponse
}

type UpdateVoidInput struct {
	ID   string `path:"id" doc:"Void ID"`
	Body struct {
		StartDate string `json:"startDate" doc:"YYYY-MM-DD"`
		EndDate   string `json:"endDate" doc:"YYYY-MM-DD"`
	}
}

type CancelVoidInput struct {
	ID   string `path:"id" doc:"Void ID"`
	Body struct {
		CancelledOn string `json:"cancelledOn,omitempty" doc:"YYYY-MM-DD, defaults to today"`
		Notes       string `json:"notes,omitempty"`
	} `required:"false"`
}

func registerBookings(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-booking",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/bedspaces/{id}/bookings",
		Summary:       "Book a bedspace",
		Tags:          []string{"Bookings"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateBookingInput) (*BookingOutput, error) {
		var dates dateFields
		arrival := dates.required(domain.FieldArrivalDate, input.Body.ArrivalDate)
		departure := dates.required(domain.FieldDepartureDate, input.Body.DepartureDate)
		if err := dates.err(); err != nil {
			return nil, err
		}
		b, err := svc.CreateBooking(ctx, app.CreateBookingInput{
			BedspaceID:            input.BedspaceID,
			CRN:                   input.Body.CRN,
			ArrivalDate:           arrival,
			DepartureDate:         departure,
			TurnaroundWorkingDays: input.Body.TurnaroundWorkingDays,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-booking",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/bookings/{id}",
		Summary:     "Get a booking by ID",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *BookingIDInput) (*BookingOutput, error) {
		b, err := svc.GetBooking(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "confirm-booking",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/bookings/{id}/confirmations",
		Summary:     "Confirm a provisional booking",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *ConfirmBookingInput) (*BookingOutput, error) {
		b, err := svc.ConfirmBooking(ctx, input.ID, input.Body.Notes)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-arrived",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/bookings/{id}/arrivals",
		Summary:     "Record an arrival",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *ArrivalInput) (*BookingOutput, error) {
		var dates dateFields
		arrival := domain.Arrival{
			ArrivalDate:           dates.required(domain.FieldArrivalDate, input.Body.ArrivalDate),
			ExpectedDepartureDate: dates.required(domain.FieldExpectedDepartureDate, input.Body.ExpectedDepartureDate),
			Notes:                 input.Body.Notes,
		}
		if err := dates.err(); err != nil {
			return nil, err
		}
		b, err := svc.MarkArrived(ctx, input.ID, arrival)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-departed",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/bookings/{id}/departures",
		Summary:     "Record a departure",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *DepartureInput) (*BookingOutput, error) {
		var dates dateFields
		departure := domain.Departure{
			DepartureDate:  dates.required(domain.FieldDepartureDate, input.Body.DepartureDate),
			Reason:         input.Body.Reason,
			MoveOnCategory: input.Body.MoveOnCategory,
			Notes:          input.Body.Notes,
		}
		if err := dates.err(); err != nil {
			return nil, err
		}
		b, err := svc.MarkDeparted(ctx, input.ID, departure)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-booking",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/bookings/{id}/cancellations",
		Summary:     "Cancel a booking",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *CancellationInput) (*BookingOutput, error) {
		var dates dateFields
		cancelledOn := dates.optional("cancelledOn", input.Body.CancelledOn)
		if err := dates.err(); err != nil {
			return nil, err
		}
		cancellation := domain.Cancellation{
			CancelledOn: derefDate(cancelledOn),
			Reason:      input.Body.Reason,
			Notes:       input.Body.Notes,
		}
		b, err := svc.CancelBooking(ctx, input.ID, cancellation)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "extend-booking",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/bookings/{id}/extensions",
		Summary:     "Change a booking's departure date",
		Description: "Records an extension, shortening or overstay. Stays beyond the maximum need an authorisation decision.",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *ExtensionInput) (*ExtensionOutput, error) {
		var dates dateFields
		req := domain.DepartureChangeRequest{
			NewDepartureDate: dates.required(domain.FieldNewDepartureDate, input.Body.NewDepartureDate),
			IsAuthorised:     input.Body.IsAuthorised,
			Reason:           input.Body.Reason,
			Notes:            input.Body.Notes,
		}
		if err := dates.err(); err != nil {
			return nil, err
		}
		b, change, err := svc.ExtendBooking(ctx, input.ID, req)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &ExtensionOutput{}
		out.Body.Booking = toBookingResponse(b)
		out.Body.Change = toDepartureChangeResponse(change)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-turnaround",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/bookings/{id}/turnaround",
		Summary:     "Change a booking's turnaround",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *TurnaroundInput) (*BookingOutput, error) {
		b, err := svc.ChangeTurnaround(ctx, input.ID, input.Body.WorkingDays)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "evaluate-overstay",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/bookings/{id}/overstay",
		Summary:     "Preview how a new departure date would be recorded",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *OverstayInput) (*OverstayOutput, error) {
		var dates dateFields
		newDeparture := dates.required(domain.FieldNewDepartureDate, input.NewDepartureDate)
		if err := dates.err(); err != nil {
			return nil, err
		}
		check, err := svc.EvaluateOverstay(ctx, input.ID, newDeparture)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &OverstayOutput{}
		out.Body.Nights = check.Evaluation.Nights
		out.Body.NightsOverLimit = check.Evaluation.NightsOverLimit
		out.Body.IsOverstay = check.Evaluation.IsOverstay
		out.Body.Label = string(check.Label)
		out.Body.PreviousDepartureDate = check.PreviousDepartureDate.String()
		return out, nil
	})
}

func registerVoids(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-void",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/bedspaces/{id}/voids",
		Summary:       "Take a bedspace out of service",
		Tags:          []string{"Voids"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateVoidInput) (*VoidOutput, error) {
		var dates dateFields
		start := dates.required(domain.FieldStartDate, input.Body.StartDate)
		end := dates.required(domain.FieldEndDate, input.Body.EndDate)
		if err := dates.err(); err != nil {
			return nil, err
		}
		v, err := svc.CreateVoid(ctx, app.CreateVoidInput{
			BedspaceID: input.BedspaceID,
			StartDate:  start,
			EndDate:    end,
			Reason:     input.Body.Reason,
			Notes:      input.Body.Notes,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &VoidOutput{Body: toVoidResponse(v)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-void",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/voids/{id}",
		Summary:     "Change a void's dates",
		Tags:        []string{"Voids"},
	}, func(ctx context.Context, input *UpdateVoidInput) (*VoidOutput, error) {
		var dates dateFields
		start := dates.required(domain.FieldStartDate, input.Body.StartDate)
		end := dates.required(domain.FieldEndDate, input.Body.EndDate)
		if err := dates.err(); err != nil {
			return nil, err
		}
		v, err := svc.UpdateVoidDates(ctx, input.ID, start, end)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &VoidOutput{Body: toVoidResponse(v)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-void",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/voids/{id}/cancellations",
		Summary:     "Cancel a void",
		Tags:        []string{"Voids"},
	}, func(ctx context.Context, input *CancelVoidInput) (*VoidOutput, error) {
		var dates dateFields
		cancelledOn := dates.optional("cancelledOn", input.Body.CancelledOn)
		if err := dates.err(); err != nil {
			return nil, err
		}
		cancellation := domain.VoidCancellation{CancelledOn: derefDate(cancelledOn), Notes: input.Body.Notes}
		v, err := svc.CancelVoid(ctx, input.ID, cancellation)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &VoidOutput{Body: toVoidResponse(v)}, nil
	})
}

// derefDate is the zero date for nil, which the service reads as today.
func derefDate(d *civil.Date) civil.Date {
	if d == nil {
		return civil.Date{}
	}
	return *d
}
