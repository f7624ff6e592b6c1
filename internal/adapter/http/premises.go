package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/app"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

// --- Create Premises ---

type CreatePremisesInput struct {
	Body struct {
		Name                  string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		AddressLine1          string `json:"addressLine1,omitempty" maxLength:"255"`
		Town                  string `json:"town,omitempty" maxLength:"255"`
		Postcode              string `json:"postcode" minLength:"1" maxLength:"16"`
		Notes                 string `json:"notes,omitempty"`
		TurnaroundWorkingDays *int   `json:"turnaroundWorkingDays,omitempty" doc:"Defaults to the service default"`
		StartDate             string `json:"startDate,omitempty" doc:"Date the premises goes live (YYYY-MM-DD), defaults to today"`
	}
}

type PremisesOutput struct {
	Body PremisesResponse
}

type PremisesIDInput struct {
	ID string `path:"id" doc:"Premises ID"`
}

type ArchiveInput struct {
	ID   string `path:"id"`
	Body struct {
		EndDate string `json:"endDate" doc:"Date the entity goes offline (YYYY-MM-DD)"`
	}
}

type UnarchiveInput struct {
	ID   string `path:"id"`
	Body struct {
		RestartDate string `json:"restartDate" doc:"Date the entity comes back online (YYYY-MM-DD)"`
	}
}

// --- Bedspaces ---

type CreateBedspaceInput struct {
	PremisesID string `path:"id" doc:"Premises ID"`
	Body       struct {
		Reference string `json:"reference" minLength:"1" maxLength:"100" doc:"Reference unique within the premises"`
		Notes     string `json:"notes,omitempty"`
		StartDate string `json:"startDate,omitempty" doc:"Date the bedspace goes live (YYYY-MM-DD), defaults to today"`
	}
}

type BedspaceOutput struct {
	Body BedspaceResponse
}

type ListBedspacesOutput struct {
	Body []BedspaceResponse
}

type BedspaceIDInput struct {
	ID string `path:"id" doc:"Bedspace ID"`
}

type FindConflictsInput struct {
	ID          string `path:"id" doc:"Bedspace ID"`
	StartDate   string `query:"startDate" required:"true" doc:"First day of the candidate range (YYYY-MM-DD)"`
	EndDate     string `query:"endDate" required:"true" doc:"Last day of the candidate range (YYYY-MM-DD)"`
	ExcludeKind string `query:"excludeKind" required:"false" enum:"booking,lost-bed" doc:"Kind of the occupant being edited"`
	ExcludeID   string `query:"excludeId" required:"false" doc:"ID of the occupant being edited"`
}

type FindConflictsOutput struct {
	Body []OccupantResponse
}

func registerPremises(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-premises",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/premises",
		Summary:       "Create a premises",
		Tags:          []string{"Premises"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreatePremisesInput) (*PremisesOutput, error) {
		var dates dateFields
		startDate := dates.optional(domain.FieldStartDate, input.Body.StartDate)
		if err := dates.err(); err != nil {
			return nil, err
		}
		p, err := svc.CreatePremises(ctx, app.CreatePremisesInput{
			Name:                  input.Body.Name,
			AddressLine1:          input.Body.AddressLine1,
			Town:                  input.Body.Town,
			Postcode:              input.Body.Postcode,
			Notes:                 input.Body.Notes,
			TurnaroundWorkingDays: input.Body.TurnaroundWorkingDays,
			StartDate:             startDate,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PremisesOutput{Body: toPremisesResponse(p, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-premises",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/premises/{id}",
		Summary:     "Get a premises by ID",
		Tags:        []string{"Premises"},
	}, func(ctx context.Context, input *PremisesIDInput) (*PremisesOutput, error) {
		p, err := svc.GetPremises(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PremisesOutput{Body: toPremisesResponse(p, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "archive-premises",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/premises/{id}/archive",
		Summary:     "Archive a premises and its bedspaces",
		Description: "Archives today or schedules a future archive. Fails while any bedspace is occupied after the end date.",
		Tags:        []string{"Premises"},
	}, func(ctx context.Context, input *ArchiveInput) (*PremisesOutput, error) {
		var dates dateFields
		endDate := dates.required(domain.FieldEndDate, input.Body.EndDate)
		if err := dates.err(); err != nil {
			return nil, err
		}
		p, err := svc.ArchivePremises(ctx, input.ID, endDate)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PremisesOutput{Body: toPremisesResponse(p, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unarchive-premises",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/premises/{id}/unarchive",
		Summary:     "Bring an archived premises back online",
		Tags:        []string{"Premises"},
	}, func(ctx context.Context, input *UnarchiveInput) (*PremisesOutput, error) {
		var dates dateFields
		restartDate := dates.required(domain.FieldRestartDate, input.Body.RestartDate)
		if err := dates.err(); err != nil {
			return nil, err
		}
		p, err := svc.UnarchivePremises(ctx, input.ID, restartDate)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PremisesOutput{Body: toPremisesResponse(p, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-premises-archive",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/premises/{id}/cancel-archive",
		Summary:     "Cancel a scheduled premises archive",
		Tags:        []string{"Premises"},
	}, func(ctx context.Context, input *PremisesIDInput) (*PremisesOutput, error) {
		p, err := svc.CancelPremisesArchive(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PremisesOutput{Body: toPremisesResponse(p, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-premises-unarchive",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/premises/{id}/cancel-unarchive",
		Summary:     "Cancel a scheduled premises restart",
		Tags:        []string{"Premises"},
	}, func(ctx context.Context, input *PremisesIDInput) (*PremisesOutput, error) {
		p, err := svc.CancelPremisesUnarchive(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PremisesOutput{Body: toPremisesResponse(p, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-bedspace",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/premises/{id}/bedspaces",
		Summary:       "Add a bedspace to a premises",
		Tags:          []string{"Bedspaces"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateBedspaceInput) (*BedspaceOutput, error) {
		var dates dateFields
		startDate := dates.optional(domain.FieldStartDate, input.Body.StartDate)
		if err := dates.err(); err != nil {
			return nil, err
		}
		b, err := svc.CreateBedspace(ctx, app.CreateBedspaceInput{
			PremisesID: input.PremisesID,
			Reference:  input.Body.Reference,
			Notes:      input.Body.Notes,
			StartDate:  startDate,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BedspaceOutput{Body: toBedspaceResponse(b, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-bedspaces",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/premises/{id}/bedspaces",
		Summary:     "List the bedspaces of a premises",
		Tags:        []string{"Bedspaces"},
	}, func(ctx context.Context, input *PremisesIDInput) (*ListBedspacesOutput, error) {
		bedspaces, err := svc.ListBedspaces(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		today := svc.Today()
		resp := make([]BedspaceResponse, len(bedspaces))
		for i, b := range bedspaces {
			resp[i] = toBedspaceResponse(b, today)
		}
		return &ListBedspacesOutput{Body: resp}, nil
	})
}

func registerBedspaces(api huma.API, svc *app.Service) {
	huma.Register(api, huma.Operation{
		OperationID: "get-bedspace",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/bedspaces/{id}",
		Summary:     "Get a bedspace by ID",
		Tags:        []string{"Bedspaces"},
	}, func(ctx context.Context, input *BedspaceIDInput) (*BedspaceOutput, error) {
		b, err := svc.GetBedspace(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BedspaceOutput{Body: toBedspaceResponse(b, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "archive-bedspace",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/bedspaces/{id}/archive",
		Summary:     "Archive a bedspace",
		Description: "Archives today or schedules a future archive. Fails while a booking or void runs past the end date.",
		Tags:        []string{"Bedspaces"},
	}, func(ctx context.Context, input *ArchiveInput) (*BedspaceOutput, error) {
		var dates dateFields
		endDate := dates.required(domain.FieldEndDate, input.Body.EndDate)
		if err := dates.err(); err != nil {
			return nil, err
		}
		b, err := svc.ArchiveBedspace(ctx, input.ID, endDate)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BedspaceOutput{Body: toBedspaceResponse(b, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unarchive-bedspace",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/bedspaces/{id}/unarchive",
		Summary:     "Bring an archived bedspace back online",
		Tags:        []string{"Bedspaces"},
	}, func(ctx context.Context, input *UnarchiveInput) (*BedspaceOutput, error) {
		var dates dateFields
		restartDate := dates.required(domain.FieldRestartDate, input.Body.RestartDate)
		if err := dates.err(); err != nil {
			return nil, err
		}
		b, err := svc.UnarchiveBedspace(ctx, input.ID, restartDate)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BedspaceOutput{Body: toBedspaceResponse(b, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-bedspace-archive",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/bedspaces/{id}/cancel-archive",
		Summary:     "Cancel a scheduled bedspace archive",
		Tags:        []string{"Bedspaces"},
	}, func(ctx context.Context, input *BedspaceIDInput) (*BedspaceOutput, error) {
		b, err := svc.CancelBedspaceArchive(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BedspaceOutput{Body: toBedspaceResponse(b, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-bedspace-unarchive",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/bedspaces/{id}/cancel-unarchive",
		Summary:     "Cancel a scheduled bedspace restart",
		Tags:        []string{"Bedspaces"},
	}, func(ctx context.Context, input *BedspaceIDInput) (*BedspaceOutput, error) {
		b, err := svc.CancelBedspaceUnarchive(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BedspaceOutput{Body: toBedspaceResponse(b, svc.Today())}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "find-conflicts",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/bedspaces/{id}/conflicts",
		Summary:     "Find bookings and voids overlapping a date range",
		Tags:        []string{"Bedspaces"},
	}, func(ctx context.Context, input *FindConflictsInput) (*FindConflictsOutput, error) {
		var dates dateFields
		start := dates.required(domain.FieldStartDate, input.StartDate)
		end := dates.required(domain.FieldEndDate, input.EndDate)
		if err := dates.err(); err != nil {
			return nil, err
		}
		conflicts, err := svc.FindConflicts(ctx, input.ID, start, end,
			domain.OccupantKind(input.ExcludeKind), input.ExcludeID)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]OccupantResponse, len(conflicts))
		for i, o := range conflicts {
			resp[i] = toOccupantResponse(o)
		}
		return &FindConflictsOutput{Body: resp}, nil
	})
}
