package http

import (
	"errors"

	"cloud.google.com/go/civil"
	"github.com/danielgtaylor/huma/v2"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/app"
	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

const apiPrefix = "/api/v1"

// Register adds all occupancy API routes to the Huma API.
func Register(api huma.API, svc *app.Service) {
	registerPremises(api, svc)
	registerBedspaces(api, svc)
	registerBookings(api, svc)
	registerVoids(api, svc)
}

// dateFields parses submitted dates, collecting every malformed field so
// they are reported together.
type dateFields struct {
	errs []domain.FieldError
}

func (d *dateFields) required(field, value string) civil.Date {
	date, err := domain.ParseDate(field, value)
	d.collect(err)
	return date
}

func (d *dateFields) optional(field, value string) *civil.Date {
	date, err := domain.ParseOptionalDate(field, value)
	d.collect(err)
	return date
}

func (d *dateFields) collect(err error) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		d.errs = append(d.errs, ve.Errors...)
	}
}

func (d *dateFields) err() error {
	if len(d.errs) == 0 {
		return nil
	}
	return toHumaError(&domain.ValidationError{Errors: d.errs})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrPremisesNotFound),
		errors.Is(err, domain.ErrBedspaceNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, domain.ErrVoidNotFound):
		return huma.Error404NotFound(err.Error())
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		details := fieldDetails(ve)
		if ve.IsConflict() {
			return huma.Error409Conflict("dates conflict with an existing booking or void", details...)
		}
		return huma.Error422UnprocessableEntity("validation failed", details...)
	}

	if errors.Is(err, domain.ErrOccupancyConflict) {
		return huma.Error409Conflict(domain.ErrOccupancyConflict.Error())
	}

	var refErr *domain.BedspaceReferenceConflictError
	if errors.As(err, &refErr) {
		return huma.Error409Conflict(refErr.Error(), &huma.ErrorDetail{
			Message:  domain.CodeConflict,
			Location: "body." + domain.FieldReference,
			Value:    refErr.Reference,
		})
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}

// fieldDetails renders one ErrorDetail per failed field. The message is the
// validation code; conflicting occupants and blocking bedspaces ride along
// as the value.
func fieldDetails(ve *domain.ValidationError) []error {
	details := make([]error, len(ve.Errors))
	for i, fe := range ve.Errors {
		detail := &huma.ErrorDetail{
			Message:  fe.Code,
			Location: "body." + fe.Field,
		}
		switch {
		case len(fe.Blocking) > 0:
			detail.Value = toBlockingResponses(fe.Blocking)
		case fe.Conflict != nil:
			detail.Value = toOccupantResponse(*fe.Conflict)
		}
		details[i] = detail
	}
	return details
}
