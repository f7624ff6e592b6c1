package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrPremisesNotFound = errors.New("premises not found")
	ErrBedspaceNotFound = errors.New("bedspace not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrVoidNotFound     = errors.New("void not found")

	// ErrOccupancyConflict is returned by a store when a write would overlap
	// another booking or void on the same bedspace.
	ErrOccupancyConflict = errors.New("occupancy conflicts with another booking or void")
)

// Field names used when tagging validation failures.
const (
	FieldArrivalDate           = "arrivalDate"
	FieldDepartureDate         = "departureDate"
	FieldExpectedDepartureDate = "expectedDepartureDate"
	FieldNewDepartureDate      = "newDepartureDate"
	FieldWorkingDays           = "workingDays"
	FieldStartDate             = "startDate"
	FieldEndDate               = "endDate"
	FieldRestartDate           = "restartDate"
	FieldIsAuthorised          = "isAuthorised"
	FieldReason                = "reason"
	FieldReference             = "reference"
)

// Validation codes.
const (
	CodeEmpty                  = "empty"
	CodeInvalid                = "invalid"
	CodeInPast                 = "inPast"
	CodeInFuture               = "inFuture"
	CodeConflict               = "conflict"
	CodeExistingBookings       = "existingBookings"
	CodeExistingVoid           = "existingVoid"
	CodeBeforeStartDate        = "beforeStartDate"
	CodeBeforeArrivalDate      = "beforeBookingArrivalDate"
	CodeBeforeLastArchivedDate = "beforeLastArchivedDate"
	CodeNotPositiveInteger     = "isNotAPositiveInteger"
)

// BedspaceReferenceConflictError is returned when a premises already has a
// bedspace with the same reference.
type BedspaceReferenceConflictError struct {
	PremisesID string
	Reference  string
}

func (e *BedspaceReferenceConflictError) Error() string {
	return fmt.Sprintf("reference %q is already in use in premises %q", e.Reference, e.PremisesID)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Machine string
	Event   string
	Current string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s event %q is not valid from state %q", e.Machine, e.Event, e.Current)
}

// FieldError tags one failed rule with the input field that caused it.
type FieldError struct {
	Field string
	Code  string

	// Conflict is the occupant a date collided with, when Code is a conflict
	// or an existing-occupancy code.
	Conflict *Occupant

	// Blocking lists every bedspace preventing a premises archive.
	Blocking []BlockingBedspace
}

// ValidationError collects every failed business rule of one request.
type ValidationError struct {
	Errors []FieldError
}

// NewValidationError returns a failure with a single field error.
func NewValidationError(field, code string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Code: code}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Code
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Field returns the first error tagged with the given field.
func (e *ValidationError) Field(name string) (FieldError, bool) {
	for _, fe := range e.Errors {
		if fe.Field == name {
			return fe, true
		}
	}
	return FieldError{}, false
}

// IsConflict reports whether any field failed because of an overlapping
// booking or void.
func (e *ValidationError) IsConflict() bool {
	for _, fe := range e.Errors {
		if fe.Code == CodeConflict {
			return true
		}
	}
	return false
}

// validation accumulates field errors so that every violated rule is
// reported together.
type validation struct {
	errs []FieldError
}

func (v *validation) add(field, code string) {
	v.errs = append(v.errs, FieldError{Field: field, Code: code})
}

func (v *validation) addError(fe FieldError) {
	v.errs = append(v.errs, fe)
}

func (v *validation) merge(err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		v.errs = append(v.errs, ve.Errors...)
	}
}

func (v *validation) err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: v.errs}
}
