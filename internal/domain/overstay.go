package domain

import "cloud.google.com/go/civil"

// MaxStayNights is the longest stay allowed without an overstay record.
const MaxStayNights = 84

// OverstayEvaluation is the outcome of checking a proposed departure date
// against the maximum stay.
type OverstayEvaluation struct {
	Nights          int
	NightsOverLimit int
	IsOverstay      bool
}

// EvaluateOverstay measures a stay from arrivalDate to newDepartureDate
// against MaxStayNights.
func EvaluateOverstay(arrivalDate, newDepartureDate civil.Date) OverstayEvaluation {
	nights := Nights(arrivalDate, newDepartureDate)
	over := max(0, nights-MaxStayNights)
	return OverstayEvaluation{
		Nights:          nights,
		NightsOverLimit: over,
		IsOverstay:      over > 0,
	}
}

// DepartureChangeLabel is how a departure date change is described to users.
type DepartureChangeLabel string

const (
	LabelExtension  DepartureChangeLabel = "extension"
	LabelShortening DepartureChangeLabel = "shortening"
	LabelOverstay   DepartureChangeLabel = "overstay"
)

// ClassifyDepartureChange labels a move from previous to proposed. The label
// is for messaging only; extensions and shortenings are stored alike.
func ClassifyDepartureChange(previous, proposed civil.Date, eval OverstayEvaluation) DepartureChangeLabel {
	switch {
	case eval.IsOverstay:
		return LabelOverstay
	case proposed.Before(previous):
		return LabelShortening
	default:
		return LabelExtension
	}
}
