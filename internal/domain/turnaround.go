package domain

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// DefaultTurnaroundWorkingDays is used for premises created without an
// explicit turnaround.
const DefaultTurnaroundWorkingDays = 2

// Turnaround is the working-day buffer after a booking's departure during
// which the bedspace stays unavailable.
type Turnaround struct {
	WorkingDays int
}

// TurnaroundWindow is the span a departed bedspace is still busy.
type TurnaroundWindow struct {
	StartDate        civil.Date
	EffectiveEndDate civil.Date
}

// ComputeTurnaround advances departureDate by workingDays working days.
// The departure day is day 0 and never counts. A negative count is a
// caller bug and panics; user input goes through ValidateWorkingDays first.
func ComputeTurnaround(departureDate civil.Date, workingDays int) TurnaroundWindow {
	if workingDays < 0 {
		panic(fmt.Sprintf("domain: negative turnaround working days %d", workingDays))
	}
	return TurnaroundWindow{
		StartDate:        departureDate,
		EffectiveEndDate: AddWorkingDays(departureDate, workingDays),
	}
}

// ValidateWorkingDays checks a submitted turnaround length.
func ValidateWorkingDays(workingDays int) error {
	if workingDays < 0 {
		return NewValidationError(FieldWorkingDays, CodeNotPositiveInteger)
	}
	return nil
}
