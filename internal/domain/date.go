package domain

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// DateFormat is the wire and storage format of every calendar date.
const DateFormat = "2006-01-02"

// ParseDate parses a YYYY-MM-DD value submitted for the named field.
// Malformed or empty input is reported against that field.
func ParseDate(field, value string) (civil.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return civil.Date{}, NewValidationError(field, CodeEmpty)
	}
	d, err := civil.ParseDate(value)
	if err != nil || !d.IsValid() {
		return civil.Date{}, NewValidationError(field, CodeInvalid)
	}
	return d, nil
}

// ParseOptionalDate is ParseDate for fields that may be left blank.
func ParseOptionalDate(field, value string) (*civil.Date, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := ParseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Today returns the calendar date of t in its own location.
func Today(t time.Time) civil.Date {
	return civil.DateOf(t)
}

// Nights counts the nights between two dates (to minus from).
func Nights(from, to civil.Date) int {
	return to.DaysSince(from)
}

// IsWorkingDay reports whether d falls Monday to Friday.
func IsWorkingDay(d civil.Date) bool {
	switch d.In(time.UTC).Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// AddWorkingDays moves n working days forward from d. The start date itself
// is never counted. A negative n moves backwards.
func AddWorkingDays(d civil.Date, n int) civil.Date {
	if n < 0 {
		return SubWorkingDays(d, -n)
	}
	for added := 0; added < n; {
		d = d.AddDays(1)
		if IsWorkingDay(d) {
			added++
		}
	}
	return d
}

// SubWorkingDays moves n working days backwards from d.
func SubWorkingDays(d civil.Date, n int) civil.Date {
	if n < 0 {
		return AddWorkingDays(d, -n)
	}
	for removed := 0; removed < n; {
		d = d.AddDays(-1)
		if IsWorkingDay(d) {
			removed++
		}
	}
	return d
}

// IsPast reports whether d is strictly before now.
func IsPast(d, now civil.Date) bool { return d.Before(now) }

// IsFuture reports whether d is strictly after now.
func IsFuture(d, now civil.Date) bool { return d.After(now) }

// IsToday reports whether d is now.
func IsToday(d, now civil.Date) bool { return d == now }

// CompareDates returns -1, 0 or +1 as a is before, equal to or after b.
func CompareDates(a, b civil.Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

// MaxDate returns the latest of the given dates.
func MaxDate(first civil.Date, rest ...civil.Date) civil.Date {
	for _, d := range rest {
		if d.After(first) {
			first = d
		}
	}
	return first
}

// MinDate returns the earliest of the given dates.
func MinDate(first civil.Date, rest ...civil.Date) civil.Date {
	for _, d := range rest {
		if d.Before(first) {
			first = d
		}
	}
	return first
}

func datePtr(d civil.Date) *civil.Date {
	return &d
}

func sameDate(a, b *civil.Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Interval is a closed range of calendar dates.
type Interval struct {
	Start civil.Date
	End   civil.Date
}

// Valid reports whether End is not before Start.
func (i Interval) Valid() bool {
	return !i.End.Before(i.Start)
}

// Contains reports whether d lies within the interval, bounds included.
func (i Interval) Contains(d civil.Date) bool {
	return !d.Before(i.Start) && !d.After(i.End)
}

// Overlaps reports whether two closed intervals share at least one day.
// Touching endpoints overlap: a stay ending on day N and one starting on
// day N cannot both hold the same bedspace.
func (i Interval) Overlaps(other Interval) bool {
	return !i.Start.After(other.End) && !other.Start.After(i.End)
}

func (i Interval) String() string {
	return i.Start.String() + ".." + i.End.String()
}
