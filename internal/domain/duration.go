package domain

import "time"

// PlanDuration is the enumerated membership plan length. Earlier admin
// UI revisions submitted numeric codes ("1", "3", "6", "12") while later
// ones submit labels; ParseDuration accepts both. Anything else is a
// validation error, never a silently skipped expiry.
type PlanDuration string

const (
	DurationOneMonth    PlanDuration = "1 Month"
	DurationThreeMonths PlanDuration = "3 Months"
	DurationSixMonths   PlanDuration = "6 Months"
	DurationOneYear     PlanDuration = "1 Year"
)

// DefaultDuration applies when a create request omits the plan duration
const DefaultDuration = DurationOneMonth

// ParseDuration resolves a duration descriptor to its enumerated value
func ParseDuration(s string) (PlanDuration, error) {
	switch s {
	case string(DurationOneMonth), "1":
		return DurationOneMonth, nil
	case string(DurationThreeMonths), "3":
		return DurationThreeMonths, nil
	case string(DurationSixMonths), "6":
		return DurationSixMonths, nil
	case string(DurationOneYear), "12":
		return DurationOneYear, nil
	default:
		return "", &ValidationError{Field: "duration", Reason: "unrecognized plan duration: " + s}
	}
}

// Months returns the calendar-month offset for the duration
func (d PlanDuration) Months() int {
	switch d {
	case DurationOneMonth:
		return 1
	case DurationThreeMonths:
		return 3
	case DurationSixMonths:
		return 6
	case DurationOneYear:
		return 12
	default:
		return 0
	}
}

// ExpiryFrom computes the membership expiry date from a start date
func (d PlanDuration) ExpiryFrom(start time.Time) time.Time {
	return start.AddDate(0, d.Months(), 0)
}

// Valid reports whether d is one of the enumerated durations
func (d PlanDuration) Valid() bool {
	return d.Months() > 0
}
