package core

import (
	"fmt"
	"strings"
)

// Period selects the aggregation window ending today.
type Period string

const (
	Last7Days    Period = "last7days"
	CurrentMonth Period = "month"
	Last30Days   Period = "last30days"
	AllTime      Period = "all"
)

// MaxWindowDays bounds every per-day chart series.
const MaxWindowDays = 366

// AllTimeStart is the sentinel start date used to filter AllTime windows.
var AllTimeStart = NewDate(2000, 1, 1)

// Periods lists every supported period in display order.
func Periods() []Period {
	return []Period{Last7Days, CurrentMonth, Last30Days, AllTime}
}

// ParsePeriod accepts the canonical names plus a few aliases used on the command line.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last7days", "7d", "week":
		return Last7Days, nil
	case "month", "currentmonth", "this-month":
		return CurrentMonth, nil
	case "last30days", "30d":
		return Last30Days, nil
	case "all", "alltime", "all-time":
		return AllTime, nil
	}
	return "", fmt.Errorf("%w: unknown period %q", ErrValidation, s)
}

// IsValid returns true if the period is one of the supported selectors.
func (p Period) IsValid() bool {
	switch p {
	case Last7Days, CurrentMonth, Last30Days, AllTime:
		return true
	}
	return false
}

// Label is the human readable period name.
func (p Period) Label() string {
	switch p {
	case Last7Days:
		return "Last 7 Days"
	case CurrentMonth:
		return "This Month"
	case Last30Days:
		return "Last 30 Days"
	case AllTime:
		return "All Time"
	}
	return string(p)
}

func (p Period) String() string {
	return string(p)
}

// Start returns the first day of the window ending at today.
// The rolling windows reach back a full 7 or 30 days before today, so both
// bounds are inclusive and Last7Days covers eight calendar days.
func (p Period) Start(today Date) Date {
	switch p {
	case Last7Days:
		return today.AddDays(-7)
	case CurrentMonth:
		return NewDate(today.Year(), today.Month(), 1)
	case Last30Days:
		return today.AddDays(-30)
	default:
		return AllTimeStart
	}
}
