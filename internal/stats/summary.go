// Package stats turns a snapshot of activity records into period summaries and
// chart-ready series. Every function is pure: the same input always produces the
// same output, and absence of data is a zero/empty result rather than an error.
package stats

import (
	"slices"

	"tempo/internal/core"
)

// ActivityTotal aggregates one activity inside a period window.
type ActivityTotal struct {
	Activity              string  `json:"activity"`
	TotalMinutes          int     `json:"total_minutes"`
	Sessions              int     `json:"sessions"`
	Percentage            float64 `json:"percentage"`
	AverageSessionMinutes float64 `json:"average_session_minutes"`
}

// Summary is the per-period breakdown returned by Summarize.
type Summary struct {
	Period              core.Period     `json:"period"`
	Start               core.Date       `json:"start"`
	End                 core.Date       `json:"end"`
	TotalDays           int             `json:"total_days"`
	TotalMinutes        int             `json:"total_minutes"`
	DailyAverageMinutes float64         `json:"daily_average_minutes"`
	Entries             []ActivityTotal `json:"entries"`
}

// IsEmpty reports whether no activity was logged in the window.
func (s Summary) IsEmpty() bool {
	return len(s.Entries) == 0
}

// Summarize groups the records falling in period's window by activity.
//
// Entries are ordered by total minutes descending; ties keep the order in which the
// activity first appeared in records. For AllTime the divisor used for the daily
// average starts at the earliest record in the window instead of the sentinel date.
func Summarize(records []core.ActivityRecord, period core.Period, today core.Date) Summary {
	start := period.Start(today)
	groups := groupByActivity(records, start, today)

	s := Summary{
		Period:  period,
		Start:   start,
		End:     today,
		Entries: make([]ActivityTotal, 0, len(groups)),
	}

	if period == core.AllTime {
		s.Start = today
		for _, r := range records {
			if r.Date.Within(start, today) && r.Date.Before(s.Start) {
				s.Start = r.Date
			}
		}
	}

	for _, g := range groups {
		s.TotalMinutes += g.minutes
	}
	s.TotalDays = today.DaysSince(s.Start) + 1
	if s.TotalDays < 1 {
		s.TotalDays = 1
	}
	s.DailyAverageMinutes = float64(s.TotalMinutes) / float64(s.TotalDays)

	for _, g := range groups {
		entry := ActivityTotal{
			Activity:              g.name,
			TotalMinutes:          g.minutes,
			Sessions:              g.count,
			AverageSessionMinutes: float64(g.minutes) / float64(g.count),
		}
		if s.TotalMinutes > 0 {
			entry.Percentage = 100 * float64(g.minutes) / float64(s.TotalMinutes)
		}
		s.Entries = append(s.Entries, entry)
	}
	return s
}

// DayTotal returns the minutes logged on day.
func DayTotal(records []core.ActivityRecord, day core.Date) int {
	total := 0
	for _, r := range records {
		if r.Date.Equal(day.Time) {
			total += r.DurationMinutes
		}
	}
	return total
}

type group struct {
	name    string
	minutes int
	count   int
}

// groupByActivity sums minutes per activity inside [start, end], sorted by total
// descending with first-appearance order as the tie breaker.
func groupByActivity(records []core.ActivityRecord, start, end core.Date) []group {
	index := make(map[string]int)
	var groups []group
	for _, r := range records {
		if !r.Date.Within(start, end) {
			continue
		}
		i, ok := index[r.Activity]
		if !ok {
			i = len(groups)
			index[r.Activity] = i
			groups = append(groups, group{name: r.Activity})
		}
		groups[i].minutes += r.DurationMinutes
		groups[i].count++
	}
	slices.SortStableFunc(groups, func(a, b group) int {
		return b.minutes - a.minutes
	})
	return groups
}
