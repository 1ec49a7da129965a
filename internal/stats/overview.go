package stats

import "tempo/internal/core"

// DayTotalPoint names a single day and the minutes logged on it.
type DayTotalPoint struct {
	Date         core.Date `json:"date"`
	TotalMinutes int       `json:"total_minutes"`
}

// Overview holds lifetime statistics over the whole record log.
type Overview struct {
	TotalRecords        int            `json:"total_records"`
	TotalMinutes        int            `json:"total_minutes"`
	DistinctActivities  int            `json:"distinct_activities"`
	FirstRecord         *core.Date     `json:"first_record,omitempty"`
	MostActiveDay       *DayTotalPoint `json:"most_active_day,omitempty"`
	DailyAverageMinutes float64        `json:"daily_average_minutes"`
}

// BuildOverview computes lifetime statistics. The daily average divides by the days
// from the first record through today; ties for the most active day go to the
// earliest date.
func BuildOverview(records []core.ActivityRecord, today core.Date) Overview {
	var ov Overview
	if len(records) == 0 {
		return ov
	}

	names := make(map[string]struct{})
	perDay := make(map[core.Date]int)
	first := records[0].Date
	for _, r := range records {
		ov.TotalRecords++
		ov.TotalMinutes += r.DurationMinutes
		names[r.Activity] = struct{}{}
		perDay[r.Date] += r.DurationMinutes
		if r.Date.Before(first) {
			first = r.Date
		}
	}
	ov.DistinctActivities = len(names)
	ov.FirstRecord = &first

	var best *DayTotalPoint
	for d, minutes := range perDay {
		if best == nil || minutes > best.TotalMinutes || (minutes == best.TotalMinutes && d.Before(best.Date)) {
			best = &DayTotalPoint{Date: d, TotalMinutes: minutes}
		}
	}
	ov.MostActiveDay = best

	days := today.DaysSince(first) + 1
	if days > 0 {
		ov.DailyAverageMinutes = float64(ov.TotalMinutes) / float64(days)
	}
	return ov
}
