package stats

import "tempo/internal/core"

// DefaultTopK is the number of named slices kept by Distribution.
const DefaultTopK = 8

// OtherLabel names the bucket that collects the long tail of a distribution.
const OtherLabel = "Other"

// DayPoint is one day of a daily series.
type DayPoint struct {
	Date         core.Date `json:"date"`
	TotalMinutes int       `json:"total_minutes"`
}

// Series is a zero-filled daily time series.
type Series struct {
	Start  core.Date  `json:"start"`
	End    core.Date  `json:"end"`
	Points []DayPoint `json:"points"`
}

// Slice is one labelled entry of a distribution.
type Slice struct {
	Label        string `json:"label"`
	TotalMinutes int    `json:"total_minutes"`
}

// Distribution is the per-activity share of a window. Empty is set when the
// window holds no records at all, which callers render as a "no data" state.
type Distribution struct {
	Start        core.Date `json:"start"`
	End          core.Date `json:"end"`
	Empty        bool      `json:"empty"`
	TotalMinutes int       `json:"total_minutes"`
	Slices       []Slice   `json:"slices"`
}

// DailySeries returns one point per calendar day in [end-windowDays+1, end].
// A non-positive window yields an empty series.
func DailySeries(records []core.ActivityRecord, end core.Date, windowDays int) Series {
	if windowDays < 1 {
		return Series{Start: end, End: end, Points: []DayPoint{}}
	}
	start := end.AddDays(-(windowDays - 1))

	perDay := make(map[core.Date]int)
	for _, r := range records {
		if r.Date.Within(start, end) {
			perDay[r.Date] += r.DurationMinutes
		}
	}

	points := make([]DayPoint, 0, min(windowDays, core.MaxWindowDays))
	for d := start; !d.After(end); d = d.AddDays(1) {
		points = append(points, DayPoint{Date: d, TotalMinutes: perDay[d]})
	}
	return Series{Start: start, End: end, Points: points}
}

// BuildDistribution sums minutes per activity in [start, end] and keeps the topK
// largest entries, folding the rest into a single OtherLabel slice. The Other
// slice is omitted when there is no remainder or it sums to zero minutes.
func BuildDistribution(records []core.ActivityRecord, start, end core.Date, topK int) Distribution {
	if topK < 1 {
		topK = DefaultTopK
	}
	dist := Distribution{Start: start, End: end, Slices: []Slice{}}

	groups := groupByActivity(records, start, end)
	if len(groups) == 0 {
		dist.Empty = true
		return dist
	}

	other := 0
	for i, g := range groups {
		dist.TotalMinutes += g.minutes
		if i < topK {
			dist.Slices = append(dist.Slices, Slice{Label: g.name, TotalMinutes: g.minutes})
			continue
		}
		other += g.minutes
	}
	if other > 0 {
		dist.Slices = append(dist.Slices, Slice{Label: OtherLabel, TotalMinutes: other})
	}
	return dist
}
