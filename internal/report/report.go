// Package report converts a stats.Summary into a display-ready document. All
// number-to-text conversion happens here so stats output stays machine-consumable.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"tempo/internal/core"
	"tempo/internal/stats"
)

// NoActivityMessage is emitted for an empty summary.
const NoActivityMessage = "No activity recorded in this period."

type (
	// Document is a structured activity report.
	Document struct {
		Title     string       `json:"title"`
		Period    core.Period  `json:"period"`
		Start     core.Date    `json:"start"`
		End       core.Date    `json:"end"`
		DateRange string       `json:"date_range"`
		Summary   *SummaryLine `json:"summary,omitempty"`
		Entries   []EntryBlock `json:"entries"`
		Notice    string       `json:"notice,omitempty"`
	}

	// SummaryLine carries the totals of the whole period.
	SummaryLine struct {
		TotalTime          string `json:"total_time"`
		DailyAverage       string `json:"daily_average"`
		DistinctActivities int    `json:"distinct_activities"`
	}

	// EntryBlock describes one activity of the period.
	EntryBlock struct {
		Rank           int    `json:"rank"`
		Activity       string `json:"activity"`
		TotalTime      string `json:"total_time"`
		Percentage     string `json:"percentage"`
		Sessions       int    `json:"sessions"`
		AverageSession string `json:"average_session"`
	}
)

// Format builds the report document for summary. An empty summary produces a
// document whose Notice is NoActivityMessage and which has no entries.
func Format(summary stats.Summary, period core.Period, today core.Date) Document {
	start := summary.Start
	if start.IsZero() {
		start = period.Start(today)
	}

	doc := Document{
		Title:     period.Label() + " Activity Report",
		Period:    period,
		Start:     start,
		End:       today,
		DateRange: start.String() + " - " + today.String(),
		Entries:   make([]EntryBlock, 0, len(summary.Entries)),
	}

	if summary.IsEmpty() {
		doc.Notice = NoActivityMessage
		return doc
	}

	doc.Summary = &SummaryLine{
		TotalTime:          FormatMinutes(summary.TotalMinutes),
		DailyAverage:       FormatMinutes(dailyAverage(summary)),
		DistinctActivities: len(summary.Entries),
	}
	for i, e := range summary.Entries {
		doc.Entries = append(doc.Entries, EntryBlock{
			Rank:           i + 1,
			Activity:       e.Activity,
			TotalTime:      FormatMinutes(e.TotalMinutes),
			Percentage:     Percent(e.TotalMinutes, summary.TotalMinutes),
			Sessions:       e.Sessions,
			AverageSession: FormatMinutes(roundMinutes(e.AverageSessionMinutes)),
		})
	}
	return doc
}

// FormatMinutes renders a minute count as hours and minutes, e.g. "1h 5m".
func FormatMinutes(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%dh %dm", sign, minutes/60, minutes%60)
}

// Percent returns part/total as a percentage with one decimal, "0.0" when total is zero.
// The division is done in fixed point so 1/8 renders as 12.5 rather than a float artefact.
func Percent(part, total int) string {
	if total == 0 {
		return "0.0"
	}
	return decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		StringFixed(1)
}

func roundMinutes(m float64) int {
	return int(math.Round(m))
}

// dailyAverage is the whole-minute daily average; the remainder is dropped.
func dailyAverage(s stats.Summary) int {
	if s.TotalDays < 1 {
		return s.TotalMinutes
	}
	return s.TotalMinutes / s.TotalDays
}

// WriteText renders the document as plain text, suitable for copying or saving.
func (d Document) WriteText(w io.Writer) error {
	var b strings.Builder
	b.WriteString(d.Title + "\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Period: %s\n", d.DateRange)

	if d.Summary == nil {
		b.WriteString(d.Notice + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "Total time: %s\n", d.Summary.TotalTime)
	fmt.Fprintf(&b, "Daily average: %s\n", d.Summary.DailyAverage)
	fmt.Fprintf(&b, "Distinct activities: %d\n\n", d.Summary.DistinctActivities)

	b.WriteString("Activity details:\n")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	for _, e := range d.Entries {
		fmt.Fprintf(&b, "%2d. %s\n", e.Rank, e.Activity)
		fmt.Fprintf(&b, "    Total: %s (%s%%)\n", e.TotalTime, e.Percentage)
		fmt.Fprintf(&b, "    Sessions: %d\n", e.Sessions)
		fmt.Fprintf(&b, "    Average: %s\n\n", e.AverageSession)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
