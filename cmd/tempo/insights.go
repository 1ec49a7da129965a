package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"tempo/internal/core"
	"tempo/internal/report"
	"tempo/internal/stats"
)

// barWidth is the width of the longest bar in text charts.
const barWidth = 40

func newReportCmd(s *session) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a per-activity summary for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := core.ParsePeriod(period)
			if err != nil {
				return err
			}
			doc, err := s.app.Insights.Report(cmd.Context(), p)
			if err != nil {
				return err
			}
			return doc.WriteText(cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&period, "period", "P", string(core.Last7Days),
		"one of "+periodChoices())
	return cmd
}

func newChartCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Draw text charts of recorded time",
	}

	var (
		end  string
		days int
	)
	daily := &cobra.Command{
		Use:   "daily",
		Short: "Minutes per day over a trailing window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			endDate, err := optionalDate(end)
			if err != nil {
				return err
			}
			if days == 0 {
				days = s.app.Insights.WindowDays()
			}
			series, err := s.app.Insights.Daily(cmd.Context(), endDate, days)
			if err != nil {
				return err
			}
			writeDailyChart(cmd.OutOrStdout(), series)
			return nil
		},
	}
	daily.Flags().StringVarP(&end, "end", "e", "", "last day of the window (default today)")
	daily.Flags().IntVarP(&days, "days", "n", 0, "window length in days (default CHART_WINDOW_DAYS)")

	var (
		start, distEnd string
		top            int
	)
	distribution := &cobra.Command{
		Use:   "distribution",
		Short: "Share of time per activity, long tail collapsed into Other",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			endDate, err := optionalDate(distEnd)
			if err != nil {
				return err
			}
			if endDate.IsZero() {
				endDate = s.app.Insights.Today()
			}
			startDate, err := optionalDate(start)
			if err != nil {
				return err
			}
			if startDate.IsZero() {
				startDate = endDate.AddDays(-(s.app.Insights.WindowDays() - 1))
			}
			dist, err := s.app.Insights.Distribution(cmd.Context(), startDate, endDate, top)
			if err != nil {
				return err
			}
			writeDistribution(cmd.OutOrStdout(), dist)
			return nil
		},
	}
	distribution.Flags().StringVarP(&start, "start", "s", "", "first day (default end minus the chart window)")
	distribution.Flags().StringVarP(&distEnd, "end", "e", "", "last day (default today)")
	distribution.Flags().IntVarP(&top, "top", "k", 0, "activities shown before the rest becomes Other (default DISTRIBUTION_TOP_K)")

	cmd.AddCommand(daily, distribution)
	return cmd
}

func newStatsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show today's total and lifetime statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			today, err := s.app.Insights.TodayTotal(cmd.Context())
			if err != nil {
				return err
			}
			ov, err := s.app.Insights.Overview(cmd.Context())
			if err != nil {
				return err
			}
			writeStats(cmd.OutOrStdout(), today.TotalMinutes, ov)
			return nil
		},
	}
}

func writeDailyChart(w io.Writer, series stats.Series) {
	fmt.Fprintf(w, "Daily minutes %s to %s\n\n", series.Start, series.End)
	if len(series.Points) == 0 {
		fmt.Fprintln(w, "No days in range.")
		return
	}
	peak := 0
	for _, p := range series.Points {
		peak = max(peak, p.TotalMinutes)
	}
	for _, p := range series.Points {
		fmt.Fprintf(w, "%s %-*s %s\n", p.Date, barWidth, bar(p.TotalMinutes, peak), report.FormatMinutes(p.TotalMinutes))
	}
}

func writeDistribution(w io.Writer, dist stats.Distribution) {
	fmt.Fprintf(w, "Time distribution %s to %s\n\n", dist.Start, dist.End)
	if dist.Empty {
		fmt.Fprintln(w, "No activities recorded in this period.")
		return
	}
	width := 0
	peak := 0
	for _, sl := range dist.Slices {
		width = max(width, len(sl.Label))
		peak = max(peak, sl.TotalMinutes)
	}
	for _, sl := range dist.Slices {
		fmt.Fprintf(w, "%-*s %-*s %5s%% %s\n",
			width, sl.Label,
			barWidth, bar(sl.TotalMinutes, peak),
			report.Percent(sl.TotalMinutes, dist.TotalMinutes),
			report.FormatMinutes(sl.TotalMinutes))
	}
}

func writeStats(w io.Writer, todayMinutes int, ov stats.Overview) {
	fmt.Fprintf(w, "Today: %s\n", report.FormatMinutes(todayMinutes))
	if ov.TotalRecords == 0 {
		fmt.Fprintln(w, "No activities recorded yet.")
		return
	}
	fmt.Fprintf(w, "Records: %d\n", ov.TotalRecords)
	fmt.Fprintf(w, "Total time: %s\n", report.FormatMinutes(ov.TotalMinutes))
	fmt.Fprintf(w, "Activities: %d\n", ov.DistinctActivities)
	if ov.FirstRecord != nil {
		fmt.Fprintf(w, "First record: %s\n", *ov.FirstRecord)
	}
	if ov.MostActiveDay != nil {
		fmt.Fprintf(w, "Most active day: %s (%s)\n",
			ov.MostActiveDay.Date, report.FormatMinutes(ov.MostActiveDay.TotalMinutes))
	}
	fmt.Fprintf(w, "Daily average: %.1f min\n", ov.DailyAverageMinutes)
}

func bar(v, peak int) string {
	if peak <= 0 || v <= 0 {
		return ""
	}
	n := v * barWidth / peak
	if n == 0 {
		n = 1
	}
	return strings.Repeat("#", n)
}

// optionalDate parses a YYYY-MM-DD flag. Empty yields the zero date.
func optionalDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

func periodChoices() string {
	names := make([]string, 0, len(core.Periods()))
	for _, p := range core.Periods() {
		names = append(names, string(p))
	}
	return strings.Join(names, "|")
}
