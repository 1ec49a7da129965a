package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tempo/internal/core"
	"tempo/internal/report"
)

type recordFlags struct {
	date    string
	minutes int
	notes   string
}

func (f *recordFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.date, "date", "d", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().IntVarP(&f.minutes, "minutes", "m", 0, "duration in minutes")
	cmd.Flags().StringVarP(&f.notes, "notes", "n", "", "free-form notes")
	_ = cmd.MarkFlagRequired("minutes")
}

func (f *recordFlags) resolveDate(today core.Date) (core.Date, error) {
	if strings.TrimSpace(f.date) == "" {
		return today, nil
	}
	return core.ParseDate(strings.TrimSpace(f.date))
}

func newAddCmd(s *session) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "add ACTIVITY",
		Short: "Record time spent on an activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := f.resolveDate(s.app.Insights.Today())
			if err != nil {
				return err
			}
			rec, err := s.app.Activities.Create(cmd.Context(), date, args[0], f.minutes, f.notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved #%d: %s, %s on %s\n",
				rec.ID, rec.Activity, report.FormatMinutes(rec.DurationMinutes), rec.Date)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newEditCmd(s *session) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "edit ID ACTIVITY",
		Short: "Replace every field of a recorded activity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			existing, err := s.app.Activities.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			// an omitted --date keeps the recorded one
			date, err := f.resolveDate(existing.Date)
			if err != nil {
				return err
			}
			rec, err := s.app.Activities.Update(cmd.Context(), id, date, args[1], f.minutes, f.notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated #%d: %s, %s on %s\n",
				rec.ID, rec.Activity, report.FormatMinutes(rec.DurationMinutes), rec.Date)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a recorded activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := s.app.Activities.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
			return nil
		},
	}
}

func newListCmd(s *session) *cobra.Command {
	var (
		search string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded activities, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := s.app.Activities.List(cmd.Context(), search)
			if err != nil {
				return err
			}
			if limit > 0 && len(recs) > limit {
				recs = recs[:limit]
			}
			return writeRecords(cmd.OutOrStdout(), recs)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only activities whose name contains this text")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "show at most this many records")
	return cmd
}

func newNamesCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "List every activity name used so far",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := s.app.Activities.Names(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func writeRecords(w io.Writer, recs []core.ActivityRecord) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No activities recorded.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tACTIVITY\tDURATION\tNOTES")
	for _, r := range recs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.Date, r.Activity, report.FormatMinutes(r.DurationMinutes), r.Notes)
	}
	return tw.Flush()
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", core.ErrValidation, s)
	}
	return id, nil
}
