package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tempo/internal/export"
)

var errSheetsDisabled = errors.New("spreadsheet export is disabled (set GOOGLE_SPREADSHEET_ID)")

func newExportCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every recorded activity",
	}

	var out string
	csvCmd := &cobra.Command{
		Use:   "csv",
		Short: "Write all activities as CSV, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := s.app.Activities.List(cmd.Context(), "")
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return export.WriteCSV(cmd.OutOrStdout(), recs)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.WriteCSV(f, recs); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d activities to %s\n", len(recs), out)
			return nil
		},
	}
	csvCmd.Flags().StringVarP(&out, "out", "o", "", "destination file (default stdout)")

	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Replace the configured Google Sheet tab with all activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.app.Sheets == nil {
				return errSheetsDisabled
			}
			recs, err := s.app.Activities.List(cmd.Context(), "")
			if err != nil {
				return err
			}
			ref, err := s.app.Sheets.Export(cmd.Context(), recs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d activities to %s\n", len(recs), ref)
			return nil
		},
	}

	cmd.AddCommand(csvCmd, sheetsCmd)
	return cmd
}
