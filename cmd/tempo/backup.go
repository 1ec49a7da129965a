package main

import (
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newBackupCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage snapshots of the activity database",
	}

	var to string
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Write a snapshot now, to --to or a timestamped file in BACKUP_DIR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.app.RequireBackups()
			if err != nil {
				return err
			}
			dst := to
			if dst == "" {
				dst = filepath.Join(m.Dir(), "activities_manual_"+time.Now().Format("20060102_150405")+".db")
			}
			if err := m.BackupTo(cmd.Context(), dst); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", dst)
			return nil
		},
	}
	runCmd.Flags().StringVarP(&to, "to", "t", "", "destination path")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List daily snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.app.RequireBackups()
			if err != nil {
				return err
			}
			snaps, err := m.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(snaps) == 0 {
				fmt.Fprintf(w, "No backups in %s\n", m.Dir())
				return nil
			}
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDATE\tSIZE\tAGE (DAYS)")
			for _, sn := range snaps {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", sn.Name, sn.Date, sn.Human, sn.AgeDays)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(w, "Snapshots older than %d days are removed at startup.\n", m.RetentionDays())
			return nil
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore NAME",
		Short: "Copy a daily snapshot over the activity database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := s.app.RequireBackups()
			if err != nil {
				return err
			}
			// the store file is replaced underneath, so release it first
			if err := s.close(cmd.Context()); err != nil {
				return err
			}
			if err := m.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(runCmd, listCmd, restoreCmd)
	return cmd
}
