package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPasswordCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Set or change the access password",
	}

	setCmd := &cobra.Command{
		Use:         "set",
		Short:       "Set the first access password",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoGate: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := s.resolvePassword("New password: ")
			if err != nil {
				return err
			}
			if err := s.app.Verifier.SetSecret(cmd.Context(), secret); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password set.")
			return nil
		},
	}

	var newSecret string
	changeCmd := &cobra.Command{
		Use:   "change",
		Short: "Replace the access password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			next := newSecret
			if next == "" {
				var err error
				if next, err = s.prompt("New password: "); err != nil {
					return err
				}
			}
			// the gate has already checked s.password against the stored hash
			if err := s.app.Verifier.ChangeSecret(cmd.Context(), s.password, next); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password changed.")
			return nil
		},
	}
	changeCmd.Flags().StringVar(&newSecret, "new", "", "the new password (default prompt)")

	cmd.AddCommand(setCmd, changeCmd)
	return cmd
}
