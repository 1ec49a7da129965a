package main

import (
	"fmt"

	"github.com/spf13/cobra"

	gsheet "tempo/internal/sheets/google"
)

func newSheetsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Manage the Google Sheets connection",
	}

	var port, tokenFile string
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize tempo to write to Google Sheets with your account",
		Long: "Runs the OAuth consent flow for the client in GOOGLE_OAUTH_CLIENT_JSON or\n" +
			"GOOGLE_OAUTH_CLIENT_FILE and saves the token for later exports. Service\n" +
			"account credentials, when set, take precedence over the saved token.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := gsheet.OAuthConfigFromEnv()
			if err != nil {
				return err
			}
			if tokenFile == "" {
				tokenFile = gsheet.TokenFileFromEnv()
			}
			tok, err := gsheet.Authorize(cmd.Context(), cfg, port, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := gsheet.SaveToken(tokenFile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", tokenFile)
			return nil
		},
	}
	authCmd.Flags().StringVar(&port, "port", gsheet.DefaultRedirectPort, "local port for the OAuth redirect")
	authCmd.Flags().StringVar(&tokenFile, "token-file", "", "where to save the token (default $GOOGLE_OAUTH_TOKEN_FILE or token.json)")

	cmd.AddCommand(authCmd)
	return cmd
}
