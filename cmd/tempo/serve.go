package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"tempo/internal/cli"
	apphttp "tempo/internal/http"
)

func newServeCmd(s *session) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			if addr == "" {
				addr = ":" + app.Config.Port
			}

			srv := apphttp.NewServer(addr, apphttp.Deps{
				Activities:         app.Activities,
				Insights:           app.Insights,
				Verifier:           app.Verifier,
				RateLimitPerMinute: app.Config.RateLimitPerMinute,
			})

			ctx, done := cli.GracefulShutdown(app.Logger, app.Config.ShutdownGracePeriod, func(ctx context.Context) {
				if err := srv.Shutdown(ctx); err != nil {
					app.Logger.Error("Server shutdown error", "error", err)
				}
			})

			if app.Syncer != nil {
				if err := app.Syncer.Start(ctx); err != nil {
					return err
				}
			}

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("Starting HTTP server",
					"addr", addr,
					"backend", app.Config.DataBackend,
					"backups", app.Backups != nil,
					"events", app.Events != nil,
					"sheets", app.Syncer != nil)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				cli.WaitForShutdown(ctx, done)
			case <-ctx.Done():
				<-done
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default :PORT)")
	return cmd
}
