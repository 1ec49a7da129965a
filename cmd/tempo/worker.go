package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"tempo/internal/amqp"
	"tempo/internal/cli"
	"tempo/internal/log"
	"tempo/internal/services"
)

var errEventsDisabled = errors.New("events are disabled (set AMQP_URL)")

func newWorkerCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume change events and keep the Google Sheet mirror current",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := s.app
			if app.Events == nil {
				return errEventsDisabled
			}
			if app.Syncer == nil {
				app.Logger.Warn("Google Sheets disabled, events will only be logged")
			}

			ctx, done := cli.GracefulShutdown(app.Logger, app.Config.ShutdownGracePeriod, nil)
			if app.Syncer != nil {
				if err := app.Syncer.Start(ctx); err != nil {
					return err
				}
			}

			err := app.Events.Consume(ctx, eventHandler(ctx, app.Syncer))
			if errors.Is(err, context.Canceled) {
				cli.WaitForShutdown(ctx, done)
				return nil
			}
			return err
		},
	}
}

// eventHandler marks the mirror stale on every activity change. Backup events
// are only logged.
func eventHandler(ctx context.Context, syncer *services.SheetSyncer) func(*amqp.Event) error {
	logger := log.Default(log.ComponentAMQP)
	return func(e *amqp.Event) error {
		switch e.Type {
		case amqp.EventActivityChanged:
			logger.InfoContext(ctx, "Activity changed",
				log.FieldOperation, e.Op,
				log.FieldActivityID, e.ActivityID,
				log.FieldActivity, e.Activity)
			if syncer != nil {
				syncer.MarkDirty()
			}
		case amqp.EventBackupCreated:
			logger.InfoContext(ctx, "Backup created", log.FieldBackupName, e.BackupName)
		default:
			logger.WarnContext(ctx, "Ignoring unknown event", "type", e.Type)
		}
		return nil
	}
}
