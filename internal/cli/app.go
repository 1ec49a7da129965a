package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tempo/internal/amqp"
	"tempo/internal/auth"
	"tempo/internal/backend"
	"tempo/internal/backup"
	"tempo/internal/config"
	"tempo/internal/log"
	"tempo/internal/records"
	"tempo/internal/services"
	gsheet "tempo/internal/sheets/google"
)

// ErrBackupsDisabled is returned by backup commands when no snapshot manager is configured.
var ErrBackupsDisabled = errors.New("backups are disabled (set DATA_BACKEND=sqlite and BACKUP_ENABLED=true)")

// App holds every collaborator a command may need. Optional parts are nil when
// their configuration is absent.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Store      records.Store
	StorePath  string
	Activities *services.ActivityService
	Insights   *services.InsightsService
	Verifier   *auth.Verifier
	Backups    *backup.Manager
	Events     *amqp.Client
	Syncer     *services.SheetSyncer
	Sheets     *gsheet.Client
}

// Bootstrap opens the configured store and wires the services around it.
// Optional integrations that fail to start are logged and left out.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Store:     res.Store,
		StorePath: res.StorePath,
		Verifier:  auth.NewVerifier(res.Store),
		Insights: services.NewInsightsService(res.Store,
			services.WithTopK(cfg.DistributionTopK),
			services.WithWindowDays(cfg.ChartWindowDays)),
	}

	var publisher services.EventPublisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
				log.FieldComponent, log.ComponentAMQP, log.FieldError, err)
		} else {
			logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			app.Events = client
			publisher = client
		}
	}

	var listeners []services.ChangeListener
	if cfg.SheetsEnabled() {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.WarnContext(ctx, "Failed to initialize Google Sheets client, continuing without mirror",
				log.FieldComponent, log.ComponentSheets, log.FieldError, err)
		} else {
			app.Sheets = client
			app.Syncer = services.NewSheetSyncer(res.Store, client, services.SheetSyncerConfig{
				PollInterval: cfg.SheetsSyncInterval,
			})
			listeners = append(listeners, app.Syncer)
		}
	}

	app.Activities = services.NewActivityService(res.Store, publisher, listeners...)

	if cfg.BackupsActive() && res.StorePath != "" {
		opts := []backup.Option{
			backup.WithRetentionDays(cfg.BackupRetentionDays),
			backup.WithLogger(log.Default(log.ComponentBackup)),
		}
		if app.Events != nil {
			opts = append(opts, backup.WithNotifier(app.Events))
		}
		app.Backups = backup.NewManager(res.StorePath, cfg.BackupDir, opts...)
	}

	return app, nil
}

// RunStartupBackup performs the once-per-process snapshot check. Failures are
// logged by the manager and never stop the command.
func (a *App) RunStartupBackup(ctx context.Context) backup.Result {
	if a.Backups == nil {
		return backup.Result{}
	}
	return a.Backups.RunStartup(ctx)
}

// RequireBackups returns the backup manager or ErrBackupsDisabled.
func (a *App) RequireBackups() (*backup.Manager, error) {
	if a.Backups == nil {
		return nil, ErrBackupsDisabled
	}
	return a.Backups, nil
}

// Close flushes a pending spreadsheet export and releases the store and broker.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Syncer != nil {
		if err := a.Syncer.Stop(ctx); err != nil {
			// the loop may still be exporting and ctx is already spent
			errs = append(errs, fmt.Errorf("sheet syncer: %w", err))
		} else {
			a.Syncer.SyncIfDirty(ctx)
		}
	}
	if a.Activities != nil {
		if err := a.Activities.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
