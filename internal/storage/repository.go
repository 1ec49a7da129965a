package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tempo/internal/core"
	"tempo/internal/records"

	_ "modernc.org/sqlite"
)

var _ records.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	path    string
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		path:    dbPath,
	}, nil
}

// Path returns the database file location. The backup manager copies this file.
func (r *SQLiteRepository) Path() string { return r.path }

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert implements records.Writer
func (r *SQLiteRepository) Insert(ctx context.Context, date core.Date, activity string, durationMinutes int, notes string) (int64, error) {
	rec := core.ActivityRecord{Date: date, Activity: activity, DurationMinutes: durationMinutes, Notes: notes}
	if err := rec.Validate(); err != nil {
		return 0, err
	}

	id, err := r.queries.CreateActivity(ctx, CreateActivityParams{
		Date:     date.String(),
		Activity: activity,
		Duration: int64(durationMinutes),
		Notes:    notes,
	})
	if err != nil {
		return 0, storageErr("create activity", err)
	}

	slog.InfoContext(ctx, "Activity saved to SQLite",
		"id", id,
		"activity", activity,
		"duration_minutes", durationMinutes,
		"date", date.String())

	return id, nil
}

// Update implements records.Writer
func (r *SQLiteRepository) Update(ctx context.Context, id int64, date core.Date, activity string, durationMinutes int, notes string) error {
	rec := core.ActivityRecord{ID: id, Date: date, Activity: activity, DurationMinutes: durationMinutes, Notes: notes}
	if err := rec.Validate(); err != nil {
		return err
	}

	n, err := r.queries.UpdateActivity(ctx, UpdateActivityParams{
		ID:       id,
		Date:     date.String(),
		Activity: activity,
		Duration: int64(durationMinutes),
		Notes:    notes,
	})
	if err != nil {
		return storageErr("update activity", err)
	}
	if n == 0 {
		return fmt.Errorf("activity %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Activity updated in SQLite", "id", id, "activity", activity)
	return nil
}

// Delete implements records.Writer
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteActivity(ctx, id)
	if err != nil {
		return storageErr("delete activity", err)
	}
	if n == 0 {
		return fmt.Errorf("activity %d: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Activity deleted from SQLite", "id", id)
	return nil
}

// Get implements records.Reader
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.ActivityRecord, error) {
	row, err := r.queries.GetActivity(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ActivityRecord{}, fmt.Errorf("activity %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.ActivityRecord{}, storageErr("get activity", err)
	}
	return toRecord(row)
}

// QueryRange implements records.Reader
func (r *SQLiteRepository) QueryRange(ctx context.Context, start, end core.Date) ([]core.ActivityRecord, error) {
	rows, err := r.queries.ListActivitiesByRange(ctx, start.String(), end.String())
	if err != nil {
		return nil, storageErr("list activities by range", err)
	}
	return toRecords(rows)
}

// QueryAll implements records.Reader
func (r *SQLiteRepository) QueryAll(ctx context.Context) ([]core.ActivityRecord, error) {
	rows, err := r.queries.ListActivities(ctx)
	if err != nil {
		return nil, storageErr("list activities", err)
	}
	return toRecords(rows)
}

// Search implements records.Searcher. Matching happens here rather than in SQL
// because SQLite LIKE only folds ASCII case.
func (r *SQLiteRepository) Search(ctx context.Context, query string) ([]core.ActivityRecord, error) {
	rows, err := r.queries.ListActivities(ctx)
	if err != nil {
		return nil, storageErr("search activities", err)
	}
	matched := rows[:0]
	for _, row := range rows {
		if core.MatchesActivity(row.Activity, query) {
			matched = append(matched, row)
		}
	}
	return toRecords(matched)
}

// DistinctActivityNames implements records.NameLister
func (r *SQLiteRepository) DistinctActivityNames(ctx context.Context) ([]string, error) {
	names, err := r.queries.DistinctActivityNames(ctx)
	if err != nil {
		return nil, storageErr("distinct activity names", err)
	}
	return names, nil
}

// LoadSecretHash implements records.SecretStore
func (r *SQLiteRepository) LoadSecretHash(ctx context.Context) (string, bool, error) {
	v, err := r.queries.GetSetting(ctx, settingPasswordKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageErr("load secret", err)
	}
	return v, true, nil
}

// SaveSecretHash implements records.SecretStore
func (r *SQLiteRepository) SaveSecretHash(ctx context.Context, hash string) error {
	if err := r.queries.UpsertSetting(ctx, settingPasswordKey, hash); err != nil {
		return storageErr("save secret", err)
	}
	slog.InfoContext(ctx, "Access secret updated")
	return nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, core.ErrStorage, err)
}

func toRecord(a Activity) (core.ActivityRecord, error) {
	date, err := core.ParseDate(a.Date)
	if err != nil {
		return core.ActivityRecord{}, fmt.Errorf("activity %d has corrupt date %q: %w", a.ID, a.Date, core.ErrStorage)
	}
	return core.ActivityRecord{
		ID:              a.ID,
		Date:            date,
		Activity:        a.Activity,
		DurationMinutes: int(a.Duration),
		Notes:           a.Notes,
	}, nil
}

func toRecords(rows []Activity) ([]core.ActivityRecord, error) {
	out := make([]core.ActivityRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := toRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
