package storage

import (
	"context"
	"database/sql"
)

const settingPasswordKey = "password"

// Activity is the row shape of the activities table.
type Activity struct {
	ID       int64
	Date     string
	Activity string
	Duration int64
	Notes    string
}

// Queries wraps the SQL statements used by SQLiteRepository.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

type CreateActivityParams struct {
	Date     string
	Activity string
	Duration int64
	Notes    string
}

const createActivity = `INSERT INTO activities (date, activity, duration, notes) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateActivity(ctx context.Context, arg CreateActivityParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createActivity, arg.Date, arg.Activity, arg.Duration, arg.Notes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type UpdateActivityParams struct {
	ID       int64
	Date     string
	Activity string
	Duration int64
	Notes    string
}

const updateActivity = `UPDATE activities
SET date = ?, activity = ?, duration = ?, notes = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

// UpdateActivity returns the number of rows changed.
func (q *Queries) UpdateActivity(ctx context.Context, arg UpdateActivityParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateActivity, arg.Date, arg.Activity, arg.Duration, arg.Notes, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteActivity = `DELETE FROM activities WHERE id = ?`

// DeleteActivity returns the number of rows removed.
func (q *Queries) DeleteActivity(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteActivity, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getActivity = `SELECT id, date, activity, duration, notes FROM activities WHERE id = ?`

func (q *Queries) GetActivity(ctx context.Context, id int64) (Activity, error) {
	var a Activity
	err := q.db.QueryRowContext(ctx, getActivity, id).Scan(&a.ID, &a.Date, &a.Activity, &a.Duration, &a.Notes)
	return a, err
}

const listActivitiesByRange = `SELECT id, date, activity, duration, notes FROM activities
WHERE date >= ? AND date <= ?
ORDER BY date ASC, id ASC`

func (q *Queries) ListActivitiesByRange(ctx context.Context, start, end string) ([]Activity, error) {
	return q.list(ctx, listActivitiesByRange, start, end)
}

const listActivities = `SELECT id, date, activity, duration, notes FROM activities ORDER BY date ASC, id ASC`

func (q *Queries) ListActivities(ctx context.Context) ([]Activity, error) {
	return q.list(ctx, listActivities)
}

const distinctActivityNames = `SELECT DISTINCT activity FROM activities ORDER BY activity`

func (q *Queries) DistinctActivityNames(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, distinctActivityNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

const getSetting = `SELECT value FROM settings WHERE key = ?`

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := q.db.QueryRowContext(ctx, getSetting, key).Scan(&v)
	return v, err
}

const upsertSetting = `INSERT INTO settings (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (q *Queries) UpsertSetting(ctx context.Context, key, value string) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, key, value)
	return err
}

func (q *Queries) list(ctx context.Context, query string, args ...any) ([]Activity, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Date, &a.Activity, &a.Duration, &a.Notes); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
