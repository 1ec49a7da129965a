package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempo/internal/amqp"
	"tempo/internal/backup"
	"tempo/internal/core"
	"tempo/internal/records/memory"
	"tempo/internal/services"
)

type result struct {
	code int
	out  string
	err  string
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, out: out.String(), err: errOut.String()}
}

// setupEnv points every command at a fresh SQLite file and backup directory.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "activities.db"))
	t.Setenv("BACKUP_DIR", filepath.Join(dir, "backups"))
	t.Setenv("BACKUP_ENABLED", "true")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv(passwordEnv, "")
	return dir
}

func setPassword(t *testing.T) {
	t.Helper()
	res := run(t, "", "password", "set", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
}

func today() core.Date { return core.DateOf(time.Now()) }

func TestPasswordGate(t *testing.T) {
	setupEnv(t)

	res := run(t, "", "list")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "error: no password set")

	res = run(t, "secret\n", "password", "set")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "Password set.")

	res = run(t, "", "password", "set", "-p", "other")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "already set")

	res = run(t, "", "list", "-p", "wrong")
	assert.Equal(t, 1, res.code)
	assert.Equal(t, "error: wrong password\n", res.err)

	res = run(t, "secret\n", "list")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "Password: ")
	assert.Contains(t, res.out, "No activities recorded.")

	t.Setenv(passwordEnv, "secret")
	res = run(t, "", "list")
	assert.Equal(t, 0, res.code, res.err)
}

func TestPasswordChange(t *testing.T) {
	setupEnv(t)
	setPassword(t)

	res := run(t, "", "password", "change", "-p", "secret", "--new", "next")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "Password changed.")

	assert.Equal(t, 1, run(t, "", "list", "-p", "secret").code)
	assert.Equal(t, 0, run(t, "", "list", "-p", "next").code)

	res = run(t, "\n", "password", "change", "-p", "next")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "empty secret")
}

func TestActivityLifecycle(t *testing.T) {
	setupEnv(t)
	setPassword(t)

	res := run(t, "", "add", "Reading", "-m", "30", "--date", "2024-03-15", "-n", "chapter 3", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Equal(t, "Saved #1: Reading, 0h 30m on 2024-03-15\n", res.out)

	res = run(t, "", "add", "  Gym ", "-m", "60", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "Saved #2: Gym, 1h 0m on "+today().String())

	res = run(t, "", "list", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	lines := strings.Split(strings.TrimSpace(res.out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ACTIVITY")
	assert.Contains(t, lines[1], "Gym")
	assert.Contains(t, lines[2], "chapter 3")

	res = run(t, "", "list", "--search", "READ", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "Reading")
	assert.NotContains(t, res.out, "Gym")

	res = run(t, "", "edit", "1", "Reading", "-m", "45", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Equal(t, "Updated #1: Reading, 0h 45m on 2024-03-15\n", res.out)

	res = run(t, "", "names", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Equal(t, "Gym\nReading\n", res.out)

	res = run(t, "", "delete", "1", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Equal(t, "Deleted #1\n", res.out)

	res = run(t, "", "delete", "1", "-p", "secret")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "not found")
}

func TestActivityValidation(t *testing.T) {
	setupEnv(t)
	setPassword(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing minutes", []string{"add", "Gym"}, `"minutes" not set`},
		{"negative minutes", []string{"add", "Gym", "-m", "-5"}, "negative duration"},
		{"blank activity", []string{"add", "  ", "-m", "5"}, "empty activity name"},
		{"bad date", []string{"add", "Gym", "-m", "5", "--date", "2024-02-30"}, "invalid date"},
		{"bad id", []string{"delete", "abc"}, "invalid id"},
		{"bad period", []string{"report", "--period", "decade"}, "unknown period"},
		{"huge chart window", []string{"chart", "daily", "--days", "100000"}, "exceeds 366"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, "", append(tt.args, "-p", "secret")...)
			assert.Equal(t, 1, res.code)
			assert.Contains(t, res.err, tt.want)
		})
	}
}

func TestInsightCommands(t *testing.T) {
	setupEnv(t)
	setPassword(t)
	require.Equal(t, 0, run(t, "", "add", "Reading", "-m", "30", "-p", "secret").code)
	require.Equal(t, 0, run(t, "", "add", "Gym", "-m", "40", "-p", "secret").code)

	res := run(t, "", "report", "--period", "all", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "Total time: 1h 10m")

	res = run(t, "", "chart", "daily", "--days", "3", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	lines := strings.Split(strings.TrimSpace(res.out), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[4], today().String()))
	assert.Contains(t, lines[4], strings.Repeat("#", barWidth))

	res = run(t, "", "chart", "distribution", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "57.1%")
	assert.Contains(t, res.out, "42.9%")

	res = run(t, "", "stats", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "Today: 1h 10m")
	assert.Contains(t, res.out, "Records: 2")
	assert.Contains(t, res.out, "Activities: 2")
}

func TestExportCommands(t *testing.T) {
	dir := setupEnv(t)
	setPassword(t)
	require.Equal(t, 0, run(t, "", "add", "Reading", "-m", "30", "--date", "2024-03-15", "-p", "secret").code)

	res := run(t, "", "export", "csv", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Equal(t, "\ufeffDate,Activity,Duration (min),Notes\n2024-03-15,Reading,30,\n", res.out)

	path := filepath.Join(dir, "out.csv")
	res = run(t, "", "export", "csv", "--out", path, "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "2024-03-15,Reading,30,")

	res = run(t, "", "export", "sheets", "-p", "secret")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, errSheetsDisabled.Error())
}

func TestBackupCommands(t *testing.T) {
	dir := setupEnv(t)
	setPassword(t)
	snapshot := backup.SnapshotName(today())

	// retake today's snapshot so it holds the password but no records
	require.NoError(t, os.Remove(filepath.Join(dir, "backups", snapshot)))
	require.Equal(t, 0, run(t, "", "add", "Reading", "-m", "30", "-p", "secret").code)

	res := run(t, "", "backup", "list", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, snapshot)
	assert.Contains(t, res.out, "older than 30 days")

	manual := filepath.Join(dir, "manual.db")
	res = run(t, "", "backup", "run", "--to", manual, "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.FileExists(t, manual)

	res = run(t, "", "backup", "restore", "activities_backup_19990101.db", "-p", "secret")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "not found")

	res = run(t, "", "backup", "restore", snapshot, "-p", "secret")
	require.Equal(t, 0, res.code, res.err)

	res = run(t, "", "list", "-p", "secret")
	require.Equal(t, 0, res.code, res.err)
	assert.Contains(t, res.out, "No activities recorded.")
}

func TestBackupCommandsWhenDisabled(t *testing.T) {
	setupEnv(t)
	t.Setenv("BACKUP_ENABLED", "false")
	setPassword(t)

	res := run(t, "", "backup", "list", "-p", "secret")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, "backups are disabled")
}

func TestWorkerNeedsEvents(t *testing.T) {
	setupEnv(t)
	setPassword(t)

	res := run(t, "", "worker", "-p", "secret")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.err, errEventsDisabled.Error())
}

type recordingExporter struct{ calls int }

func (e *recordingExporter) Export(ctx context.Context, records []core.ActivityRecord) (string, error) {
	e.calls++
	return "Activities!A1:D1", nil
}

func TestEventHandler(t *testing.T) {
	ctx := context.Background()
	exporter := &recordingExporter{}
	syncer := services.NewSheetSyncer(memory.New(), exporter, services.DefaultSheetSyncerConfig())
	handle := eventHandler(ctx, syncer)

	require.NoError(t, handle(amqp.NewBackupCreatedEvent("activities_backup_20240315.db", core.NewDate(2024, 3, 15))))
	assert.False(t, syncer.SyncIfDirty(ctx))

	rec := core.ActivityRecord{ID: 1, Date: core.NewDate(2024, 3, 15), Activity: "Gym", DurationMinutes: 30}
	require.NoError(t, handle(amqp.NewActivityChangedEvent("create", rec)))
	assert.True(t, syncer.SyncIfDirty(ctx))
	assert.Equal(t, 1, exporter.calls)

	require.NoError(t, eventHandler(ctx, nil)(&amqp.Event{Type: "unknown"}))
}
