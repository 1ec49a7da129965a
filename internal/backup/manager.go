// Package backup keeps at most one snapshot of the record store per calendar day and
// expires snapshots older than the retention threshold.
//
// Every operation is best effort: failures are logged, counted and reported in the
// returned Result, never propagated as a reason to stop the host process.
package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"

	"tempo/internal/core"
	"tempo/internal/log"
	"tempo/internal/observability"
)

const (
	DefaultRetentionDays = 30

	namePrefix     = "activities_backup_"
	nameSuffix     = ".db"
	nameDateLayout = "20060102"
)

var namePattern = regexp.MustCompile(`^activities_backup_(\d{8})\.db$`)

// Notifier is told about each snapshot written. The AMQP client implements it.
type Notifier interface {
	PublishBackupCreated(ctx context.Context, name string, date core.Date) error
}

// Result describes what one invocation did.
type Result struct {
	// Name is today's snapshot file name. Empty for expiry-only runs.
	Name    string   `json:"name,omitempty"`
	Created bool     `json:"created"`
	Removed []string `json:"removed,omitempty"`
	// Err joins every failure met along the way. Nil means a clean run.
	Err error `json:"-"`
}

func (r Result) OK() bool { return r.Err == nil }

func (r Result) merge(o Result) Result {
	if o.Name != "" {
		r.Name = o.Name
	}
	r.Created = r.Created || o.Created
	r.Removed = append(r.Removed, o.Removed...)
	r.Err = errors.Join(r.Err, o.Err)
	return r
}

// Snapshot is one listed backup file.
type Snapshot struct {
	Name    string    `json:"name"`
	Date    core.Date `json:"date"`
	Size    int64     `json:"size_bytes"`
	Human   string    `json:"size"`
	AgeDays int       `json:"age_days"`
}

type Manager struct {
	fs            FS
	storePath     string
	dir           string
	retentionDays int
	notifier      Notifier
	now           func() time.Time
	logger        *log.Logger

	mu    sync.Mutex
	group singleflight.Group
}

type Option func(*Manager)

func WithFS(fs FS) Option { return func(m *Manager) { m.fs = fs } }

// WithRetentionDays sets the age threshold. Values below 1 keep the default.
func WithRetentionDays(days int) Option {
	return func(m *Manager) {
		if days >= 1 {
			m.retentionDays = days
		}
	}
}

func WithNotifier(n Notifier) Option { return func(m *Manager) { m.notifier = n } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

func WithLogger(l *log.Logger) Option { return func(m *Manager) { m.logger = l } }

func NewManager(storePath, dir string, opts ...Option) *Manager {
	m := &Manager{
		fs:            OSFS{},
		storePath:     storePath,
		dir:           dir,
		retentionDays: DefaultRetentionDays,
		now:           time.Now,
		logger:        log.Default(log.ComponentBackup),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Dir() string        { return m.dir }
func (m *Manager) RetentionDays() int { return m.retentionDays }

// SnapshotName is the snapshot file name for a calendar day.
func SnapshotName(d core.Date) string {
	return namePrefix + d.Format(nameDateLayout) + nameSuffix
}

// ParseSnapshotName extracts the day from a snapshot file name.
func ParseSnapshotName(name string) (core.Date, bool) {
	match := namePattern.FindStringSubmatch(name)
	if match == nil {
		return core.Date{}, false
	}
	t, err := time.Parse(nameDateLayout, match[1])
	if err != nil {
		return core.Date{}, false
	}
	return core.DateOf(t), true
}

// RunStartup runs the once-per-process check: today's snapshot, then expiry.
func (m *Manager) RunStartup(ctx context.Context) Result {
	today := core.DateOf(m.now())
	res := m.EnsureTodaysBackup(ctx, today)
	res = res.merge(m.ExpireOldBackups(ctx, today))
	m.logger.InfoContext(ctx, "Startup backup check finished",
		log.FieldOperation, log.OpStartup,
		log.FieldBackupName, res.Name,
		"created", res.Created,
		log.FieldRemovedCount, len(res.Removed),
		log.FieldSuccess, res.OK())
	return res
}

// EnsureTodaysBackup copies the store to today's snapshot unless it already exists.
// Concurrent callers for the same day share one copy.
func (m *Manager) EnsureTodaysBackup(ctx context.Context, today core.Date) Result {
	name := SnapshotName(today)
	v, _, _ := m.group.Do(name, func() (any, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.ensure(ctx, today, name), nil
	})
	return v.(Result)
}

func (m *Manager) ensure(ctx context.Context, today core.Date, name string) Result {
	res := Result{Name: name}
	dst := filepath.Join(m.dir, name)

	exists, err := m.fs.Exists(dst)
	if err != nil {
		res.Err = m.fail(ctx, log.OpBackup, name, fmt.Errorf("check %s: %w", name, err))
		return res
	}
	if exists {
		m.logger.DebugContext(ctx, "Today's backup already exists", log.FieldBackupName, name)
		return res
	}

	if err := m.fs.Copy(m.storePath, dst); err != nil {
		res.Err = m.fail(ctx, log.OpBackup, name, fmt.Errorf("copy %s: %w", name, err))
		return res
	}
	res.Created = true

	observability.RecordBackupCreated(m.now())
	m.logger.InfoContext(ctx, "Backup created",
		log.NewFields().WithBackup(name, dst).WithOperation(log.OpBackup).ToSlice()...)

	if m.notifier != nil {
		if err := m.notifier.PublishBackupCreated(ctx, name, today); err != nil {
			m.logger.WarnContext(ctx, "Failed to publish backup event",
				log.FieldBackupName, name, log.FieldError, err)
		}
	}
	return res
}

// ExpireOldBackups removes snapshots whose age in days exceeds the retention threshold.
// Files that do not look like snapshots are left alone.
func (m *Manager) ExpireOldBackups(ctx context.Context, today core.Date) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res Result
	names, err := m.fs.List(m.dir)
	if err != nil {
		res.Err = m.fail(ctx, log.OpExpire, "", fmt.Errorf("list %s: %w", m.dir, err))
		return res
	}

	for _, name := range names {
		date, ok := ParseSnapshotName(name)
		if !ok {
			continue
		}
		if today.DaysSince(date) <= m.retentionDays {
			continue
		}
		if err := m.fs.Remove(filepath.Join(m.dir, name)); err != nil {
			res.Err = errors.Join(res.Err, m.fail(ctx, log.OpExpire, name, fmt.Errorf("remove %s: %w", name, err)))
			continue
		}
		res.Removed = append(res.Removed, name)
	}

	slices.Sort(res.Removed)
	if len(res.Removed) > 0 {
		observability.RecordBackupsExpired(len(res.Removed))
		m.logger.InfoContext(ctx, "Expired old backups",
			log.FieldOperation, log.OpExpire,
			log.FieldRemovedCount, len(res.Removed),
			"retention_days", m.retentionDays)
	}
	return res
}

// List returns the snapshots in the backup directory, newest first.
func (m *Manager) List(ctx context.Context) ([]Snapshot, error) {
	names, err := m.fs.List(m.dir)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w: %w", core.ErrStorage, err)
	}
	today := core.DateOf(m.now())
	out := make([]Snapshot, 0, len(names))
	for _, name := range names {
		date, ok := ParseSnapshotName(name)
		if !ok {
			continue
		}
		info, err := m.fs.Stat(filepath.Join(m.dir, name))
		if err != nil {
			m.logger.WarnContext(ctx, "Skipping unreadable backup", log.FieldBackupName, name, log.FieldError, err)
			continue
		}
		out = append(out, Snapshot{
			Name:    name,
			Date:    date,
			Size:    info.Size,
			Human:   humanize.Bytes(uint64(info.Size)),
			AgeDays: today.DaysSince(date),
		})
	}
	slices.SortFunc(out, func(a, b Snapshot) int { return strings.Compare(b.Name, a.Name) })
	return out, nil
}

// BackupTo copies the store to an arbitrary path. Unlike the daily snapshot it
// reports failure to the caller.
func (m *Manager) BackupTo(ctx context.Context, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fs.Copy(m.storePath, dst); err != nil {
		observability.RecordBackupFailure(log.OpBackup)
		return fmt.Errorf("backup to %s: %w: %w", dst, core.ErrStorage, err)
	}
	m.logger.InfoContext(ctx, "Manual backup written", log.FieldBackupPath, dst)
	return nil
}

// Restore copies the named snapshot over the store file. The store must be closed.
func (m *Manager) Restore(ctx context.Context, name string) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("%w: invalid backup name %q", core.ErrValidation, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	src := filepath.Join(m.dir, name)
	exists, err := m.fs.Exists(src)
	if err != nil {
		return fmt.Errorf("check backup: %w: %w", core.ErrStorage, err)
	}
	if !exists {
		return fmt.Errorf("backup %s: %w", name, core.ErrNotFound)
	}
	if err := m.fs.Copy(src, m.storePath); err != nil {
		observability.RecordBackupFailure(log.OpRestore)
		return fmt.Errorf("restore %s: %w: %w", name, core.ErrStorage, err)
	}
	m.logger.InfoContext(ctx, "Backup restored",
		log.NewFields().WithBackup(name, src).WithOperation(log.OpRestore).ToSlice()...)
	return nil
}

func (m *Manager) fail(ctx context.Context, op, name string, err error) error {
	observability.RecordBackupFailure(op)
	m.logger.WarnContext(ctx, "Backup operation failed, continuing",
		log.FieldOperation, op,
		log.FieldBackupName, name,
		log.FieldError, err)
	return err
}
