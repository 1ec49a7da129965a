package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"tempo/internal/core"
	"tempo/internal/records"
)

// SheetExporter replaces the remote sheet with the given records.
type SheetExporter interface {
	Export(ctx context.Context, records []core.ActivityRecord) (string, error)
}

// SheetSyncerConfig holds configuration for the sheet syncer
type SheetSyncerConfig struct {
	// PollInterval is how often a pending change is pushed (default: 10s)
	PollInterval time.Duration

	// MaxRetries is how many consecutive failed pushes are logged at warn level
	// before escalating to error (default: 3)
	MaxRetries int
}

// DefaultSheetSyncerConfig returns sensible defaults
func DefaultSheetSyncerConfig() SheetSyncerConfig {
	return SheetSyncerConfig{
		PollInterval: 10 * time.Second,
		MaxRetries:   3,
	}
}

// SheetSyncer mirrors the whole log to a spreadsheet after changes. Bursts of
// MarkDirty calls between two ticks cost a single export.
type SheetSyncer struct {
	store    records.Reader
	exporter SheetExporter
	config   SheetSyncerConfig

	dirty atomic.Bool

	// syncMu serialises exports and guards failures.
	syncMu   sync.Mutex
	failures int

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

var _ ChangeListener = (*SheetSyncer)(nil)

func NewSheetSyncer(store records.Reader, exporter SheetExporter, config SheetSyncerConfig) *SheetSyncer {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultSheetSyncerConfig().PollInterval
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultSheetSyncerConfig().MaxRetries
	}
	return &SheetSyncer{store: store, exporter: exporter, config: config}
}

// MarkDirty schedules an export on the next tick.
func (p *SheetSyncer) MarkDirty() {
	p.dirty.Store(true)
}

// Start begins the processing loop. The first tick always exports. Returns an
// error if already running.
func (p *SheetSyncer) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("sheet syncer is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	p.MarkDirty()
	go p.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Sheet syncer started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop gracefully stops the syncer and waits for completion. The syncer counts
// as stopped even when ctx expires first; the loop then exits after its current
// export.
func (p *SheetSyncer) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Sheet syncer stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Sheet syncer stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the syncer is currently running
func (p *SheetSyncer) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *SheetSyncer) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.SyncIfDirty(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.SyncIfDirty(ctx)
		}
	}
}

// SyncIfDirty exports once if a change is pending. A failed export stays pending.
func (p *SheetSyncer) SyncIfDirty(ctx context.Context) bool {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()
	if !p.dirty.Swap(false) {
		return false
	}

	err := p.sync(ctx)
	if err == nil {
		p.failures = 0
		return true
	}

	p.dirty.Store(true)
	p.failures++
	level := slog.LevelWarn
	if p.failures >= p.config.MaxRetries {
		level = slog.LevelError
	}
	slog.Log(ctx, level, "Sheet export failed, will retry",
		"error", err,
		"consecutive_failures", p.failures)
	return false
}

func (p *SheetSyncer) sync(ctx context.Context) error {
	recs, err := p.store.QueryAll(ctx)
	if err != nil {
		return fmt.Errorf("read activities: %w", err)
	}
	if _, err := p.exporter.Export(ctx, recs); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
