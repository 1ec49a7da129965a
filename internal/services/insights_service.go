package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"tempo/internal/core"
	"tempo/internal/records"
	"tempo/internal/report"
	"tempo/internal/stats"
)

// DefaultWindowDays is the length of the dashboard trend series.
const DefaultWindowDays = 30

// InsightsService answers read-only questions about the log. Every call reads a
// fresh snapshot from the store; nothing is cached between calls.
type InsightsService struct {
	store      records.Reader
	now        func() time.Time
	topK       int
	windowDays int
}

type InsightsOption func(*InsightsService)

func WithClock(now func() time.Time) InsightsOption {
	return func(s *InsightsService) { s.now = now }
}

// WithTopK sets the number of named distribution slices. Values below 1 keep the default.
func WithTopK(k int) InsightsOption {
	return func(s *InsightsService) {
		if k >= 1 {
			s.topK = k
		}
	}
}

// WithWindowDays sets the dashboard series length. Values outside
// 1..core.MaxWindowDays keep the default.
func WithWindowDays(days int) InsightsOption {
	return func(s *InsightsService) {
		if days >= 1 && days <= core.MaxWindowDays {
			s.windowDays = days
		}
	}
}

func NewInsightsService(store records.Reader, opts ...InsightsOption) *InsightsService {
	s := &InsightsService{
		store:      store,
		now:        time.Now,
		topK:       stats.DefaultTopK,
		windowDays: DefaultWindowDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current calendar date according to the service clock.
func (s *InsightsService) Today() core.Date {
	return core.DateOf(s.now())
}

// WindowDays is the default trend series length.
func (s *InsightsService) WindowDays() int { return s.windowDays }

func (s *InsightsService) Summary(ctx context.Context, period core.Period) (stats.Summary, error) {
	recs, err := s.periodRecords(ctx, period)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(recs, period, s.Today()), nil
}

func (s *InsightsService) Report(ctx context.Context, period core.Period) (report.Document, error) {
	summary, err := s.Summary(ctx, period)
	if err != nil {
		return report.Document{}, err
	}
	return report.Format(summary, period, s.Today()), nil
}

// Daily returns the zero-filled series ending at end. A zero end means today and
// days below 1 yield an empty series.
func (s *InsightsService) Daily(ctx context.Context, end core.Date, days int) (stats.Series, error) {
	if end.IsZero() {
		end = s.Today()
	}
	if days < 1 {
		return stats.DailySeries(nil, end, days), nil
	}
	if days > core.MaxWindowDays {
		return stats.Series{}, fmt.Errorf("%w: window of %d days exceeds %d", core.ErrValidation, days, core.MaxWindowDays)
	}
	recs, err := s.store.QueryRange(ctx, end.AddDays(-(days - 1)), end)
	if err != nil {
		return stats.Series{}, fmt.Errorf("daily series: %w", err)
	}
	return stats.DailySeries(recs, end, days), nil
}

// Distribution returns the per-activity share of [start, end]. A topK below 1 uses
// the service default.
func (s *InsightsService) Distribution(ctx context.Context, start, end core.Date, topK int) (stats.Distribution, error) {
	if topK < 1 {
		topK = s.topK
	}
	if end.Before(start) {
		return stats.Distribution{}, fmt.Errorf("%w: end %s before start %s", core.ErrValidation, end, start)
	}
	recs, err := s.store.QueryRange(ctx, start, end)
	if err != nil {
		return stats.Distribution{}, fmt.Errorf("distribution: %w", err)
	}
	return stats.BuildDistribution(recs, start, end, topK), nil
}

func (s *InsightsService) Overview(ctx context.Context) (stats.Overview, error) {
	recs, err := s.store.QueryAll(ctx)
	if err != nil {
		return stats.Overview{}, fmt.Errorf("overview: %w", err)
	}
	return stats.BuildOverview(recs, s.Today()), nil
}

// TodayTotal is what was logged on the current day.
type TodayTotal struct {
	Date         core.Date             `json:"date"`
	TotalMinutes int                   `json:"total_minutes"`
	Records      []core.ActivityRecord `json:"records"`
}

func (s *InsightsService) TodayTotal(ctx context.Context) (TodayTotal, error) {
	today := s.Today()
	recs, err := s.store.QueryRange(ctx, today, today)
	if err != nil {
		return TodayTotal{}, fmt.Errorf("today total: %w", err)
	}
	if recs == nil {
		recs = []core.ActivityRecord{}
	}
	return TodayTotal{Date: today, TotalMinutes: stats.DayTotal(recs, today), Records: recs}, nil
}

// Dashboard bundles everything the main screen shows.
type Dashboard struct {
	Summary      stats.Summary      `json:"summary"`
	Report       report.Document    `json:"report"`
	Daily        stats.Series       `json:"daily"`
	Distribution stats.Distribution `json:"distribution"`
	Overview     stats.Overview     `json:"overview"`
}

// Dashboard reads the period window and the full log concurrently, then derives
// every view from those two snapshots.
func (s *InsightsService) Dashboard(ctx context.Context, period core.Period) (Dashboard, error) {
	if !period.IsValid() {
		return Dashboard{}, fmt.Errorf("%w: unknown period %q", core.ErrValidation, period)
	}
	today := s.Today()

	var periodRecs, allRecs []core.ActivityRecord
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		periodRecs, err = s.store.QueryRange(gctx, period.Start(today), today)
		return err
	})
	g.Go(func() error {
		var err error
		allRecs, err = s.store.QueryAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}

	summary := stats.Summarize(periodRecs, period, today)
	return Dashboard{
		Summary:      summary,
		Report:       report.Format(summary, period, today),
		Daily:        stats.DailySeries(allRecs, today, s.windowDays),
		Distribution: stats.BuildDistribution(periodRecs, summary.Start, today, s.topK),
		Overview:     stats.BuildOverview(allRecs, today),
	}, nil
}

func (s *InsightsService) periodRecords(ctx context.Context, period core.Period) ([]core.ActivityRecord, error) {
	if !period.IsValid() {
		return nil, fmt.Errorf("%w: unknown period %q", core.ErrValidation, period)
	}
	today := s.Today()
	recs, err := s.store.QueryRange(ctx, period.Start(today), today)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", period, err)
	}
	return recs, nil
}
