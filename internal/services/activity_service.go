package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"tempo/internal/core"
	"tempo/internal/log"
	"tempo/internal/observability"
	"tempo/internal/records"
)

// EventPublisher receives activity.changed events. The AMQP client implements it.
type EventPublisher interface {
	PublishActivityChanged(ctx context.Context, op string, rec core.ActivityRecord) error
}

// ChangeListener is notified after every successful mutation.
type ChangeListener interface {
	MarkDirty()
}

// ActivityService orchestrates record mutations across the store, AMQP and listeners
type ActivityService struct {
	store     records.Store
	publisher EventPublisher
	listeners []ChangeListener
	logger    *log.StructuredLogger
}

func NewActivityService(store records.Store, publisher EventPublisher, listeners ...ChangeListener) *ActivityService {
	return &ActivityService{
		store:     store,
		publisher: publisher,
		listeners: listeners,
		logger:    log.NewStructuredLogger(log.Default(log.ComponentActivity)),
	}
}

// Create trims and validates the input, stores it and returns the saved record.
func (s *ActivityService) Create(ctx context.Context, date core.Date, activity string, durationMinutes int, notes string) (core.ActivityRecord, error) {
	rec := core.ActivityRecord{
		Date:            date,
		Activity:        strings.TrimSpace(activity),
		DurationMinutes: durationMinutes,
		Notes:           strings.TrimSpace(notes),
	}
	if err := rec.Validate(); err != nil {
		return core.ActivityRecord{}, err
	}

	id, err := s.store.Insert(ctx, rec.Date, rec.Activity, rec.DurationMinutes, rec.Notes)
	if err != nil {
		return core.ActivityRecord{}, fmt.Errorf("save activity: %w", err)
	}
	rec.ID = id

	s.changed(ctx, log.OpCreate, rec)
	return rec, nil
}

// Update replaces every field of record id.
func (s *ActivityService) Update(ctx context.Context, id int64, date core.Date, activity string, durationMinutes int, notes string) (core.ActivityRecord, error) {
	rec := core.ActivityRecord{
		ID:              id,
		Date:            date,
		Activity:        strings.TrimSpace(activity),
		DurationMinutes: durationMinutes,
		Notes:           strings.TrimSpace(notes),
	}
	if err := rec.Validate(); err != nil {
		return core.ActivityRecord{}, err
	}

	if err := s.store.Update(ctx, id, rec.Date, rec.Activity, rec.DurationMinutes, rec.Notes); err != nil {
		return core.ActivityRecord{}, fmt.Errorf("update activity: %w", err)
	}

	s.changed(ctx, log.OpUpdate, rec)
	return rec, nil
}

func (s *ActivityService) Delete(ctx context.Context, id int64) error {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}

	s.changed(ctx, log.OpDelete, rec)
	return nil
}

func (s *ActivityService) Get(ctx context.Context, id int64) (core.ActivityRecord, error) {
	return s.store.Get(ctx, id)
}

// List returns every record newest first. A non-empty query keeps only records
// whose activity contains it, ignoring case.
func (s *ActivityService) List(ctx context.Context, query string) ([]core.ActivityRecord, error) {
	var (
		recs []core.ActivityRecord
		err  error
	)
	if q := strings.TrimSpace(query); q != "" {
		recs, err = s.store.Search(ctx, q)
	} else {
		recs, err = s.store.QueryAll(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	slices.SortStableFunc(recs, newestFirst)
	return recs, nil
}

// Names returns every distinct activity name for input suggestions.
func (s *ActivityService) Names(ctx context.Context) ([]string, error) {
	return s.store.DistinctActivityNames(ctx)
}

// Close closes the store and, when it has one, the publisher.
func (s *ActivityService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (s *ActivityService) changed(ctx context.Context, op string, rec core.ActivityRecord) {
	observability.RecordMutation(op)
	s.logger.LogActivityChanged(ctx, op, rec.ID, rec.Activity, rec.DurationMinutes, rec.Date.String())

	if s.publisher != nil {
		if err := s.publisher.PublishActivityChanged(ctx, op, rec); err != nil {
			// The record is saved; the event is best effort.
			s.logger.LogError(ctx, "Failed to publish activity event", err, log.ComponentAMQP, op, log.NewFields())
		}
	}
	for _, l := range s.listeners {
		l.MarkDirty()
	}
}

func newestFirst(a, b core.ActivityRecord) int {
	if c := b.Date.Compare(a.Date.Time); c != 0 {
		return c
	}
	return cmp.Compare(b.ID, a.ID)
}
