package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempo/internal/core"
	"tempo/internal/records/memory"
)

type fakePublisher struct {
	ops    []string
	err    error
	closed bool
}

func (p *fakePublisher) PublishActivityChanged(_ context.Context, op string, _ core.ActivityRecord) error {
	p.ops = append(p.ops, op)
	return p.err
}

func (p *fakePublisher) Close() error {
	p.closed = true
	return nil
}

type countingListener struct{ n int }

func (l *countingListener) MarkDirty() { l.n++ }

func TestActivityService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	listener := &countingListener{}
	svc := NewActivityService(memory.New(), pub, listener)

	rec, err := svc.Create(ctx, core.NewDate(2024, 1, 1), "  Gym ", 60, " legs ")
	require.NoError(t, err)
	assert.Equal(t, "Gym", rec.Activity)
	assert.Equal(t, "legs", rec.Notes)
	assert.NotZero(t, rec.ID)

	updated, err := svc.Update(ctx, rec.ID, core.NewDate(2024, 1, 2), "Gym", 75, "")
	require.NoError(t, err)
	assert.Equal(t, 75, updated.DurationMinutes)

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	require.ErrorIs(t, svc.Delete(ctx, rec.ID), core.ErrNotFound)

	assert.Equal(t, []string{"create", "update", "delete"}, pub.ops)
	assert.Equal(t, 3, listener.n)

	require.NoError(t, svc.Close())
	assert.True(t, pub.closed)
}

func TestActivityService_ValidationStopsWrites(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := NewActivityService(memory.New(), pub)

	tests := []struct {
		name     string
		date     core.Date
		activity string
		minutes  int
	}{
		{"empty activity", core.NewDate(2024, 1, 1), "   ", 10},
		{"negative duration", core.NewDate(2024, 1, 1), "Gym", -5},
		{"zero date", core.Date{}, "Gym", 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.date, tt.activity, tt.minutes, "")
			require.ErrorIs(t, err, core.ErrValidation)
		})
	}

	_, err := svc.Update(ctx, 42, core.NewDate(2024, 1, 1), "Gym", 10, "")
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.Empty(t, pub.ops)
}

func TestActivityService_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewActivityService(memory.New(), pub)

	rec, err := svc.Create(ctx, core.NewDate(2024, 1, 1), "Gym", 30, "")
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []core.ActivityRecord{rec}, all)
}

func TestActivityService_ListAndNames(t *testing.T) {
	ctx := context.Background()
	svc := NewActivityService(memory.New(), nil)

	for _, in := range []struct {
		date core.Date
		name string
	}{
		{core.NewDate(2024, 1, 1), "Reading"},
		{core.NewDate(2024, 1, 3), "Gym"},
		{core.NewDate(2024, 1, 2), "reading club"},
	} {
		_, err := svc.Create(ctx, in.date, in.name, 10, "")
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Gym", all[0].Activity)
	assert.Equal(t, "Reading", all[2].Activity)

	found, err := svc.List(ctx, "READ")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "reading club", found[0].Activity)

	names, err := svc.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gym", "Reading", "reading club"}, names)

	assert.NoError(t, svc.Close())
}
