package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tempo/internal/core"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	id, err := s.Insert(ctx, core.NewDate(2024, 1, 2), "Gym", 60, "legs")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = s.Insert(ctx, core.NewDate(2024, 1, 1), "", 10, "")
	require.ErrorIs(t, err, core.ErrValidation)

	require.NoError(t, s.Update(ctx, id, core.NewDate(2024, 1, 2), "Gym", 75, ""))
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 75, got.DurationMinutes)
	assert.Empty(t, got.Notes)

	require.ErrorIs(t, s.Update(ctx, 99, core.NewDate(2024, 1, 2), "Gym", 1, ""), core.ErrNotFound)
	require.ErrorIs(t, s.Update(ctx, id, core.NewDate(2024, 1, 2), "Gym", -1, ""), core.ErrValidation)

	require.NoError(t, s.Delete(ctx, id))
	require.ErrorIs(t, s.Delete(ctx, id), core.ErrNotFound)
	_, err = s.Get(ctx, id)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryStoreQueries(t *testing.T) {
	ctx := context.Background()
	s := New(
		core.ActivityRecord{Date: core.NewDate(2024, 1, 3), Activity: "Reading", DurationMinutes: 10},
		core.ActivityRecord{Date: core.NewDate(2024, 1, 1), Activity: "Gym", DurationMinutes: 20},
		core.ActivityRecord{Date: core.NewDate(2024, 1, 2), Activity: "reading club", DurationMinutes: 30},
		core.ActivityRecord{Date: core.NewDate(2024, 1, 1), Activity: "Gym", DurationMinutes: 40},
	)

	all, err := s.QueryAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []int64{2, 4, 3, 1}, ids(all))

	rng, err := s.QueryRange(ctx, core.NewDate(2024, 1, 2), core.NewDate(2024, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids(rng))

	found, err := s.Search(ctx, "READ")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids(found))

	id, err := s.Insert(ctx, core.NewDate(2024, 1, 5), "Çalışma", 50, "")
	require.NoError(t, err)
	found, err = s.Search(ctx, "ÇALIŞMA")
	require.NoError(t, err)
	assert.Equal(t, []int64{id}, ids(found))

	names, err := s.DistinctActivityNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gym", "Reading", "reading club", "Çalışma"}, names)
}

func TestMemoryStoreSecret(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, found, err := s.LoadSecretHash(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveSecretHash(ctx, "hash"))
	hash, found, err := s.LoadSecretHash(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hash", hash)
}

func TestNewFromFilesSeeds(t *testing.T) {
	dir := t.TempDir()
	// No file -> empty store
	all, _ := NewFromFiles(dir).QueryAll(context.Background())
	assert.Empty(t, all)

	content := "# date,activity,minutes,notes\n2024-01-01,Reading,30,chapter 3, 4\nbad line\n2024-13-01,Gym,10\n2024-01-02,Gym,x\n2024-01-02, Gym ,45\n\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seed_activities.txt"), []byte(content), 0o644))

	all, _ = NewFromFiles(dir).QueryAll(context.Background())
	require.Len(t, all, 2)
	assert.Equal(t, "chapter 3, 4", all[0].Notes)
	assert.Equal(t, "Gym", all[1].Activity)
	assert.Equal(t, 45, all[1].DurationMinutes)
}

func ids(rs []core.ActivityRecord) []int64 {
	out := make([]int64, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
