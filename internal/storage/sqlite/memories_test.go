package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *MemoryRepo {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMemoryRepo(db)
}

func memory(id, tag, content, kind string, at time.Time) core.StoredMemory {
	return core.StoredMemory{
		ID:           id,
		ContainerTag: tag,
		Content:      content,
		Kind:         kind,
		ContentHash:  "hash-" + content,
		CreatedAt:    at,
	}
}

func TestMemoryRepo_SaveAndList(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	m := memory("m1", "u1", "Lives in Oslo", core.KindStatic, base)
	m.Metadata = map[string]any{"kind": "static", "source": "cli"}
	saved, err := repo.SaveMemory(ctx, m)
	require.NoError(t, err)
	assert.False(t, saved.Duplicate)

	_, err = repo.SaveMemory(ctx, memory("m2", "u1", "Is tired", core.KindDynamic, base.Add(time.Minute)))
	require.NoError(t, err)
	_, err = repo.SaveMemory(ctx, memory("m3", "u2", "Other user", core.KindDynamic, base.Add(2*time.Minute)))
	require.NoError(t, err)

	all, err := repo.ListMemories(ctx, "u1", "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "m2", all[0].ID)
	assert.Equal(t, "m1", all[1].ID)
	assert.Equal(t, base, all[1].CreatedAt)
	assert.Equal(t, "cli", all[1].Metadata["source"])

	static, err := repo.ListMemories(ctx, "u1", core.KindStatic, 10)
	require.NoError(t, err)
	require.Len(t, static, 1)
	assert.Equal(t, "Lives in Oslo", static[0].Content)

	limited, err := repo.ListMemories(ctx, "u1", "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "m2", limited[0].ID)
}

func TestMemoryRepo_Duplicate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.SaveMemory(ctx, memory("m1", "u1", "same", core.KindDynamic, now))
	require.NoError(t, err)

	dup, err := repo.SaveMemory(ctx, memory("m2", "u1", "same", core.KindDynamic, now.Add(time.Second)))
	require.NoError(t, err)
	assert.True(t, dup.Duplicate)
	assert.Equal(t, "m1", dup.ID)

	other, err := repo.SaveMemory(ctx, memory("m3", "u2", "same", core.KindDynamic, now))
	require.NoError(t, err)
	assert.False(t, other.Duplicate)

	all, err := repo.ListMemories(ctx, "u1", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryRepo_DuplicateStaticPromotesDynamic(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := repo.SaveMemory(ctx, memory("m1", "u1", "I am vegetarian", core.KindDynamic, now))
	require.NoError(t, err)

	promoted, err := repo.SaveMemory(ctx, memory("m2", "u1", "I am vegetarian", core.KindStatic, now.Add(time.Second)))
	require.NoError(t, err)
	assert.True(t, promoted.Duplicate)
	assert.True(t, promoted.Promoted)
	assert.Equal(t, "m1", promoted.ID)
	assert.Equal(t, core.KindStatic, promoted.Kind)

	static, err := repo.ListMemories(ctx, "u1", core.KindStatic, 0)
	require.NoError(t, err)
	require.Len(t, static, 1)
	assert.Equal(t, "I am vegetarian", static[0].Content)

	dynamic, err := repo.ListMemories(ctx, "u1", core.KindDynamic, 0)
	require.NoError(t, err)
	assert.Empty(t, dynamic)

	// A later dynamic restatement never demotes.
	again, err := repo.SaveMemory(ctx, memory("m3", "u1", "I am vegetarian", core.KindDynamic, now.Add(2*time.Second)))
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.False(t, again.Promoted)
	assert.Equal(t, core.KindStatic, again.Kind)
}

func TestMemoryRepo_ListByContainers(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i, tag := range []string{"a", "b", "c"} {
		_, err := repo.SaveMemory(ctx, memory("m-"+tag, tag, "content "+tag, core.KindDynamic, base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
	}

	got, err := repo.ListByContainers(ctx, []string{"a", "c"}, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m-c", got[0].ID)
	assert.Equal(t, "m-a", got[1].ID)

	none, err := repo.ListByContainers(ctx, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
