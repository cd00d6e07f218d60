package local

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo keeps memories newest first, like the SQLite repository.
type fakeRepo struct {
	mu       sync.Mutex
	memories []core.StoredMemory
	err      error
}

func (r *fakeRepo) SaveMemory(_ context.Context, m core.StoredMemory) (core.StoredMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return core.StoredMemory{}, r.err
	}
	for i, existing := range r.memories {
		if existing.ContainerTag == m.ContainerTag && existing.ContentHash == m.ContentHash {
			if existing.Kind == core.KindDynamic && m.Kind == core.KindStatic {
				r.memories[i].Kind = core.KindStatic
				existing.Kind = core.KindStatic
				existing.Promoted = true
			}
			existing.Duplicate = true
			return existing, nil
		}
	}
	r.memories = append([]core.StoredMemory{m}, r.memories...)
	return m, nil
}

func (r *fakeRepo) ListMemories(_ context.Context, tag, kind string, limit int) ([]core.StoredMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []core.StoredMemory
	for _, m := range r.memories {
		if m.ContainerTag != tag || (kind != "" && m.Kind != kind) {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeRepo) ListByContainers(_ context.Context, tags []string, limit int) ([]core.StoredMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[string]bool{}
	for _, t := range tags {
		want[t] = true
	}
	var out []core.StoredMemory
	for _, m := range r.memories {
		if want[m.ContainerTag] {
			out = append(out, m)
		}
	}
	return out, nil
}

func newBackend(repo *fakeRepo) *Backend {
	b := NewBackend(repo)
	tick := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return b
}

func add(t *testing.T, b *Backend, tag, content string, static bool) *core.AddResponse {
	t.Helper()
	kind := core.KindDynamic
	if static {
		kind = core.KindStatic
	}
	resp, err := b.Add(context.Background(), content, tag, map[string]any{core.MetadataKind: kind})
	require.NoError(t, err)
	return resp
}

func TestBackend_Add(t *testing.T) {
	repo := &fakeRepo{}
	b := newBackend(repo)

	first := add(t, b, "+1 555", "  Likes green tea  ", true)
	assert.Equal(t, "done", first.Status)
	assert.Len(t, first.ID, 36)

	dup := add(t, b, "1555", "likes GREEN tea", true)
	assert.Equal(t, "duplicate", dup.Status)
	assert.Equal(t, first.ID, dup.ID)

	require.Len(t, repo.memories, 1)
	m := repo.memories[0]
	assert.Equal(t, "1555", m.ContainerTag)
	assert.Equal(t, "Likes green tea", m.Content)
	assert.Equal(t, core.KindStatic, m.Kind)

	_, err := b.Add(context.Background(), "   ", "u1", nil)
	require.Error(t, err)

	_, err = b.Add(context.Background(), "x", "@@@", nil)
	require.Error(t, err)
}

func TestBackend_AddDefaultsToDynamic(t *testing.T) {
	repo := &fakeRepo{}
	b := newBackend(repo)

	_, err := b.Add(context.Background(), "Working late", "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, core.KindDynamic, repo.memories[0].Kind)
}

func TestBackend_AddStaticPromotesDynamic(t *testing.T) {
	b := newBackend(&fakeRepo{})

	first := add(t, b, "u1", "I am vegetarian", false)
	assert.Equal(t, "done", first.Status)

	again := add(t, b, "u1", "I am vegetarian", true)
	assert.Equal(t, "promoted", again.Status)
	assert.Equal(t, first.ID, again.ID)

	stillStatic := add(t, b, "u1", "I am vegetarian", false)
	assert.Equal(t, "duplicate", stillStatic.Status)

	resp, err := b.Profile(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"I am vegetarian"}, resp.Profile.Static)
	assert.Empty(t, resp.Profile.Dynamic)
}

func TestBackend_Profile(t *testing.T) {
	b := newBackend(&fakeRepo{})
	add(t, b, "u1", "Name is Ada", true)
	add(t, b, "u1", "Born in London", true)
	add(t, b, "u1", "Debugging the parser", false)
	add(t, b, "u1", "Drinking coffee", false)
	add(t, b, "u2", "Someone else", true)

	resp, err := b.Profile(context.Background(), "u1", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Name is Ada", "Born in London"}, resp.Profile.Static)
	assert.Equal(t, []string{"Drinking coffee", "Debugging the parser"}, resp.Profile.Dynamic)
	assert.Nil(t, resp.SearchResults)

	withQuery, err := b.Profile(context.Background(), "u1", "parser bugs")
	require.NoError(t, err)
	require.NotNil(t, withQuery.SearchResults)
	assert.Equal(t, []string{"Debugging the parser"}, withQuery.SearchResults.Memories())
}

func TestBackend_SearchMemories(t *testing.T) {
	b := newBackend(&fakeRepo{})
	add(t, b, "u1", "likes green tea", false)
	add(t, b, "u1", "drinks black tea daily", false)
	add(t, b, "u1", "owns a cat", false)

	tests := []struct {
		name      string
		query     string
		threshold float64
		limit     int
		want      []string
	}{
		{name: "best coverage first", query: "black tea", want: []string{"drinks black tea daily", "likes green tea"}},
		{name: "threshold filters partial matches", query: "black tea", threshold: 0.9, want: []string{"drinks black tea daily"}},
		{name: "limit", query: "tea", limit: 1, want: []string{"drinks black tea daily"}},
		{name: "no match", query: "dogs", want: []string{}},
		{name: "blank query returns newest", query: " ", limit: 2, want: []string{"owns a cat", "drinks black tea daily"}},
		{name: "recent query returns newest", query: core.RecentQuery, threshold: 0.5, limit: 3, want: []string{"owns a cat", "drinks black tea daily", "likes green tea"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := b.SearchMemories(context.Background(), core.MemorySearch{
				Query:        tt.query,
				ContainerTag: "u1",
				Threshold:    tt.threshold,
				Limit:        tt.limit,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Memories())
		})
	}
}

func TestBackend_SearchDocuments(t *testing.T) {
	b := newBackend(&fakeRepo{})
	add(t, b, "a", "meeting notes about the budget", false)
	add(t, b, "b", "budget spreadsheet", false)
	add(t, b, "c", "budget for another team", false)

	res, err := b.SearchDocuments(context.Background(), "budget", []string{"a", "+b"}, 10)
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "budget spreadsheet", res.Results[0].Content)
	assert.Equal(t, 1.0, res.Results[0].Score)
}

func TestBackend_RepoErrors(t *testing.T) {
	b := newBackend(&fakeRepo{err: errors.New("disk full")})

	_, err := b.Profile(context.Background(), "u1", "")
	require.ErrorContains(t, err, "disk full")

	_, err = b.SearchMemories(context.Background(), core.MemorySearch{Query: "q", ContainerTag: "u1"})
	require.ErrorContains(t, err, "disk full")

	_, err = b.Add(context.Background(), "x", "u1", nil)
	require.ErrorContains(t, err, "disk full")
}
