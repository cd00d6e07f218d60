package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/textsim"
)

const (
	profileDynamicLimit = 10
	profileSearchLimit  = 5
	scanLimit           = 500
	defaultSearchLimit  = 10
)

// Backend serves the memory operations from a local repository. Search is
// lexical: a memory scores by the share of query words it contains.
type Backend struct {
	repo core.MemoryRepository
	now  func() time.Time
}

func NewBackend(repo core.MemoryRepository) *Backend {
	return &Backend{repo: repo, now: time.Now}
}

func (b *Backend) Profile(ctx context.Context, containerTag, query string) (*core.ProfileResponse, error) {
	tag, err := sanitize(containerTag)
	if err != nil {
		return nil, err
	}

	static, err := b.repo.ListMemories(ctx, tag, core.KindStatic, 0)
	if err != nil {
		return nil, fmt.Errorf("list static memories: %w", err)
	}
	dynamic, err := b.repo.ListMemories(ctx, tag, core.KindDynamic, profileDynamicLimit)
	if err != nil {
		return nil, fmt.Errorf("list dynamic memories: %w", err)
	}

	resp := &core.ProfileResponse{
		Profile: core.Profile{
			Static:  contents(oldestFirst(static)),
			Dynamic: contents(dynamic),
		},
	}

	if strings.TrimSpace(query) != "" {
		resp.SearchResults, err = b.SearchMemories(ctx, core.MemorySearch{
			Query:        query,
			ContainerTag: tag,
			Limit:        profileSearchLimit,
		})
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func (b *Backend) Add(ctx context.Context, content, containerTag string, metadata map[string]any) (*core.AddResponse, error) {
	tag, err := sanitize(containerTag)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("content is empty")
	}

	kind := core.KindDynamic
	if k, ok := metadata[core.MetadataKind].(string); ok && k == core.KindStatic {
		kind = core.KindStatic
	}

	saved, err := b.repo.SaveMemory(ctx, core.StoredMemory{
		ID:           uuid.NewString(),
		ContainerTag: tag,
		Content:      content,
		Kind:         kind,
		Metadata:     metadata,
		ContentHash:  hash(content),
		CreatedAt:    b.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("save memory: %w", err)
	}

	status := "done"
	switch {
	case saved.Promoted:
		status = "promoted"
	case saved.Duplicate:
		status = "duplicate"
	}
	return &core.AddResponse{ID: saved.ID, Status: status}, nil
}

func (b *Backend) SearchMemories(ctx context.Context, req core.MemorySearch) (*core.SearchResults, error) {
	tag, err := sanitize(req.ContainerTag)
	if err != nil {
		return nil, err
	}

	memories, err := b.repo.ListMemories(ctx, tag, "", scanLimit)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	query := req.Query
	if query == core.RecentQuery {
		// No embeddings here, so recent means newest.
		query = ""
	}

	scored := rank(query, memories, req.Threshold, limitOrDefault(req.Limit))
	out := &core.SearchResults{Results: make([]core.MemoryResult, 0, len(scored))}
	for _, s := range scored {
		content := s.memory.Content
		out.Results = append(out.Results, core.MemoryResult{
			Memory:   &content,
			Score:    s.score,
			Metadata: s.memory.Metadata,
		})
	}
	return out, nil
}

func (b *Backend) SearchDocuments(ctx context.Context, query string, containerTags []string, limit int) (*core.DocumentResults, error) {
	tags := core.SanitizeContainerTags(containerTags)
	memories, err := b.repo.ListByContainers(ctx, tags, scanLimit)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	scored := rank(query, memories, 0, limitOrDefault(limit))
	out := &core.DocumentResults{Results: make([]core.DocumentResult, 0, len(scored))}
	for _, s := range scored {
		out.Results = append(out.Results, core.DocumentResult{
			DocumentID: s.memory.ID,
			Content:    s.memory.Content,
			Score:      s.score,
			Metadata:   s.memory.Metadata,
		})
	}
	return out, nil
}

type scoredMemory struct {
	memory core.StoredMemory
	score  float64
}

// rank keeps memories scoring above zero and at least threshold, best first.
// Ties keep the repository order, newest first. An empty query matches
// everything with score 1.
func rank(query string, memories []core.StoredMemory, threshold float64, limit int) []scoredMemory {
	blank := strings.TrimSpace(query) == ""

	var out []scoredMemory
	for _, m := range memories {
		score := 1.0
		if !blank {
			score = textsim.Coverage(query, m.Content)
		}
		if score <= 0 || score < threshold {
			continue
		}
		out = append(out, scoredMemory{memory: m, score: score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	return limit
}

func contents(ms []core.StoredMemory) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Content
	}
	return out
}

func oldestFirst(ms []core.StoredMemory) []core.StoredMemory {
	out := make([]core.StoredMemory, len(ms))
	for i, m := range ms {
		out[len(ms)-1-i] = m
	}
	return out
}

func hash(content string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(content)))
	return hex.EncodeToString(sum[:])
}

func sanitize(tag string) (string, error) {
	s := core.SanitizeContainerTag(tag)
	if s == "" {
		return "", fmt.Errorf("container tag %q is empty after sanitizing", tag)
	}
	return s, nil
}

var _ core.MemoryBackend = (*Backend)(nil)
