package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/sandevgo/tuskmem/internal/core"
)

type fakeBackend struct {
	mu sync.Mutex

	profileFn func(ctx context.Context, tag, query string) (*core.ProfileResponse, error)
	searchFn  func(ctx context.Context, req core.MemorySearch) (*core.SearchResults, error)
	addFn     func(ctx context.Context, content, tag string, md map[string]any) (*core.AddResponse, error)

	profileCalls int
	searchCalls  []core.MemorySearch
	added        []map[string]any
}

func (f *fakeBackend) Profile(ctx context.Context, tag, query string) (*core.ProfileResponse, error) {
	f.mu.Lock()
	f.profileCalls++
	fn := f.profileFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("profile not configured")
	}
	return fn(ctx, tag, query)
}

func (f *fakeBackend) Add(ctx context.Context, content, tag string, md map[string]any) (*core.AddResponse, error) {
	f.mu.Lock()
	f.added = append(f.added, md)
	fn := f.addFn
	f.mu.Unlock()
	if fn == nil {
		return &core.AddResponse{ID: "mem_1", Status: "queued"}, nil
	}
	return fn(ctx, content, tag, md)
}

func (f *fakeBackend) SearchMemories(ctx context.Context, req core.MemorySearch) (*core.SearchResults, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, req)
	fn := f.searchFn
	f.mu.Unlock()
	if fn == nil {
		return &core.SearchResults{}, nil
	}
	return fn(ctx, req)
}

func (f *fakeBackend) SearchDocuments(context.Context, string, []string, int) (*core.DocumentResults, error) {
	return &core.DocumentResults{}, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profileCalls
}

func strPtr(s string) *string { return &s }

func profileOK(static, dynamic []string, search ...string) func(context.Context, string, string) (*core.ProfileResponse, error) {
	return func(context.Context, string, string) (*core.ProfileResponse, error) {
		resp := &core.ProfileResponse{Profile: core.Profile{Static: static, Dynamic: dynamic}}
		if len(search) > 0 {
			res := &core.SearchResults{}
			for _, s := range search {
				res.Results = append(res.Results, core.MemoryResult{Memory: strPtr(s), Score: 0.9})
			}
			resp.SearchResults = res
		}
		return resp, nil
	}
}

func recentOK(memories ...string) func(context.Context, core.MemorySearch) (*core.SearchResults, error) {
	return func(context.Context, core.MemorySearch) (*core.SearchResults, error) {
		res := &core.SearchResults{}
		for _, m := range memories {
			res.Results = append(res.Results, core.MemoryResult{Memory: strPtr(m), Score: 0.7})
		}
		// A result without a memory field is dropped.
		res.Results = append(res.Results, core.MemoryResult{Score: 0.6})
		return res, nil
	}
}
