package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/cache"
	"github.com/sandevgo/tuskmem/pkg/log"
	"github.com/sandevgo/tuskmem/pkg/tokens"
	"golang.org/x/sync/singleflight"
)

// ErrContextRetrieval is the only error GetContext returns.
var ErrContextRetrieval = errors.New("context retrieval failed")

// Assembler builds per-user context records from a memory backend, keeping
// recently fetched profiles in a recency cache.
type Assembler struct {
	opts    Options
	backend core.MemoryBackend
	cache   *cache.Recency[string, *core.ProfileResponse]
	flight  singleflight.Group

	stopSweep context.CancelFunc
	swept     chan struct{}
	closeOnce sync.Once
}

// NewAssembler validates opts and, when caching is enabled, starts the cache
// sweep. Call Close to stop it.
func NewAssembler(ctx context.Context, opts Options, backend core.MemoryBackend) (*Assembler, error) {
	if backend == nil {
		return nil, errors.New("memory backend is required")
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid assembler options: %w", err)
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}

	a := &Assembler{
		opts:    opts,
		backend: backend,
	}
	if !opts.CacheEnabled {
		return a, nil
	}

	var cacheOpts []cache.Option
	if opts.Clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(opts.Clock))
	}
	a.cache = cache.New[string, *core.ProfileResponse](opts.CacheSize, cacheOpts...)

	sweepCtx, cancel := context.WithCancel(log.WithComponent(ctx, "cache-sweeper"))
	a.stopSweep = cancel
	a.swept = make(chan struct{})
	s := &sweeper{cache: a.cache, ttl: opts.CacheTTL, interval: opts.SweepInterval}
	go func() {
		defer close(a.swept)
		_ = s.Start(sweepCtx)
	}()

	return a, nil
}

// Close stops the cache sweep and waits for it to exit.
func (a *Assembler) Close() {
	a.closeOnce.Do(func() {
		if a.stopSweep == nil {
			return
		}
		a.stopSweep()
		<-a.swept
	})
}

func (a *Assembler) Shutdown(_ context.Context) error {
	a.Close()
	return nil
}

// GetContext assembles the context record for one request. Failed profile or
// recent-memory fetches are logged and skipped, so a partial record is
// returned and Metadata.Sources tells which parts are present.
//
// A cached profile is used whenever present, even if the request skips the
// profile. Cached search results belong to the query that populated the cache.
func (a *Assembler) GetContext(ctx context.Context, req core.ContextRequest) (rec *core.ContextRecord, err error) {
	logger := log.FromCtx(ctx).With().Str("user_id", req.UserID).Logger()

	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, a.fail(&logger, fmt.Errorf("panic: %v", r))
		}
	}()

	if req.UserID == "" {
		return nil, a.fail(&logger, errors.New("user id is required"))
	}
	if err := ctx.Err(); err != nil {
		return nil, a.fail(&logger, err)
	}

	start := time.Now()
	rec = &core.ContextRecord{
		RecentMemories: []string{},
		SearchResults:  []string{},
		Metadata: core.ContextMetadata{
			UserID:  req.UserID,
			Sources: []string{},
		},
	}

	cached := a.fromCache(req, rec)
	if cached {
		logger.Debug().Msg("profile served from cache")
	}

	if !cached && !req.SkipProfile {
		if err := a.fetchProfile(ctx, req, rec); err != nil {
			logger.Warn().Err(err).Msg("profile fetch failed, continuing without profile")
		}
	}

	if !req.SkipRecent && req.CallID != "" {
		if err := a.fetchRecent(ctx, req, rec); err != nil {
			logger.Warn().Err(err).Str("call_id", req.CallID).Msg("recent memories fetch failed, continuing without them")
		}
	}

	rec.Metadata.RetrievalTimeMs = time.Since(start).Milliseconds()

	logger.Info().
		Strs("sources", rec.Metadata.Sources).
		Int("tokens", rec.TotalTokens).
		Int64("elapsed_ms", rec.Metadata.RetrievalTimeMs).
		Msg("context assembled")

	return rec, nil
}

func (a *Assembler) fail(logger *zerolog.Logger, err error) error {
	logger.Error().Err(err).Msg("context retrieval failed")
	return fmt.Errorf("%w: %w", ErrContextRetrieval, err)
}

func (a *Assembler) fromCache(req core.ContextRequest, rec *core.ContextRecord) bool {
	if a.cache == nil {
		return false
	}
	resp, ok := a.cache.Get(cacheKey(req.UserID))
	if !ok || resp == nil {
		return false
	}

	a.applyProfile(rec, resp, core.SourceCache, req.SkipSearch)
	return true
}

func (a *Assembler) fetchProfile(ctx context.Context, req core.ContextRequest, rec *core.ContextRecord) error {
	key := cacheKey(req.UserID)

	// Concurrent misses for the same user and query share one backend call.
	// The call outlives the caller that started it, so a cancelled first
	// caller does not fail the others. The backend client bounds its duration.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := a.flight.Do(key+"\x00"+req.Query, func() (any, error) {
		resp, err := a.backend.Profile(flightCtx, req.UserID, req.Query)
		if err != nil {
			return nil, err
		}
		if resp == nil {
			return nil, errors.New("backend returned an empty profile response")
		}
		if a.cache != nil {
			a.cache.Set(key, resp)
		}
		return resp, nil
	})
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}

	a.applyProfile(rec, v.(*core.ProfileResponse), core.SourceProfile, req.SkipSearch)
	return nil
}

func (a *Assembler) applyProfile(rec *core.ContextRecord, resp *core.ProfileResponse, source string, skipSearch bool) {
	profile := core.Profile{
		Static:  append([]string{}, resp.Profile.Static...),
		Dynamic: append([]string{}, resp.Profile.Dynamic...),
	}
	rec.Profile = &profile
	rec.TotalTokens += tokens.EstimateMultiple(profile.Static) + tokens.EstimateMultiple(profile.Dynamic)
	rec.Metadata.Sources = append(rec.Metadata.Sources, source)

	if resp.SearchResults == nil || skipSearch {
		return
	}
	rec.SearchResults = resp.SearchResults.Memories()
	rec.TotalTokens += tokens.EstimateMultiple(rec.SearchResults)
	rec.Metadata.Sources = append(rec.Metadata.Sources, core.SourceSearch)
}

func (a *Assembler) fetchRecent(ctx context.Context, req core.ContextRequest, rec *core.ContextRecord) error {
	res, err := a.backend.SearchMemories(ctx, core.MemorySearch{
		Query:        core.RecentQuery,
		ContainerTag: req.UserID,
		Threshold:    a.opts.SearchThreshold,
		Limit:        recentLimit,
	})
	if err != nil {
		return fmt.Errorf("search recent memories: %w", err)
	}

	rec.RecentMemories = res.Memories()
	if rec.RecentMemories == nil {
		rec.RecentMemories = []string{}
	}
	rec.TotalTokens += tokens.EstimateMultiple(rec.RecentMemories)
	rec.Metadata.Sources = append(rec.Metadata.Sources, core.SourceRecentMemories)
	return nil
}

// Remember stores content for the user and drops their cached profile.
func (a *Assembler) Remember(ctx context.Context, userID, content string, static bool) (*core.AddResponse, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	if content == "" {
		return nil, errors.New("content is required")
	}

	kind := core.KindDynamic
	if static {
		kind = core.KindStatic
	}

	resp, err := a.backend.Add(ctx, content, userID, map[string]any{
		core.MetadataKind: kind,
		"source":          "tuskmem",
	})
	if err != nil {
		return nil, fmt.Errorf("add memory: %w", err)
	}

	a.Invalidate(userID)
	log.FromCtx(ctx).Debug().Str("user_id", userID).Str("kind", kind).Str("id", resp.ID).Msg("memory stored")
	return resp, nil
}

// Invalidate drops the user's cached profile. It reports whether one existed.
func (a *Assembler) Invalidate(userID string) bool {
	if a.cache == nil {
		return false
	}
	return a.cache.Delete(cacheKey(userID))
}

func (a *Assembler) CacheStats() cache.Stats[string] {
	if a.cache == nil {
		return cache.Stats[string]{}
	}
	return a.cache.Stats()
}

func (a *Assembler) Options() Options {
	return a.opts
}

func cacheKey(userID string) string {
	return "profile:" + userID
}
