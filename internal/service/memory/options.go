package memory

import (
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/cache"
)

const (
	DefaultMaxTokens       = 2000
	DefaultSearchThreshold = 0.5
	DefaultCacheTTL        = 60 * time.Second
	DefaultSweepInterval   = 60 * time.Second

	recentLimit = 3
)

type Options struct {
	MaxTokens       int
	SearchThreshold float64

	CacheEnabled  bool
	CacheTTL      time.Duration
	CacheSize     int
	SweepInterval time.Duration

	// Clock overrides the cache clock. Used by tests.
	Clock func() time.Time
}

func DefaultOptions() Options {
	return Options{
		MaxTokens:       DefaultMaxTokens,
		SearchThreshold: DefaultSearchThreshold,
		CacheEnabled:    true,
		CacheTTL:        DefaultCacheTTL,
		CacheSize:       cache.DefaultMaxSize,
		SweepInterval:   DefaultSweepInterval,
	}
}

func OptionsFromConfig(cfg core.ContextConfig) Options {
	return Options{
		MaxTokens:       cfg.GetMaxTokens(),
		SearchThreshold: cfg.GetSearchThreshold(),
		CacheEnabled:    cfg.IsCacheEnabled(),
		CacheTTL:        cfg.GetCacheTTL(),
		CacheSize:       cfg.GetCacheSize(),
		SweepInterval:   cfg.GetSweepInterval(),
	}
}

func (o Options) validate() error {
	var errs []error
	if o.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max tokens must be positive, got %d", o.MaxTokens))
	}
	if o.SearchThreshold < 0 || o.SearchThreshold > 1 {
		errs = append(errs, fmt.Errorf("search threshold must be within [0, 1], got %v", o.SearchThreshold))
	}
	if o.CacheEnabled && o.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %s", o.CacheTTL))
	}
	return errors.Join(errs...)
}
