package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/tuskmem/pkg/log"
)

const (
	BackendSupermemory = "supermemory"
	BackendLocal       = "local"
)

type MemoryConfig struct {
	Backend           string  `env:"TUSK_MEMORY_BACKEND" envDefault:"supermemory"`
	APIKey            string  `env:"TUSK_MEMORY_API_KEY"`
	BaseURL           string  `env:"TUSK_MEMORY_BASE_URL" envDefault:"https://api.supermemory.ai"`
	RequestsPerSecond float64 `env:"TUSK_MEMORY_RPS" envDefault:"5"`

	MaxTokens       int     `env:"TUSK_MAX_TOKENS" envDefault:"2000"`
	SearchThreshold float64 `env:"TUSK_SEARCH_THRESHOLD" envDefault:"0.5"`

	CacheEnabled  bool          `env:"TUSK_CACHE_ENABLED" envDefault:"true"`
	CacheTTL      time.Duration `env:"TUSK_CACHE_TTL" envDefault:"60s"`
	CacheSize     int           `env:"TUSK_CACHE_SIZE" envDefault:"100"`
	SweepInterval time.Duration `env:"TUSK_CACHE_SWEEP_INTERVAL" envDefault:"60s"`
}

func NewMemoryConfig(ctx context.Context) *MemoryConfig {
	c, err := ParseMemoryConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Memory config")
	}
	return c
}

// ParseMemoryConfig reads and validates the memory settings from the environment.
func ParseMemoryConfig() (*MemoryConfig, error) {
	c := &MemoryConfig{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c MemoryConfig) Validate() error {
	switch c.Backend {
	case BackendSupermemory:
		if c.APIKey == "" {
			return fmt.Errorf("TUSK_MEMORY_API_KEY is required for the %s backend", BackendSupermemory)
		}
	case BackendLocal:
	default:
		return fmt.Errorf("unknown memory backend %q", c.Backend)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("TUSK_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if c.SearchThreshold < 0 || c.SearchThreshold > 1 {
		return fmt.Errorf("TUSK_SEARCH_THRESHOLD must be within [0, 1], got %v", c.SearchThreshold)
	}
	if c.CacheEnabled && c.CacheTTL <= 0 {
		return fmt.Errorf("TUSK_CACHE_TTL must be positive when the cache is enabled")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("TUSK_MEMORY_RPS must not be negative")
	}
	return nil
}

func (c MemoryConfig) GetBackend() string { return c.Backend }
func (c MemoryConfig) GetAPIKey() string { return c.APIKey }
func (c MemoryConfig) GetBaseURL() string { return c.BaseURL }
func (c MemoryConfig) GetRequestsPerSecond() float64 { return c.RequestsPerSecond }
func (c MemoryConfig) GetMaxTokens() int { return c.MaxTokens }
func (c MemoryConfig) GetSearchThreshold() float64 { return c.SearchThreshold }
func (c MemoryConfig) IsCacheEnabled() bool { return c.CacheEnabled }
func (c MemoryConfig) GetCacheTTL() time.Duration { return c.CacheTTL }
func (c MemoryConfig) GetCacheSize() int { return c.CacheSize }
func (c MemoryConfig) GetSweepInterval() time.Duration { return c.SweepInterval }
