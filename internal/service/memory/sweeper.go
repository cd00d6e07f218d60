package memory

import (
	"context"
	"time"

	"github.com/sandevgo/tuskmem/internal/core"
	"github.com/sandevgo/tuskmem/pkg/cache"
	"github.com/sandevgo/tuskmem/pkg/log"
)

// sweeper periodically drops cached profiles older than ttl.
type sweeper struct {
	cache    *cache.Recency[string, *core.ProfileResponse]
	ttl      time.Duration
	interval time.Duration
}

func (s *sweeper) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Debug().Dur("interval", s.interval).Dur("ttl", s.ttl).Msg("starting cache sweep")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := s.cache.Cleanup(s.ttl); removed > 0 {
				logger.Debug().Int("removed", removed).Msg("expired profiles swept")
			}
		}
	}
}
