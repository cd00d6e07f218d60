package command

import (
	"context"
	"fmt"
	"time"

	"github.com/sandevgo/tuskmem/pkg/cache"
)

type StatsProvider interface {
	CacheStats() cache.Stats[string]
}

type StatsCommand struct {
	stats     StatsProvider
	formatter *ResponseFormatter
}

func NewStatsCommand(stats StatsProvider) *StatsCommand {
	return &StatsCommand{
		stats:     stats,
		formatter: NewResponseFormatter(),
	}
}

func (c *StatsCommand) Name() string {
	return "stats"
}

func (c *StatsCommand) Description() string {
	return "Show profile cache statistics"
}

func (c *StatsCommand) Execute(_ context.Context, _ string, _ []string) (string, error) {
	s := c.stats.CacheStats()
	if s.MaxSize == 0 {
		return c.formatter.Combine(
			c.formatter.Info("Cache"),
			c.formatter.Label("Status", "disabled"),
		), nil
	}

	entries := make([]string, 0, len(s.Entries))
	for _, e := range s.Entries {
		entries = append(entries, fmt.Sprintf("`%s` hits %d, age %s", e.Key, e.Hits, e.Age.Round(time.Second)))
	}

	sections := []string{
		c.formatter.Info("Cache"),
		c.formatter.Label("Size", fmt.Sprintf("%d/%d", s.Size, s.MaxSize)),
		c.formatter.Label("Hit rate", fmt.Sprintf("%.2f", s.HitRate)),
	}
	if len(entries) > 0 {
		sections = append(sections, "", c.formatter.List(entries))
	}
	return c.formatter.Combine(sections...), nil
}
