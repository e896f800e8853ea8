package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"campusconnect/internal/core/cache"
)

const statsCacheKey = "campus:admin:stats"

// StatsCache owns the cached admin stats. Any write that changes a counted
// row calls Invalidate; a nil *StatsCache caches nothing.
type StatsCache struct {
	c   *cache.Cache
	ttl time.Duration
	log *zap.Logger
}

// NewStatsCache 的 c 为 nil 时返回 nil（不缓存）
func NewStatsCache(c *cache.Cache, ttl time.Duration, log *zap.Logger) *StatsCache {
	if c == nil {
		return nil
	}
	return &StatsCache{c: c, ttl: ttl, log: log.Named("stats")}
}

func (s *StatsCache) get(ctx context.Context, load func(context.Context) (*Stats, error)) (*Stats, error) {
	if s == nil {
		return load(ctx)
	}
	return cache.Remember(ctx, s.c, statsCacheKey, s.ttl, load)
}

func (s *StatsCache) Invalidate(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.c.Invalidate(ctx, statsCacheKey); err != nil {
		s.log.Warn("invalidate stats cache", zap.Error(err))
	}
}
