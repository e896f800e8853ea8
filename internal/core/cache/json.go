package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Remember caches load's result as JSON under key for ttl.
// A nil cache or a non-positive ttl calls load directly.
func Remember[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (*T, error)) (*T, error) {
	if c == nil || ttl <= 0 {
		return load(ctx)
	}
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	out := new(T)
	if err := json.Unmarshal(b, out); err != nil {
		// 旧版本写进去的结构对不上，丢掉重新回源
		_ = c.Invalidate(ctx, key)
		return load(ctx)
	}
	return out, nil
}
