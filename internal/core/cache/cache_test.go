package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stats struct {
	Users int `json:"users"`
}

func newCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestRememberCachesUntilTTL(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	var calls int32
	load := func(context.Context) (*stats, error) {
		n := atomic.AddInt32(&calls, 1)
		return &stats{Users: int(n)}, nil
	}

	got, err := Remember(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Users)

	got, err = Remember(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Users)

	mr.FastForward(2 * time.Minute)
	got, err = Remember(ctx, c, "k", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Users)
}

func TestRememberWithoutCacheAlwaysLoads(t *testing.T) {
	calls := 0
	load := func(context.Context) (*stats, error) {
		calls++
		return &stats{Users: calls}, nil
	}
	for i := 0; i < 2; i++ {
		_, err := Remember[stats](context.Background(), nil, "k", time.Minute, load)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}

func TestRememberDropsUndecodableEntry(t *testing.T) {
	c, mr := newCache(t)
	require.NoError(t, mr.Set("k", "not json"))
	got, err := Remember(context.Background(), c, "k", time.Minute, func(context.Context) (*stats, error) {
		return &stats{Users: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got.Users)
	assert.False(t, mr.Exists("k"))
}

func TestInvalidateForcesReload(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	var calls int32
	load := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("v"), nil
	}
	_, err := c.GetOrLoad(ctx, "k", time.Minute, load)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "k"))
	_, err = c.GetOrLoad(ctx, "k", time.Minute, load)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestGetOrLoadSingleflight(t *testing.T) {
	c, _ := newCache(t)
	var calls int32
	release := make(chan struct{})
	load := func(context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []byte("v"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := c.GetOrLoad(context.Background(), "hot", time.Minute, load)
			assert.NoError(t, err)
			assert.Equal(t, "v", string(b))
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestGetOrLoadPropagatesLoadError(t *testing.T) {
	c, _ := newCache(t)
	boom := errors.New("boom")
	_, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestGetOrLoadFallsBackWhenRedisDown(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()
	b, err := c.GetOrLoad(context.Background(), "k", time.Minute, func(context.Context) ([]byte, error) { return []byte("db"), nil })
	require.NoError(t, err)
	assert.Equal(t, "db", string(b))
}
