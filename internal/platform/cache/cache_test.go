package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counts struct {
	Users int `json:"users"`
}

func newTestCache(t *testing.T) *JSONCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewJSONCache(client, time.Minute)
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return counts{Users: 7}, nil
	}

	key, err := c.BuildKey(ctx, "dashboard", "stats")
	require.NoError(t, err)

	var first, second counts
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))

	assert.Equal(t, 7, first.Users)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestBumpInvalidatesKeys(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	before, err := c.BuildKey(ctx, "dashboard", "stats")
	require.NoError(t, err)
	require.NoError(t, c.Bump(ctx))
	after, err := c.BuildKey(ctx, "dashboard", "stats")
	require.NoError(t, err)

	assert.Equal(t, "dashboard:stats:v1", before)
	assert.Equal(t, "dashboard:stats:v2", after)
}

func TestFetchJSONPropagatesLoaderError(t *testing.T) {
	c := newTestCache(t)
	boom := errors.New("backend down")
	var out counts
	err := c.FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestNilCacheCallsLoader(t *testing.T) {
	var c *JSONCache
	var out counts
	err := c.FetchJSON(context.Background(), "k", &out, func(context.Context) (any, error) {
		return counts{Users: 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Users)
}

func TestNewPingsServer(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := New(context.Background(), Options{Addr: addr})
	assert.Error(t, err)
}
