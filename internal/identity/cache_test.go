package identity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

func TestMemoryCache_SetGetExpire(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(time.Minute, func() time.Time { return now })
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, &model.Caller{UserID: "alice", Role: model.RoleJournalist}))

	got, ok, err := cache.Get(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.RoleJournalist, got.Role)

	now = now.Add(59 * time.Second)
	_, ok, _ = cache.Get(ctx, "alice")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = cache.Get(ctx, "alice")
	assert.False(t, ok, "TTL経過後は取得できないこと")
}

func TestMemoryCache_Invalidate(t *testing.T) {
	cache := NewMemoryCache(0, nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &model.Caller{UserID: "alice"}))
	require.NoError(t, cache.Invalidate(ctx, "alice"))

	_, ok, err := cache.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_ReturnsCopy(t *testing.T) {
	cache := NewMemoryCache(time.Minute, nil)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, &model.Caller{UserID: "alice", Role: model.RoleJournalist}))

	got, _, _ := cache.Get(ctx, "alice")
	got.Role = model.RoleAdmin

	again, _, _ := cache.Get(ctx, "alice")
	assert.Equal(t, model.RoleJournalist, again.Role)
}

func setupRedisCache(t *testing.T, ttl time.Duration) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	cache, err := NewRedisCache("redis://"+s.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache, s
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache("not a url", time.Minute)
	assert.Error(t, err)
}

func TestRedisCache_SetGet(t *testing.T) {
	cache, s := setupRedisCache(t, time.Minute)
	ctx := context.Background()

	caller := &model.Caller{UserID: "alice", Email: "alice@newsroom.test", DisplayName: "Alice", Role: model.RoleEditor}
	require.NoError(t, cache.Set(ctx, caller))

	assert.True(t, s.Exists("identity:alice"))
	assert.Equal(t, time.Minute, s.TTL("identity:alice"))

	got, ok, err := cache.Get(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, *caller, *got)
}

func TestRedisCache_Expires(t *testing.T) {
	cache, s := setupRedisCache(t, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &model.Caller{UserID: "alice"}))
	s.FastForward(11 * time.Second)

	_, ok, err := cache.Get(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_Invalidate(t *testing.T) {
	cache, s := setupRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &model.Caller{UserID: "alice"}))
	require.NoError(t, cache.Invalidate(ctx, "alice"))
	assert.False(t, s.Exists("identity:alice"))

	// 存在しないキーの削除はエラーにならない
	require.NoError(t, cache.Invalidate(ctx, "nobody"))
}

func TestRedisCache_CorruptEntry(t *testing.T) {
	cache, s := setupRedisCache(t, time.Minute)
	require.NoError(t, s.Set("identity:alice", "{not json"))

	_, ok, err := cache.Get(context.Background(), "alice")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisCache_ServerDown(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	cache := NewRedisCacheWithClient(client, time.Minute)
	t.Cleanup(func() { cache.Close() })
	s.Close()

	_, ok, err := cache.Get(context.Background(), "alice")
	assert.Error(t, err)
	assert.False(t, ok)
}
