package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

const redisKeyPrefix = "identity:"

// RedisCache はRedisを使用したCache実装。
// 有効期限はRedisのキーTTLで管理する。
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache はRedisに接続してRedisCacheを生成する。
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis URLの解析に失敗しました: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redisへの接続に失敗しました: %w", err)
	}

	return NewRedisCacheWithClient(client, ttl), nil
}

// NewRedisCacheWithClient は既存のクライアントからRedisCacheを生成する。
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(userID string) string {
	return redisKeyPrefix + userID
}

func (c *RedisCache) Get(ctx context.Context, userID string) (*model.Caller, bool, error) {
	data, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("キャッシュの取得に失敗しました: %w", err)
	}

	var caller model.Caller
	if err := json.Unmarshal(data, &caller); err != nil {
		return nil, false, fmt.Errorf("キャッシュの復元に失敗しました: %w", err)
	}
	return &caller, true, nil
}

func (c *RedisCache) Set(ctx context.Context, caller *model.Caller) error {
	data, err := json.Marshal(caller)
	if err != nil {
		return fmt.Errorf("キャッシュのエンコードに失敗しました: %w", err)
	}
	if err := c.client.Set(ctx, c.key(caller.UserID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュの保存に失敗しました: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("キャッシュの削除に失敗しました: %w", err)
	}
	return nil
}

// Ping はRedisへの疎通を確認する。
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close はRedisとの接続を閉じる。
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)
