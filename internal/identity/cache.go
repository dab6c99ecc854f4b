package identity

import (
	"context"
	"sync"
	"time"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// DefaultCacheTTL は解決済みの呼び出し元情報を保持する期間のデフォルト値。
const DefaultCacheTTL = 60 * time.Second

// Cache は解決済みの呼び出し元情報のTTL付きキャッシュ。
type Cache interface {
	// Get はユーザーIDで呼び出し元情報を取得する。無いか失効済みの場合はfalseを返す。
	Get(ctx context.Context, userID string) (*model.Caller, bool, error)
	// Set は呼び出し元情報を保存する。
	Set(ctx context.Context, caller *model.Caller) error
	// Invalidate はユーザーのエントリを削除する。
	Invalidate(ctx context.Context, userID string) error
}

type memoryEntry struct {
	caller    model.Caller
	expiresAt time.Time
}

// MemoryCache はプロセス内のCache実装。
// 複数インスタンス構成ではインスタンスごとに独立する。
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache はMemoryCacheを生成する。
// ttlが0以下の場合はDefaultCacheTTL、nowがnilの場合はtime.Nowを使用する。
func NewMemoryCache(ttl time.Duration, now func() time.Time) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (c *MemoryCache) Get(_ context.Context, userID string) (*model.Caller, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[userID]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, userID)
		return nil, false, nil
	}
	caller := e.caller
	return &caller, true, nil
}

func (c *MemoryCache) Set(_ context.Context, caller *model.Caller) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[caller.UserID] = memoryEntry{caller: *caller, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

var _ Cache = (*MemoryCache)(nil)
