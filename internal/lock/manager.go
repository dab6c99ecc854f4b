// Package lock は記事単位の排他編集セッション（アドバイザリロック）を管理する。
// ロックはTTL付きの行としてデータストアに保持し、失効判定は読み取りのたびに行う。
// 競合は待ち合わせではなく単一の条件付き書き込みで解決する。
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ngucho/scoop-afrique-sub001/internal/metrics"
	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/repository"
)

// DefaultTTL はロックの有効期間のデフォルト値。
const DefaultTTL = 5 * time.Minute

// maxAcquireAttempts は挿入と置換の競合が続いた場合の最大試行回数。
const maxAcquireAttempts = 3

// Manager はロックの取得・延長・解放・状態参照を提供する。
// locksがnilの場合はデータストア未設定として扱い、読み取りは空、書き込みは失敗を返す。
type Manager struct {
	locks   repository.LockRepository
	ttl     time.Duration
	now     func() time.Time
	metrics metrics.MetricsCollector
}

// Option はManagerの設定を変更する。
type Option func(*Manager)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithMetrics はメトリクスコレクターを設定する。
func WithMetrics(c metrics.MetricsCollector) Option {
	return func(m *Manager) { m.metrics = c }
}

// NewManager はManagerを生成する。ttlが0以下の場合はDefaultTTLを使用する。
func NewManager(locks repository.LockRepository, ttl time.Duration, opts ...Option) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		locks:   locks,
		ttl:     ttl,
		now:     time.Now,
		metrics: metrics.NopCollector{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Available はデータストアが設定されているかを返す。
func (m *Manager) Available() bool {
	return m.locks != nil
}

// TTL はロックの有効期間を返す。
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Acquire は記事のロックを取得する。
// ロックが無い、呼び出し元が保持者、または失効済みの場合は取得できる。
// 他のユーザーが未失効のロックを保持している場合はGranted=falseと現在のロックを返す。
// データストア未設定の場合はGranted=false、Lock=nilを返す。
func (m *Manager) Acquire(ctx context.Context, articleID, userID string) (*model.LockResult, error) {
	if m.locks == nil {
		return &model.LockResult{Granted: false}, nil
	}

	for attempt := 0; attempt < maxAcquireAttempts; attempt++ {
		now := m.now()
		current, err := m.locks.Find(ctx, articleID)
		if err != nil {
			return nil, fmt.Errorf("ロックの取得に失敗しました: %w", err)
		}

		candidate := &model.ArticleLock{
			ArticleID: articleID,
			LockedBy:  userID,
			LockedAt:  now,
			ExpiresAt: now.Add(m.ttl),
		}

		if current != nil && !current.IsHeldBy(userID) && !current.IsExpired(now) {
			return m.deny(current, userID), nil
		}

		var ok bool
		if current == nil {
			ok, err = m.locks.Insert(ctx, candidate)
		} else {
			ok, err = m.locks.Replace(ctx, candidate, now)
		}
		if err != nil {
			return nil, fmt.Errorf("ロックの書き込みに失敗しました: %w", err)
		}
		if ok {
			return m.grant(m.withHolder(ctx, candidate)), nil
		}

		// 確認と書き込みの間に他のリクエストが先行した
		winner, err := m.locks.Find(ctx, articleID)
		if err != nil {
			return nil, fmt.Errorf("ロックの再取得に失敗しました: %w", err)
		}
		if winner == nil {
			continue
		}
		if winner.IsHeldBy(userID) {
			return m.grant(winner), nil
		}
		if !winner.IsExpired(m.now()) {
			return m.deny(winner, userID), nil
		}
	}

	current, err := m.locks.Find(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("ロックの取得に失敗しました: %w", err)
	}
	return m.deny(current, userID), nil
}

// withHolder は書き込んだロックを保持者の表示情報付きで読み直す。
// 読み直せない場合は書き込んだ値をそのまま返す。
func (m *Manager) withHolder(ctx context.Context, written *model.ArticleLock) *model.ArticleLock {
	l, err := m.locks.Find(ctx, written.ArticleID)
	if err != nil {
		slog.Warn("取得したロックの読み直しに失敗しました",
			slog.String("article_id", written.ArticleID),
			slog.String("error", err.Error()),
		)
		return written
	}
	if l == nil || !l.IsHeldBy(written.LockedBy) {
		return written
	}
	return l
}

func (m *Manager) grant(l *model.ArticleLock) *model.LockResult {
	m.metrics.RecordLockAcquire(true)
	slog.Info("ロックを取得しました",
		slog.String("article_id", l.ArticleID),
		slog.String("user_id", l.LockedBy),
		slog.Time("expires_at", l.ExpiresAt),
	)
	return &model.LockResult{Granted: true, Lock: l}
}

func (m *Manager) deny(current *model.ArticleLock, userID string) *model.LockResult {
	m.metrics.RecordLockAcquire(false)
	attrs := []any{slog.String("user_id", userID)}
	if current != nil {
		attrs = append(attrs,
			slog.String("article_id", current.ArticleID),
			slog.String("locked_by", current.LockedBy),
		)
	}
	slog.Info("ロックは他のユーザーが保持しています", attrs...)
	return &model.LockResult{Granted: false, Lock: current}
}

// Renew は保持者のロックの有効期限を現在時刻+TTLに延長する。
// 呼び出し元が保持者でない場合はnilを返し、行は変更しない。
func (m *Manager) Renew(ctx context.Context, articleID, userID string) (*model.ArticleLock, error) {
	if m.locks == nil {
		return nil, nil
	}

	renewed, err := m.locks.Renew(ctx, articleID, userID, m.now().Add(m.ttl))
	if err != nil {
		return nil, fmt.Errorf("ロックの延長に失敗しました: %w", err)
	}
	m.metrics.RecordLockRenew(renewed != nil)
	if renewed == nil {
		slog.Warn("保持者以外によるロック延長を拒否しました",
			slog.String("article_id", articleID),
			slog.String("user_id", userID),
		)
	}
	return renewed, nil
}

// Release は保持者のロックを解放する。呼び出し元が保持者でない場合はfalseを返す。
func (m *Manager) Release(ctx context.Context, articleID, userID string) (bool, error) {
	if m.locks == nil {
		return false, nil
	}

	released, err := m.locks.Release(ctx, articleID, userID)
	if err != nil {
		return false, fmt.Errorf("ロックの解放に失敗しました: %w", err)
	}
	m.metrics.RecordLockRelease(released)
	if !released {
		slog.Warn("保持者以外によるロック解放を拒否しました",
			slog.String("article_id", articleID),
			slog.String("user_id", userID),
		)
	}
	return released, nil
}

// Status は記事の有効なロックを返す。
// 失効済みのロックは削除してnilを返し、失効した保持者を報告しない。
func (m *Manager) Status(ctx context.Context, articleID string) (*model.ArticleLock, error) {
	if m.locks == nil {
		return nil, nil
	}

	current, err := m.locks.Find(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("ロック状態の取得に失敗しました: %w", err)
	}
	if current == nil {
		return nil, nil
	}

	now := m.now()
	if current.IsExpired(now) {
		if _, err := m.locks.DeleteExpired(ctx, articleID, now); err != nil {
			return nil, fmt.Errorf("失効ロックの削除に失敗しました: %w", err)
		}
		return nil, nil
	}
	return current, nil
}

// HeldByOther はuserID以外のユーザーが保持する有効なロックを返す。
// ロックが無い、失効済み、またはuserID自身が保持している場合はnilを返す。
func (m *Manager) HeldByOther(ctx context.Context, articleID, userID string) (*model.ArticleLock, error) {
	current, err := m.Status(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if current == nil || current.IsHeldBy(userID) {
		return nil, nil
	}
	return current, nil
}

// SweepExpired は現在時刻で失効している全てのロック行を削除し、削除件数を返す。
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	if m.locks == nil {
		return 0, nil
	}

	n, err := m.locks.DeleteAllExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("失効ロックの一括削除に失敗しました: %w", err)
	}
	m.metrics.RecordLocksSwept(n)
	return n, nil
}
