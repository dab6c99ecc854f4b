package model

import "time"

// ArticleLock は記事の排他編集セッションを表す。
// 1記事につき最大1行。expires_atを過ぎた行は存在しても無効として扱う。
type ArticleLock struct {
	ArticleID string
	LockedBy  string
	LockedAt  time.Time
	ExpiresAt time.Time

	// 保持者の表示情報（profilesとのJOIN結果）
	HolderName  string
	HolderEmail string
}

// IsExpired はnow時点でロックが失効しているかを返す。
func (l *ArticleLock) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// IsHeldBy はuserIDがロックの保持者かを返す。失効判定は行わない。
func (l *ArticleLock) IsHeldBy(userID string) bool {
	return l.LockedBy == userID
}

// LockResult はロック取得の結果を表す。
// Grantedがfalseの場合、Lockには現在の保持者のロックが入る。
type LockResult struct {
	Granted bool
	Lock    *ArticleLock
}
