package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// PostgresLockRepo はPostgreSQLを使用した記事ロックリポジトリ。
// 競合はarticle_idの主キーと条件付きUPDATE/DELETEで解決する。
type PostgresLockRepo struct {
	db *sql.DB
}

// NewPostgresLockRepo はPostgresLockRepoを生成する。
func NewPostgresLockRepo(db *sql.DB) *PostgresLockRepo {
	return &PostgresLockRepo{db: db}
}

// Find は記事のロック行を保持者の表示情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresLockRepo) Find(ctx context.Context, articleID string) (*model.ArticleLock, error) {
	if !validID(articleID) {
		return nil, nil
	}
	l := &model.ArticleLock{}
	err := r.db.QueryRowContext(ctx,
		`SELECT l.article_id, l.locked_by, l.locked_at, l.expires_at,
		        COALESCE(p.display_name, ''), COALESCE(p.email, '')
		 FROM article_locks l
		 LEFT JOIN profiles p ON p.id = l.locked_by
		 WHERE l.article_id = $1`,
		articleID,
	).Scan(&l.ArticleID, &l.LockedBy, &l.LockedAt, &l.ExpiresAt, &l.HolderName, &l.HolderEmail)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find article lock: %w", err)
	}
	return l, nil
}

// Insert はロック行を挿入する。既に行が存在した場合はfalseを返す。
func (r *PostgresLockRepo) Insert(ctx context.Context, lock *model.ArticleLock) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO article_locks (article_id, locked_by, locked_at, expires_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (article_id) DO NOTHING`,
		lock.ArticleID, lock.LockedBy, lock.LockedAt, lock.ExpiresAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert article lock: %w", err)
	}
	return affected(result)
}

// Replace は保持者が同じか失効済みの既存ロック行を置き換える。
func (r *PostgresLockRepo) Replace(ctx context.Context, lock *model.ArticleLock, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE article_locks
		 SET locked_by = $2, locked_at = $3, expires_at = $4
		 WHERE article_id = $1 AND (locked_by = $2 OR expires_at < $5)`,
		lock.ArticleID, lock.LockedBy, lock.LockedAt, lock.ExpiresAt, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to replace article lock: %w", err)
	}
	return affected(result)
}

// Renew は保持者のロックの有効期限を延長し、保持者の表示情報付きで返す。保持者でない場合はnilを返す。
func (r *PostgresLockRepo) Renew(ctx context.Context, articleID, userID string, expiresAt time.Time) (*model.ArticleLock, error) {
	l := &model.ArticleLock{}
	err := r.db.QueryRowContext(ctx,
		`WITH renewed AS (
		     UPDATE article_locks SET expires_at = $3
		     WHERE article_id = $1 AND locked_by = $2
		     RETURNING article_id, locked_by, locked_at, expires_at
		 )
		 SELECT r.article_id, r.locked_by, r.locked_at, r.expires_at,
		        COALESCE(p.display_name, ''), COALESCE(p.email, '')
		 FROM renewed r
		 LEFT JOIN profiles p ON p.id = r.locked_by`,
		articleID, userID, expiresAt,
	).Scan(&l.ArticleID, &l.LockedBy, &l.LockedAt, &l.ExpiresAt, &l.HolderName, &l.HolderEmail)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to renew article lock: %w", err)
	}
	return l, nil
}

// Release は保持者のロック行を削除する。保持者でない場合はfalseを返す。
func (r *PostgresLockRepo) Release(ctx context.Context, articleID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM article_locks WHERE article_id = $1 AND locked_by = $2`,
		articleID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to release article lock: %w", err)
	}
	return affected(result)
}

// DeleteExpired は記事のロック行がnow時点で失効していれば削除する。
func (r *PostgresLockRepo) DeleteExpired(ctx context.Context, articleID string, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM article_locks WHERE article_id = $1 AND expires_at < $2`,
		articleID, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete expired article lock: %w", err)
	}
	return affected(result)
}

// DeleteAllExpired はnow時点で失効している全てのロック行を削除する。
func (r *PostgresLockRepo) DeleteAllExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM article_locks WHERE expires_at < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired article locks: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// affected は更新系クエリで1行以上に影響があったかを返す。
func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// compile-time interface check
var _ LockRepository = (*PostgresLockRepo)(nil)
