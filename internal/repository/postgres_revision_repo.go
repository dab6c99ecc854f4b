package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// uniqueViolation はPostgreSQLのユニーク制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresRevisionRepo はPostgreSQLを使用したリビジョンリポジトリ。
type PostgresRevisionRepo struct {
	db *sql.DB
}

// NewPostgresRevisionRepo はPostgresRevisionRepoを生成する。
func NewPostgresRevisionRepo(db *sql.DB) *PostgresRevisionRepo {
	return &PostgresRevisionRepo{db: db}
}

// Insert はリビジョンを max(version)+1 で挿入する。
// 同時保存で同じversionを算出した場合はUNIQUE(article_id, version)違反となり、ErrVersionConflictを返す。
func (r *PostgresRevisionRepo) Insert(ctx context.Context, rev *model.ArticleRevision) error {
	return insertRevision(ctx, r.db, rev)
}

// insertRevision はqに対してリビジョンを採番付きで挿入する。
func insertRevision(ctx context.Context, q queryer, rev *model.ArticleRevision) error {
	err := q.QueryRowContext(ctx,
		`INSERT INTO article_revisions (id, article_id, version, title, excerpt, content, created_by, created_at)
		 SELECT $1::uuid, $2::uuid, COALESCE(MAX(version), 0) + 1, $3::text, $4::text, $5::text, $6::uuid, $7::timestamptz
		 FROM article_revisions WHERE article_id = $2::uuid
		 RETURNING version`,
		rev.ID, rev.ArticleID, rev.Title, rev.Excerpt, rev.Content, nullableID(rev.CreatedBy), rev.CreatedAt,
	).Scan(&rev.Version)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrVersionConflict
		}
		return fmt.Errorf("リビジョンの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByVersion は記事の指定バージョンのリビジョンを取得する。見つからない場合はnilを返す。
func (r *PostgresRevisionRepo) FindByVersion(ctx context.Context, articleID string, version int) (*model.ArticleRevision, error) {
	rev := &model.ArticleRevision{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, article_id, version, title, excerpt, content, COALESCE(created_by::text, ''), created_at
		 FROM article_revisions WHERE article_id = $1 AND version = $2`,
		articleID, version,
	).Scan(&rev.ID, &rev.ArticleID, &rev.Version, &rev.Title, &rev.Excerpt, &rev.Content, &rev.CreatedBy, &rev.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("リビジョンの取得に失敗しました: %w", err)
	}
	return rev, nil
}

// ListByArticle は記事のリビジョンをversion降順で返す。
func (r *PostgresRevisionRepo) ListByArticle(ctx context.Context, articleID string, offset, limit int) ([]*model.ArticleRevision, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, article_id, version, title, excerpt, content, COALESCE(created_by::text, ''), created_at
		 FROM article_revisions WHERE article_id = $1
		 ORDER BY version DESC
		 OFFSET $2 LIMIT $3`,
		articleID, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("リビジョン一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var revs []*model.ArticleRevision
	for rows.Next() {
		rev := &model.ArticleRevision{}
		if err := rows.Scan(&rev.ID, &rev.ArticleID, &rev.Version, &rev.Title, &rev.Excerpt, &rev.Content, &rev.CreatedBy, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("リビジョン行の読み取りに失敗しました: %w", err)
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("リビジョン一覧の走査に失敗しました: %w", err)
	}
	return revs, nil
}

// CountByArticle は記事のリビジョン数を返す。
func (r *PostgresRevisionRepo) CountByArticle(ctx context.Context, articleID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM article_revisions WHERE article_id = $1`,
		articleID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("リビジョン数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// LatestVersions は記事の最新keep件のversionを降順で返す。
func (r *PostgresRevisionRepo) LatestVersions(ctx context.Context, articleID string, keep int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT version FROM article_revisions WHERE article_id = $1
		 ORDER BY version DESC LIMIT $2`,
		articleID, keep,
	)
	if err != nil {
		return nil, fmt.Errorf("最新バージョンの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("バージョン行の読み取りに失敗しました: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("最新バージョンの走査に失敗しました: %w", err)
	}
	return versions, nil
}

// DeleteOlderThan はminVersion未満のリビジョンを削除する。
func (r *PostgresRevisionRepo) DeleteOlderThan(ctx context.Context, articleID string, minVersion int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM article_revisions WHERE article_id = $1 AND version < $2`,
		articleID, minVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("古いリビジョンの削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return n, nil
}

// nullableID は空文字をNULLとして扱うUUIDパラメータを返す。
func nullableID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

// compile-time interface check
var _ RevisionRepository = (*PostgresRevisionRepo)(nil)
