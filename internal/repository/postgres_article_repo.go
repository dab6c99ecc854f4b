package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// PostgresArticleRepo はPostgreSQLを使用した記事リポジトリ。
type PostgresArticleRepo struct {
	db *sql.DB
}

// NewPostgresArticleRepo はPostgresArticleRepoを生成する。
func NewPostgresArticleRepo(db *sql.DB) *PostgresArticleRepo {
	return &PostgresArticleRepo{db: db}
}

// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
func (r *PostgresArticleRepo) FindByID(ctx context.Context, id string) (*model.Article, error) {
	if !validID(id) {
		return nil, nil
	}
	a := &model.Article{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, author_id, title, slug, excerpt, content, version,
		        COALESCE(last_saved_by::text, ''), updated_at
		 FROM articles WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.AuthorID, &a.Title, &a.Slug, &a.Excerpt, &a.Content, &a.Version, &a.LastSavedBy, &a.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	return a, nil
}

// FindAuthorID は記事の執筆者IDを返す。記事が存在しない場合は空文字を返す。
func (r *PostgresArticleRepo) FindAuthorID(ctx context.Context, id string) (string, error) {
	if !validID(id) {
		return "", nil
	}
	var authorID string
	err := r.db.QueryRowContext(ctx,
		`SELECT author_id FROM articles WHERE id = $1`,
		id,
	).Scan(&authorID)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("記事の執筆者の取得に失敗しました: %w", err)
	}
	return authorID, nil
}

// ListSummariesByAuthor は執筆者の記事一覧を返す。
func (r *PostgresArticleRepo) ListSummariesByAuthor(ctx context.Context, authorID string) ([]model.ArticleSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, slug FROM articles WHERE author_id = $1 ORDER BY updated_at DESC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("執筆記事一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var summaries []model.ArticleSummary
	for rows.Next() {
		var s model.ArticleSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Slug); err != nil {
			return nil, fmt.Errorf("執筆記事行の読み取りに失敗しました: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("執筆記事一覧の走査に失敗しました: %w", err)
	}
	return summaries, nil
}

// CommitRevision はリビジョンの挿入と記事本体の更新を1つのトランザクションで行う。
// 記事の更新はsavedBy以外のユーザーが未失効のロックを保持していないことを条件とし、
// 条件を満たさない場合はロールバックしてfalseを返す。
func (r *PostgresArticleRepo) CommitRevision(ctx context.Context, rev *model.ArticleRevision, savedBy string, now time.Time) (bool, error) {
	if !validID(rev.ArticleID) {
		return false, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if err := insertRevision(ctx, tx, rev); err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE articles
		 SET title = $2, excerpt = $3, content = $4, version = $5, last_saved_by = $6, updated_at = $7
		 WHERE id = $1
		   AND NOT EXISTS (
		       SELECT 1 FROM article_locks l
		       WHERE l.article_id = $1 AND l.locked_by <> $6 AND l.expires_at >= $7
		   )`,
		rev.ArticleID, rev.Title, rev.Excerpt, rev.Content, rev.Version, savedBy, now,
	)
	if err != nil {
		return false, fmt.Errorf("記事の更新に失敗しました: %w", err)
	}
	applied, err := affected(result)
	if err != nil || !applied {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return true, nil
}

// compile-time interface check
var _ ArticleRepository = (*PostgresArticleRepo)(nil)
