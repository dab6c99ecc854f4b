package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// PostgresEditorialCommentRepo はPostgreSQLを使用した編集コメントリポジトリ。
type PostgresEditorialCommentRepo struct {
	db *sql.DB
}

// NewPostgresEditorialCommentRepo はPostgresEditorialCommentRepoを生成する。
func NewPostgresEditorialCommentRepo(db *sql.DB) *PostgresEditorialCommentRepo {
	return &PostgresEditorialCommentRepo{db: db}
}

// Create は編集コメントを作成する。
func (r *PostgresEditorialCommentRepo) Create(ctx context.Context, c *model.EditorialComment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO editorial_comments (id, article_id, author_id, body, resolved, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.ArticleID, c.AuthorID, c.Body, c.Resolved, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("編集コメントの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDの編集コメントを取得する。見つからない場合はnilを返す。
func (r *PostgresEditorialCommentRepo) FindByID(ctx context.Context, id string) (*model.EditorialComment, error) {
	if !validID(id) {
		return nil, nil
	}
	c := &model.EditorialComment{}
	err := r.db.QueryRowContext(ctx,
		`SELECT e.id, e.article_id, e.author_id, e.body, e.resolved, e.created_at, e.updated_at,
		        COALESCE(p.display_name, '')
		 FROM editorial_comments e
		 LEFT JOIN profiles p ON p.id = e.author_id
		 WHERE e.id = $1`,
		id,
	).Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.Body, &c.Resolved, &c.CreatedAt, &c.UpdatedAt, &c.AuthorName)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("編集コメントの取得に失敗しました: %w", err)
	}
	return c, nil
}

// ListByArticle は記事の編集コメントを作成日時の昇順で返す。
func (r *PostgresEditorialCommentRepo) ListByArticle(ctx context.Context, articleID string, includeResolved bool) ([]*model.EditorialComment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, e.article_id, e.author_id, e.body, e.resolved, e.created_at, e.updated_at,
		        COALESCE(p.display_name, '')
		 FROM editorial_comments e
		 LEFT JOIN profiles p ON p.id = e.author_id
		 WHERE e.article_id = $1 AND ($2 OR e.resolved = false)
		 ORDER BY e.created_at ASC`,
		articleID, includeResolved,
	)
	if err != nil {
		return nil, fmt.Errorf("編集コメント一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var comments []*model.EditorialComment
	for rows.Next() {
		c := &model.EditorialComment{}
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.Body, &c.Resolved, &c.CreatedAt, &c.UpdatedAt, &c.AuthorName); err != nil {
			return nil, fmt.Errorf("編集コメント行の読み取りに失敗しました: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("編集コメント一覧の走査に失敗しました: %w", err)
	}
	return comments, nil
}

// Resolve は編集コメントを解決済みにする。見つからない場合はnilを返す。
// resolvedはfalseからtrueへのみ遷移し、解決済みの行のupdated_atは変更しない。
func (r *PostgresEditorialCommentRepo) Resolve(ctx context.Context, id string) (*model.EditorialComment, error) {
	if !validID(id) {
		return nil, nil
	}
	c := &model.EditorialComment{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE editorial_comments
		 SET resolved = true,
		     updated_at = CASE WHEN resolved THEN updated_at ELSE NOW() END
		 WHERE id = $1
		 RETURNING id, article_id, author_id, body, resolved, created_at, updated_at`,
		id,
	).Scan(&c.ID, &c.ArticleID, &c.AuthorID, &c.Body, &c.Resolved, &c.CreatedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("編集コメントの解決に失敗しました: %w", err)
	}
	return c, nil
}

// Delete は編集コメントを削除する。存在しなかった場合はfalseを返す。
func (r *PostgresEditorialCommentRepo) Delete(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM editorial_comments WHERE id = $1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("編集コメントの削除に失敗しました: %w", err)
	}
	return affected(result)
}

// CountUnresolved は記事の未解決コメント数を返す。
func (r *PostgresEditorialCommentRepo) CountUnresolved(ctx context.Context, articleID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM editorial_comments WHERE article_id = $1 AND resolved = false`,
		articleID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("未解決コメント数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// CountUnresolvedByArticles は指定記事群の未解決コメント数を記事IDごとに返す。
func (r *PostgresEditorialCommentRepo) CountUnresolvedByArticles(ctx context.Context, articleIDs []string) (map[string]int, error) {
	counts := make(map[string]int)
	if len(articleIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT article_id, COUNT(*) FROM editorial_comments
		 WHERE article_id = ANY($1::uuid[]) AND resolved = false
		 GROUP BY article_id`,
		pq.Array(articleIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("記事別未解決コメント数の取得に失敗しました: %w", err)
	}
	return scanCounts(rows, counts)
}

// scanCounts は(article_id, count)の行をマップに読み込む。
func scanCounts(rows *sql.Rows, counts map[string]int) (map[string]int, error) {
	defer rows.Close()

	for rows.Next() {
		var articleID string
		var n int
		if err := rows.Scan(&articleID, &n); err != nil {
			return nil, fmt.Errorf("集計行の読み取りに失敗しました: %w", err)
		}
		counts[articleID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("集計結果の走査に失敗しました: %w", err)
	}
	return counts, nil
}

// compile-time interface check
var _ EditorialCommentRepository = (*PostgresEditorialCommentRepo)(nil)
