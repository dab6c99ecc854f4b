package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// PostgresCollaboratorRepo はPostgreSQLを使用した共同編集者リポジトリ。
type PostgresCollaboratorRepo struct {
	db *sql.DB
}

// NewPostgresCollaboratorRepo はPostgresCollaboratorRepoを生成する。
func NewPostgresCollaboratorRepo(db *sql.DB) *PostgresCollaboratorRepo {
	return &PostgresCollaboratorRepo{db: db}
}

// Find は記事とユーザーの組で共同編集者を検索する。見つからない場合はnilを返す。
func (r *PostgresCollaboratorRepo) Find(ctx context.Context, articleID, userID string) (*model.Collaborator, error) {
	if !validID(articleID) || !validID(userID) {
		return nil, nil
	}
	c := &model.Collaborator{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, article_id, user_id, role, COALESCE(added_by::text, ''), created_at
		 FROM article_collaborators WHERE article_id = $1 AND user_id = $2`,
		articleID, userID,
	).Scan(&c.ID, &c.ArticleID, &c.UserID, &c.Role, &c.AddedBy, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("共同編集者の検索に失敗しました: %w", err)
	}
	return c, nil
}

// Upsert は共同編集者を追加する。
// UNIQUE(article_id, user_id)制約を利用したINSERT ON CONFLICTで、既存の場合はroleのみを更新する。
func (r *PostgresCollaboratorRepo) Upsert(ctx context.Context, c *model.Collaborator) (*model.Collaborator, error) {
	result := &model.Collaborator{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO article_collaborators (id, article_id, user_id, role, added_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (article_id, user_id) DO UPDATE SET role = EXCLUDED.role
		 RETURNING id, article_id, user_id, role, COALESCE(added_by::text, ''), created_at`,
		c.ID, c.ArticleID, c.UserID, string(c.Role), nullableID(c.AddedBy), c.CreatedAt,
	).Scan(&result.ID, &result.ArticleID, &result.UserID, &result.Role, &result.AddedBy, &result.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("共同編集者の追加に失敗しました: %w", err)
	}
	result.Email = c.Email
	result.DisplayName = c.DisplayName
	return result, nil
}

// Delete は共同編集者を削除する。存在しなかった場合はfalseを返す。
func (r *PostgresCollaboratorRepo) Delete(ctx context.Context, articleID, userID string) (bool, error) {
	if !validID(articleID) || !validID(userID) {
		return false, nil
	}
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM article_collaborators WHERE article_id = $1 AND user_id = $2`,
		articleID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("共同編集者の削除に失敗しました: %w", err)
	}
	return affected(result)
}

// ListByArticle は記事の共同編集者をプロフィール情報付きで追加順に返す。
func (r *PostgresCollaboratorRepo) ListByArticle(ctx context.Context, articleID string) ([]*model.Collaborator, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.article_id, c.user_id, c.role, COALESCE(c.added_by::text, ''), c.created_at,
		        COALESCE(p.email, ''), COALESCE(p.display_name, '')
		 FROM article_collaborators c
		 LEFT JOIN profiles p ON p.id = c.user_id
		 WHERE c.article_id = $1
		 ORDER BY c.created_at ASC`,
		articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("共同編集者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var collaborators []*model.Collaborator
	for rows.Next() {
		c := &model.Collaborator{}
		if err := rows.Scan(&c.ID, &c.ArticleID, &c.UserID, &c.Role, &c.AddedBy, &c.CreatedAt, &c.Email, &c.DisplayName); err != nil {
			return nil, fmt.Errorf("共同編集者行の読み取りに失敗しました: %w", err)
		}
		collaborators = append(collaborators, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("共同編集者一覧の走査に失敗しました: %w", err)
	}
	return collaborators, nil
}

// compile-time interface check
var _ CollaboratorRepository = (*PostgresCollaboratorRepo)(nil)
