package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// PostgresReaderCommentRepo はPostgreSQLを使用した読者コメント集計リポジトリ。
type PostgresReaderCommentRepo struct {
	db *sql.DB
}

// NewPostgresReaderCommentRepo はPostgresReaderCommentRepoを生成する。
func NewPostgresReaderCommentRepo(db *sql.DB) *PostgresReaderCommentRepo {
	return &PostgresReaderCommentRepo{db: db}
}

// CountPendingByArticles は指定記事群のモデレーション待ち読者コメント数を記事IDごとに返す。
func (r *PostgresReaderCommentRepo) CountPendingByArticles(ctx context.Context, articleIDs []string) (map[string]int, error) {
	counts := make(map[string]int)
	if len(articleIDs) == 0 {
		return counts, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT article_id, COUNT(*) FROM comments
		 WHERE article_id = ANY($1::uuid[]) AND status = $2
		 GROUP BY article_id`,
		pq.Array(articleIDs), string(model.ReaderCommentPending),
	)
	if err != nil {
		return nil, fmt.Errorf("記事別モデレーション待ちコメント数の取得に失敗しました: %w", err)
	}
	return scanCounts(rows, counts)
}

// compile-time interface check
var _ ReaderCommentRepository = (*PostgresReaderCommentRepo)(nil)
