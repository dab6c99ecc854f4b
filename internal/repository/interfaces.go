// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// ErrVersionConflict は(article_id, version)のユニーク制約違反を表す。
// 同一記事への保存が競合した場合に返り、呼び出し側は再試行する。
var ErrVersionConflict = errors.New("revision version conflict")

// ProfileRepository はスタッフプロフィールの参照・更新インターフェース。
type ProfileRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Profile, error)

	// FindByEmail はメールアドレス（大文字小文字を区別しない）でプロフィールを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Profile, error)

	// UpdateRole はプロフィールのロールを更新する。見つからない場合はnilを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.Profile, error)
}

// ArticleRepository は記事データの参照と、保存・復元時の更新インターフェース。
type ArticleRepository interface {
	// FindByID は指定IDの記事を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Article, error)

	// FindAuthorID は記事の執筆者IDを返す。記事が存在しない場合は空文字を返す。
	FindAuthorID(ctx context.Context, id string) (string, error)

	// ListSummariesByAuthor は執筆者の記事一覧（ID、タイトル、スラッグ）を返す。
	ListSummariesByAuthor(ctx context.Context, authorID string) ([]model.ArticleSummary, error)

	// CommitRevision はリビジョンを max(version)+1 で挿入し、その内容を記事本体に書き込む。
	// 挿入と書き込みは1つのトランザクションで行い、採番したversionをrevに設定する。
	// 他のユーザーが未失効のロックを保持している場合や記事が存在しない場合は何も書き込まずfalseを返す。
	// 採番が競合した場合はErrVersionConflictを返す。
	CommitRevision(ctx context.Context, rev *model.ArticleRevision, savedBy string, now time.Time) (bool, error)
}

// LockRepository は記事ロックの永続化インターフェース。
// 失効判定は呼び出し側が行い、条件付き更新で競合を解決する。
type LockRepository interface {
	// Find は記事のロック行を保持者の表示情報付きで取得する。失効済みでも返す。
	// 行が存在しない場合はnilを返す。
	Find(ctx context.Context, articleID string) (*model.ArticleLock, error)

	// Insert はロック行を挿入する。既に行が存在した場合はfalseを返す。
	Insert(ctx context.Context, lock *model.ArticleLock) (bool, error)

	// Replace は既存のロック行を置き換える。
	// 既存行の保持者がlock.LockedByと同じか、now時点で失効している場合のみ置き換え、それ以外はfalseを返す。
	Replace(ctx context.Context, lock *model.ArticleLock, now time.Time) (bool, error)

	// Renew は保持者のロックの有効期限を延長し、保持者の表示情報付きで返す。保持者でない場合はnilを返す。
	Renew(ctx context.Context, articleID, userID string, expiresAt time.Time) (*model.ArticleLock, error)

	// Release は保持者のロック行を削除する。保持者でない場合はfalseを返す。
	Release(ctx context.Context, articleID, userID string) (bool, error)

	// DeleteExpired は記事のロック行がnow時点で失効していれば削除する。
	DeleteExpired(ctx context.Context, articleID string, now time.Time) (bool, error)

	// DeleteAllExpired はnow時点で失効している全てのロック行を削除し、削除件数を返す。
	DeleteAllExpired(ctx context.Context, now time.Time) (int64, error)
}

// RevisionRepository は記事リビジョンの永続化インターフェース。
type RevisionRepository interface {
	// Insert はリビジョンを挿入する。versionは同一ステートメント内で max(version)+1 として採番し、
	// rev.Versionとrev.CreatedAtに反映する。採番が競合した場合はErrVersionConflictを返す。
	Insert(ctx context.Context, rev *model.ArticleRevision) error

	// FindByVersion は記事の指定バージョンのリビジョンを取得する。見つからない場合はnilを返す。
	FindByVersion(ctx context.Context, articleID string, version int) (*model.ArticleRevision, error)

	// ListByArticle は記事のリビジョンをversion降順で返す。
	ListByArticle(ctx context.Context, articleID string, offset, limit int) ([]*model.ArticleRevision, error)

	// CountByArticle は記事のリビジョン数を返す。
	CountByArticle(ctx context.Context, articleID string) (int, error)

	// LatestVersions は記事の最新keep件のversionを降順で返す。
	LatestVersions(ctx context.Context, articleID string, keep int) ([]int, error)

	// DeleteOlderThan はminVersion未満のリビジョンを削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, articleID string, minVersion int) (int64, error)
}

// CollaboratorRepository は共同編集者名簿の永続化インターフェース。
type CollaboratorRepository interface {
	// Find は記事とユーザーの組で共同編集者を検索する。見つからない場合はnilを返す。
	Find(ctx context.Context, articleID, userID string) (*model.Collaborator, error)

	// Upsert は共同編集者を(article_id, user_id)をキーに追加する。
	// 既に存在する場合はroleのみを更新する。
	Upsert(ctx context.Context, c *model.Collaborator) (*model.Collaborator, error)

	// Delete は共同編集者を削除する。存在しなかった場合はfalseを返す。
	Delete(ctx context.Context, articleID, userID string) (bool, error)

	// ListByArticle は記事の共同編集者をプロフィール情報付きで追加順に返す。
	ListByArticle(ctx context.Context, articleID string) ([]*model.Collaborator, error)
}

// EditorialCommentRepository は編集コメントの永続化インターフェース。
type EditorialCommentRepository interface {
	// Create は編集コメントを作成する。
	Create(ctx context.Context, c *model.EditorialComment) error

	// FindByID は指定IDの編集コメントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.EditorialComment, error)

	// ListByArticle は記事の編集コメントを作成日時の昇順で返す。
	// includeResolvedがfalseの場合は未解決のもののみを返す。
	ListByArticle(ctx context.Context, articleID string, includeResolved bool) ([]*model.EditorialComment, error)

	// Resolve は編集コメントを解決済みにする。見つからない場合はnilを返す。
	// 解決済みのコメントに対しては状態を変えずにそのまま返す。
	Resolve(ctx context.Context, id string) (*model.EditorialComment, error)

	// Delete は編集コメントを削除する。存在しなかった場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// CountUnresolved は記事の未解決コメント数を返す。
	CountUnresolved(ctx context.Context, articleID string) (int, error)

	// CountUnresolvedByArticles は指定記事群の未解決コメント数を記事IDごとに返す。
	// 該当のない記事はマップに含まれない。
	CountUnresolvedByArticles(ctx context.Context, articleIDs []string) (map[string]int, error)
}

// ReaderCommentRepository は読者コメントの集計インターフェース。
type ReaderCommentRepository interface {
	// CountPendingByArticles は指定記事群のモデレーション待ち読者コメント数を記事IDごとに返す。
	// 該当のない記事はマップに含まれない。
	CountPendingByArticles(ctx context.Context, articleIDs []string) (map[string]int, error)
}
