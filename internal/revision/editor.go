package revision

import (
	"context"
	"fmt"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/repository"
)

// EditChecker は編集権限の判定インターフェース。
type EditChecker interface {
	CanEdit(ctx context.Context, articleID, userID string, role model.Role) (bool, error)
}

// LockChecker は他のユーザーが保持する有効なロックを返すインターフェース。
type LockChecker interface {
	HeldByOther(ctx context.Context, articleID, userID string) (*model.ArticleLock, error)
}

// Draft は手動保存で送られる記事の編集可能フィールド。
type Draft struct {
	Title   string
	Excerpt string
	Content string
}

// Editor は呼び出し元の権限とロックを確認したうえで保存と復元を行う。
type Editor struct {
	store    *Store
	articles repository.ArticleRepository
	access   EditChecker
	locks    LockChecker
}

// NewEditor はEditorを生成する。
func NewEditor(store *Store, articles repository.ArticleRepository, access EditChecker, locks LockChecker) *Editor {
	return &Editor{
		store:    store,
		articles: articles,
		access:   access,
		locks:    locks,
	}
}

// Store は内部のStoreを返す。
func (e *Editor) Store() *Store {
	return e.store
}

// SaveDraft は手動保存を行う。
// 記事が無い場合はARTICLE_NOT_FOUND、編集権限が無い場合はEDIT_FORBIDDEN、
// 他のユーザーがロック中の場合はARTICLE_LOCKEDを返す。
func (e *Editor) SaveDraft(ctx context.Context, caller model.Caller, articleID string, draft Draft) (*model.ArticleRevision, error) {
	if !e.store.Available() {
		return nil, nil
	}
	if err := e.guard(ctx, caller, articleID); err != nil {
		return nil, err
	}
	return e.store.Commit(ctx, articleID, draft.Title, draft.Excerpt, draft.Content, caller.UserID)
}

// Restore は指定バージョンを復元する。
// 権限とロックの確認はSaveDraftと同じ。対象バージョンが無い場合はnilを返す。
func (e *Editor) Restore(ctx context.Context, caller model.Caller, articleID string, version int) (*model.ArticleRevision, error) {
	if !e.store.Available() {
		return nil, nil
	}
	if err := e.guard(ctx, caller, articleID); err != nil {
		return nil, err
	}
	return e.store.RestoreRevision(ctx, articleID, version, caller.UserID)
}

func (e *Editor) guard(ctx context.Context, caller model.Caller, articleID string) error {
	authorID, err := e.articles.FindAuthorID(ctx, articleID)
	if err != nil {
		return fmt.Errorf("記事の取得に失敗しました: %w", err)
	}
	if authorID == "" {
		return model.NewArticleNotFoundError(articleID)
	}

	ok, err := e.access.CanEdit(ctx, articleID, caller.UserID, caller.Role)
	if err != nil {
		return err
	}
	if !ok {
		return model.NewEditForbiddenError()
	}

	held, err := e.locks.HeldByOther(ctx, articleID, caller.UserID)
	if err != nil {
		return err
	}
	if held != nil {
		return model.NewArticleLockedError(held.HolderName)
	}
	return nil
}
