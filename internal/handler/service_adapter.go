package handler

import (
	"context"

	"github.com/ngucho/scoop-afrique-sub001/internal/editorial"
	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/revision"
)

// RevisionServiceAdapter は revision.Editor を RevisionServiceInterface に適合させるアダプタ。
type RevisionServiceAdapter struct {
	editor *revision.Editor
}

// NewRevisionServiceAdapter はRevisionServiceAdapterを生成する。
func NewRevisionServiceAdapter(editor *revision.Editor) *RevisionServiceAdapter {
	return &RevisionServiceAdapter{editor: editor}
}

// Available はデータストアが設定されているかを返す。
func (a *RevisionServiceAdapter) Available() bool {
	return a.editor.Store().Available()
}

// List は記事のリビジョンをページ単位で返す。
func (a *RevisionServiceAdapter) List(ctx context.Context, articleID string, page, limit int) (*model.RevisionPage, error) {
	return a.editor.Store().ListRevisions(ctx, articleID, page, limit)
}

// Get は指定バージョンのリビジョンを返す。
func (a *RevisionServiceAdapter) Get(ctx context.Context, articleID string, version int) (*model.ArticleRevision, error) {
	return a.editor.Store().GetRevision(ctx, articleID, version)
}

// Save は権限とロックを確認して手動保存する。
func (a *RevisionServiceAdapter) Save(ctx context.Context, caller model.Caller, articleID string, draft revision.Draft) (*model.ArticleRevision, error) {
	return a.editor.SaveDraft(ctx, caller, articleID, draft)
}

// Restore は権限とロックを確認してリビジョンを復元する。
func (a *RevisionServiceAdapter) Restore(ctx context.Context, caller model.Caller, articleID string, version int) (*model.ArticleRevision, error) {
	return a.editor.Restore(ctx, caller, articleID, version)
}

// EditorialServiceAdapter は editorial.Service を EditorialServiceInterface に適合させるアダプタ。
// 一覧には未解決件数を合わせて返す。
type EditorialServiceAdapter struct {
	svc *editorial.Service
}

// NewEditorialServiceAdapter はEditorialServiceAdapterを生成する。
func NewEditorialServiceAdapter(svc *editorial.Service) *EditorialServiceAdapter {
	return &EditorialServiceAdapter{svc: svc}
}

// Available はデータストアが設定されているかを返す。
func (a *EditorialServiceAdapter) Available() bool {
	return a.svc.Available()
}

// List は記事の編集コメントと未解決件数を返す。
func (a *EditorialServiceAdapter) List(ctx context.Context, articleID string, includeResolved bool) ([]*model.EditorialComment, int, error) {
	comments, err := a.svc.List(ctx, articleID, includeResolved)
	if err != nil {
		return nil, 0, err
	}
	unresolved, err := a.svc.CountUnresolved(ctx, articleID)
	if err != nil {
		return nil, 0, err
	}
	return comments, unresolved, nil
}

// Add は編集コメントを追加する。
func (a *EditorialServiceAdapter) Add(ctx context.Context, caller model.Caller, articleID, body string) (*model.EditorialComment, error) {
	return a.svc.Add(ctx, caller, articleID, body)
}

// Resolve は編集コメントを解決済みにする。
func (a *EditorialServiceAdapter) Resolve(ctx context.Context, caller model.Caller, articleID, commentID string) (*model.EditorialComment, error) {
	return a.svc.Resolve(ctx, caller, articleID, commentID)
}

// Delete は編集コメントを削除する。
func (a *EditorialServiceAdapter) Delete(ctx context.Context, caller model.Caller, articleID, commentID string) (bool, error) {
	return a.svc.Delete(ctx, caller, articleID, commentID)
}
