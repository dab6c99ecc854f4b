package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// EditorialServiceInterface は編集コメントハンドラーが必要とするサービスインターフェース。
type EditorialServiceInterface interface {
	Available() bool
	List(ctx context.Context, articleID string, includeResolved bool) ([]*model.EditorialComment, int, error)
	Add(ctx context.Context, caller model.Caller, articleID, body string) (*model.EditorialComment, error)
	Resolve(ctx context.Context, caller model.Caller, articleID, commentID string) (*model.EditorialComment, error)
	Delete(ctx context.Context, caller model.Caller, articleID, commentID string) (bool, error)
}

// EditorialHandler は編集コメントのHTTPハンドラー。
type EditorialHandler struct {
	service EditorialServiceInterface
}

// NewEditorialHandler はEditorialHandlerを生成する。
func NewEditorialHandler(service EditorialServiceInterface) *EditorialHandler {
	return &EditorialHandler{service: service}
}

// editorialCommentResponse は編集コメントのAPIレスポンス。
type editorialCommentResponse struct {
	ID         string    `json:"id"`
	ArticleID  string    `json:"article_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	Resolved   bool      `json:"resolved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// editorialListResponse は編集コメント一覧のAPIレスポンス。
type editorialListResponse struct {
	Comments        []editorialCommentResponse `json:"comments"`
	UnresolvedCount int                        `json:"unresolved_count"`
}

// addEditorialCommentRequest は編集コメント追加リクエストのボディ。
// 長さの検証はサニタイズ後にサービス層で行う。
type addEditorialCommentRequest struct {
	Body string `json:"body" validate:"required"`
}

func toEditorialCommentResponse(c *model.EditorialComment) editorialCommentResponse {
	return editorialCommentResponse{
		ID:         c.ID,
		ArticleID:  c.ArticleID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		Body:       c.Body,
		Resolved:   c.Resolved,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// List は記事の編集コメントと未解決件数を返す。
// GET /articles/{articleId}/editorial-comments?include_resolved=
func (h *EditorialHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFrom(w, r); !ok {
		return
	}

	includeResolved, _ := strconv.ParseBool(r.URL.Query().Get("include_resolved"))

	comments, unresolved, err := h.service.List(r.Context(), chi.URLParam(r, "articleId"), includeResolved)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := editorialListResponse{
		Comments:        make([]editorialCommentResponse, 0, len(comments)),
		UnresolvedCount: unresolved,
	}
	for _, c := range comments {
		resp.Comments = append(resp.Comments, toEditorialCommentResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Add は編集コメントを追加する。
// POST /articles/{articleId}/editorial-comments
func (h *EditorialHandler) Add(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req addEditorialCommentRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	c, err := h.service.Add(r.Context(), caller, chi.URLParam(r, "articleId"), req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if c == nil {
		writeStoreUnavailable(w)
		return
	}
	writeJSON(w, http.StatusCreated, toEditorialCommentResponse(c))
}

// Resolve は編集コメントを解決済みにする。
// PATCH /articles/{articleId}/editorial-comments/{commentId}
func (h *EditorialHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if !h.service.Available() {
		writeStoreUnavailable(w)
		return
	}

	commentID := chi.URLParam(r, "commentId")
	c, err := h.service.Resolve(r.Context(), caller, chi.URLParam(r, "articleId"), commentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if c == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewEditorialCommentNotFoundError(commentID))
		return
	}
	writeJSON(w, http.StatusOK, toEditorialCommentResponse(c))
}

// Delete は編集コメントを削除する。
// DELETE /articles/{articleId}/editorial-comments/{commentId}
func (h *EditorialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if !h.service.Available() {
		writeStoreUnavailable(w)
		return
	}

	commentID := chi.URLParam(r, "commentId")
	deleted, err := h.service.Delete(r.Context(), caller, chi.URLParam(r, "articleId"), commentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !deleted {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewEditorialCommentNotFoundError(commentID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
