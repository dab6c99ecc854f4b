package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
	"github.com/ngucho/scoop-afrique-sub001/internal/revision"
)

// RevisionServiceInterface はリビジョンハンドラーが必要とするサービスインターフェース。
type RevisionServiceInterface interface {
	Available() bool
	List(ctx context.Context, articleID string, page, limit int) (*model.RevisionPage, error)
	Get(ctx context.Context, articleID string, version int) (*model.ArticleRevision, error)
	Save(ctx context.Context, caller model.Caller, articleID string, draft revision.Draft) (*model.ArticleRevision, error)
	Restore(ctx context.Context, caller model.Caller, articleID string, version int) (*model.ArticleRevision, error)
}

// RevisionHandler はリビジョン履歴と手動保存のHTTPハンドラー。
type RevisionHandler struct {
	service RevisionServiceInterface
}

// NewRevisionHandler はRevisionHandlerを生成する。
func NewRevisionHandler(service RevisionServiceInterface) *RevisionHandler {
	return &RevisionHandler{service: service}
}

// revisionResponse はリビジョンのAPIレスポンス。
type revisionResponse struct {
	ID        string    `json:"id"`
	ArticleID string    `json:"article_id"`
	Version   int       `json:"version"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// revisionListResponse はリビジョン一覧のAPIレスポンス。
type revisionListResponse struct {
	Items []revisionResponse `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// saveRevisionRequest は手動保存リクエストのボディ。
type saveRevisionRequest struct {
	Title   string `json:"title" validate:"required,max=500"`
	Excerpt string `json:"excerpt" validate:"max=2000"`
	Content string `json:"content"`
}

func toRevisionResponse(rev *model.ArticleRevision) revisionResponse {
	return revisionResponse{
		ID:        rev.ID,
		ArticleID: rev.ArticleID,
		Version:   rev.Version,
		Title:     rev.Title,
		Excerpt:   rev.Excerpt,
		Content:   rev.Content,
		CreatedBy: rev.CreatedBy,
		CreatedAt: rev.CreatedAt,
	}
}

// List は記事のリビジョンを新しい順にページ単位で返す。
// GET /articles/{articleId}/revisions?page=&limit=
func (h *RevisionHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFrom(w, r); !ok {
		return
	}

	q := r.URL.Query()
	page := parsePositiveInt(q.Get("page"), 1)
	limit := parsePositiveInt(q.Get("limit"), revision.DefaultPageSize)

	result, err := h.service.List(r.Context(), chi.URLParam(r, "articleId"), page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := revisionListResponse{
		Items: make([]revisionResponse, 0, len(result.Items)),
		Total: result.Total,
		Page:  result.Page,
		Limit: result.Limit,
	}
	for _, rev := range result.Items {
		resp.Items = append(resp.Items, toRevisionResponse(rev))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get は指定バージョンのリビジョンを返す。
// GET /articles/{articleId}/revisions/{version}
func (h *RevisionHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFrom(w, r); !ok {
		return
	}
	version, ok := versionParam(w, r)
	if !ok {
		return
	}

	rev, err := h.service.Get(r.Context(), chi.URLParam(r, "articleId"), version)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if rev == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRevisionNotFoundError(version))
		return
	}
	writeJSON(w, http.StatusOK, toRevisionResponse(rev))
}

// Save は記事を手動保存し、新しいリビジョンを返す。
// POST /articles/{articleId}/revisions
func (h *RevisionHandler) Save(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req saveRevisionRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !h.service.Available() {
		writeStoreUnavailable(w)
		return
	}

	rev, err := h.service.Save(r.Context(), caller, chi.URLParam(r, "articleId"), revision.Draft{
		Title:   req.Title,
		Excerpt: req.Excerpt,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if rev == nil {
		writeStoreUnavailable(w)
		return
	}
	writeJSON(w, http.StatusCreated, toRevisionResponse(rev))
}

// Restore は指定バージョンの内容を新しいリビジョンとして復元する。
// POST /articles/{articleId}/revisions/{version}/restore
func (h *RevisionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	version, ok := versionParam(w, r)
	if !ok {
		return
	}
	if !h.service.Available() {
		writeStoreUnavailable(w)
		return
	}

	rev, err := h.service.Restore(r.Context(), caller, chi.URLParam(r, "articleId"), version)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if rev == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewRevisionNotFoundError(version))
		return
	}
	writeJSON(w, http.StatusOK, toRevisionResponse(rev))
}

// versionParam はパスパラメータのバージョン番号を解釈する。
// 正の整数でない場合は400を書き込んでfalseを返す。
func versionParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version < 1 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError([]model.FieldError{
			{Field: "version", Reason: "min=1"},
		}))
		return 0, false
	}
	return version, true
}
