package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// CollaboratorServiceInterface は共同編集者ハンドラーが必要とするサービスインターフェース。
type CollaboratorServiceInterface interface {
	Available() bool
	ListCollaborators(ctx context.Context, articleID string) ([]*model.Collaborator, error)
	AddCollaborator(ctx context.Context, caller model.Caller, articleID, email string, role model.CollaboratorRole) (*model.Collaborator, error)
	RemoveCollaborator(ctx context.Context, caller model.Caller, articleID, userID string) (bool, error)
}

// CollaboratorHandler は共同編集者名簿のHTTPハンドラー。
type CollaboratorHandler struct {
	service CollaboratorServiceInterface
}

// NewCollaboratorHandler はCollaboratorHandlerを生成する。
func NewCollaboratorHandler(service CollaboratorServiceInterface) *CollaboratorHandler {
	return &CollaboratorHandler{service: service}
}

// collaboratorResponse は共同編集者のAPIレスポンス。
type collaboratorResponse struct {
	ID          string    `json:"id"`
	ArticleID   string    `json:"article_id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	AddedBy     string    `json:"added_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// addCollaboratorRequest は共同編集者追加リクエストのボディ。roleを省略した場合はcontributor。
type addCollaboratorRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=contributor co_author"`
}

func toCollaboratorResponse(c *model.Collaborator) collaboratorResponse {
	return collaboratorResponse{
		ID:          c.ID,
		ArticleID:   c.ArticleID,
		UserID:      c.UserID,
		Email:       c.Email,
		DisplayName: c.DisplayName,
		Role:        string(c.Role),
		AddedBy:     c.AddedBy,
		CreatedAt:   c.CreatedAt,
	}
}

// List は記事の共同編集者一覧を返す。
// GET /articles/{articleId}/collaborators
func (h *CollaboratorHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFrom(w, r); !ok {
		return
	}

	list, err := h.service.ListCollaborators(r.Context(), chi.URLParam(r, "articleId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]collaboratorResponse, 0, len(list))
	for _, c := range list {
		resp = append(resp, toCollaboratorResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Add はメールアドレスで指定したスタッフを共同編集者として追加する。
// POST /articles/{articleId}/collaborators
func (h *CollaboratorHandler) Add(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	var req addCollaboratorRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !h.service.Available() {
		writeStoreUnavailable(w)
		return
	}

	c, err := h.service.AddCollaborator(r.Context(), caller, chi.URLParam(r, "articleId"), req.Email, model.CollaboratorRole(req.Role))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if c == nil {
		writeStoreUnavailable(w)
		return
	}
	writeJSON(w, http.StatusCreated, toCollaboratorResponse(c))
}

// Remove は共同編集者を削除する。自分自身は編集権限が無くても削除できる。
// DELETE /articles/{articleId}/collaborators/{userId}
func (h *CollaboratorHandler) Remove(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if !h.service.Available() {
		writeStoreUnavailable(w)
		return
	}

	userID := chi.URLParam(r, "userId")
	removed, err := h.service.RemoveCollaborator(r.Context(), caller, chi.URLParam(r, "articleId"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !removed {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewCollaboratorNotFoundError(userID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
