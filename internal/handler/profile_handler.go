package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// ProfileServiceInterface はプロフィール管理ハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	Available() bool
	ChangeRole(ctx context.Context, actor model.Caller, userID, role string) (*model.Profile, error)
}

// ProfileHandler はスタッフプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// profileResponse はプロフィールのAPIレスポンス。
type profileResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// changeRoleRequest はロール変更リクエストのボディ。
type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=journalist editor manager admin"`
}

// ChangeRole はスタッフのロールを変更する。adminのみ実行できる。
// PUT /admin/profiles/{userId}/role
func (h *ProfileHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if caller.Role != model.RoleAdmin {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewRoleForbiddenError())
		return
	}

	var req changeRoleRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !h.service.Available() {
		writeStoreUnavailable(w)
		return
	}

	p, err := h.service.ChangeRole(r.Context(), caller, chi.URLParam(r, "userId"), req.Role)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if p == nil {
		writeStoreUnavailable(w)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		Role:        string(p.Role),
		UpdatedAt:   p.UpdatedAt,
	})
}
