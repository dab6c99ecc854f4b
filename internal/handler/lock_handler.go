package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// LockServiceInterface はロックハンドラーが必要とするサービスインターフェース。
type LockServiceInterface interface {
	Available() bool
	Acquire(ctx context.Context, articleID, userID string) (*model.LockResult, error)
	Renew(ctx context.Context, articleID, userID string) (*model.ArticleLock, error)
	Release(ctx context.Context, articleID, userID string) (bool, error)
	Status(ctx context.Context, articleID string) (*model.ArticleLock, error)
}

// EditGuard は記事の存在と編集権限をまとめて確認するインターフェース。
// 記事が無ければARTICLE_NOT_FOUND、権限が無ければEDIT_FORBIDDENを返す。
type EditGuard interface {
	RequireEdit(ctx context.Context, caller model.Caller, articleID string) error
}

// LockHandler は記事ロックのHTTPハンドラー。
type LockHandler struct {
	service LockServiceInterface
	access  EditGuard
}

// NewLockHandler はLockHandlerを生成する。
func NewLockHandler(service LockServiceInterface, access EditGuard) *LockHandler {
	return &LockHandler{service: service, access: access}
}

// lockResponse はロック情報のAPIレスポンス。
type lockResponse struct {
	ArticleID     string    `json:"article_id"`
	LockedBy      string    `json:"locked_by"`
	LockedByName  string    `json:"locked_by_name"`
	LockedByEmail string    `json:"locked_by_email"`
	LockedAt      time.Time `json:"locked_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// acquireResponse はロック取得のAPIレスポンス。
type acquireResponse struct {
	Granted bool          `json:"granted"`
	Lock    *lockResponse `json:"lock"`
}

// lockStatusResponse はロック状態のAPIレスポンス。ロックが無い場合はlockがnull。
type lockStatusResponse struct {
	Lock *lockResponse `json:"lock"`
}

func toLockResponse(l *model.ArticleLock) *lockResponse {
	if l == nil {
		return nil
	}
	return &lockResponse{
		ArticleID:     l.ArticleID,
		LockedBy:      l.LockedBy,
		LockedByName:  l.HolderName,
		LockedByEmail: l.HolderEmail,
		LockedAt:      l.LockedAt,
		ExpiresAt:     l.ExpiresAt,
	}
}

// Acquire は記事のロックを取得する。
// POST /articles/{articleId}/lock
func (h *LockHandler) Acquire(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if !h.service.Available() {
		writeStoreUnavailable(w)
		return
	}

	articleID := chi.URLParam(r, "articleId")

	if err := h.access.RequireEdit(r.Context(), caller, articleID); err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.service.Acquire(r.Context(), articleID, caller.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Granted {
		status = http.StatusLocked
	}
	writeJSON(w, status, acquireResponse{Granted: result.Granted, Lock: toLockResponse(result.Lock)})
}

// Renew はロックの有効期限を延長する（ハートビート）。
// PATCH /articles/{articleId}/lock
func (h *LockHandler) Renew(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if !h.service.Available() {
		writeStoreUnavailable(w)
		return
	}

	lock, err := h.service.Renew(r.Context(), chi.URLParam(r, "articleId"), caller.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if lock == nil {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewNotLockHolderError())
		return
	}
	writeJSON(w, http.StatusOK, toLockResponse(lock))
}

// Release はロックを解放する。
// DELETE /articles/{articleId}/lock
func (h *LockHandler) Release(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}
	if !h.service.Available() {
		writeStoreUnavailable(w)
		return
	}

	released, err := h.service.Release(r.Context(), chi.URLParam(r, "articleId"), caller.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !released {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewNotLockHolderError())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status は記事の有効なロックを返す。
// GET /articles/{articleId}/lock
func (h *LockHandler) Status(w http.ResponseWriter, r *http.Request) {
	if _, ok := callerFrom(w, r); !ok {
		return
	}

	lock, err := h.service.Status(r.Context(), chi.URLParam(r, "articleId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lockStatusResponse{Lock: toLockResponse(lock)})
}
