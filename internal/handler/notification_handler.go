package handler

import (
	"context"
	"net/http"

	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// NotificationServiceInterface は通知ハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	ForAuthor(ctx context.Context, authorID string) (*model.NotificationSummary, error)
}

// NotificationHandler は未処理作業の通知集計のHTTPハンドラー。
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// articleNotificationResponse は記事ごとの未処理件数のAPIレスポンス。
type articleNotificationResponse struct {
	ArticleID string `json:"article_id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Count     int    `json:"count"`
}

// notificationResponse は通知集計のAPIレスポンス。
type notificationResponse struct {
	Editorial          []articleNotificationResponse `json:"editorial"`
	EditorialTotal     int                           `json:"editorial_total"`
	ReaderPending      []articleNotificationResponse `json:"reader_pending"`
	ReaderPendingTotal int                           `json:"reader_pending_total"`
}

func toArticleNotificationResponses(items []model.ArticleNotification) []articleNotificationResponse {
	resp := make([]articleNotificationResponse, 0, len(items))
	for _, n := range items {
		resp = append(resp, articleNotificationResponse{
			ArticleID: n.ArticleID,
			Title:     n.Title,
			Slug:      n.Slug,
			Count:     n.Count,
		})
	}
	return resp
}

// Get は呼び出し元が執筆した記事の未処理件数を返す。
// GET /notifications
func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(w, r)
	if !ok {
		return
	}

	summary, err := h.service.ForAuthor(r.Context(), caller.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, notificationResponse{
		Editorial:          toArticleNotificationResponses(summary.Editorial),
		EditorialTotal:     summary.EditorialTotal,
		ReaderPending:      toArticleNotificationResponses(summary.ReaderPending),
		ReaderPendingTotal: summary.ReaderPendingTotal,
	})
}
