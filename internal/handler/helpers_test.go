package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ngucho/scoop-afrique-sub001/internal/middleware"
	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// withCaller はテスト用にリクエストコンテキストに呼び出し元を注入するヘルパー。
func withCaller(r *http.Request, userID string, role model.Role) *http.Request {
	ctx := middleware.ContextWithCaller(r.Context(), model.Caller{
		UserID:      userID,
		Email:       userID + "@newsroom.test",
		DisplayName: "Test " + userID,
		Role:        role,
	})
	return r.WithContext(ctx)
}

// withChiURLParams はテスト用にchiのURLパラメータを注入するヘルパー。keyとvalueを交互に渡す。
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var result middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// assertErrorCode はステータスコードとエラーコードを検証するヘルパー。
func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if w.Code != wantStatus {
		t.Errorf("status = %d, want %d", w.Code, wantStatus)
	}
	if got := parseAPIErrorResponse(t, w).Code; got != wantCode {
		t.Errorf("code = %q, want %q", got, wantCode)
	}
}

// allowAll は常に編集を許可するEditGuard。
type allowAll struct{}

func (allowAll) RequireEdit(ctx context.Context, caller model.Caller, articleID string) error {
	return nil
}

// denyAll は常に編集を拒否するEditGuard。
type denyAll struct{}

func (denyAll) RequireEdit(ctx context.Context, caller model.Caller, articleID string) error {
	return model.NewEditForbiddenError()
}

// missingArticle は常に記事が存在しないと答えるEditGuard。
type missingArticle struct{}

func (missingArticle) RequireEdit(ctx context.Context, caller model.Caller, articleID string) error {
	return model.NewArticleNotFoundError(articleID)
}
