// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ngucho/scoop-afrique-sub001/internal/identity"
	"github.com/ngucho/scoop-afrique-sub001/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// callerContextKey はリクエストコンテキストに呼び出し元を格納するためのキー。
var callerContextKey = contextKey("caller")

// IdentityResolver はトークンのクレームから呼び出し元を解決するインターフェース。
type IdentityResolver interface {
	Resolve(ctx context.Context, claims identity.Claims) (*model.Caller, error)
}

// accessClaims は上流の認証基盤が発行するアクセストークンのクレーム。
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークン（HS256）を検証し、
// 呼び出し元をリクエストコンテキストに注入するミドルウェアを返す。
// トークンが無いか不正な場合は401、スタッフロールでない場合は403を返す。
func NewAuthMiddleware(secret []byte, resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, newUnauthorizedError())
				return
			}

			claims := &accessClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, newUnauthorizedError())
				return
			}

			caller, err := resolver.Resolve(r.Context(), identity.Claims{
				Subject: claims.Subject,
				Email:   claims.Email,
				Role:    model.Role(claims.Role),
			})
			if err != nil {
				slog.Error("呼び出し元の解決に失敗しました",
					slog.String("user_id", claims.Subject),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}
			if caller == nil || !caller.Role.IsStaff() {
				WriteErrorResponse(w, http.StatusForbidden, model.NewRoleForbiddenError())
				return
			}

			setRequestUserID(r.Context(), caller.UserID)
			ctx := ContextWithCaller(r.Context(), *caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header || token == "" {
		return "", false
	}
	return token, true
}

func newUnauthorizedError() *model.APIError {
	return &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// CallerFromContext はリクエストコンテキストから呼び出し元を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func CallerFromContext(ctx context.Context) (model.Caller, error) {
	caller, ok := ctx.Value(callerContextKey).(model.Caller)
	if !ok || caller.UserID == "" {
		return model.Caller{}, errors.New("caller not found in context")
	}
	return caller, nil
}

// UserIDFromContext はリクエストコンテキストから呼び出し元のユーザーIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	caller, err := CallerFromContext(ctx)
	if err != nil {
		return "", err
	}
	return caller.UserID, nil
}

// ContextWithCaller はコンテキストに呼び出し元を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithCaller(ctx context.Context, caller model.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}
