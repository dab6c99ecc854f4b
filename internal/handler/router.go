package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ngucho/scoop-afrique-sub001/internal/metrics"
	"github.com/ngucho/scoop-afrique-sub001/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Metrics           metrics.MetricsCollector
	JWTSecret         []byte
	IdentityResolver  middleware.IdentityResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 公開エンドポイント
	DB             Pinger
	MetricsHandler http.Handler

	// 編集コア
	LockService         LockServiceInterface
	AccessChecker       EditGuard
	ArticleGuard        ArticleGuard
	RevisionService     RevisionServiceInterface
	CollaboratorService CollaboratorServiceInterface
	EditorialService    EditorialServiceInterface
	NotificationService NotificationServiceInterface
	ProfileService      ProfileServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Recovery → SecurityHeaders → CORS → Auth → RateLimit(General)
//
// /health と /metrics は認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	lockHandler := NewLockHandler(deps.LockService, deps.AccessChecker)
	revisionHandler := NewRevisionHandler(deps.RevisionService)
	collabHandler := NewCollaboratorHandler(deps.CollaboratorService)
	editorialHandler := NewEditorialHandler(deps.EditorialService)
	notificationHandler := NewNotificationHandler(deps.NotificationService)
	profileHandler := NewProfileHandler(deps.ProfileService)

	// --- 認証不要のルート ---
	r.Get("/health", NewHealthHandler(deps.DB))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.JWTSecret, deps.IdentityResolver))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/articles/{articleId}", func(r chi.Router) {
			r.Use(requireArticle(deps.ArticleGuard))

			// 編集ロック
			r.Route("/lock", func(r chi.Router) {
				r.Get("/", lockHandler.Status)
				r.Post("/", lockHandler.Acquire)
				r.Patch("/", lockHandler.Renew)
				r.Delete("/", lockHandler.Release)
			})

			// リビジョン履歴と手動保存
			r.Route("/revisions", func(r chi.Router) {
				r.Get("/", revisionHandler.List)
				r.Post("/", revisionHandler.Save)
				r.Get("/{version}", revisionHandler.Get)
				r.Post("/{version}/restore", revisionHandler.Restore)
			})

			// 共同編集者名簿
			r.Route("/collaborators", func(r chi.Router) {
				r.Get("/", collabHandler.List)
				// メールアドレスによる招待は専用のレート制限を追加
				r.With(deps.RateLimiter.InviteMiddleware()).Post("/", collabHandler.Add)
				r.Delete("/{userId}", collabHandler.Remove)
			})

			// 編集コメント
			r.Route("/editorial-comments", func(r chi.Router) {
				r.Get("/", editorialHandler.List)
				r.Post("/", editorialHandler.Add)
				r.Patch("/{commentId}", editorialHandler.Resolve)
				r.Delete("/{commentId}", editorialHandler.Delete)
			})
		})

		r.Get("/notifications", notificationHandler.Get)
		r.Put("/admin/profiles/{userId}/role", profileHandler.ChangeRole)
	})

	return r
}

// ArticleGuard は記事の存在を確認するインターフェース。
type ArticleGuard interface {
	RequireArticle(ctx context.Context, articleID string) error
}

// requireArticle は存在しない記事へのリクエストを404で打ち切るミドルウェアを返す。
// guardがnilの場合は何もしない。
func requireArticle(guard ArticleGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if guard == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := guard.RequireArticle(r.Context(), chi.URLParam(r, "articleId")); err != nil {
				handleServiceError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
