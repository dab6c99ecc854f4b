package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/ngucho/scoop-afrique-sub001/internal/access"
	"github.com/ngucho/scoop-afrique-sub001/internal/config"
	"github.com/ngucho/scoop-afrique-sub001/internal/database"
	"github.com/ngucho/scoop-afrique-sub001/internal/editorial"
	"github.com/ngucho/scoop-afrique-sub001/internal/handler"
	"github.com/ngucho/scoop-afrique-sub001/internal/identity"
	"github.com/ngucho/scoop-afrique-sub001/internal/lock"
	"github.com/ngucho/scoop-afrique-sub001/internal/logger"
	"github.com/ngucho/scoop-afrique-sub001/internal/metrics"
	"github.com/ngucho/scoop-afrique-sub001/internal/middleware"
	"github.com/ngucho/scoop-afrique-sub001/internal/notification"
	"github.com/ngucho/scoop-afrique-sub001/internal/repository"
	"github.com/ngucho/scoop-afrique-sub001/internal/revision"
	"github.com/ngucho/scoop-afrique-sub001/internal/security"
	"github.com/ngucho/scoop-afrique-sub001/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから環境変数からConfigを読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// .envでLOG_LEVELが指定された場合に反映する
	logger.SetupDefault(w, cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// SIGINTまたはSIGTERMを受信するとコンテキストをキャンセルする。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, w, args)
}

// RunContext はサブコマンドを解析し、対応するモードでctxが終了するまで実行する。
func RunContext(ctx context.Context, w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.Bool("database_configured", cfg.HasDatabase()),
	)

	if cmd.RequiresDatabase() && !cfg.HasDatabase() {
		return fmt.Errorf("%s requires DATABASE_URL", cmd)
	}

	switch cmd {
	case CommandWorker:
		return runWorker(ctx, cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// stores はリポジトリ群を保持する。
// データストア未設定の場合は全フィールドがnilのインターフェースのまま残る。
type stores struct {
	db            *sql.DB
	pinger        handler.Pinger
	profiles      repository.ProfileRepository
	articles      repository.ArticleRepository
	locks         repository.LockRepository
	revisions     repository.RevisionRepository
	collaborators repository.CollaboratorRepository
	comments      repository.EditorialCommentRepository
	readers       repository.ReaderCommentRepository
}

// openStores はDATABASE_URLが設定されていればDB接続を開いてリポジトリを構築する。
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	st := &stores{}
	if !cfg.HasDatabase() {
		slog.Warn("DATABASE_URL is not set; running in degraded mode")
		return st, nil
	}

	db, err := database.Open(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")

	st.db = db
	st.pinger = db
	st.profiles = repository.NewPostgresProfileRepo(db)
	st.articles = repository.NewPostgresArticleRepo(db)
	st.locks = repository.NewPostgresLockRepo(db)
	st.revisions = repository.NewPostgresRevisionRepo(db)
	st.collaborators = repository.NewPostgresCollaboratorRepo(db)
	st.comments = repository.NewPostgresEditorialCommentRepo(db)
	st.readers = repository.NewPostgresReaderCommentRepo(db)
	return st, nil
}

func (s *stores) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// newIdentityCache はREDIS_URLが設定されていればRedisキャッシュを、そうでなければメモリキャッシュを返す。
// Redisに接続できない場合はメモリキャッシュで続行する。
func newIdentityCache(ctx context.Context, cfg *config.Config) (identity.Cache, func()) {
	if cfg.RedisURL == "" {
		return identity.NewMemoryCache(cfg.IdentityCacheTTL, nil), func() {}
	}

	rc, err := identity.NewRedisCache(cfg.RedisURL, cfg.IdentityCacheTTL)
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err = rc.Ping(pingCtx)
		cancel()
		if err != nil {
			rc.Close()
		}
	}
	if err != nil {
		slog.Warn("redis identity cache unavailable; falling back to in-memory cache",
			slog.String("error", err.Error()),
		)
		return identity.NewMemoryCache(cfg.IdentityCacheTTL, nil), func() {}
	}

	slog.Info("redis identity cache enabled")
	return rc, func() { rc.Close() }
}

// server はserveモードで組み立てた依存関係。
type server struct {
	router      http.Handler
	rateLimiter *middleware.RateLimiter
	sweeper     *cleanup.LockSweepJob
}

// buildServer はリポジトリ群からサービス、ハンドラー、ルーターを組み立てる。
func buildServer(cfg *config.Config, st *stores, cache identity.Cache, reg *prometheus.Registry) *server {
	collector := metrics.NewCollector(reg)

	// 1. ドメインサービスの初期化
	policy := access.DefaultPolicy(st.articles, st.collaborators)
	accessService := access.NewService(policy, st.articles, st.collaborators, st.profiles)

	lockManager := lock.NewManager(st.locks, cfg.LockTTL, lock.WithMetrics(collector))

	revisionStore := revision.NewStore(st.revisions, st.articles, cfg.RevisionKeep,
		revision.WithMetrics(collector),
		revision.WithPageSizeMax(cfg.RevisionPageSizeMax),
	)
	editor := revision.NewEditor(revisionStore, st.articles, accessService, lockManager)

	editorialService := editorial.NewService(st.comments, accessService,
		security.NewContentSanitizer(), cfg.EditorialCommentMaxLength)

	aggregator := notification.NewAggregator(st.articles, st.comments, st.readers)
	resolver := identity.NewResolver(st.profiles, cache)

	// 2. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitInvite),
	)

	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		Metrics:           collector,
		JWTSecret:         []byte(cfg.AuthJWTSecret),
		IdentityResolver:  resolver,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		DB:             st.pinger,
		MetricsHandler: metrics.SetupMetricsRoute(reg),

		LockService:         lockManager,
		AccessChecker:       accessService,
		ArticleGuard:        accessService,
		RevisionService:     handler.NewRevisionServiceAdapter(editor),
		CollaboratorService: accessService,
		EditorialService:    handler.NewEditorialServiceAdapter(editorialService),
		NotificationService: aggregator,
		ProfileService:      resolver,
	}

	return &server{
		router:      handler.NewRouter(deps),
		rateLimiter: rateLimiter,
		sweeper:     cleanup.NewLockSweepJob(lockManager, slog.Default(), cfg.LockSweepInterval),
	}
}

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	cache, closeCache := newIdentityCache(ctx, cfg)
	defer closeCache()

	srv := buildServer(cfg, st, cache, prometheus.NewRegistry())
	defer srv.rateLimiter.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("API server starting", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	})

	// ワーカーを別に起動しない構成でもロック行が溜まらないようにする
	if cfg.HasDatabase() {
		g.Go(func() error {
			srv.sweeper.Start(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down API server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動し、失効ロックの掃除ジョブを実行する。
// ctxがキャンセルされるまでブロックする。
func runWorker(ctx context.Context, cfg *config.Config) error {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	collector := metrics.NewCollector(prometheus.NewRegistry())
	lockManager := lock.NewManager(st.locks, cfg.LockTTL, lock.WithMetrics(collector))
	job := cleanup.NewLockSweepJob(lockManager, slog.Default(), cfg.LockSweepInterval)

	slog.Info("worker starting", slog.Duration("lock_sweep_interval", job.Interval()))

	job.Start(ctx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("schema_version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
