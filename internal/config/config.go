package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	// 空の場合はデータストア未設定の縮退モードで起動する。
	DatabaseURL string
	// 接続プール。0以下はdatabaseパッケージのデフォルト値を使用する。
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	// Redis
	// 空の場合はプロセス内メモリのアイデンティティキャッシュを使用する。
	RedisURL string

	// Auth
	AuthJWTSecret string

	// Lock
	LockTTL           time.Duration
	LockSweepInterval time.Duration

	// Revision
	RevisionKeep        int
	RevisionPageSizeMax int

	// Identity cache
	IdentityCacheTTL time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitInvite  int

	// Editorial
	EditorialCommentMaxLength int

	// Server
	ServerPort string

	// Logging
	LogLevel string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// ENV_FILE（デフォルト ".env"）が存在する場合は先に読み込む。既に設定済みの環境変数は上書きしない。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	if err := loadEnvFile(getEnvString("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.AuthJWTSecret = os.Getenv("AUTH_JWT_SECRET")
	if cfg.AuthJWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 0)
	cfg.DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 0)
	cfg.DBConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 0)
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.LockTTL = getEnvDuration("LOCK_TTL", 5*time.Minute)
	cfg.LockSweepInterval = getEnvDuration("LOCK_SWEEP_INTERVAL", time.Minute)
	cfg.RevisionKeep = getEnvInt("REVISION_KEEP", 3)
	cfg.RevisionPageSizeMax = getEnvInt("REVISION_PAGE_SIZE_MAX", 50)
	cfg.IdentityCacheTTL = getEnvDuration("IDENTITY_CACHE_TTL", 60*time.Second)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitInvite = getEnvInt("RATE_LIMIT_INVITE", 10)
	cfg.EditorialCommentMaxLength = getEnvInt("EDITORIAL_COMMENT_MAX_LENGTH", 5000)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if cfg.RevisionKeep < 1 {
		return nil, fmt.Errorf("REVISION_KEEP must be at least 1: %d", cfg.RevisionKeep)
	}
	if cfg.LockTTL <= 0 {
		return nil, fmt.Errorf("LOCK_TTL must be positive: %v", cfg.LockTTL)
	}

	return cfg, nil
}

// HasDatabase はデータストアが設定されているかを返す。
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// loadEnvFile はファイルが存在する場合のみ環境変数として読み込む。
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
