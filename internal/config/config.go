// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Environment
	AppEnv   string
	LogLevel string

	// Backend
	BackendURL     string
	BackendTimeout time.Duration // 0の場合はトランスポートの既定値

	// Database
	DatabaseURL string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// Session Guard
	GuardPaths              []string
	GuardLoginRequiredPaths []string
	TokenRefreshBuffer      time.Duration

	// Rate Limit（req/min/IP）
	RateLimitGeneral int
	RateLimitAuth    int

	// Object Storage
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	UploadMaxSize     int64
	UploadURLTTL      time.Duration
	ViewURLTTL        time.Duration
}

// IsProduction は本番環境で動作しているかを返す。
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合は、未設定のものをまとめてエラーとして返す。
func Load() (*Config, error) {
	k := koanf.New(".")
	// BACKEND_URL → backend_url のように小文字のフラットなキーにする
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}

	// Required fields
	var missing []string
	required := func(key string) string {
		v := k.String(key)
		if v == "" {
			missing = append(missing, strings.ToUpper(key))
		}
		return v
	}

	cfg.BackendURL = required("backend_url")
	cfg.DatabaseURL = required("database_url")
	cfg.BaseURL = required("base_url")

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.AppEnv = getString(k, "app_env", "development")
	cfg.LogLevel = getString(k, "log_level", "info")
	cfg.BackendTimeout = getDuration(k, "backend_timeout", 0)
	cfg.ServerPort = getString(k, "server_port", "8080")
	cfg.CookieSecure = cfg.IsProduction()
	cfg.CookieDomain = getString(k, "cookie_domain", "")
	cfg.GuardPaths = getList(k, "guard_paths", []string{"/login", "/articles/*", "/manage/*"})
	cfg.GuardLoginRequiredPaths = getList(k, "guard_login_required_paths", []string{"/articles/create", "/manage/*"})
	cfg.TokenRefreshBuffer = getDuration(k, "token_refresh_buffer", 0)
	cfg.RateLimitGeneral = getInt(k, "rate_limit_general", 300)
	cfg.RateLimitAuth = getInt(k, "rate_limit_auth", 10)
	cfg.S3Bucket = getString(k, "s3_bucket", "")
	cfg.S3Region = getString(k, "s3_region", "us-east-1")
	cfg.S3Endpoint = getString(k, "s3_endpoint", "")
	cfg.S3AccessKeyID = getString(k, "s3_access_key_id", "")
	cfg.S3SecretAccessKey = getString(k, "s3_secret_access_key", "")
	cfg.UploadMaxSize = getInt64(k, "upload_max_size", 5*1024*1024)
	cfg.UploadURLTTL = getDuration(k, "upload_url_ttl", 15*time.Minute)
	cfg.ViewURLTTL = getDuration(k, "view_url_ttl", time.Hour)

	return cfg, nil
}

func getString(k *koanf.Koanf, key, defaultVal string) string {
	if v := k.String(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(k *koanf.Koanf, key string, defaultVal int) int {
	i, err := strconv.Atoi(k.String(key))
	if err != nil {
		return defaultVal
	}
	return i
}

func getInt64(k *koanf.Koanf, key string, defaultVal int64) int64 {
	i, err := strconv.ParseInt(k.String(key), 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getDuration(k *koanf.Koanf, key string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(k.String(key))
	if err != nil {
		return defaultVal
	}
	return d
}

// getList はカンマ区切りの値を空要素を除いて分割する。
func getList(k *koanf.Koanf, key string, defaultVal []string) []string {
	var out []string
	for _, s := range strings.Split(k.String(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
