// Package app はプロセスの起動・依存関係のワイヤリング・シャットダウンを行う。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/articlehub/internal/auth"
	"github.com/hitoshi/articlehub/internal/backend"
	"github.com/hitoshi/articlehub/internal/config"
	"github.com/hitoshi/articlehub/internal/database"
	"github.com/hitoshi/articlehub/internal/handler"
	"github.com/hitoshi/articlehub/internal/logger"
	"github.com/hitoshi/articlehub/internal/metrics"
	"github.com/hitoshi/articlehub/internal/middleware"
	"github.com/hitoshi/articlehub/internal/repository"
	"github.com/hitoshi/articlehub/internal/security"
	"github.com/hitoshi/articlehub/internal/storage"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. LOG_LEVELを反映する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
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
		slog.String("base_url", cfg.BaseURL),
		slog.String("app_env", cfg.AppEnv),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg, IsRollback(args))
	default:
		return runServe(cfg)
	}
}

// runServe はHTTPサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.Ping(context.Background(), db, 5*time.Second); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. 依存関係のワイヤリング
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := NewRouterDeps(context.Background(), cfg, db, reg)
	if err != nil {
		return err
	}
	defer deps.RateLimiter.Stop()

	router := handler.NewRouter(deps)

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// NewRouterDeps は設定から各コンポーネントを生成し、handler.RouterDepsを組み立てる。
// S3_BUCKETが未設定の場合はオブジェクトストレージなしで構成する。
// 返したRateLimiterは呼び出し側がStopすること。
func NewRouterDeps(ctx context.Context, cfg *config.Config, db *sql.DB, reg *prometheus.Registry) (*handler.RouterDeps, error) {
	log := slog.Default()
	collector := metrics.NewCollector(reg)

	// 1. バックエンドAPIクライアント
	backendClient := backend.NewClient(
		cfg.BackendURL,
		&http.Client{Timeout: cfg.BackendTimeout},
		log,
		collector,
	)

	// 2. 認証サービスとセッションガード
	cookies := auth.CookieConfig{
		Secure: cfg.CookieSecure,
		Domain: cfg.CookieDomain,
	}
	authService := auth.NewService(backendClient)

	guardCfg := middleware.DefaultGuardConfig()
	guardCfg.Patterns = cfg.GuardPaths
	guardCfg.LoginRequired = cfg.GuardLoginRequiredPaths
	guardCfg.RefreshBuffer = cfg.TokenRefreshBuffer
	guardCfg.Cookies = cookies
	guard := middleware.NewSessionGuard(authService, guardCfg,
		middleware.WithLogger(log),
		middleware.WithMetrics(collector),
	)

	// 3. リポジトリ
	customerRepo := repository.NewPostgresCustomerRepo(db)
	invoiceRepo := repository.NewPostgresInvoiceRepo(db)

	deps := &handler.RouterDeps{
		Logger:      log,
		Guard:       guard,
		RateLimiter: middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth)),
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		HSTS: cfg.IsProduction(),

		AuthService: authService,
		Cookies:     cookies,

		Backend:   backendClient,
		Manage:    backendClient,
		Sanitizer: security.NewContentSanitizer(),

		Customers:     customerRepo,
		Invoices:      invoiceRepo,
		MaxUploadSize: cfg.UploadMaxSize,

		DB:             db,
		MetricsHandler: metrics.Handler(reg),
	}

	// 4. オブジェクトストレージ（任意）
	if cfg.S3Bucket != "" {
		presigner, err := storage.NewPresigner(ctx, storage.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UploadTTL:       cfg.UploadURLTTL,
			ViewTTL:         cfg.ViewURLTTL,
		}, collector)
		if err != nil {
			deps.RateLimiter.Stop()
			return nil, fmt.Errorf("failed to initialize object storage: %w", err)
		}
		deps.Storage = presigner
	} else {
		slog.Warn("S3_BUCKET is not set; customer image uploads are disabled")
	}

	return deps, nil
}

// runMigrate はデータベースマイグレーションを実行する。
// rollbackがfalseの場合はすべての未適用マイグレーションを順番に適用し、
// trueの場合は1つ前のバージョンへ戻す。
func runMigrate(cfg *config.Config, rollback bool) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		slog.Bool("rollback", rollback),
	)

	if rollback {
		if err := database.RollbackMigration(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
		slog.Info("database migration rolled back successfully")
		return nil
	}

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
// 解析できないURLは全体を伏せる。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
