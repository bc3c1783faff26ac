package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/articlehub/internal/auth"
	"github.com/hitoshi/articlehub/internal/form"
	"github.com/hitoshi/articlehub/internal/middleware"
	"github.com/hitoshi/articlehub/internal/repository"
	"github.com/hitoshi/articlehub/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	Guard       *middleware.SessionGuard
	RateLimiter *middleware.RateLimiter
	CSRF        middleware.CSRFConfig
	HSTS        bool

	// 認証
	AuthService AuthServiceInterface
	Cookies     auth.CookieConfig

	// 記事（バックエンドAPI）
	Backend   ArticleBackend
	Manage    ManageBackend
	Sanitizer security.ArticleSanitizer

	// 学習用ダッシュボード（PostgreSQL）
	Customers     repository.CustomerRepository
	Invoices      repository.InvoiceRepository
	Storage       ObjectStorage
	MaxUploadSize int64

	// 運用
	DB             Pinger
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Recovery → Logging → SecurityHeaders → RateLimit(General)
//	  → CSRF → SessionGuard（ページ・フォームアクションのみ）
//
// /health と /metrics はCSRFとセッションガードの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	if deps.RateLimiter != nil {
		r.Use(deps.RateLimiter.GeneralMiddleware())
	}

	validator := form.NewValidator()
	authHandler := NewAuthHandler(deps.AuthService, validator, deps.Cookies)
	articleHandler := NewArticleHandler(deps.Backend, deps.Sanitizer, validator)
	manageHandler := NewManageHandler(deps.Manage, validator)
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.Customers, validator)
	customerHandler := NewCustomerHandler(deps.Customers, deps.Storage, validator, deps.MaxUploadSize)
	healthHandler := NewHealthHandler(deps.DB)

	// --- 運用エンドポイント ---
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- ページ・フォームアクション ---
	// ミドルウェアスタック: CSRF → SessionGuard
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))
		if deps.Guard != nil {
			r.Use(deps.Guard.Middleware())
		}

		r.Method(http.MethodGet, "/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))

		// 認証（ログイン・登録は認証用レート制限を追加）
		authLimit := passThrough
		if deps.RateLimiter != nil {
			authLimit = deps.RateLimiter.AuthMiddleware()
		}
		r.Get("/login", authHandler.LoginPage)
		r.With(authLimit).Post("/login", authHandler.Login)
		r.Get("/register", authHandler.RegisterPage)
		r.With(authLimit).Post("/register", authHandler.Register)
		r.Post("/logout", authHandler.Logout)
		r.Get("/api/me", authHandler.Me)

		// 記事
		r.Get("/tags", articleHandler.Tags)
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", articleHandler.List)
			r.Get("/create", articleHandler.CreatePage)
			r.Post("/create", articleHandler.Create)

			r.Route("/{slug}", func(r chi.Router) {
				r.Get("/", articleHandler.Get)
				r.Get("/edit", articleHandler.EditPage)
				r.Post("/edit", articleHandler.Update)
				r.Get("/video-edit", articleHandler.VideoEditPage)
				r.Post("/video-edit", articleHandler.VideoUpdate)
				r.Post("/favorite", articleHandler.Favorite)
				r.Post("/unfavorite", articleHandler.Unfavorite)
			})
		})
		r.Post("/api/upload/presigned-url", articleHandler.UploadURL)

		// 記事管理
		r.Route("/manage/articles", func(r chi.Router) {
			r.Get("/", manageHandler.List)
			r.Post("/delete", manageHandler.Delete)
		})

		// 学習用ダッシュボード
		r.Route("/learning", func(r chi.Router) {
			r.Route("/dashboard/invoices", func(r chi.Router) {
				r.Get("/", invoiceHandler.List)
				r.Get("/create", invoiceHandler.CreatePage)
				r.Post("/create", invoiceHandler.Create)
				r.Post("/delete", invoiceHandler.Delete)
				r.Get("/{id}/edit", invoiceHandler.EditPage)
				r.Post("/{id}/edit", invoiceHandler.Update)
			})
			r.Route("/dashboard/customers", func(r chi.Router) {
				r.Get("/", customerHandler.List)
				r.Get("/create", customerHandler.CreatePage)
				r.Post("/create", customerHandler.Create)
				r.Post("/delete", customerHandler.Delete)
			})
			r.Get("/api/customers", customerHandler.APIList)
			r.Post("/api/upload/presigned-url", customerHandler.PresignUpload)
		})
	})

	return r
}

func passThrough(next http.Handler) http.Handler { return next }
