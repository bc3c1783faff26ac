package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/articlehub/internal/auth"
	"github.com/hitoshi/articlehub/internal/backend"
	"github.com/hitoshi/articlehub/internal/form"
	"github.com/hitoshi/articlehub/internal/middleware"
	"github.com/hitoshi/articlehub/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
// auth.Serviceが実装する。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*model.TokenPair, error)
	Register(ctx context.Context, username, email, password string) error
	CurrentUser(ctx context.Context, accessToken string) (*model.CurrentUser, error)
}

// AuthHandler はログイン・ユーザー登録・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	validator *form.Validator
	cookies   auth.CookieConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, validator *form.Validator, cookies auth.CookieConfig) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: validator,
		cookies:   cookies,
	}
}

// LoginPage はログインページの初期状態を返す。
// GET /login?redirectTo=/path
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"redirectTo": r.URL.Query().Get("redirectTo"),
	})
}

// Login はメールアドレスとパスワードでログインし、セッションCookieを設定する。
// POST /login
// 成功時はredirectTo（同一オリジンのパスのみ）、なければ "/" へ303で遷移する。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	input := form.Login{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	data := form.Values(r, "email", "redirectTo")

	errs, err := h.validator.Check(input, form.LoginMessages)
	if err != nil {
		slog.Error("login validation failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if errs != nil {
		writeFormState(w, http.StatusUnprocessableEntity, data, errs, "Missing Fields. Failed to Login.")
		return
	}

	pair, err := h.service.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeFormState(w, http.StatusUnauthorized, data, nil, "Invalid email or password. Please try again.")
			return
		}
		handleBackendError(w, err, nil)
		return
	}

	auth.SetSessionCookies(w, *pair, h.cookies)
	seeOther(w, r, localRedirect(r.PostFormValue("redirectTo")))
}

// RegisterPage はユーザー登録ページの初期状態を返す。
// GET /register
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	writeFormState(w, http.StatusOK, nil, nil, "")
}

// Register はユーザーを登録し、ログインページへ303で遷移する。
// POST /register
// バックエンドのバリデーションエラー（422のdetails）はフィールドエラーとして返す。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !parseForm(w, r) {
		return
	}

	input := form.Register{
		Username: r.PostFormValue("username"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	data := form.Values(r, "username", "email")

	errs, err := h.validator.Check(input, form.RegisterMessages)
	if err != nil {
		slog.Error("register validation failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if errs != nil {
		writeFormState(w, http.StatusUnprocessableEntity, data, errs, "Missing Fields. Failed to Register.")
		return
	}

	if err := h.service.Register(r.Context(), input.Username, input.Email, input.Password); err != nil {
		var respErr *backend.ResponseError
		if errors.As(err, &respErr) {
			var fields map[string][]string
			if respErr.StatusCode == http.StatusUnprocessableEntity {
				fields = respErr.FieldErrors()
			}
			writeFormState(w, http.StatusUnprocessableEntity, data, fields, "Registration failed. Please try again.")
			return
		}
		handleBackendError(w, err, nil)
		return
	}

	seeOther(w, r, "/login")
}

// Logout は両方のセッションCookieを削除し、ログインページへ303で遷移する。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookies(w, h.cookies)
	seeOther(w, r, "/login")
}

// Me はログイン中のユーザー情報を返す。
// GET /api/me
// アクセストークンがない場合、またはバックエンドが拒否した場合は401を返す。
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := accessToken(r)
	if token == "" {
		handleBackendError(w, &backend.ResponseError{Operation: "current_user", StatusCode: http.StatusUnauthorized}, nil)
		return
	}

	user, err := h.service.CurrentUser(r.Context(), token)
	if err != nil {
		handleBackendError(w, err, nil)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}
