package auth

import (
	"net/http"

	"github.com/hitoshi/articlehub/internal/model"
)

const (
	// AccessTokenCookie はアクセストークンを保持するCookie名。
	AccessTokenCookie = "accessToken"
	// RefreshTokenCookie はリフレッシュトークンを保持するCookie名。
	RefreshTokenCookie = "refreshToken"

	// AccessTokenMaxAge はアクセストークンCookieの有効期間（秒）。7日。
	AccessTokenMaxAge = 7 * 24 * 60 * 60
	// RefreshTokenMaxAge はリフレッシュトークンCookieの有効期間（秒）。30日。
	RefreshTokenMaxAge = 30 * 24 * 60 * 60
)

// CookieConfig はセッションCookieの属性設定。
type CookieConfig struct {
	Secure bool   // APP_ENV=production の場合のみtrue
	Domain string // 空の場合はホスト限定Cookie
}

// SessionCookies はトークンの組から書き込むCookieを生成する。
// access → refresh の順で返す。
func SessionCookies(pair model.TokenPair, cfg CookieConfig) []*http.Cookie {
	return []*http.Cookie{
		newCookie(AccessTokenCookie, pair.AccessToken, AccessTokenMaxAge, cfg),
		newCookie(RefreshTokenCookie, pair.RefreshToken, RefreshTokenMaxAge, cfg),
	}
}

// ExpiredSessionCookies は両方のセッションCookieを削除するCookieを生成する。
func ExpiredSessionCookies(cfg CookieConfig) []*http.Cookie {
	return []*http.Cookie{
		newCookie(AccessTokenCookie, "", -1, cfg),
		newCookie(RefreshTokenCookie, "", -1, cfg),
	}
}

// SetSessionCookies は両方のセッションCookieをレスポンスに設定する。
func SetSessionCookies(w http.ResponseWriter, pair model.TokenPair, cfg CookieConfig) {
	for _, c := range SessionCookies(pair, cfg) {
		http.SetCookie(w, c)
	}
}

// ClearSessionCookies は両方のセッションCookieを削除する。
func ClearSessionCookies(w http.ResponseWriter, cfg CookieConfig) {
	for _, c := range ExpiredSessionCookies(cfg) {
		http.SetCookie(w, c)
	}
}

// ReadTokens はリクエストからアクセストークンとリフレッシュトークンを読み取る。
// 存在しない場合は空文字列を返す。
func ReadTokens(r *http.Request) (accessToken, refreshToken string) {
	if c, err := r.Cookie(AccessTokenCookie); err == nil {
		accessToken = c.Value
	}
	if c, err := r.Cookie(RefreshTokenCookie); err == nil {
		refreshToken = c.Value
	}
	return accessToken, refreshToken
}

func newCookie(name, value string, maxAge int, cfg CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
