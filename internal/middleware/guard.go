// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/articlehub/internal/auth"
	"github.com/hitoshi/articlehub/internal/token"
)

// Decision はセッションガードの判定結果の種類。
type Decision int

const (
	// DecisionPass はリクエストをそのまま通過させる。
	DecisionPass Decision = iota
	// DecisionRedirect はログインページなどへリダイレクトする。
	DecisionRedirect
	// DecisionRotate はトークンの組を更新してからリクエストを通過させる。
	DecisionRotate
)

// String はメトリクスのラベル値として使う名前を返す。
func (d Decision) String() string {
	switch d {
	case DecisionRedirect:
		return "redirect"
	case DecisionRotate:
		return "rotate"
	default:
		return "pass"
	}
}

// Outcome は1リクエストに対するセッションガードの判定。
// Decisionは必ず1つだけ選ばれる。
type Outcome struct {
	Decision Decision
	Location string         // DecisionRedirectの場合のリダイレクト先
	Cookies  []*http.Cookie // レスポンスに書き込むCookie
}

// GuardRecorder はセッションガードの判定結果を記録するインターフェース。
// metrics.Collectorが実装する。
type GuardRecorder interface {
	RecordGuardDecision(decision string)
	RecordTokenRefresh(duration time.Duration, success bool)
}

// GuardConfig はセッションガードの設定。
type GuardConfig struct {
	// Patterns はガードを適用するパスのパターン。
	// "/*" で終わるパターンはベースパスとその配下すべてに一致し、それ以外は完全一致。
	Patterns []string
	// LoginRequired はアクセストークンがない場合にログインを要求するパスのパターン。
	LoginRequired []string
	LoginPath     string
	LandingPath   string
	// RefreshBuffer はexpの何秒前から期限切れとみなすか。
	RefreshBuffer time.Duration
	Cookies       auth.CookieConfig
}

// DefaultGuardConfig はデフォルトのガード設定を返す。
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Patterns:      []string{"/login", "/articles/*", "/manage/*"},
		LoginRequired: []string{"/articles/create", "/manage/*"},
		LoginPath:     "/login",
		LandingPath:   "/manage/articles",
	}
}

// GuardOption はSessionGuardのオプション。
type GuardOption func(*SessionGuard)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) GuardOption {
	return func(g *SessionGuard) { g.now = now }
}

// WithLogger はロガーを差し替える。
func WithLogger(logger *slog.Logger) GuardOption {
	return func(g *SessionGuard) { g.logger = logger }
}

// WithMetrics は判定結果の記録先を設定する。
func WithMetrics(recorder GuardRecorder) GuardOption {
	return func(g *SessionGuard) { g.recorder = recorder }
}

// SessionGuard は保護対象パスへのリクエストごとに、通過・リダイレクト・トークン更新のいずれかを決定する。
// リクエスト間で共有する可変状態を持たない。
type SessionGuard struct {
	refresher auth.Refresher
	config    GuardConfig
	now       func() time.Time
	logger    *slog.Logger
	recorder  GuardRecorder
}

// NewSessionGuard はSessionGuardを生成する。
// LoginPath、LandingPathが空の場合はデフォルト値を使用する。
func NewSessionGuard(refresher auth.Refresher, config GuardConfig, opts ...GuardOption) *SessionGuard {
	defaults := DefaultGuardConfig()
	if config.LoginPath == "" {
		config.LoginPath = defaults.LoginPath
	}
	if config.LandingPath == "" {
		config.LandingPath = defaults.LandingPath
	}

	g := &SessionGuard{
		refresher: refresher,
		config:    config,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Matches はパスがガードの適用対象かどうかを判定する。
func (g *SessionGuard) Matches(path string) bool {
	return matchAny(g.config.Patterns, path)
}

// Decide はリクエストに対する判定を返す。
// 適用対象外のパスではCookieを読まずにDecisionPassを返す。
// トークン更新が必要な場合はバックエンドを呼び出し、失敗時は両方のCookieを削除するリダイレクトになる。
func (g *SessionGuard) Decide(ctx context.Context, r *http.Request) Outcome {
	path := r.URL.Path
	if !g.Matches(path) {
		return Outcome{Decision: DecisionPass}
	}

	accessToken, refreshToken := auth.ReadTokens(r)

	// 1. ログイン済みユーザーにはログインフォームを見せない
	if path == g.config.LoginPath && accessToken != "" {
		return Outcome{Decision: DecisionRedirect, Location: g.config.LandingPath}
	}

	// 2. ログイン必須のパスでアクセストークンがない
	if accessToken == "" && matchAny(g.config.LoginRequired, path) {
		return Outcome{Decision: DecisionRedirect, Location: g.loginURL(r.URL)}
	}

	// 3. 期限切れのアクセストークンをリフレッシュトークンで更新する
	if accessToken != "" && refreshToken != "" && token.IsExpired(accessToken, g.now(), g.config.RefreshBuffer) {
		return g.rotate(ctx, refreshToken)
	}

	return Outcome{Decision: DecisionPass}
}

// rotate はトークンの組を更新する。
// 拒否・通信エラー・不完全な応答はすべて同じ失敗として扱う。
func (g *SessionGuard) rotate(ctx context.Context, refreshToken string) Outcome {
	start := time.Now()
	pair, err := g.refresher.Refresh(ctx, refreshToken)
	ok := err == nil && pair.Complete()
	if g.recorder != nil {
		g.recorder.RecordTokenRefresh(time.Since(start), ok)
	}

	if !ok {
		attrs := []any{}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		g.logger.Warn("トークンの更新に失敗したためセッションを破棄します", attrs...)
		return Outcome{
			Decision: DecisionRedirect,
			Location: g.config.LoginPath,
			Cookies:  auth.ExpiredSessionCookies(g.config.Cookies),
		}
	}

	g.logger.Debug("トークンを更新しました")
	return Outcome{
		Decision: DecisionRotate,
		Cookies:  auth.SessionCookies(*pair, g.config.Cookies),
	}
}

// loginURL は元のパスとクエリをredirectToに付けたログインURLを返す。
func (g *SessionGuard) loginURL(u *url.URL) string {
	target := u.Path
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return g.config.LoginPath + "?" + url.Values{"redirectTo": {target}}.Encode()
}

// Middleware は判定結果を適用するミドルウェアを返す。
// DecisionRotateの場合、下流のハンドラーには更新前のアクセストークンを含むリクエストがそのまま渡る。
func (g *SessionGuard) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !g.Matches(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			outcome := g.Decide(r.Context(), r)
			if g.recorder != nil {
				g.recorder.RecordGuardDecision(outcome.Decision.String())
			}

			for _, c := range outcome.Cookies {
				http.SetCookie(w, c)
			}

			if outcome.Decision == DecisionRedirect {
				http.Redirect(w, r, outcome.Location, http.StatusTemporaryRedirect)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// matchAny はパスがいずれかのパターンに一致するかを判定する。
func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if matchPattern(p, path) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, path string) bool {
	if base, ok := strings.CutSuffix(pattern, "/*"); ok {
		return path == base || strings.HasPrefix(path, base+"/")
	}
	return path == pattern
}
