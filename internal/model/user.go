// Package model はドメインモデルを定義する。
package model

// TokenPair はアクセストークンとリフレッシュトークンの組を表す。
// セッションの実体であり、Cookieとして保持される。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Complete は両方のトークンが揃っているかどうかを返す。
func (p *TokenPair) Complete() bool {
	return p != nil && p.AccessToken != "" && p.RefreshToken != ""
}

// User はログイン応答に含まれるユーザー情報を表す。
type User struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Bio          string `json:"bio"`
	Image        string `json:"image"`
}

// CurrentUser は認証済みユーザーのプロフィールを表す。
type CurrentUser struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Bio      *string `json:"bio"`
	Image    *string `json:"image"`
}
