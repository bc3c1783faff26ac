package backend

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/articlehub/internal/model"
)

// ErrIncompletePair はリフレッシュ応答にトークンが揃っていない場合のエラー。
var ErrIncompletePair = errors.New("backend: refresh response missing token")

// RefreshToken はリフレッシュトークンを新しいアクセス・リフレッシュトークンの組に交換する。
// POST /users/refresh-token
// 2xx以外、通信エラー、トークンの欠けた応答はすべてエラーとして返す。
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	in := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}

	var out struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.do(ctx, "refresh_token", http.MethodPost, "/users/refresh-token", "", in, &out); err != nil {
		return nil, err
	}

	pair := &model.TokenPair{AccessToken: out.Token, RefreshToken: out.RefreshToken}
	if !pair.Complete() {
		return nil, ErrIncompletePair
	}
	return pair, nil
}

// Login はメールアドレスとパスワードでログインする。
// POST /users/login
func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	in := map[string]any{
		"user": map[string]string{
			"email":    email,
			"password": password,
		},
	}
	var out struct {
		User model.User `json:"user"`
	}
	if err := c.do(ctx, "login", http.MethodPost, "/users/login", "", in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Register はユーザーを登録する。
// POST /users
// 422の場合はdetailsを含む*ResponseErrorを返す。
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	in := map[string]any{
		"user": map[string]string{
			"username": username,
			"email":    email,
			"password": password,
		},
	}
	return c.do(ctx, "register", http.MethodPost, "/users", "", in, nil)
}

// CurrentUser はアクセストークンに対応するユーザーのプロフィールを返す。
// GET /user
func (c *Client) CurrentUser(ctx context.Context, accessToken string) (*model.CurrentUser, error) {
	var out struct {
		User model.CurrentUser `json:"user"`
	}
	if err := c.do(ctx, "current_user", http.MethodGet, "/user", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}
