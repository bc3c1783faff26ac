// Package auth はトークンベースのセッション管理（Cookie、リフレッシュ、ログイン）を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/articlehub/internal/backend"
	"github.com/hitoshi/articlehub/internal/model"
)

// ErrInvalidCredentials はメールアドレスまたはパスワードが誤っている場合のエラー。
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Refresher はリフレッシュトークンを新しいトークンの組に交換するインターフェース。
// セッションガードが依存する唯一の外部呼び出し。
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
}

// UserBackend はServiceが必要とするバックエンド呼び出しのインターフェース。
// backend.Clientが実装する。
type UserBackend interface {
	RefreshToken(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.User, error)
	Register(ctx context.Context, username, email, password string) error
	CurrentUser(ctx context.Context, accessToken string) (*model.CurrentUser, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	backend UserBackend
}

// NewService はServiceを生成する。
func NewService(b UserBackend) *Service {
	return &Service{backend: b}
}

// Refresh はRefresherインターフェースを実装する。
// バックエンドの拒否、通信エラー、不完全な応答はすべてエラーとして返す。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}
	pair, err := s.backend.RefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if pair == nil || !pair.Complete() {
		return nil, backend.ErrIncompletePair
	}
	return pair, nil
}

// Login はログインしてトークンの組を返す。
// バックエンドが2xx以外を返した場合はErrInvalidCredentialsを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	user, err := s.backend.Login(ctx, email, password)
	if err != nil {
		var respErr *backend.ResponseError
		if errors.As(err, &respErr) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	pair := &model.TokenPair{AccessToken: user.Token, RefreshToken: user.RefreshToken}
	if !pair.Complete() {
		return nil, backend.ErrIncompletePair
	}

	slog.Info("user logged in", slog.String("username", user.Username))
	return pair, nil
}

// Register はユーザーを登録する。
// バックエンドのバリデーションエラーは*backend.ResponseErrorのまま返す。
func (s *Service) Register(ctx context.Context, username, email, password string) error {
	if err := s.backend.Register(ctx, username, email, password); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	slog.Info("user registered", slog.String("username", username))
	return nil
}

// CurrentUser はアクセストークンに対応するユーザーのプロフィールを返す。
// バックエンドのエラーはそのまま返す。
func (s *Service) CurrentUser(ctx context.Context, accessToken string) (*model.CurrentUser, error) {
	user, err := s.backend.CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return user, nil
}
