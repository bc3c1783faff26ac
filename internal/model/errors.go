// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, article, upload, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeArticleNotFound  = "ARTICLE_NOT_FOUND"
	ErrCodeInvoiceNotFound  = "INVOICE_NOT_FOUND"
	ErrCodeCustomerNotFound = "CUSTOMER_NOT_FOUND"
	ErrCodeBackendFailed    = "BACKEND_FAILED"
	ErrCodeUploadRejected   = "UPLOAD_REJECTED"
	ErrCodeUploadFailed     = "UPLOAD_FAILED"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeDatabase         = "DATABASE_ERROR"
	ErrCodeCSRF             = "CSRF_TOKEN_INVALID"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
)

// NewArticleNotFoundError は記事未検出エラーを生成する。
func NewArticleNotFoundError(slug string) *APIError {
	return &APIError{
		Code:     ErrCodeArticleNotFound,
		Message:  fmt.Sprintf("指定された記事が見つかりません: %s", slug),
		Category: "article",
		Action:   "記事のURLを確認してください。",
	}
}

// NewInvoiceNotFoundError は請求書未検出エラーを生成する。
func NewInvoiceNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInvoiceNotFound,
		Message:  fmt.Sprintf("指定された請求書が見つかりません: %s", id),
		Category: "validation",
		Action:   "請求書IDを確認してください。",
	}
}

// NewCustomerNotFoundError は顧客未検出エラーを生成する。
func NewCustomerNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCustomerNotFound,
		Message:  fmt.Sprintf("指定された顧客が見つかりません: %s", id),
		Category: "validation",
		Action:   "顧客IDを確認してください。",
	}
}

// NewBackendFailedError はバックエンドAPIの呼び出し失敗エラーを生成する。
func NewBackendFailedError(status int) *APIError {
	return &APIError{
		Code:     ErrCodeBackendFailed,
		Message:  fmt.Sprintf("バックエンドAPIの呼び出しに失敗しました: status %d", status),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewUploadRejectedError はアップロード要求の検証失敗エラーを生成する。
func NewUploadRejectedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUploadRejected,
		Message:  reason,
		Category: "upload",
		Action:   "ファイル名・形式・サイズを確認してください。",
	}
}

// NewUploadFailedError は署名付きURLの発行失敗エラーを生成する。
func NewUploadFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeUploadFailed,
		Message:  "Failed to generate presigned URL",
		Category: "upload",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInvalidRequestError はリクエスト形式の不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewDatabaseError はデータベース操作の失敗エラーを生成する。
func NewDatabaseError() *APIError {
	return &APIError{
		Code:     ErrCodeDatabase,
		Message:  "データベースエラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewCSRFError はCSRFトークン検証の失敗エラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRF,
		Message:  "CSRF token validation failed",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Retry-Afterの秒数が経過してから再度お試しください。",
	}
}
