// Package backend は記事・認証バックエンド（REST API）のクライアントを提供する。
// 認証が必要な呼び出しでは "Authorization: Token <accessToken>" ヘッダーを付与する。
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseBytes はレスポンスボディの読み取り上限。
const maxResponseBytes = 4 << 20

var tracer = otel.Tracer("github.com/hitoshi/articlehub/internal/backend")

var (
	// ErrUnauthorized はバックエンドが401を返した場合のエラー。
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrNotFound はバックエンドが404を返した場合のエラー。
	ErrNotFound = errors.New("backend: not found")
)

// RequestRecorder はバックエンド呼び出しの結果を記録するインターフェース。
// metrics.Collectorが実装する。
type RequestRecorder interface {
	RecordBackendRequest(operation string, statusCode int)
	RecordBackendLatency(operation string, duration time.Duration)
}

// ErrorDetail はバックエンドのバリデーションエラー1件を表す。
type ErrorDetail struct {
	Property string `json:"property"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// ResponseError はバックエンドが2xx以外を返した場合のエラー。
type ResponseError struct {
	Operation  string
	StatusCode int
	Details    []ErrorDetail
}

// Error はerrorインターフェースを実装する。
func (e *ResponseError) Error() string {
	return fmt.Sprintf("backend %s returned status %d", e.Operation, e.StatusCode)
}

// Is はステータスコードに対応する定義済みエラーとの比較を可能にする。
func (e *ResponseError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// FieldErrors はバリデーションエラーをフィールド名ごとのメッセージ一覧にまとめる。
func (e *ResponseError) FieldErrors() map[string][]string {
	fields := make(map[string][]string)
	for _, d := range e.Details {
		fields[d.Property] = append(fields[d.Property], d.Message)
	}
	return fields
}

// Client はバックエンドREST APIのクライアント。
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	recorder   RequestRecorder
}

// NewClient はClientを生成する。
// httpClientがnilの場合はタイムアウトを設定しないクライアントを使用する。
// recorderはnilでもよい。
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger, recorder RequestRecorder) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		recorder:   recorder,
	}
}

// do はJSONリクエストを送信し、2xxの場合は応答をoutにデコードする。
// accessTokenが空でない場合はAuthorizationヘッダーを付与する。
func (c *Client) do(ctx context.Context, op, method, path, accessToken string, in, out any) error {
	ctx, span := tracer.Start(ctx, "backend."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
		),
	)
	defer span.End()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Token "+accessToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.recordLatency(op, time.Since(start))
	if err != nil {
		c.record(op, 0)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		c.logger.Error("バックエンドAPIの呼び出しに失敗しました",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("backend %s: %w", op, err)
	}
	defer resp.Body.Close()

	c.record(op, resp.StatusCode)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, resp.Status)
		c.logger.Warn("バックエンドAPIがエラーステータスを返しました",
			slog.String("operation", op),
			slog.Int("http_status", resp.StatusCode),
		)
		respErr := &ResponseError{Operation: op, StatusCode: resp.StatusCode}
		var envelope struct {
			Details []ErrorDetail `json:"details"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			respErr.Details = envelope.Details
		}
		return respErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}

func (c *Client) record(op string, status int) {
	if c.recorder != nil {
		c.recorder.RecordBackendRequest(op, status)
	}
}

func (c *Client) recordLatency(op string, d time.Duration) {
	if c.recorder != nil {
		c.recorder.RecordBackendLatency(op, d)
	}
}
