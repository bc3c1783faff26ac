// Package handler はページ・フォームアクション・APIのHTTPハンドラーを提供する。
//
// ページは描画に必要なデータをJSONで返し、フォームアクションは成功時に303で遷移先へ、
// 入力エラー時は422でmodel.FormStateを返す。
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/articlehub/internal/auth"
	"github.com/hitoshi/articlehub/internal/backend"
	"github.com/hitoshi/articlehub/internal/middleware"
	"github.com/hitoshi/articlehub/internal/model"
)

// writeFormState はフォームの再表示用の状態を書き込む。
func writeFormState(w http.ResponseWriter, statusCode int, data map[string]string, errs map[string][]string, message string) {
	if data == nil {
		data = map[string]string{}
	}
	if errs == nil {
		errs = map[string][]string{}
	}
	middleware.WriteJSON(w, statusCode, model.FormState{
		FormData: data,
		Errors:   errs,
		Message:  message,
	})
}

// seeOther はフォームアクション成功後の遷移を行う。
func seeOther(w http.ResponseWriter, r *http.Request, location string) {
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// accessToken はリクエストCookieのアクセストークンを返す。未ログインの場合は空文字列。
func accessToken(r *http.Request) string {
	access, _ := auth.ReadTokens(r)
	return access
}

// queryInt はクエリパラメータを正の整数として読み取る。
// 未指定・不正・0以下の場合はdefaultValを返す。
func queryInt(r *http.Request, key string, defaultVal int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

// totalPages は件数とページサイズから総ページ数を返す。
func totalPages(count, perPage int) int {
	if perPage <= 0 || count <= 0 {
		return 0
	}
	return (count + perPage - 1) / perPage
}

// localRedirect はログイン後の遷移先として安全なパスを返す。
// 同一オリジン内の絶対パス以外は "/" にする。
func localRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return "/"
	}
	return target
}

// handleBackendError はバックエンド呼び出しのエラーを統一エラーフォーマットに変換する。
//   - 404: NotFound（notFoundがnilの場合は502）
//   - 401: 401
//   - その他の応答エラー・通信エラー: 502
func handleBackendError(w http.ResponseWriter, err error, notFound *model.APIError) {
	if errors.Is(err, backend.ErrNotFound) && notFound != nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, notFound)
		return
	}

	var respErr *backend.ResponseError
	if errors.As(err, &respErr) {
		if respErr.StatusCode == http.StatusUnauthorized {
			middleware.WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
				Code:     "UNAUTHORIZED",
				Message:  "認証が必要です。",
				Category: "auth",
				Action:   "ログインしてください。",
			})
			return
		}
		middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewBackendFailedError(respErr.StatusCode))
		return
	}

	slog.Error("backend call failed", slog.String("error", err.Error()))
	middleware.WriteErrorResponse(w, http.StatusBadGateway, model.NewBackendFailedError(0))
}

// parseForm はフォームを解析する。失敗した場合は400を書き込みfalseを返す。
func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("フォームの解析に失敗しました"))
		return false
	}
	return true
}
