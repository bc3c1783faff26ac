package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/articlehub/internal/middleware"
)

// healthTimeout はヘルスチェックのDB疎通確認のタイムアウト。
const healthTimeout = 2 * time.Second

// Pinger はDBの疎通確認のインターフェース。*sql.DBが実装する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler はHealthHandlerを生成する。dbがnilの場合は疎通確認を行わない。
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health はサービスの稼働状態を返す。
// GET /health
// DBに接続できない場合は503を返す。
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			slog.Warn("health check failed", slog.String("error", err.Error()))
			middleware.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
