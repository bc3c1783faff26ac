// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// middleware.GuardRecorderとbackend.RequestRecorderを実装する。
type Collector struct {
	guardDecisions  *prometheus.CounterVec
	tokenRefresh    *prometheus.HistogramVec
	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec
	presignedURLs   *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "articlehub_guard_decisions_total",
			Help: "セッションガードの判定結果別の件数",
		}, []string{"outcome"}),
		tokenRefresh: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "articlehub_token_refresh_duration_seconds",
			Help:    "トークン更新呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"result"}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "articlehub_backend_requests_total",
			Help: "バックエンドAPI呼び出しのoperation・ステータス別の件数",
		}, []string{"operation", "status"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "articlehub_backend_request_duration_seconds",
			Help:    "バックエンドAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		presignedURLs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "articlehub_presigned_urls_total",
			Help: "発行した署名付きURLの種類別の件数",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.guardDecisions,
		c.tokenRefresh,
		c.backendRequests,
		c.backendLatency,
		c.presignedURLs,
	)

	return c
}

// RecordGuardDecision はセッションガードの判定結果（pass, redirect, rotate）を記録する。
func (c *Collector) RecordGuardDecision(decision string) {
	c.guardDecisions.WithLabelValues(decision).Inc()
}

// RecordTokenRefresh はトークン更新のレイテンシと成否を記録する。
func (c *Collector) RecordTokenRefresh(duration time.Duration, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	c.tokenRefresh.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordBackendRequest はバックエンド呼び出しのステータスを記録する。
// 通信エラーはステータス0として記録される。
func (c *Collector) RecordBackendRequest(operation string, statusCode int) {
	c.backendRequests.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
}

// RecordBackendLatency はバックエンド呼び出しのレイテンシを記録する。
func (c *Collector) RecordBackendLatency(operation string, duration time.Duration) {
	c.backendLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordPresignedURL は署名付きURLの発行を記録する。kindはupload, viewのいずれか。
func (c *Collector) RecordPresignedURL(kind string) {
	c.presignedURLs.WithLabelValues(kind).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
