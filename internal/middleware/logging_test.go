package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func serveLogged(t *testing.T, h http.Handler, req *http.Request) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewLoggingMiddleware(logger)(h).ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	entry := serveLogged(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), httptest.NewRequest(http.MethodGet, "/articles?page=2", nil))

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %v, want GET", entry["method"])
	}
	if entry["path"] != "/articles" {
		t.Errorf("path = %v, want /articles", entry["path"])
	}
	if status, _ := entry["status"].(float64); status != 200 {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if d, ok := entry["duration_ms"].(float64); !ok || d < 0 {
		t.Errorf("duration_ms = %v", entry["duration_ms"])
	}
	if _, ok := entry["request_id"]; ok {
		t.Error("RequestIDミドルウェアがない場合はrequest_idを出力しないこと")
	}
}

func TestLoggingMiddleware_IncludesRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := chimw.RequestID(NewLoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if id, _ := entry["request_id"].(string); id == "" {
		t.Errorf("request_id が出力されること: %s", buf.String())
	}
}

func TestLoggingMiddleware_IncludesRedirectLocation(t *testing.T) {
	entry := serveLogged(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
	}), httptest.NewRequest(http.MethodGet, "/manage/articles", nil))

	if entry["location"] != "/login" {
		t.Errorf("location = %v, want /login", entry["location"])
	}
}

func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		statusCode int
		wantLevel  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusSeeOther, "INFO"},
		{http.StatusUnprocessableEntity, "WARN"},
		{http.StatusNotFound, "WARN"},
		{http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			entry := serveLogged(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}), httptest.NewRequest(http.MethodPost, "/articles/create", nil))

			if int(entry["status"].(float64)) != tt.statusCode {
				t.Errorf("status = %v, want %d", entry["status"], tt.statusCode)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", entry["level"], tt.wantLevel)
			}
		})
	}
}

func TestLoggingMiddleware_ImplicitStatusOnWrite(t *testing.T) {
	entry := serveLogged(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}), httptest.NewRequest(http.MethodGet, "/tags", nil))

	if status := int(entry["status"].(float64)); status != 200 {
		t.Errorf("status = %d, want 200", status)
	}
}
