package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestSetup_WritesJSONWithStandardFields(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelInfo)

	l.Info("token pair rotated", slog.String("path", "/articles/create"), slog.Int("status", 200))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}

	for _, key := range []string{"time", "level", "msg", "service", "path", "status"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("expected %q field in JSON log output: %s", key, buf.String())
		}
	}
	if entry["service"] != "articlehub" {
		t.Errorf("service = %v, want articlehub", entry["service"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
}

func TestSetup_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf, slog.LevelWarn)

	l.Info("dropped")
	l.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("Warnレベルの場合Infoは出力しないこと")
	}
	if !strings.Contains(out, "kept") {
		t.Error("Warnは出力すること")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetupDefault_SetsGlobalLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	l := SetupDefault(&buf, slog.LevelDebug)

	slog.Debug("global debug")
	if !strings.Contains(buf.String(), "global debug") {
		t.Errorf("グローバルロガーに設定されること: %s", buf.String())
	}
	if l == nil {
		t.Error("expected non-nil logger")
	}
}
