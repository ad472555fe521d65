package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/aurora-obs/aurora-core/internal/infrastructure/config"
)

func jsonRecord(t *testing.T, line []byte) map[string]any {
	t.Helper()
	var record map[string]any
	if err := json.Unmarshal(line, &record); err != nil {
		t.Fatalf("log line is not valid JSON: %v\n%s", err, line)
	}
	return record
}

func TestNew_JSONRecordFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(config.LoggingConfig{Level: "info", Format: "json"}, "1.2.3", &buf)

	log.Info("client connected", "host", "astro.lan")

	record := jsonRecord(t, buf.Bytes())
	if record["service"] != "auroracore" {
		t.Errorf("service = %v, want auroracore", record["service"])
	}
	if record["version"] != "1.2.3" {
		t.Errorf("version = %v, want 1.2.3", record["version"])
	}
	if record["msg"] != "client connected" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["host"] != "astro.lan" {
		t.Errorf("host = %v", record["host"])
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(config.LoggingConfig{Level: "warn", Format: "json"}, "dev", &buf)

	log.Info("suppressed")
	log.Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info record emitted at warn level")
	}
	if !strings.Contains(out, "emitted") {
		t.Error("warn record missing at warn level")
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(config.LoggingConfig{Level: "debug", Format: "text"}, "dev", &buf)

	log.Debug("heartbeat")

	out := buf.String()
	if !strings.Contains(out, "msg=heartbeat") {
		t.Errorf("text output missing msg key: %q", out)
	}
	if json.Valid(buf.Bytes()) {
		t.Error("text format produced JSON")
	}
}

func TestWith_ChildCarriesAttr(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(config.LoggingConfig{Level: "info", Format: "json"}, "dev", &buf)

	log.With("component", "indi").Info("reconnecting")

	record := jsonRecord(t, buf.Bytes())
	if record["component"] != "indi" {
		t.Errorf("component = %v, want indi", record["component"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
}
