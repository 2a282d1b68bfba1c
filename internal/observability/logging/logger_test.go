package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestNewJSONLoggerAttachesServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "worker", "info")

	WithComponent(logger, "pipeline").Info("pipeline_started", "file_id", "f1")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not one JSON record: %v\n%s", err, buf.String())
	}
	if record["service"] != "worker" {
		t.Fatalf("service = %v, want worker", record["service"])
	}
	if record["component"] != "pipeline" {
		t.Fatalf("component = %v, want pipeline", record["component"])
	}
	if record["msg"] != "pipeline_started" {
		t.Fatalf("msg = %v", record["msg"])
	}
	if _, err := time.Parse(time.RFC3339Nano, record["time"].(string)); err != nil {
		t.Fatalf("time %v not RFC 3339: %v", record["time"], err)
	}
	if !strings.HasSuffix(record["time"].(string), "Z") {
		t.Fatalf("time %v not UTC", record["time"])
	}
}

func TestNewJSONLoggerSuppressesBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "api", "warn")

	logger.Info("document_uploaded")
	if buf.Len() != 0 {
		t.Fatalf("info record emitted at warn level: %s", buf.String())
	}

	logger.Warn("rate_limited")
	if buf.Len() == 0 {
		t.Fatalf("warn record suppressed at warn level")
	}
}

func TestParseLevelAliasesAndDefault(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARNING ", slog.LevelWarn},
		{"fatal", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
