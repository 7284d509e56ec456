package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, b)
	}
	return m
}

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	// must not panic
	l.Info("hello", String("k", "v"))
	if l.With(String("a", "b")).IsZero() {
		t.Fatal("logger with fields should not be zero")
	}
	if Nop().IsZero() {
		t.Fatal("Nop is a configured logger")
	}
}

func TestWithFieldsAreApplied(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug").With(Component("controller"))
	l.Warn("reload failed", Uint64("generation", 3), Err(errors.New("boom")), Time("last_tick", time.Time{}))

	m := decodeLine(t, buf.Bytes())
	if m["comp"] != "controller" {
		t.Fatalf("comp = %v", m["comp"])
	}
	if m["generation"] != float64(3) {
		t.Fatalf("generation = %v", m["generation"])
	}
	if m["err"] != "boom" {
		t.Fatalf("err = %v", m["err"])
	}
	if v, ok := m["last_tick"]; !ok || v != nil {
		t.Fatalf("last_tick = %v, want null", v)
	}
	if m["message"] != "reload failed" || m["level"] != "warn" {
		t.Fatalf("line = %v", m)
	}
	if c, _ := m["caller"].(string); !strings.HasPrefix(c, "logging_test.go:") {
		t.Fatalf("caller = %v", m["caller"])
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %q", buf.String())
	}
	l.Error("loud")
	if m := decodeLine(t, buf.Bytes()); m["message"] != "loud" {
		t.Fatalf("line = %v", m)
	}
}

func TestNewWritesFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedwatch.log")
	svc, l := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	l.With(Component("app")).Info("app started")
	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if m := decodeLine(t, bytes.TrimSpace(b)); m["comp"] != "app" || m["message"] != "app started" {
		t.Fatalf("file line = %v", m)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARNING ", zerolog.WarnLevel},
		{"Trace", zerolog.TraceLevel},
		{"error", zerolog.ErrorLevel},
		{"nope", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
