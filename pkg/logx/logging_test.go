package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "scheduler"))

	log.Info("target activated", String("name", "standup"), Int("count", 2), Err(errors.New("boom")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if rec["message"] != "target activated" {
		t.Fatalf("message = %v", rec["message"])
	}
	if rec["comp"] != "scheduler" || rec["name"] != "standup" {
		t.Fatalf("missing fields: %v", rec)
	}
	if rec["count"] != float64(2) {
		t.Fatalf("count = %v", rec["count"])
	}
	if rec["caller"] == nil {
		t.Fatalf("expected caller field: %v", rec)
	}
}

func TestWriterLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "warn")
	log.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	if log.Enabled(LevelDebug) {
		t.Fatal("debug should be disabled")
	}
	if !log.Enabled(LevelError) {
		t.Fatal("error should be enabled")
	}
}

func TestZeroLoggerIsNop(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	// Must not panic.
	l.Info("nothing", String("k", "v"))
	if Nop().IsZero() {
		t.Fatal("Nop logger is not the zero value")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in, LevelInfo); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestServiceFileSinkAndApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "autolink.log")
	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: path}})
	log = log.With(String("comp", "test"))

	log.Debug("hidden")
	log.Info("first")

	// Derived loggers follow Apply.
	svc.Apply(Config{Level: "debug", File: FileConfig{Enabled: true, Path: path}})
	log.Debug("second")

	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(b)
	if strings.Contains(out, "hidden") || !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Fatalf("log file:\n%s", out)
	}
	if !strings.Contains(out, `"comp":"test"`) {
		t.Fatalf("missing comp field:\n%s", out)
	}
}

func TestServiceWithoutSinksIsSilent(t *testing.T) {
	svc, log := New(Config{Level: "debug"})
	defer svc.Close()
	if log.Enabled(LevelError) {
		t.Fatal("logger without sinks should be disabled")
	}
}
