package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// 2024-01-01 was a Monday.
var monday8 = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T) (cfg string, out *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	cfg = filepath.Join(dir, "config.yaml")
	body := "logging:\n  level: error\n  console: false\n" +
		"scheduler:\n  timezone: UTC\n" +
		"launcher:\n  dry_run: true\n" +
		"storage:\n  path: " + filepath.Join(dir, "targets.yaml") + "\n"
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out = &bytes.Buffer{}
	prevOut, prevNow := stdout, now
	stdout, now = out, func() time.Time { return monday8 }
	t.Cleanup(func() { stdout, now = prevOut, prevNow })
	return cfg, out
}

func execute(t *testing.T, out *bytes.Buffer, args ...string) (string, error) {
	t.Helper()
	out.Reset()
	err := Execute(append([]string{"autolink"}, args...))
	return out.String(), err
}

func TestAddListNext(t *testing.T) {
	cfg, out := setup(t)

	if s, err := execute(t, out, "--config", cfg, "add", "Daily standup", "https://meet.example/s", "mon", "09:00"); err != nil || !strings.Contains(s, "added as #1") {
		t.Fatalf("add: %q, %v", s, err)
	}
	if _, err := execute(t, out, "--config", cfg, "add", "Docs", "https://docs.example"); err != nil {
		t.Fatalf("add: %v", err)
	}

	s, err := execute(t, out, "--config", cfg, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"1. Daily standup", "2. Docs", "[1] Mon 09:00", "manual launch only"} {
		if !strings.Contains(s, want) {
			t.Fatalf("list missing %q:\n%s", want, s)
		}
	}

	s, err = execute(t, out, "--config", cfg, "next", "--days", "1")
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if !strings.Contains(s, "Mon 09:00 (1 hour from now)") || strings.Contains(s, "Docs") {
		t.Fatalf("next:\n%s", s)
	}
}

func TestEditAndRemove(t *testing.T) {
	cfg, out := setup(t)
	if _, err := execute(t, out, "--config", cfg, "add", "A", "u1", "tue", "10:00"); err != nil {
		t.Fatalf("add: %v", err)
	}

	if s, err := execute(t, out, "--config", cfg, "edit", "1", "name=B", "+time=fri 16:30", "-time=1"); err != nil || !strings.Contains(s, "entry B has been edited") {
		t.Fatalf("edit: %q, %v", s, err)
	}
	s, _ := execute(t, out, "--config", cfg, "list")
	if !strings.Contains(s, "[1] Fri 16:30") || strings.Contains(s, "Tue") {
		t.Fatalf("list after edit:\n%s", s)
	}

	if s, err := execute(t, out, "--config", cfg, "remove", "1"); err != nil || !strings.Contains(s, "entry B has been removed") {
		t.Fatalf("remove: %q, %v", s, err)
	}
	if s, _ := execute(t, out, "--config", cfg, "list"); !strings.Contains(s, "no entries yet") {
		t.Fatalf("list after remove:\n%s", s)
	}
}

func TestRejectedEditIsNotSaved(t *testing.T) {
	cfg, out := setup(t)
	if _, err := execute(t, out, "--config", cfg, "add", "A", "u1", "funday", "09:00"); !errors.Is(err, errNotSaved) {
		t.Fatalf("err = %v", err)
	}
	if _, err := execute(t, out, "--config", cfg, "remove", "3"); !errors.Is(err, errNotSaved) {
		t.Fatalf("err = %v", err)
	}
}

func TestLaunchDryRun(t *testing.T) {
	cfg, out := setup(t)
	if _, err := execute(t, out, "--config", cfg, "add", "A", "u1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if s, err := execute(t, out, "--config", cfg, "launch", "1"); err != nil || !strings.Contains(s, "launched A") {
		t.Fatalf("launch: %q, %v", s, err)
	}
	if _, err := execute(t, out, "--config", cfg, "launch", "2"); err == nil {
		t.Fatal("launch of missing entry succeeded")
	}
}

func TestNextRejectsBadDays(t *testing.T) {
	cfg, out := setup(t)
	if _, err := execute(t, out, "--config", cfg, "next", "--days", "0"); err == nil {
		t.Fatal("--days 0 accepted")
	}
}
