package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDefaultIsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("Default() invalid: %v", err)
	}
}

func TestParseYAMLOverlaysDefaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yaml", `
scheduler:
  tick_interval: 2s
  timezone: UTC
launcher:
  command: [firefox, --new-tab]
storage:
  path: /tmp/t.yaml
`)
	cfg, err := NewConfigManager(p).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tick, idle, err := cfg.Scheduler.Intervals()
	if err != nil || tick != 2*time.Second || idle != 250*time.Millisecond {
		t.Fatalf("intervals = %v %v %v", tick, idle, err)
	}
	if !cfg.Scheduler.AutoStart || cfg.Storage.Driver != "file" || !cfg.Storage.Autosave {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if len(cfg.Launcher.Command) != 2 || cfg.Storage.Path != "/tmp/t.yaml" {
		t.Fatalf("overrides lost: %+v", cfg)
	}
	if loc, _ := cfg.Scheduler.Location(); loc != time.UTC {
		t.Fatalf("location = %v", loc)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.json", `{"scheduler":{"tick":"1s"}}`)
	if _, err := NewConfigManager(p).Parse(); err == nil {
		t.Fatal("unknown key accepted")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(c *Config)
		want string
	}{
		{"tick too long", func(c *Config) { c.Scheduler.TickInterval = "1m" }, "tick_interval"},
		{"bad duration", func(c *Config) { c.Scheduler.IdlePoll = "soon" }, "idle_poll"},
		{"bad zone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, "timezone"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad driver", func(c *Config) { c.Storage.Driver = "mongo" }, "storage.driver"},
		{"no path", func(c *Config) { c.Storage.Path = " " }, "storage.path"},
		{"negative burst", func(c *Config) { c.Launcher.Burst = -1 }, "launcher.burst"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mut(c)
			err := Validate(c)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	m := NewConfigManager(filepath.Join(t.TempDir(), "nope.yaml"))
	cfg, err := m.LoadOrDefault()
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if m.Get() != cfg || strings.HasPrefix(cfg.Storage.Path, "~") {
		t.Fatalf("cfg = %+v", cfg)
	}
	if _, err := m.Load(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Load err = %v", err)
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := ExpandHome("~/x/y"); got != filepath.Join(home, "x", "y") {
		t.Fatalf("ExpandHome = %q", got)
	}
	if got := ExpandHome("/abs"); got != "/abs" {
		t.Fatalf("ExpandHome(/abs) = %q", got)
	}
}

func TestReloadPublishesOnlyValidChanges(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.yaml", "scheduler: {tick_interval: 5s}\n")
	m := NewConfigManager(p)
	if _, err := m.Load(); err != nil {
		t.Fatal(err)
	}
	ch := m.Subscribe(4)
	defer m.Unsubscribe(ch)
	ctx := context.Background()

	// Same content: nothing published.
	m.reload(ctx)
	if len(ch) != 0 {
		t.Fatal("unchanged config published")
	}

	writeFile(t, dir, "config.yaml", "scheduler: {tick_interval: 90s}\n")
	m.reload(ctx)
	if len(ch) != 0 {
		t.Fatal("invalid config published")
	}

	m.SetValidator(func(ctx context.Context, cfg *Config) error {
		if cfg.Launcher.DryRun {
			return errors.New("no dry runs here")
		}
		return nil
	})
	writeFile(t, dir, "config.yaml", "launcher: {dry_run: true}\n")
	m.reload(ctx)
	if len(ch) != 0 {
		t.Fatal("validator was bypassed")
	}

	writeFile(t, dir, "config.yaml", "scheduler: {tick_interval: 1s}\n")
	m.reload(ctx)
	select {
	case cfg := <-ch:
		if cfg.Scheduler.TickInterval != "1s" || m.Get() != cfg {
			t.Fatalf("published %+v", cfg.Scheduler)
		}
	default:
		t.Fatal("valid change not published")
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	a := Default()
	b := Default()
	b.Scheduler.Timezone = "UTC"
	b.Launcher.DryRun = true

	changed, attrs, restart := SummarizeConfigChange(a, b)
	if strings.Join(changed, ",") != "scheduler,launcher" || len(attrs) == 0 || restart {
		t.Fatalf("changed=%v restart=%v", changed, restart)
	}

	b.Storage.Path = "/elsewhere.json"
	changed, _, restart = SummarizeConfigChange(a, b)
	if changed[len(changed)-1] != "storage" || !restart {
		t.Fatalf("storage change: changed=%v restart=%v", changed, restart)
	}

	c := Default()
	c.Storage.Autosave = false
	if _, _, restart := SummarizeConfigChange(a, c); restart {
		t.Fatal("autosave change should apply live")
	}
}

func TestDurationAccessors(t *testing.T) {
	s := SchedulerConfig{TickInterval: "0s", IdlePoll: ""}
	if tick, idle, err := s.Intervals(); err != nil || tick != 5*time.Second || idle != 250*time.Millisecond {
		t.Fatalf("defaults = %v, %v, %v", tick, idle, err)
	}
	if _, _, err := (SchedulerConfig{TickInterval: "-1s"}).Intervals(); err == nil {
		t.Fatal("negative tick accepted")
	}
	if _, err := (LauncherConfig{MinInterval: "soon"}).Interval(); err == nil || !strings.Contains(err.Error(), "launcher.min_interval") {
		t.Fatalf("bad interval err = %v", err)
	}
	if d, err := (LauncherConfig{MinInterval: "0s"}).Interval(); err != nil || d != 0 {
		t.Fatalf("zero interval = %v, %v", d, err)
	}
	if d, err := (StorageConfig{BusyTimeout: "2s"}).Busy(); err != nil || d != 2*time.Second {
		t.Fatalf("busy = %v, %v", d, err)
	}
}
