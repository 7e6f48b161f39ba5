package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultDirName    = ".autolink"
	DefaultConfigFile = "config.yaml"
	DefaultTargetFile = "targets.json"

	// MaxTickInterval keeps at least two ticks inside every minute.
	MaxTickInterval = 30 * time.Second
)

// Default returns a fully populated config.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Console: true},
		Scheduler: SchedulerConfig{
			AutoStart:    true,
			TickInterval: "5s",
			IdlePoll:     "250ms",
		},
		Launcher: LauncherConfig{MinInterval: "1s", Burst: 3},
		Storage: StorageConfig{
			Driver:      "file",
			Path:        filepath.Join("~", DefaultDirName, DefaultTargetFile),
			BusyTimeout: "1s",
			Watch:       true,
			Autosave:    true,
		},
	}
}

// DefaultPath is ~/.autolink/config.yaml.
func DefaultPath() string {
	return ExpandHome(filepath.Join("~", DefaultDirName, DefaultConfigFile))
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(p string) string {
	p = strings.TrimSpace(p)
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}

// normalize expands paths in place.
func (c *Config) normalize() {
	c.Storage.Path = ExpandHome(c.Storage.Path)
	c.Logging.File.Path = ExpandHome(c.Logging.File.Path)
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
}

// Intervals returns the parsed tick and idle-poll durations. Empty or zero
// values select the scheduler defaults.
func (s SchedulerConfig) Intervals() (tick, idle time.Duration, err error) {
	if tick, err = parseDuration("scheduler.tick_interval", s.TickInterval); err != nil {
		return 0, 0, err
	}
	if idle, err = parseDuration("scheduler.idle_poll", s.IdlePoll); err != nil {
		return 0, 0, err
	}
	if tick == 0 {
		tick = 5 * time.Second
	}
	if idle == 0 {
		idle = 250 * time.Millisecond
	}
	return tick, idle, nil
}

// Location loads the configured time zone.
func (s SchedulerConfig) Location() (*time.Location, error) {
	tz := strings.TrimSpace(s.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("scheduler.timezone: %w", err)
	}
	return loc, nil
}

// Interval is the minimum spacing between launches; 0 disables limiting.
func (l LauncherConfig) Interval() (time.Duration, error) {
	return parseDuration("launcher.min_interval", l.MinInterval)
}

// Busy is the sqlite busy timeout; 0 leaves the driver default.
func (s StorageConfig) Busy() (time.Duration, error) {
	return parseDuration("storage.busy_timeout", s.BusyTimeout)
}

// parseDuration reads a Go duration string for the config key. Empty means 0.
func parseDuration(key, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: %s is negative", key, raw)
	}
	return d, nil
}

// Validate reports every problem found, joined.
func Validate(c *Config) error {
	if c == nil {
		return errors.New("config is nil")
	}
	var errs []error

	switch strings.ToUpper(strings.TrimSpace(c.Logging.Level)) {
	case "", "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	if c.Logging.File.Enabled && strings.TrimSpace(c.Logging.File.Path) == "" {
		errs = append(errs, errors.New("logging.file.path is required when logging.file.enabled"))
	}

	if tick, _, err := c.Scheduler.Intervals(); err != nil {
		errs = append(errs, err)
	} else if tick > MaxTickInterval {
		errs = append(errs, fmt.Errorf("scheduler.tick_interval: %s exceeds %s", tick, MaxTickInterval))
	}
	if _, err := c.Scheduler.Location(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.Launcher.Interval(); err != nil {
		errs = append(errs, err)
	}
	if c.Launcher.Burst < 0 {
		errs = append(errs, errors.New("launcher.burst must be >= 0"))
	}

	switch strings.ToLower(strings.TrimSpace(c.Storage.Driver)) {
	case "", "file", "sqlite", "sqlite3":
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unsupported driver %q", c.Storage.Driver))
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		errs = append(errs, errors.New("storage.path is required"))
	}
	if _, err := c.Storage.Busy(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
