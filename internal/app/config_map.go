package app

import (
	"fmt"
	"strings"

	"autolink/internal/config"
	"autolink/internal/launcher"
	"autolink/internal/scheduler"
	"autolink/internal/storage"
	logx "autolink/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapSchedulerConfig(cfg *config.Config) (scheduler.Config, error) {
	tick, idle, err := cfg.Scheduler.Intervals()
	if err != nil {
		return scheduler.Config{}, err
	}
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return scheduler.Config{}, err
	}
	return scheduler.Config{TickInterval: tick, IdlePoll: idle, Location: loc}, nil
}

func mapLauncherConfig(cfg *config.Config) (launcher.Config, error) {
	every, err := cfg.Launcher.Interval()
	if err != nil {
		return launcher.Config{}, err
	}
	return launcher.Config{
		Command:     append([]string(nil), cfg.Launcher.Command...),
		DryRun:      cfg.Launcher.DryRun,
		MinInterval: every,
		Burst:       cfg.Launcher.Burst,
	}, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	sc := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(sc.Driver))
	path := strings.TrimSpace(sc.Path)
	if path == "" {
		return storage.Config{}, fmt.Errorf("storage.path is required")
	}
	switch driver {
	case "", "file":
		return storage.Config{Driver: "file", Path: path}, nil
	case "sqlite", "sqlite3":
		busy, err := sc.Busy()
		if err != nil {
			return storage.Config{}, err
		}
		return storage.Config{Driver: "sqlite", Path: path, BusyTimeout: busy}, nil
	default:
		return storage.Config{}, fmt.Errorf("unknown storage.driver: %s", sc.Driver)
	}
}
