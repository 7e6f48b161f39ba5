package config

import (
	"reflect"
	"strings"

	logx "autolink/pkg/logx"
)

// SummarizeConfigChange returns (1) a compact list of changed sections,
// (2) structured attrs for logging, and (3) whether a restart is needed for
// the change to take full effect (storage settings are read once at startup).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field, bool) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 16)
	restart := false

	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	oSch, nSch := oldCfg.Scheduler, newCfg.Scheduler
	if oSch.AutoStart != nSch.AutoStart ||
		strings.TrimSpace(oSch.TickInterval) != strings.TrimSpace(nSch.TickInterval) ||
		strings.TrimSpace(oSch.IdlePoll) != strings.TrimSpace(nSch.IdlePoll) ||
		strings.TrimSpace(oSch.Timezone) != strings.TrimSpace(nSch.Timezone) {
		changed = append(changed, "scheduler")
		attrs = append(attrs,
			logx.Bool("scheduler.auto_start", nSch.AutoStart),
			logx.String("scheduler.tick_interval", strings.TrimSpace(nSch.TickInterval)),
			logx.String("scheduler.idle_poll", strings.TrimSpace(nSch.IdlePoll)),
			logx.String("scheduler.timezone", strings.TrimSpace(nSch.Timezone)),
		)
	}

	if !reflect.DeepEqual(oldCfg.Launcher, newCfg.Launcher) {
		changed = append(changed, "launcher")
		attrs = append(attrs,
			logx.Bool("launcher.custom_command", len(newCfg.Launcher.Command) > 0),
			logx.Bool("launcher.dry_run", newCfg.Launcher.DryRun),
			logx.String("launcher.min_interval", strings.TrimSpace(newCfg.Launcher.MinInterval)),
			logx.Int("launcher.burst", newCfg.Launcher.Burst),
		)
	}

	ost, nst := oldCfg.Storage, newCfg.Storage
	if ost != nst {
		changed = append(changed, "storage")
		restart = strings.TrimSpace(ost.Driver) != strings.TrimSpace(nst.Driver) ||
			strings.TrimSpace(ost.Path) != strings.TrimSpace(nst.Path) ||
			strings.TrimSpace(ost.BusyTimeout) != strings.TrimSpace(nst.BusyTimeout) ||
			ost.Watch != nst.Watch
		attrs = append(attrs,
			logx.String("storage.driver", strings.TrimSpace(nst.Driver)),
			logx.Bool("storage.path_changed", strings.TrimSpace(ost.Path) != strings.TrimSpace(nst.Path)),
			logx.Bool("storage.watch", nst.Watch),
			logx.Bool("storage.autosave", nst.Autosave),
		)
	}

	return changed, attrs, restart
}
