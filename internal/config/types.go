package config

// Config is the on-disk configuration. Every section is optional; omitted
// fields keep the values from Default().
//
// All durations are Go duration strings (e.g. "250ms", "5s", "1m").
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Launcher  LauncherConfig  `json:"launcher"`
	Storage   StorageConfig   `json:"storage"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SchedulerConfig controls the activation loop.
type SchedulerConfig struct {
	// AutoStart starts the loop as soon as the app is up.
	AutoStart bool `json:"auto_start"`
	// TickInterval must stay within (0, 30s] so no minute can be skipped.
	TickInterval string `json:"tick_interval"`
	IdlePoll     string `json:"idle_poll"`
	// Timezone is an IANA name. Empty means the local zone.
	Timezone string `json:"timezone,omitempty"`
}

// LauncherConfig controls how links are opened.
type LauncherConfig struct {
	// Command is the opener argv; the URI is appended. Empty means the
	// platform default (xdg-open, open, rundll32).
	Command []string `json:"command,omitempty"`
	DryRun  bool     `json:"dry_run,omitempty"`
	// MinInterval and Burst rate-limit activations. "0s" disables limiting.
	MinInterval string `json:"min_interval"`
	Burst       int    `json:"burst"`
}

// StorageConfig controls target persistence.
//
// Example:
//
//	"storage": { "driver": "file", "path": "~/.autolink/targets.json" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
	// Watch reloads targets when the file is edited by another process (file driver only).
	Watch bool `json:"watch"`
	// Autosave writes the list after every edit instead of only at shutdown.
	Autosave bool `json:"autosave"`
}
