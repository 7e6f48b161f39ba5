package app

import (
	"autolink/internal/config"
	"autolink/internal/launcher"
	"autolink/internal/storage"
	"autolink/internal/target"
	logx "autolink/pkg/logx"
)

type Target = target.Target

// LoadConfig reads cfgPath, falling back to defaults when it does not exist.
func LoadConfig(cfgPath string) (*config.Config, error) {
	return config.NewConfigManager(cfgPath).LoadOrDefault()
}

// OpenStorage opens the target store described by cfg. The one-shot CLI
// commands use it to edit the list without starting the app.
func OpenStorage(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	return storage.Open(sc, log)
}

// NewLauncher builds the opener described by cfg.
func NewLauncher(cfg *config.Config, log logx.Logger) (*launcher.Opener, error) {
	lc, err := mapLauncherConfig(cfg)
	if err != nil {
		return nil, err
	}
	return launcher.New(lc, log), nil
}
