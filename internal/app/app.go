package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"autolink/internal/config"
	"autolink/internal/control"
	"autolink/internal/eventbus"
	"autolink/internal/launcher"
	"autolink/internal/runtime/supervisor"
	"autolink/internal/scheduler"
	"autolink/internal/storage"
	"autolink/internal/store"
	logx "autolink/pkg/logx"
)

// App owns every long-lived component: the persisted and in-memory target
// lists, the scheduler loop, the launcher, and the goroutines that keep them
// in sync with config and disk.
type App struct {
	cfgm *config.ConfigManager
	cfg  *config.Config

	logs *logx.Service
	log  logx.Logger
	bus  eventbus.Bus

	persist storage.Store
	ctrl    *control.Channel
	store   *store.Store
	opener  *launcher.Opener
	loop    *scheduler.Loop

	sup *supervisor.Supervisor

	autosave atomic.Bool
	// saveMu serializes writes to persist.
	saveMu sync.Mutex
	// notify is replaced in tests.
	notify func(state string)
}

// NewApp loads config from cfgPath (a missing file means defaults), opens
// storage, and seeds the store. Nothing runs until Start.
func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.LoadOrDefault()
	if err != nil {
		return nil, err
	}

	logs, log := logx.New(mapLoggingConfig(cfg))

	schedCfg, err := mapSchedulerConfig(cfg)
	if err != nil {
		logs.Close()
		return nil, err
	}
	launchCfg, err := mapLauncherConfig(cfg)
	if err != nil {
		logs.Close()
		return nil, err
	}

	persist, err := OpenStorage(cfg, log.With(logx.String("comp", "storage")))
	if err != nil {
		logs.Close()
		return nil, err
	}
	initial, err := persist.Load(context.Background())
	if err != nil {
		_ = persist.Close()
		logs.Close()
		return nil, fmt.Errorf("load targets: %w", err)
	}

	a := &App{
		cfgm:    cfgm,
		cfg:     cfg,
		logs:    logs,
		log:     log,
		bus:     eventbus.New(),
		persist: persist,
		ctrl:    control.New(),
		notify:  sdNotify,
	}
	a.autosave.Store(cfg.Storage.Autosave)
	a.store = store.New(initial, a.ctrl,
		store.WithLogger(log.With(logx.String("comp", "store"))),
		store.WithOnChange(a.onEdit),
	)
	a.opener = launcher.New(launchCfg, log.With(logx.String("comp", "launcher")))
	a.loop = scheduler.New(schedCfg, a.store, a.ctrl, a.opener,
		scheduler.WithBus(a.bus),
		scheduler.WithLogger(log.With(logx.String("comp", "scheduler"))),
	)

	log.Info("app initialized",
		logx.String("config", cfgm.Path()),
		logx.String("storage", cfg.Storage.Driver),
		logx.String("targets_path", cfg.Storage.Path),
		logx.Int("targets", len(initial)),
	)
	return a, nil
}

func (a *App) Config() *config.Config { return a.cfgm.Get() }

func (a *App) Log() logx.Logger { return a.log }

func (a *App) Bus() eventbus.Bus { return a.bus }

func (a *App) Store() *store.Store { return a.store }

func (a *App) Loop() *scheduler.Loop { return a.loop }

func (a *App) Launcher() *launcher.Opener { return a.opener }

// Supervisor is nil before Start.
func (a *App) Supervisor() *supervisor.Supervisor { return a.sup }

// Done is closed when the app context ends, e.g. after a fatal goroutine error.
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		return nil
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start launches background work. With autoStart the loop starts running
// immediately instead of waiting for a start command.
func (a *App) Start(ctx context.Context, autoStart bool) error {
	if a.sup != nil {
		return errors.New("app already started")
	}
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if _, err := mapSchedulerConfig(cfg); err != nil {
			return err
		}
		if _, err := mapLauncherConfig(cfg); err != nil {
			return err
		}
		_, err := mapStorageConfig(cfg)
		return err
	})

	a.sup.GoRestart("scheduler", a.loop.Run,
		supervisor.WithRestartBackoff(250*time.Millisecond, 10*time.Second),
	)

	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	if w, ok := a.persist.(storage.Watcher); ok && a.cfg.Storage.Watch {
		// The watch needs the directory to exist.
		if err := os.MkdirAll(filepath.Dir(a.cfg.Storage.Path), 0o755); err != nil {
			a.log.Warn("cannot create storage dir; external edits will not be picked up", logx.Err(err))
		} else {
			a.sup.Go("storage.watch", func(c context.Context) error {
				return w.Watch(c, a.reloadTargets)
			})
		}
	}

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts; only the newest config matters.
				for drained := false; !drained; {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						drained = true
					}
				}
				a.applyConfig(last, newCfg)
				last = newCfg
			}
		}
	})
	if _, err := os.Stat(a.cfgm.Path()); err == nil {
		a.sup.Go("config.watch", a.cfgm.Watch)
	} else {
		a.log.Debug("config file not found; hot reload disabled", logx.String("path", a.cfgm.Path()))
	}

	if autoStart || a.cfg.Scheduler.AutoStart {
		a.loop.Start()
	}

	a.notify(daemon.SdNotifyReady)
	a.log.Info("app started", logx.Bool("loop", autoStart || a.cfg.Scheduler.AutoStart))
	return nil
}

// applyConfig hot-applies logging, scheduler, and launcher settings. Storage
// changes only take effect after a restart.
func (a *App) applyConfig(old, newCfg *config.Config) {
	sections, attrs, restart := config.SummarizeConfigChange(old, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	if restart {
		a.log.Warn("storage config changed; restart required for changes to take effect")
	}

	a.logs.Apply(mapLoggingConfig(newCfg))

	if sc, err := mapSchedulerConfig(newCfg); err != nil {
		a.log.Warn("invalid scheduler config; keeping previous", logx.Err(err))
	} else {
		a.loop.Apply(sc)
	}
	if lc, err := mapLauncherConfig(newCfg); err != nil {
		a.log.Warn("invalid launcher config; keeping previous", logx.Err(err))
	} else {
		a.opener.Apply(lc)
	}
	a.autosave.Store(newCfg.Storage.Autosave)

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}

// reloadTargets replaces the in-memory list after the storage file changed
// on disk.
func (a *App) reloadTargets(ts []Target) {
	a.store.ReplaceAll(ts)
	a.bus.Publish(eventbus.Event{Type: eventbus.TypeTargetsReloaded, Time: time.Now(), Data: len(ts)})
	a.log.Info("targets reloaded from disk", logx.Int("count", len(ts)))
}

// onEdit runs after every edit made through the store.
func (a *App) onEdit(ts []Target) {
	if !a.autosave.Load() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.save(ctx, ts); err != nil {
		a.log.Warn("autosave failed", logx.Err(err))
	}
}

func (a *App) save(ctx context.Context, ts []Target) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	return a.persist.Save(ctx, ts)
}

// Stop shuts everything down within ctx and writes the target list one last
// time. Each step is bounded so a stuck component cannot hang shutdown.
func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return a.close(ctx)
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	a.notify(daemon.SdNotifyStopping)

	a.sup.Cancel()

	a.step(ctx, "supervisor", 3*time.Second, func(c context.Context) error {
		err := a.sup.Wait(c)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	err := a.close(ctx)

	a.log.Info("stopped")
	a.logs.Close()
	return err
}

// close saves the final list and releases storage. Used directly when the app
// never started.
func (a *App) close(ctx context.Context) error {
	var saveErr error
	a.step(ctx, "storage.save", 2*time.Second, func(c context.Context) error {
		saveErr = a.save(c, a.store.Snapshot())
		return saveErr
	})
	a.step(ctx, "storage.close", time.Second, func(context.Context) error {
		return a.persist.Close()
	})
	if a.sup == nil {
		a.logs.Close()
	}
	return saveErr
}

func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	start := time.Now()
	a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", max))

	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < max {
			max = rem
		}
	}
	if max <= 0 {
		a.log.Warn("stop step skipped; no time left", logx.String("name", name))
		return
	}
	stepCtx, cancel := context.WithTimeout(ctx, max)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		}
		took := time.Since(start)
		if took >= 500*time.Millisecond {
			a.log.Info("stop step end", logx.String("name", name), logx.Duration("took", took))
		} else {
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", took))
		}
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Err(stepCtx.Err()),
			logx.Duration("elapsed", time.Since(start)),
		)
	}
}

func sdNotify(state string) {
	// Returns false with no error outside systemd.
	_, _ = daemon.SdNotify(false, state)
}
