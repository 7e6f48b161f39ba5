package main

import (
	"context"
	"errors"
	"time"

	"github.com/urfave/cli"

	"autolink/internal/app"
	"autolink/internal/config"
	"autolink/internal/console"
	"autolink/internal/launcher"
	"autolink/internal/scheduler"
	"autolink/internal/storage"
	"autolink/internal/store"
	"autolink/internal/target"
	logx "autolink/pkg/logx"
)

var (
	days int

	nextFlags = []cli.Flag{
		cli.IntFlag{
			Name:        "days, d",
			Usage:       "how far ahead to look",
			Value:       7,
			Destination: &days,
		},
	}

	errNotSaved = errors.New("nothing changed")
)

// now is swapped in tests.
var now = time.Now

// offlineLoop stands in for the scheduler when editing the stored list
// without a running app.
type offlineLoop struct{}

func (offlineLoop) Start()                   {}
func (offlineLoop) Stop()                    {}
func (offlineLoop) Status() scheduler.Status { return scheduler.Status{} }

type session struct {
	cfg     *config.Config
	log     logx.Logger
	persist storage.Store
	targets []target.Target
	loc     *time.Location
}

func openSession() (*session, error) {
	cfg, err := app.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return nil, err
	}
	log := logx.NewConsole(cfg.Logging.Level)
	persist, err := app.OpenStorage(cfg, log)
	if err != nil {
		return nil, err
	}
	ts, err := persist.Load(context.Background())
	if err != nil {
		_ = persist.Close()
		return nil, err
	}
	return &session{cfg: cfg, log: log, persist: persist, targets: ts, loc: loc}, nil
}

func (s *session) Close() error { return s.persist.Close() }

func list(c *cli.Context) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	console.WriteList(stdout, s.targets, now().In(s.loc))
	return nil
}

func next(c *cli.Context) error {
	if days < 1 {
		return errors.New("--days must be at least 1")
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	t := now().In(s.loc)
	console.WriteUpcoming(stdout, target.Plan(s.targets, t, time.Duration(days)*24*time.Hour), t)
	return nil
}

// editCommand runs a console command against the stored list and saves the
// result. A running app picks the change up through its storage watcher.
func editCommand(verb string) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		dirty := false
		st := store.New(s.targets, nil, store.WithOnChange(func([]target.Target) { dirty = true }))
		con := console.New(console.Options{
			Out:      stdout,
			Store:    st,
			Loop:     offlineLoop{},
			Sink:     launcher.SinkFunc(func(string) {}),
			Log:      s.log,
			Now:      now,
			Location: s.loc,
		})
		con.ExecArgs(append([]string{verb}, c.Args()...))
		if !dirty {
			return errNotSaved
		}
		return s.persist.Save(context.Background(), st.Snapshot())
	}
}

func launch(c *cli.Context) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	opener, err := app.NewLauncher(s.cfg, s.log)
	if err != nil {
		return err
	}
	con := console.New(console.Options{
		Out:   stdout,
		Store: store.New(s.targets, nil),
		Loop:  offlineLoop{},
		Sink:  opener,
		Log:   s.log,
	})
	con.ExecArgs(append([]string{"launch"}, c.Args()...))
	if opener.Stats().Launched == 0 {
		return errors.New("nothing launched")
	}
	return nil
}
