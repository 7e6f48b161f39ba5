package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli"

	"autolink/internal/app"
	"autolink/internal/console"
	logx "autolink/pkg/logx"
)

var (
	headless bool
	startNow bool

	runFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "headless",
			Usage:       "run without the console even on a terminal",
			Destination: &headless,
		},
		cli.BoolFlag{
			Name:        "start, s",
			Usage:       "start the loop right away (default: scheduler.auto_start)",
			Destination: &startNow,
		},
	}
)

const shutdownTimeout = 10 * time.Second

func run(c *cli.Context) error {
	a, err := app.NewApp(cfgPath)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.Start(ctx, startNow); err != nil {
		_ = a.Stop(context.Background(), app.StopFatalError)
		return err
	}

	quit := make(chan struct{})
	if !headless && isatty.IsTerminal(os.Stdin.Fd()) {
		con := newConsole(a)
		go con.Events(ctx)
		go func() {
			if err := con.Run(ctx); err != nil {
				a.Log().Warn("console stopped", logx.Err(err))
			}
			close(quit)
		}()
	}

	reason := app.StopUnknown
	select {
	case sig := <-sigCh:
		reason = app.StopReasonFromSignal(sig)
	case <-quit:
		reason = app.StopConsoleQuit
	case <-a.Done():
		reason = app.StopFatalError
	}
	fatal := a.Err()
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := a.Stop(stopCtx, reason); err != nil {
		return err
	}
	if reason == app.StopFatalError {
		return fatal
	}
	return nil
}

func newConsole(a *app.App) *console.Console {
	tty := isatty.IsTerminal(os.Stdout.Fd())
	var out io.Writer = os.Stdout
	if tty {
		// Translates escape codes on Windows consoles.
		out = color.Output
	}
	loc, err := a.Config().Scheduler.Location()
	if err != nil {
		loc = time.Local
	}
	return console.New(console.Options{
		In:       os.Stdin,
		Out:      out,
		Store:    a.Store(),
		Loop:     a.Loop(),
		Sink:     a.Launcher(),
		Bus:      a.Bus(),
		Log:      a.Log().With(logx.String("comp", "console")),
		Location: loc,
		Prompt:   "> ",
		Color:    tty,
	})
}
