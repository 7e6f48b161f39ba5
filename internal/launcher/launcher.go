// Package launcher opens target links. It is the scheduler's activation sink:
// Activate is fire-and-forget and reports failures only through the log.
package launcher

import (
	"errors"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	logx "autolink/pkg/logx"
)

// Sink receives activations. Implementations must not block for long: the
// scheduler calls Activate from its own loop.
type Sink interface {
	Activate(uri string)
}

// Launcher is a Sink that can also open a link on explicit request. Manual
// launches are not rate limited and do not use up the scheduler's tokens.
type Launcher interface {
	Sink
	Launch(uri string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(uri string)

func (f SinkFunc) Activate(uri string) { f(uri) }

type Config struct {
	// Command is the opener argv; the URI is appended. Empty means DefaultCommand.
	Command []string
	DryRun  bool
	// MinInterval and Burst shape a token bucket; MinInterval <= 0 disables it.
	MinInterval time.Duration
	Burst       int
}

type Stats struct {
	Launched uint64
	Dropped  uint64
	Failed   uint64
}

type Opener struct {
	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter

	log logx.Logger
	run func(argv []string) error

	launched atomic.Uint64
	dropped  atomic.Uint64
	failed   atomic.Uint64
}

func New(cfg Config, log logx.Logger) *Opener {
	if log.IsZero() {
		log = logx.Nop()
	}
	o := &Opener{log: log}
	o.run = o.startDetached
	o.Apply(cfg)
	return o
}

// Apply swaps command and rate settings. Safe to call concurrently with Activate.
func (o *Opener) Apply(cfg Config) {
	var lim *rate.Limiter
	if cfg.MinInterval > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Every(cfg.MinInterval), burst)
	}
	cfg.Command = append([]string(nil), cfg.Command...)

	o.mu.Lock()
	o.cfg = cfg
	o.limiter = lim
	o.mu.Unlock()
}

// DefaultCommand returns the platform opener for goos.
func DefaultCommand(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	default:
		return []string{"xdg-open"}
	}
}

// Activate opens uri for the scheduler, subject to the rate limit.
func (o *Opener) Activate(uri string) { o.open(uri, true) }

// Launch opens uri for a user command, bypassing the rate limit.
func (o *Opener) Launch(uri string) { o.open(uri, false) }

func (o *Opener) open(uri string, limited bool) {
	o.mu.Lock()
	cfg := o.cfg
	lim := o.limiter
	o.mu.Unlock()

	if limited && lim != nil && !lim.Allow() {
		o.dropped.Add(1)
		o.log.Warn("activation dropped (rate limited)", logx.String("uri", uri))
		return
	}
	if cfg.DryRun {
		o.launched.Add(1)
		o.log.Info("activation (dry run)", logx.String("uri", uri))
		return
	}

	cmd := cfg.Command
	if len(cmd) == 0 {
		cmd = DefaultCommand(runtime.GOOS)
	}
	argv := append(append([]string(nil), cmd...), uri)
	if err := o.run(argv); err != nil {
		o.failed.Add(1)
		o.log.Warn("activation failed", logx.String("uri", uri), logx.String("cmd", argv[0]), logx.Err(err))
		return
	}
	o.launched.Add(1)
	o.log.Debug("activation started", logx.String("uri", uri), logx.String("cmd", argv[0]))
}

func (o *Opener) Stats() Stats {
	return Stats{
		Launched: o.launched.Load(),
		Dropped:  o.dropped.Load(),
		Failed:   o.failed.Load(),
	}
}

// startDetached starts argv and reaps it in the background, so a slow opener
// never holds up the caller.
func (o *Opener) startDetached(argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty command")
	}
	c := exec.Command(argv[0], argv[1:]...)
	if err := c.Start(); err != nil {
		return err
	}
	go func() {
		if err := c.Wait(); err != nil {
			o.failed.Add(1)
			o.log.Warn("opener exited with error", logx.String("cmd", argv[0]), logx.Err(err))
		}
	}()
	return nil
}
