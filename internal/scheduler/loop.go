package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"autolink/internal/control"
	"autolink/internal/eventbus"
	"autolink/internal/launcher"
	"autolink/internal/target"
	logx "autolink/pkg/logx"
)

type Option func(*Loop)

// WithClock replaces time.Now. Tests drive the loop with a fake clock.
func WithClock(now func() time.Time) Option { return func(l *Loop) { l.now = now } }

func WithBus(b eventbus.Bus) Option { return func(l *Loop) { l.bus = b } }

func WithLogger(log logx.Logger) Option { return func(l *Loop) { l.log = log } }

type Loop struct {
	src  Source
	ctrl *control.Channel
	sink launcher.Sink
	bus  eventbus.Bus
	log  logx.Logger
	now  func() time.Time

	cfgMu sync.RWMutex
	cfg   Config

	// Owned by the Run goroutine.
	running bool
	full    []target.Target
	working []target.Target
	minute  target.Trigger
	seen    bool
	// fired maps each link activated in the current minute to the working
	// set generation it fired in. gen advances on every snapshot and reset.
	fired map[firedKey]uint64
	gen   uint64

	stMu   sync.Mutex
	status Status
}

func New(cfg Config, src Source, ctrl *control.Channel, sink launcher.Sink, opts ...Option) *Loop {
	l := &Loop{
		src:   src,
		ctrl:  ctrl,
		sink:  sink,
		bus:   eventbus.Nop{},
		log:   logx.Nop(),
		now:   time.Now,
		cfg:   cfg.withDefaults(),
		fired: map[firedKey]uint64{},
	}
	for _, o := range opts {
		if o != nil {
			o(l)
		}
	}
	if l.log.IsZero() {
		l.log = logx.Nop()
	}
	if l.bus == nil {
		l.bus = eventbus.Nop{}
	}
	return l
}

// Start asks the loop to run with a fresh snapshot.
func (l *Loop) Start() { l.ctrl.Start() }

// Stop asks the loop to go idle.
func (l *Loop) Stop() { l.ctrl.Stop() }

// Apply swaps cadence and location. The running loop picks it up on its next tick.
func (l *Loop) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	l.cfgMu.Lock()
	l.cfg = cfg
	l.cfgMu.Unlock()
}

func (l *Loop) config() Config {
	l.cfgMu.RLock()
	defer l.cfgMu.RUnlock()
	return l.cfg
}

func (l *Loop) Status() Status {
	l.stMu.Lock()
	defer l.stMu.Unlock()
	st := l.status
	if st.Last != nil {
		last := *st.Last
		st.Last = &last
	}
	return st
}

// Run drives the loop until ctx is done. It returns ctx.Err().
//
// The tick sleep is interruptible only by ctx, so a stop issued while running
// takes effect on the next tick.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Debug("loop started")
	defer l.log.Debug("loop exited")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.drain()
		cfg := l.config()

		if !l.running {
			if err := l.idle(ctx, cfg.IdlePoll); err != nil {
				return err
			}
			continue
		}

		l.step(l.now().In(cfg.Location))
		if err := sleepCtx(ctx, cfg.TickInterval); err != nil {
			return err
		}
	}
}

// drain consumes every pending control message. The last one decides the run
// flag; any true among them triggers a single re-snapshot.
func (l *Loop) drain() {
	n := 0
	sawStart := false
	was := l.running
	for {
		v, ok := l.ctrl.TryRecv()
		if !ok {
			break
		}
		n++
		l.running = v
		if v {
			sawStart = true
		}
	}
	if n == 0 {
		return
	}

	switch {
	case !l.running:
		l.full, l.working = nil, nil
	case sawStart:
		l.full = l.src.Snapshot()
		l.working = target.CloneAll(l.full)
		l.gen++
		l.stMu.Lock()
		l.status.Snapshots++
		l.stMu.Unlock()
		l.log.Debug("snapshot taken",
			logx.Int("targets", len(l.full)),
			logx.Int("triggers", target.TriggerCount(l.full)),
		)
	}
	l.syncStatus()

	if was != l.running || sawStart {
		l.bus.Publish(eventbus.Event{
			Type: eventbus.TypeSchedulerState,
			Data: StateChange{
				Running:  l.running,
				Targets:  len(l.full),
				Triggers: target.TriggerCount(l.full),
				Resync:   was == l.running,
			},
		})
	}
	if was != l.running {
		l.log.Info("scheduler state changed", logx.Bool("running", l.running))
	}
}

// step runs one tick at now. It reports whether a target fired.
func (l *Loop) step(now time.Time) bool {
	obs := target.Observe(now)
	if !l.seen || obs != l.minute {
		l.minute = obs
		l.seen = true
		clear(l.fired)
	}

	fired := false
	for i, t := range l.working {
		if !t.Matches(obs) {
			continue
		}
		key := firedKey{name: t.Name, uri: t.URI}
		if gen, dup := l.fired[key]; dup {
			// A duplicate within the same working set is consumed silently
			// so the set still drains on schedule. A trigger restored by a
			// reset or snapshot belongs to next week and is left alone.
			if gen == l.gen {
				l.working[i] = t.Retire(obs)
			}
			continue
		}
		l.fired[key] = l.gen

		next := make([]target.Target, 0, len(l.working))
		next = append(next, l.working[:i]...)
		next = append(next, l.working[i+1:]...)
		l.working = append(next, t.Retire(obs))

		l.activate(t, obs, now)
		fired = true
		break
	}

	if target.TriggerCount(l.working) == 0 && target.TriggerCount(l.full) > 0 {
		l.working = target.CloneAll(l.full)
		l.gen++
		l.stMu.Lock()
		l.status.Resets++
		l.stMu.Unlock()
		l.log.Debug("working set exhausted, restored", logx.Int("triggers", target.TriggerCount(l.working)))
	}
	l.syncStatus()
	return fired
}

func (l *Loop) activate(t target.Target, trig target.Trigger, now time.Time) {
	a := Activation{
		ID:      uuid.NewString(),
		Name:    t.Name,
		URI:     t.URI,
		Trigger: trig,
		At:      now,
	}
	l.log.Info("activating target",
		logx.String("id", a.ID),
		logx.String("name", a.Name),
		logx.String("uri", a.URI),
		logx.String("trigger", trig.String()),
	)

	l.sink.Activate(t.URI)

	l.stMu.Lock()
	l.status.Activations++
	l.status.Last = &a
	l.stMu.Unlock()
	l.bus.Publish(eventbus.Event{Type: eventbus.TypeTargetActivated, Time: now, Data: a})
}

func (l *Loop) syncStatus() {
	l.stMu.Lock()
	l.status.Running = l.running
	l.status.Targets = len(l.full)
	l.status.FullTriggers = target.TriggerCount(l.full)
	l.status.WorkingTriggers = target.TriggerCount(l.working)
	l.stMu.Unlock()
}

func (l *Loop) idle(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ctrl.Ready():
	case <-t.C:
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
