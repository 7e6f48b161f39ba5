package scheduler

import (
	"time"

	"autolink/internal/target"
)

const (
	DefaultTickInterval = 5 * time.Second
	DefaultIdlePoll     = 250 * time.Millisecond
)

// Config controls loop cadence. Zero values select defaults.
type Config struct {
	// TickInterval is the sleep between running ticks. It bounds activation
	// latency and must stay well under a minute.
	TickInterval time.Duration
	// IdlePoll is how long an idle loop waits before re-checking control messages.
	IdlePoll time.Duration
	// Location is the zone triggers are evaluated in. Nil means time.Local.
	Location *time.Location
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.IdlePoll <= 0 {
		c.IdlePoll = DefaultIdlePoll
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

// Source is the shared store as seen by the loop.
type Source interface {
	Snapshot() []target.Target
}

// Activation describes one fired trigger. It is the payload of
// eventbus.TypeTargetActivated events.
type Activation struct {
	ID      string
	Name    string
	URI     string
	Trigger target.Trigger
	At      time.Time
}

// StateChange is the payload of eventbus.TypeSchedulerState events.
type StateChange struct {
	Running  bool
	Targets  int
	Triggers int
	// Resync is set when the loop only refreshed its snapshot and the run
	// state did not change.
	Resync bool
}

type Status struct {
	Running         bool
	Targets         int
	FullTriggers    int
	WorkingTriggers int
	Activations     uint64
	Snapshots       uint64
	Resets          uint64
	Last            *Activation
}

type firedKey struct {
	name string
	uri  string
}
