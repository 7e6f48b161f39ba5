// Package store holds the process-wide ordered list of launch targets.
//
// Every access takes the lock, copies or mutates, and releases. Callers never
// receive references into the internal slice. After each structural mutation
// the store asks its Resyncer for a stop+start pulse so the scheduler loop
// rebuilds its private snapshot before the next match attempt.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"autolink/internal/target"
	logx "autolink/pkg/logx"
)

var ErrIndexOutOfRange = errors.New("target index out of range")

// Resyncer is implemented by control.Channel.
type Resyncer interface {
	Resync()
}

// ChangeFunc receives a copy of the list after a mutation made through the
// editing API (Insert, ReplaceAt, RemoveAt).
type ChangeFunc func(targets []target.Target)

type Store struct {
	mu      sync.Mutex
	targets []target.Target

	sync     Resyncer
	onChange ChangeFunc
	log      logx.Logger
}

type Option func(*Store)

// WithOnChange installs a hook run after each editing mutation, outside the lock.
func WithOnChange(fn ChangeFunc) Option { return func(s *Store) { s.onChange = fn } }

func WithLogger(log logx.Logger) Option { return func(s *Store) { s.log = log } }

// New seeds the store with a copy of initial.
func New(initial []target.Target, r Resyncer, opts ...Option) *Store {
	s := &Store{targets: target.CloneAll(initial), sync: r}
	for _, o := range opts {
		o(s)
	}
	if s.log.IsZero() {
		s.log = logx.Nop()
	}
	return s
}

// Snapshot returns a deep copy of the current list.
func (s *Store) Snapshot() []target.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return target.CloneAll(s.targets)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.targets)
}

// Get returns a copy of the target at i.
func (s *Store) Get(i int) (target.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.targets) {
		return target.Target{}, fmt.Errorf("get %d: %w", i, ErrIndexOutOfRange)
	}
	return s.targets[i].Clone(), nil
}

// Insert appends t and returns its index.
func (s *Store) Insert(t target.Target) int {
	s.mu.Lock()
	s.targets = append(s.targets, t.Clone())
	idx := len(s.targets) - 1
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug("target inserted", logx.Int("index", idx), logx.String("name", t.Name))
	s.changed(snap)
	return idx
}

// ReplaceAt overwrites the target at i.
func (s *Store) ReplaceAt(i int, t target.Target) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.targets) {
		s.mu.Unlock()
		return fmt.Errorf("replace %d: %w", i, ErrIndexOutOfRange)
	}
	s.targets[i] = t.Clone()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug("target replaced", logx.Int("index", i), logx.String("name", t.Name))
	s.changed(snap)
	return nil
}

// RemoveAt deletes the target at i and returns it.
func (s *Store) RemoveAt(i int) (target.Target, error) {
	s.mu.Lock()
	if i < 0 || i >= len(s.targets) {
		s.mu.Unlock()
		return target.Target{}, fmt.Errorf("remove %d: %w", i, ErrIndexOutOfRange)
	}
	removed := s.targets[i]
	s.targets = slices.Delete(s.targets, i, i+1)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.log.Debug("target removed", logx.Int("index", i), logx.String("name", removed.Name))
	s.changed(snap)
	return removed, nil
}

// ReplaceAll swaps the whole list, e.g. after the backing file changed on
// disk. It re-syncs the scheduler but does not run the change hook, so a
// reload is never written straight back.
func (s *Store) ReplaceAll(ts []target.Target) {
	cp := target.CloneAll(ts)
	s.mu.Lock()
	s.targets = cp
	s.mu.Unlock()

	s.log.Debug("targets reloaded", logx.Int("count", len(cp)))
	s.resync()
}

func (s *Store) snapshotLocked() []target.Target {
	if s.onChange == nil {
		return nil
	}
	return target.CloneAll(s.targets)
}

// changed runs after the lock is released.
func (s *Store) changed(snap []target.Target) {
	s.resync()
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func (s *Store) resync() {
	if s.sync != nil {
		s.sync.Resync()
	}
}
