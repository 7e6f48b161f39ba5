package target

import (
	"errors"
	"strings"
)

var (
	ErrEmptyName = errors.New("name must not be empty")
	ErrEmptyURI  = errors.New("uri must not be empty")
)

// Target is a named link with zero or more weekly triggers.
// A Target without triggers never fires on its own but can still be launched manually.
type Target struct {
	Name     string    `json:"name"`
	URI      string    `json:"uri"`
	Triggers []Trigger `json:"triggers"`
}

// Validate is for editing surfaces. The scheduler assumes well-formed targets
// and never calls it.
func (t Target) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(t.URI) == "" {
		return ErrEmptyURI
	}
	return nil
}

// Clone returns a deep copy. An empty trigger list stays empty, not nil.
func (t Target) Clone() Target {
	cp := t
	if t.Triggers != nil {
		cp.Triggers = append(make([]Trigger, 0, len(t.Triggers)), t.Triggers...)
	}
	return cp
}

// Matches reports whether any trigger equals now.
func (t Target) Matches(now Trigger) bool {
	for _, tr := range t.Triggers {
		if tr == now {
			return true
		}
	}
	return false
}

// Retire returns a copy of t with the first trigger equal to now removed.
// When nothing matches the copy is unchanged.
func (t Target) Retire(now Trigger) Target {
	cp := t.Clone()
	for i, tr := range cp.Triggers {
		if tr == now {
			cp.Triggers = append(cp.Triggers[:i], cp.Triggers[i+1:]...)
			break
		}
	}
	return cp
}

// CloneAll deep-copies a target list. The result is never nil.
func CloneAll(ts []Target) []Target {
	out := make([]Target, len(ts))
	for i := range ts {
		out[i] = ts[i].Clone()
	}
	return out
}

// TriggerCount sums the triggers across all targets.
func TriggerCount(ts []Target) int {
	n := 0
	for _, t := range ts {
		n += len(t.Triggers)
	}
	return n
}
