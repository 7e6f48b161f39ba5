package target

import (
	"sort"
	"time"

	"github.com/robfig/cron/v3"
)

var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Schedule returns the cron schedule equivalent to the trigger.
func (t Trigger) Schedule() cron.Schedule {
	s, err := specParser.Parse(t.Spec())
	if err != nil {
		// Spec() only produces in-range fields.
		panic(err)
	}
	return s
}

// Next returns the first activation time strictly after `after`, evaluated in
// after's location. ok is false for a target without triggers.
func (t Target) Next(after time.Time) (next time.Time, ok bool) {
	for _, tr := range t.Triggers {
		n := tr.Schedule().Next(after)
		if n.IsZero() {
			continue
		}
		if !ok || n.Before(next) {
			next, ok = n, true
		}
	}
	return next, ok
}

// Upcoming is one planned activation.
type Upcoming struct {
	Index  int
	Name   string
	URI    string
	At     time.Time
	Source Trigger
}

// Plan lists every activation in (after, after+horizon], earliest first.
// Targets with equal times keep list order.
func Plan(ts []Target, after time.Time, horizon time.Duration) []Upcoming {
	end := after.Add(horizon)
	var out []Upcoming
	for i, t := range ts {
		for _, tr := range t.Triggers {
			s := tr.Schedule()
			for n := s.Next(after); !n.IsZero() && !n.After(end); n = s.Next(n) {
				out = append(out, Upcoming{Index: i, Name: t.Name, URI: t.URI, At: n, Source: tr})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.Before(out[j].At)
		}
		return out[i].Index < out[j].Index
	})
	return out
}
