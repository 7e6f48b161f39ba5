package target

import (
	"testing"
	"time"
)

func TestNextPicksEarliest(t *testing.T) {
	tgt := Target{Name: "A", URI: "u", Triggers: []Trigger{
		MustTrigger(Friday, 8, 0),
		MustTrigger(Tuesday, 10, 15),
	}}
	got, ok := tgt.Next(monday(12, 0, 0))
	if !ok {
		t.Fatal("expected next activation")
	}
	want := time.Date(2024, time.January, 2, 10, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestNextIsStrictlyAfter(t *testing.T) {
	tgt := Target{Name: "A", URI: "u", Triggers: []Trigger{MustTrigger(Monday, 9, 0)}}
	got, ok := tgt.Next(monday(9, 0, 0))
	if !ok {
		t.Fatal("expected next activation")
	}
	want := monday(9, 0, 0).AddDate(0, 0, 7)
	if !got.Equal(want) {
		t.Fatalf("Next = %v, want %v", got, want)
	}
}

func TestNextWithoutTriggers(t *testing.T) {
	if _, ok := (Target{Name: "A", URI: "u"}).Next(monday(0, 0, 0)); ok {
		t.Fatal("target without triggers has no next activation")
	}
}

func TestNextRespectsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	tgt := Target{Name: "A", URI: "u", Triggers: []Trigger{MustTrigger(Monday, 9, 0)}}
	after := time.Date(2024, time.January, 1, 0, 0, 0, 0, loc)
	got, ok := tgt.Next(after)
	if !ok {
		t.Fatal("expected next activation")
	}
	if got.Hour() != 9 || got.Location() != loc {
		t.Fatalf("Next = %v, want 09:00 in %v", got, loc)
	}
}

func TestPlanOrdersAcrossTargets(t *testing.T) {
	ts := []Target{
		{Name: "late", URI: "l", Triggers: []Trigger{MustTrigger(Monday, 11, 0)}},
		{Name: "early", URI: "e", Triggers: []Trigger{MustTrigger(Monday, 10, 0), MustTrigger(Tuesday, 10, 0)}},
		{Name: "tie", URI: "t", Triggers: []Trigger{MustTrigger(Monday, 11, 0)}},
	}
	plan := Plan(ts, monday(9, 0, 0), 25*time.Hour)
	if len(plan) != 4 {
		t.Fatalf("len(plan) = %d, want 4: %+v", len(plan), plan)
	}
	names := []string{plan[0].Name, plan[1].Name, plan[2].Name, plan[3].Name}
	want := []string{"early", "late", "tie", "early"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("plan order = %v, want %v", names, want)
		}
	}
}
