package target

import (
	"encoding/json"
	"testing"
	"time"
)

// 2024-01-01 was a Monday.
func monday(h, m, s int) time.Time {
	return time.Date(2024, time.January, 1, h, m, s, 0, time.UTC)
}

func TestObserveIgnoresSeconds(t *testing.T) {
	a := Observe(monday(9, 0, 0))
	b := Observe(monday(9, 0, 59))
	if a != b {
		t.Fatalf("observations in the same minute differ: %v vs %v", a, b)
	}
	if a != MustTrigger(Monday, 9, 0) {
		t.Fatalf("Observe = %v, want Monday 09:00", a)
	}
	if Observe(monday(9, 1, 0)) == a {
		t.Fatal("next minute must not equal")
	}
}

func TestWeekdayConversion(t *testing.T) {
	for d := Monday; d <= Sunday; d++ {
		if got := WeekdayOf(d.TimeWeekday()); got != d {
			t.Fatalf("round trip %v -> %v", d, got)
		}
	}
	if WeekdayOf(time.Sunday) != Sunday {
		t.Fatal("time.Sunday should map to Sunday")
	}
}

func TestMatches(t *testing.T) {
	tgt := Target{Name: "A", URI: "u1", Triggers: []Trigger{
		MustTrigger(Monday, 9, 0),
		MustTrigger(Wednesday, 14, 30),
	}}
	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exact", monday(9, 0, 0), true},
		{"same minute later second", monday(9, 0, 42), true},
		{"next minute", monday(9, 1, 0), false},
		{"other day same time", monday(9, 0, 0).AddDate(0, 0, 1), false},
		{"second trigger", monday(14, 30, 5).AddDate(0, 0, 2), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tgt.Matches(Observe(tt.now)); got != tt.want {
				t.Fatalf("Matches = %v, want %v", got, tt.want)
			}
		})
	}

	if (Target{Name: "empty", URI: "u"}).Matches(Observe(monday(9, 0, 0))) {
		t.Fatal("target without triggers must never match")
	}
}

func TestRetireRemovesExactlyOne(t *testing.T) {
	mon9 := MustTrigger(Monday, 9, 0)
	tue10 := MustTrigger(Tuesday, 10, 0)
	tgt := Target{Name: "A", URI: "u1", Triggers: []Trigger{tue10, mon9, mon9}}

	got := tgt.Retire(mon9)
	if len(got.Triggers) != 2 || got.Triggers[0] != tue10 || got.Triggers[1] != mon9 {
		t.Fatalf("Retire = %v", got.Triggers)
	}
	// Original is untouched.
	if len(tgt.Triggers) != 3 {
		t.Fatalf("Retire mutated the receiver: %v", tgt.Triggers)
	}
}

func TestRetireNoMatchIsIdentity(t *testing.T) {
	tgt := Target{Name: "A", URI: "u1", Triggers: []Trigger{MustTrigger(Tuesday, 10, 0)}}
	got := tgt.Retire(MustTrigger(Monday, 10, 0))
	if got.Name != tgt.Name || got.URI != tgt.URI || len(got.Triggers) != 1 || got.Triggers[0] != tgt.Triggers[0] {
		t.Fatalf("Retire without match changed target: %+v", got)
	}
	got.Triggers[0] = MustTrigger(Sunday, 0, 0)
	if tgt.Triggers[0] == got.Triggers[0] {
		t.Fatal("Retire must return a copy")
	}
}

func TestCloneAllAndTriggerCount(t *testing.T) {
	ts := []Target{
		{Name: "A", URI: "a", Triggers: []Trigger{MustTrigger(Monday, 1, 0), MustTrigger(Monday, 2, 0)}},
		{Name: "B", URI: "b"},
		{Name: "C", URI: "c", Triggers: []Trigger{MustTrigger(Sunday, 23, 59)}},
	}
	if n := TriggerCount(ts); n != 3 {
		t.Fatalf("TriggerCount = %d, want 3", n)
	}
	cp := CloneAll(ts)
	cp[0].Triggers[0] = MustTrigger(Friday, 5, 5)
	if ts[0].Triggers[0] != MustTrigger(Monday, 1, 0) {
		t.Fatal("CloneAll shares trigger storage")
	}
	if got := CloneAll(nil); got == nil || len(got) != 0 {
		t.Fatalf("CloneAll(nil) = %#v", got)
	}
}

func TestCloneKeepsEmptyTriggerList(t *testing.T) {
	empty := Target{Name: "A", URI: "a", Triggers: []Trigger{}}
	if cp := empty.Clone(); cp.Triggers == nil || len(cp.Triggers) != 0 {
		t.Fatalf("Clone of empty triggers = %#v", cp.Triggers)
	}
	if cp := (Target{Name: "B", URI: "b"}).Clone(); cp.Triggers != nil {
		t.Fatalf("Clone of nil triggers = %#v", cp.Triggers)
	}
}

func TestValidate(t *testing.T) {
	if err := (Target{Name: " ", URI: "u"}).Validate(); err != ErrEmptyName {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
	if err := (Target{Name: "n", URI: ""}).Validate(); err != ErrEmptyURI {
		t.Fatalf("err = %v, want ErrEmptyURI", err)
	}
	if err := (Target{Name: "n", URI: "u"}).Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		raw  string
		want Trigger
		ok   bool
	}{
		{"mon 09:00", MustTrigger(Monday, 9, 0), true},
		{"Friday 17:30", MustTrigger(Friday, 17, 30), true},
		{"SUN 23:59", MustTrigger(Sunday, 23, 59), true},
		{"mon 24:00", Trigger{}, false},
		{"mon 9", Trigger{}, false},
		{"funday 10:00", Trigger{}, false},
		{"mon", Trigger{}, false},
	}
	for _, tt := range tests {
		got, err := ParseTrigger(tt.raw)
		if tt.ok && err != nil {
			t.Fatalf("ParseTrigger(%q) error: %v", tt.raw, err)
		}
		if !tt.ok {
			if err == nil {
				t.Fatalf("ParseTrigger(%q) expected error", tt.raw)
			}
			continue
		}
		if got != tt.want {
			t.Fatalf("ParseTrigger(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestNewTriggerRanges(t *testing.T) {
	if _, err := NewTrigger(Weekday(7), 0, 0); err == nil {
		t.Fatal("expected error for day 7")
	}
	if _, err := NewTrigger(Monday, -1, 0); err == nil {
		t.Fatal("expected error for hour -1")
	}
	if _, err := NewTrigger(Monday, 0, 60); err == nil {
		t.Fatal("expected error for minute 60")
	}
}

func TestTriggerJSON(t *testing.T) {
	in := Target{Name: "standup", URI: "https://meet.example/abc", Triggers: []Trigger{MustTrigger(Thursday, 8, 5)}}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"standup","uri":"https://meet.example/abc","triggers":[{"day":"Thursday","time":"08:05"}]}`
	if string(b) != want {
		t.Fatalf("json = %s\nwant %s", b, want)
	}

	var bad Trigger
	if err := json.Unmarshal([]byte(`{"day":"Thursday","time":"8h"}`), &bad); err == nil {
		t.Fatal("expected error for malformed time")
	}
}

func TestTriggerSpec(t *testing.T) {
	if got := MustTrigger(Monday, 9, 5).Spec(); got != "5 9 * * 1" {
		t.Fatalf("Spec = %q", got)
	}
	if got := MustTrigger(Sunday, 0, 0).Spec(); got != "0 0 * * 0" {
		t.Fatalf("Spec = %q", got)
	}
}
