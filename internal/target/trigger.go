package target

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday enumerates trigger days, Monday first.
type Weekday uint8

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Weekday) String() string {
	if int(d) < len(weekdayNames) {
		return weekdayNames[d]
	}
	return "Weekday(" + strconv.Itoa(int(d)) + ")"
}

// Short returns the three-letter day name.
func (d Weekday) Short() string { return d.String()[:3] }

func (d Weekday) Valid() bool { return d <= Sunday }

// WeekdayOf converts a time.Weekday (Sunday = 0) to a Weekday (Monday = 0).
func WeekdayOf(w time.Weekday) Weekday {
	return Weekday((int(w) + 6) % 7)
}

// TimeWeekday converts back to time.Weekday.
func (d Weekday) TimeWeekday() time.Weekday {
	return time.Weekday((int(d) + 1) % 7)
}

// ParseWeekday accepts full or three-letter day names, case-insensitively.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) >= 3 {
		for i, name := range weekdayNames {
			n := strings.ToLower(name)
			if s == n || s == n[:3] {
				return Weekday(i), nil
			}
		}
	}
	return 0, fmt.Errorf("invalid day %q", s)
}

// Trigger is a weekly (weekday, hour, minute) activation point.
// Values are immutable and comparable with ==.
type Trigger struct {
	day    Weekday
	hour   uint8
	minute uint8
}

// NewTrigger validates and builds a Trigger.
func NewTrigger(day Weekday, hour, minute int) (Trigger, error) {
	if !day.Valid() {
		return Trigger{}, fmt.Errorf("invalid day %d", day)
	}
	if hour < 0 || hour > 23 {
		return Trigger{}, fmt.Errorf("invalid hour %d", hour)
	}
	if minute < 0 || minute > 59 {
		return Trigger{}, fmt.Errorf("invalid minute %d", minute)
	}
	return Trigger{day: day, hour: uint8(hour), minute: uint8(minute)}, nil
}

// MustTrigger is NewTrigger for constant inputs; it panics on invalid values.
func MustTrigger(day Weekday, hour, minute int) Trigger {
	tr, err := NewTrigger(day, hour, minute)
	if err != nil {
		panic(err)
	}
	return tr
}

// Observe truncates a clock reading to the minute. Seconds and below are dropped.
func Observe(t time.Time) Trigger {
	return Trigger{day: WeekdayOf(t.Weekday()), hour: uint8(t.Hour()), minute: uint8(t.Minute())}
}

func (t Trigger) Day() Weekday { return t.day }
func (t Trigger) Hour() int    { return int(t.hour) }
func (t Trigger) Minute() int  { return int(t.minute) }

// Clock returns the time of day as HH:MM.
func (t Trigger) Clock() string { return fmt.Sprintf("%02d:%02d", t.hour, t.minute) }

func (t Trigger) String() string { return t.day.String() + " " + t.Clock() }

// Spec returns the equivalent 5-field cron expression.
func (t Trigger) Spec() string {
	return fmt.Sprintf("%d %d * * %d", t.minute, t.hour, int(t.day.TimeWeekday()))
}

// ParseTrigger parses "<day> <HH:MM>", e.g. "mon 09:00" or "Friday 17:30".
func ParseTrigger(s string) (Trigger, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Trigger{}, fmt.Errorf("invalid trigger %q, expected '<day> HH:MM'", s)
	}
	day, err := ParseWeekday(parts[0])
	if err != nil {
		return Trigger{}, err
	}
	h, m, err := parseHHMM(parts[1])
	if err != nil {
		return Trigger{}, err
	}
	return NewTrigger(day, h, m)
}

func parseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

type triggerJSON struct {
	Day  string `json:"day"`
	Time string `json:"time"`
}

func (t Trigger) MarshalJSON() ([]byte, error) {
	return json.Marshal(triggerJSON{Day: t.day.String(), Time: t.Clock()})
}

func (t *Trigger) UnmarshalJSON(b []byte) error {
	var raw triggerJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseTrigger(raw.Day + " " + raw.Time)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
