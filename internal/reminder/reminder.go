// Package reminder turns the prayerReminders preference into cron schedules.
package reminder

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Frequencies a reminder can repeat at.
const (
	Daily    = "daily"
	Weekly   = "weekly"
	Monthly  = "monthly"
	Specific = "specific"
)

// DefaultMessage is the text shown when a reminder has none of its own.
const DefaultMessage = "It's time to pray!"

// Reminder is one entry of the prayerReminders preference. Time is HH:MM.
// SpecificDays are 0-6 from Sunday and SpecificDayTimes may override Time per day.
type Reminder struct {
	ID               string         `json:"id"`
	IsEnabled        bool           `json:"isEnabled"`
	Frequency        string         `json:"frequency"`
	Time             string         `json:"time"`
	SpecificDays     []int          `json:"specificDays,omitempty"`
	SpecificDayTimes map[int]string `json:"specificDayTimes,omitempty"`
	Message          string         `json:"message"`
}

// Default returns the reminder a new user starts with: daily at 09:00, off.
func Default() Reminder {
	return Reminder{
		ID:        "prayer-reminder-1",
		Frequency: Daily,
		Time:      "09:00",
		Message:   DefaultMessage,
	}
}

// Parse decodes a preference value. Both a list and a single reminder object
// are accepted. An empty value means no reminders.
func Parse(value string) ([]Reminder, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if strings.HasPrefix(value, "{") {
		var one Reminder
		if err := json.Unmarshal([]byte(value), &one); err != nil {
			return nil, fmt.Errorf("parse reminder: %w", err)
		}
		return []Reminder{one}, nil
	}
	var list []Reminder
	if err := json.Unmarshal([]byte(value), &list); err != nil {
		return nil, fmt.Errorf("parse reminders: %w", err)
	}
	return list, nil
}

// Encode is the inverse of Parse.
func Encode(list []Reminder) (string, error) {
	if list == nil {
		list = []Reminder{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode reminders: %w", err)
	}
	return string(b), nil
}

func clock(hhmm string) (int, int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(hhmm), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q (want HH:MM)", hhmm)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", hhmm)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", hhmm)
	}
	return hour, minute, nil
}

// Specs returns the standard five-field cron specs for r. Weekly reminders
// fire on Sunday and monthly ones on the first of the month.
func (r Reminder) Specs() ([]string, error) {
	if r.Frequency != Specific {
		hour, minute, err := clock(r.Time)
		if err != nil {
			return nil, err
		}
		switch r.Frequency {
		case Daily, "":
			return []string{fmt.Sprintf("%d %d * * *", minute, hour)}, nil
		case Weekly:
			return []string{fmt.Sprintf("%d %d * * 0", minute, hour)}, nil
		case Monthly:
			return []string{fmt.Sprintf("%d %d 1 * *", minute, hour)}, nil
		default:
			return nil, fmt.Errorf("unknown frequency %q", r.Frequency)
		}
	}

	days := map[int]bool{}
	for _, d := range r.SpecificDays {
		days[d] = true
	}
	for d := range r.SpecificDayTimes {
		days[d] = true
	}
	ordered := make([]int, 0, len(days))
	for d := range days {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("invalid weekday %d", d)
		}
		ordered = append(ordered, d)
	}
	sort.Ints(ordered)

	specs := make([]string, 0, len(ordered))
	for _, d := range ordered {
		at := r.Time
		if t, ok := r.SpecificDayTimes[d]; ok && t != "" {
			at = t
		}
		hour, minute, err := clock(at)
		if err != nil {
			return nil, fmt.Errorf("weekday %d: %w", d, err)
		}
		specs = append(specs, fmt.Sprintf("%d %d * * %d", minute, hour, d))
	}
	return specs, nil
}

// Entry is one compiled schedule of a reminder.
type Entry struct {
	Reminder Reminder
	Spec     string
	Schedule cron.Schedule
}

// Compile parses every enabled reminder's specs. Disabled reminders are skipped.
func Compile(list []Reminder) ([]Entry, error) {
	var entries []Entry
	for _, r := range list {
		if !r.IsEnabled {
			continue
		}
		specs, err := r.Specs()
		if err != nil {
			return nil, fmt.Errorf("reminder %s: %w", r.ID, err)
		}
		for _, spec := range specs {
			sched, err := cron.ParseStandard(spec)
			if err != nil {
				return nil, fmt.Errorf("reminder %s: parse %q: %w", r.ID, spec, err)
			}
			entries = append(entries, Entry{Reminder: r, Spec: spec, Schedule: sched})
		}
	}
	return entries, nil
}

// Firing is one future occurrence of a reminder.
type Firing struct {
	At         time.Time
	ReminderID string
	Message    string
}

func (e Entry) firing(at time.Time) Firing {
	msg := e.Reminder.Message
	if msg == "" {
		msg = DefaultMessage
	}
	return Firing{At: at, ReminderID: e.Reminder.ID, Message: msg}
}

// Upcoming returns the next n firings across entries after now, earliest first.
func Upcoming(entries []Entry, now time.Time, n int) []Firing {
	if n <= 0 || len(entries) == 0 {
		return nil
	}
	next := make([]time.Time, len(entries))
	for i, e := range entries {
		next[i] = e.Schedule.Next(now)
	}

	out := make([]Firing, 0, n)
	for len(out) < n {
		best := -1
		for i, t := range next {
			if t.IsZero() {
				continue
			}
			if best < 0 || t.Before(next[best]) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		out = append(out, entries[best].firing(next[best]))
		next[best] = entries[best].Schedule.Next(next[best])
	}
	return out
}
