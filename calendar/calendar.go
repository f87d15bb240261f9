// Package calendar defines the single canonical "today" shared by prompt
// lookup, post partitioning and the daily posting gate.
package calendar

import (
	"fmt"
	"time"

	"masterboxer.com/project-spoque/clock"
)

// KeyLayout is the YYYY-MM-DD layout of a calendar-day key.
const KeyLayout = "2006-01-02"

type Calendar struct {
	clock clock.Clock
	loc   *time.Location
}

// New returns a Calendar that derives day keys from c in loc. A nil loc
// means UTC.
func New(c clock.Clock, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{clock: c, loc: loc}
}

// Today returns the calendar-day key for the current instant.
func (c *Calendar) Today() string {
	return c.Key(c.clock.Now())
}

// Key returns the calendar-day key of t in the calendar's location.
func (c *Calendar) Key(t time.Time) string {
	return t.In(c.loc).Format(KeyLayout)
}

// Location returns the calendar's time zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Parse validates a calendar-day key and returns the start of that day.
func (c *Calendar) Parse(key string) (time.Time, error) {
	t, err := time.ParseInLocation(KeyLayout, key, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", key, err)
	}
	if t.Format(KeyLayout) != key {
		return time.Time{}, fmt.Errorf("invalid date %q", key)
	}
	return t, nil
}

// Valid reports whether key is a well-formed calendar-day key.
func (c *Calendar) Valid(key string) bool {
	_, err := c.Parse(key)
	return err == nil
}

// Before reports whether day key a falls before day key b. Both keys must be
// valid; YYYY-MM-DD keys order lexically.
func Before(a, b string) bool {
	return a < b
}
