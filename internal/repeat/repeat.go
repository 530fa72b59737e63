// Package repeat defines the closed vocabulary of repeat-day markers used by
// recurring tasks and decides whether a marker matches a given calendar date.
package repeat

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Marker kinds.
type Kind int

const (
	// KindWeekday matches a fixed weekday ("mon".."sun").
	KindWeekday Kind = iota
	// KindDaily matches every day.
	KindDaily
	// KindInterval matches every N elapsed days from an anchor date.
	KindInterval
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// Marker is a single parsed repeat marker.
type Marker struct {
	Kind    Kind
	Weekday time.Weekday // for KindWeekday
	Every   int          // for KindInterval; days between occurrences, >= 1
}

// Parse parses a marker string: a weekday name ("mon".."sun"), "daily", or
// an interval marker "every_<n>_days".
func Parse(s string) (Marker, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Marker{}, fmt.Errorf("empty repeat marker")
	}
	if s == "daily" {
		return Marker{Kind: KindDaily}, nil
	}
	if wd, ok := weekdayNames[s]; ok {
		return Marker{Kind: KindWeekday, Weekday: wd}, nil
	}
	if rest, ok := strings.CutPrefix(s, "every_"); ok {
		numStr, ok := strings.CutSuffix(rest, "_days")
		if !ok {
			numStr, ok = strings.CutSuffix(rest, "_day")
		}
		if ok {
			n, err := strconv.Atoi(numStr)
			if err != nil || n < 1 {
				return Marker{}, fmt.Errorf("invalid interval marker: %q", s)
			}
			return Marker{Kind: KindInterval, Every: n}, nil
		}
	}
	return Marker{}, fmt.Errorf("unknown repeat marker: %q", s)
}

// ParseAll parses a set of markers, rejecting the whole set on the first
// invalid entry.
func ParseAll(markers []string) ([]Marker, error) {
	out := make([]Marker, 0, len(markers))
	for _, s := range markers {
		m, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Matches reports whether the marker fires on the given date. The anchor is
// the reference date for interval markers (typically task creation).
func (m Marker) Matches(date, anchor time.Time) bool {
	switch m.Kind {
	case KindDaily:
		return true
	case KindWeekday:
		return date.Weekday() == m.Weekday
	case KindInterval:
		days := daysBetween(anchor, date)
		return days >= 0 && days%m.Every == 0
	}
	return false
}

// AnyMatches reports whether any of the markers fires on the given date.
// Unparseable markers are skipped rather than failing the whole set, so one
// bad marker on a stored task cannot freeze its siblings.
func AnyMatches(markers []string, date, anchor time.Time) bool {
	for _, s := range markers {
		m, err := Parse(s)
		if err != nil {
			continue
		}
		if m.Matches(date, anchor) {
			return true
		}
	}
	return false
}

// NextRotation returns the child that follows current in the pool, wrapping
// around. An empty pool returns "". A current id not in the pool (or empty)
// starts the rotation at the first entry.
func NextRotation(pool []string, current string) string {
	if len(pool) == 0 {
		return ""
	}
	for i, id := range pool {
		if id == current {
			return pool[(i+1)%len(pool)]
		}
	}
	return pool[0]
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayKey formats t as the calendar-date bucket key used for rollover
// re-entrancy.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func daysBetween(from, to time.Time) int {
	f := StartOfDay(from)
	t := StartOfDay(to)
	return int(t.Sub(f).Hours() / 24)
}
