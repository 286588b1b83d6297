// Package scheduling holds the calendar algorithms: interval overlap,
// conflict detection, date filtering and meeting slot search. Everything
// here is pure and operates on in-memory calendars.
package scheduling

import (
	"time"

	"github.com/noah-isme/team-calendar/internal/models"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Conflicts returns the events in cal that overlap candidate. An existing
// event persisted under the candidate's own id is skipped.
func Conflicts(cal models.Calendar, candidate *models.Event) []*models.Event {
	var clashes []*models.Event
	for _, existing := range cal {
		if existing.SameID(candidate) {
			continue
		}
		if Overlaps(existing.Start, existing.End, candidate.Start, candidate.End) {
			clashes = append(clashes, existing)
		}
	}
	return clashes
}

// HasConflict reports whether candidate overlaps any other event in cal.
func HasConflict(cal models.Calendar, candidate *models.Event) bool {
	return len(Conflicts(cal, candidate)) > 0
}

// EventsOnDate returns the events whose span, taken at day granularity in
// date's location, covers date. Both ends are inclusive.
func EventsOnDate(cal models.Calendar, date time.Time) []*models.Event {
	loc := date.Location()
	day := startOfDay(date, loc)

	matches := make([]*models.Event, 0)
	for _, ev := range cal {
		first := startOfDay(ev.Start, loc)
		last := startOfDay(ev.End, loc)
		if !day.Before(first) && !day.After(last) {
			matches = append(matches, ev)
		}
	}
	return matches
}

// Busy reports whether [start, end) overlaps anything in cal.
func Busy(cal models.Calendar, start, end time.Time) bool {
	for _, ev := range cal {
		if Overlaps(ev.Start, ev.End, start, end) {
			return true
		}
	}
	return false
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
