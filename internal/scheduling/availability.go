package scheduling

import (
	"time"

	"github.com/noah-isme/team-calendar/internal/models"
)

// Working hours searched for meeting slots, in the location of the requested date.
const (
	WorkdayStartHour = 9
	WorkdayEndHour   = 17
)

// SlotStep is the spacing between candidate start times.
const SlotStep = time.Hour

// FindAvailableSlots returns, in ascending order, every hourly start time
// between 09:00 and 17:00 on date at which a meeting of the given duration
// overlaps nothing in the manager's calendar nor in any attendee's calendar.
// Non-managers and non-positive durations get an empty result.
//
// Cost is O(slots x attendees x events per calendar).
func FindAvailableSlots(manager *models.User, date time.Time, duration time.Duration, attendees []*models.User) []time.Time {
	slots := make([]time.Time, 0)
	if manager == nil || !manager.IsManager || duration <= 0 {
		return slots
	}

	loc := date.Location()
	y, m, d := date.Date()
	windowEnd := time.Date(y, m, d, WorkdayEndHour, 0, 0, 0, loc)

	for i := 0; ; i++ {
		start := time.Date(y, m, d, WorkdayStartHour, 0, 0, 0, loc).Add(time.Duration(i) * SlotStep)
		end := start.Add(duration)
		if end.After(windowEnd) {
			break
		}
		if slotFree(manager, attendees, start, end) {
			slots = append(slots, start)
		}
	}
	return slots
}

func slotFree(manager *models.User, attendees []*models.User, start, end time.Time) bool {
	if Busy(manager.Calendar, start, end) {
		return false
	}
	for _, attendee := range attendees {
		if attendee == nil {
			continue
		}
		if Busy(attendee.Calendar, start, end) {
			return false
		}
	}
	return true
}
