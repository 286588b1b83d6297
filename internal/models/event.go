package models

import (
	"strings"
	"time"
)

// EventKind tags an event as a plain calendar entry or a meeting.
type EventKind string

const (
	EventKindRegular EventKind = "REGULAR"
	EventKindMeeting EventKind = "MEETING"
)

// Event is a single contiguous interval on a user's calendar. ID stays nil
// until the store assigns one on insert.
type Event struct {
	ID          *int64          `json:"id,omitempty"`
	Title       string          `json:"title" validate:"required"`
	Start       time.Time       `json:"start" validate:"required"`
	End         time.Time       `json:"end" validate:"required,gtefield=Start"`
	Owner       string          `json:"owner"`
	Description *string         `json:"description,omitempty"`
	Kind        EventKind       `json:"kind" validate:"oneof=REGULAR MEETING"`
	Meeting     *MeetingDetails `json:"meeting,omitempty"`
}

// MeetingDetails carries the attributes only meetings have.
type MeetingDetails struct {
	Organizer string   `json:"organizer"`
	Attendees []string `json:"attendees"`
	Location  *string  `json:"location,omitempty"`
}

// NewEvent builds a transient plain event.
func NewEvent(title string, start, end time.Time, owner string) *Event {
	return &Event{Title: title, Start: start, End: end, Owner: owner, Kind: EventKindRegular}
}

// NewMeeting builds a transient meeting organized by organizer.
func NewMeeting(title string, start, end time.Time, organizer string, attendees []string) *Event {
	return &Event{
		Title: title,
		Start: start,
		End:   end,
		Owner: organizer,
		Kind:  EventKindMeeting,
		Meeting: &MeetingDetails{
			Organizer: organizer,
			Attendees: append([]string(nil), attendees...),
		},
	}
}

// IsMeeting reports whether the event carries a roster.
func (e *Event) IsMeeting() bool {
	return e != nil && e.Kind == EventKindMeeting
}

// IsPersisted reports whether the store has assigned an id.
func (e *Event) IsPersisted() bool {
	return e != nil && e.ID != nil
}

// Duration is derived from the interval and never stored.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// SameID reports whether both events are persisted under the same id.
func (e *Event) SameID(other *Event) bool {
	return e.IsPersisted() && other.IsPersisted() && *e.ID == *other.ID
}

// Location returns the meeting location, or nil for plain events.
func (e *Event) Location() *string {
	if e.Meeting == nil {
		return nil
	}
	return e.Meeting.Location
}

// Roster returns the distinct attendees with the organizer appended when absent.
func (m *MeetingDetails) Roster() []string {
	if m == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(m.Attendees)+1)
	roster := make([]string, 0, len(m.Attendees)+1)
	for _, username := range m.Attendees {
		username = strings.TrimSpace(username)
		if username == "" {
			continue
		}
		if _, ok := seen[username]; ok {
			continue
		}
		seen[username] = struct{}{}
		roster = append(roster, username)
	}
	if m.Organizer != "" {
		if _, ok := seen[m.Organizer]; !ok {
			roster = append(roster, m.Organizer)
		}
	}
	return roster
}

// HasAttendee reports whether username is on the roster.
func (m *MeetingDetails) HasAttendee(username string) bool {
	for _, attendee := range m.Roster() {
		if attendee == username {
			return true
		}
	}
	return false
}

// EventRow mirrors one row of the events table.
type EventRow struct {
	ID          int64     `db:"event_id"`
	Owner       string    `db:"owner"`
	Title       string    `db:"title"`
	StartTime   time.Time `db:"start_time"`
	EndTime     time.Time `db:"end_time"`
	IsMeeting   bool      `db:"is_meeting"`
	Description *string   `db:"description"`
	Location    *string   `db:"location"`
}

// ToEvent materializes the row. Meetings get the owner as organizer and the given roster.
func (r EventRow) ToEvent(roster []string) *Event {
	id := r.ID
	ev := &Event{
		ID:          &id,
		Title:       r.Title,
		Start:       r.StartTime,
		End:         r.EndTime,
		Owner:       r.Owner,
		Description: r.Description,
		Kind:        EventKindRegular,
	}
	if r.IsMeeting {
		ev.Kind = EventKindMeeting
		ev.Meeting = &MeetingDetails{
			Organizer: r.Owner,
			Attendees: roster,
			Location:  r.Location,
		}
	}
	return ev
}

// EventMetadata is the subset of an event that may change after creation.
type EventMetadata struct {
	Title       string
	Description *string
	Location    *string
}

// DeletionReport counts rows still present for an event after a delete.
type DeletionReport struct {
	EventID    int64 `json:"event_id"`
	EventRows  int   `json:"event_rows"`
	RosterRows int   `json:"roster_rows"`
}

// Clean reports whether both the event row and its roster are gone.
func (r DeletionReport) Clean() bool {
	return r.EventRows == 0 && r.RosterRows == 0
}
