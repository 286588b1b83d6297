package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/team-calendar/internal/models"
)

// CreateEventRequest is the payload for adding an event to the caller's calendar.
type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Start       time.Time `json:"start" validate:"required"`
	End         time.Time `json:"end" validate:"required"`
	Description *string   `json:"description,omitempty"`
	Meeting     bool      `json:"meeting"`
	Organizer   string    `json:"organizer,omitempty"`
	Attendees   []string  `json:"attendees,omitempty"`
	Location    *string   `json:"location,omitempty"`
}

// ToEvent builds the transient event owned by owner.
func (r CreateEventRequest) ToEvent(owner string) *models.Event {
	var ev *models.Event
	if r.Meeting {
		ev = models.NewMeeting(r.Title, r.Start, r.End, strings.TrimSpace(r.Organizer), r.Attendees)
		ev.Owner = owner
		ev.Meeting.Location = r.Location
	} else {
		ev = models.NewEvent(r.Title, r.Start, r.End, owner)
	}
	ev.Description = r.Description
	return ev
}

// UpdateEventRequest changes the metadata of an owned event. Nil fields are left as they are.
type UpdateEventRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string `json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// SlotSearchRequest asks for meeting start times on a single date.
type SlotSearchRequest struct {
	Date            string   `json:"date" validate:"required"`
	DurationMinutes int      `json:"duration_minutes" validate:"required,gt=0"`
	Attendees       []string `json:"attendees"`
	TZ              string   `json:"tz,omitempty"`
}

// SlotSearchResponse lists available start times.
type SlotSearchResponse struct {
	Date            string      `json:"date"`
	DurationMinutes int         `json:"duration_minutes"`
	Slots           []time.Time `json:"slots"`
}

// DateRange bounds a calendar query or export.
type DateRange struct {
	From time.Time
	To   time.Time
}
