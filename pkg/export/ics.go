package export

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

const defaultAddressDomain = "team-calendar.local"

// ICSEvent is the calendar-agnostic input of the ICS exporter.
type ICSEvent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Organizer   string
	Attendees   []string
}

// ICSExporter renders events as an iCalendar (RFC 5545) feed.
type ICSExporter struct {
	domain string
	now    func() time.Time
}

// NewICSExporter constructs an exporter. Participants are rendered as
// mailto:<username>@<domain> addresses.
func NewICSExporter(domain string) *ICSExporter {
	if strings.TrimSpace(domain) == "" {
		domain = defaultAddressDomain
	}
	return &ICSExporter{domain: domain, now: time.Now}
}

// Render serializes events into a VCALENDAR named calName.
func (e *ICSExporter) Render(calName string, events []ICSEvent) ([]byte, error) {
	cal := ical.NewCalendarFor("team-calendar")
	cal.SetMethod(ical.MethodPublish)
	if calName != "" {
		cal.SetName(calName)
		cal.SetXWRCalName(calName)
	}

	stamp := e.now().UTC()
	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("ics event %q has no uid", ev.Summary)
		}
		vevent := cal.AddEvent(ev.UID)
		vevent.SetDtStampTime(stamp)
		vevent.SetStartAt(ev.Start.UTC())
		vevent.SetEndAt(ev.End.UTC())
		vevent.SetSummary(ev.Summary)
		if ev.Description != "" {
			vevent.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			vevent.SetLocation(ev.Location)
		}
		if ev.Organizer != "" {
			vevent.SetOrganizer(e.address(ev.Organizer), ical.WithCN(ev.Organizer))
		}
		for _, attendee := range ev.Attendees {
			vevent.AddAttendee(e.address(attendee), ical.WithCN(attendee))
		}
	}

	return []byte(cal.Serialize()), nil
}

func (e *ICSExporter) address(username string) string {
	return "mailto:" + username + "@" + e.domain
}
