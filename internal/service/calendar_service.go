package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/team-calendar/internal/dto"
	"github.com/noah-isme/team-calendar/internal/models"
	"github.com/noah-isme/team-calendar/internal/repository"
	"github.com/noah-isme/team-calendar/internal/scheduling"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
)

type calendarEventRepository interface {
	PersistNewEvent(ctx context.Context, ev *models.Event) error
	DeleteEventAndRoster(ctx context.Context, id int64, owner string, isMeeting bool) error
	VerifyDeletion(ctx context.Context, id int64) (models.DeletionReport, error)
	ListOwned(ctx context.Context, owner string) ([]models.EventRow, error)
	ListAttending(ctx context.Context, username string) ([]models.EventRow, error)
	ListOwnedInRange(ctx context.Context, owner string, from, to time.Time) ([]models.EventRow, error)
	ListOwnedInMonth(ctx context.Context, owner string, year int, month time.Month, loc *time.Location) ([]models.EventRow, error)
	ListRoster(ctx context.Context, eventID int64) ([]string, error)
	UpdateMetadata(ctx context.Context, id int64, owner string, meta models.EventMetadata) error
}

type calendarUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type calendarMetrics interface {
	RecordCalendarOperation(operation, outcome string)
	RecordDeleteVerification(clean bool)
}

// Calendar operation labels used for metrics and logs.
const (
	opAddEvent    = "add_event"
	opRemoveEvent = "remove_event"
	opFindSlots   = "find_slots"
	opLoad        = "load_calendar"
)

// CalendarService drives the load pipeline and the transactional add/remove
// pipeline for a single user session.
type CalendarService struct {
	events    calendarEventRepository
	users     calendarUserRepository
	metrics   calendarMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCalendarService constructs the service. metrics may be nil.
func NewCalendarService(events calendarEventRepository, users calendarUserRepository, metrics calendarMetrics, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{events: events, users: users, metrics: metrics, validator: validate, logger: logger}
}

func (s *CalendarService) record(operation string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(appErrors.FromError(err).Code)
	}
	s.metrics.RecordCalendarOperation(operation, outcome)
}

// LoadUser fetches the account and rebuilds its calendar from the store.
func (s *CalendarService) LoadUser(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user "+username+" not found")
		}
		return nil, storeError(err, "failed to load user")
	}
	if err := s.LoadCalendar(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoadCalendar clears the user's calendar and refills it with every event
// the user owns followed by every meeting the user attends but does not own.
// On failure the calendar is left empty.
func (s *CalendarService) LoadCalendar(ctx context.Context, user *models.User) (err error) {
	defer func() { s.record(opLoad, err) }()
	if user == nil {
		return appErrors.Clone(appErrors.ErrValidation, "user is required")
	}
	user.Calendar.Clear()
	defer func() {
		if err != nil {
			user.Calendar.Clear()
		}
	}()

	owned, err := s.events.ListOwned(ctx, user.Username)
	if err != nil {
		s.logger.Error("failed to load owned events", zap.String("username", user.Username), zap.Error(err))
		return storeError(err, "failed to load calendar")
	}
	for _, row := range owned {
		ev, err := s.materialize(ctx, row)
		if err != nil {
			return err
		}
		user.Calendar.Add(ev)
	}

	attending, err := s.events.ListAttending(ctx, user.Username)
	if err != nil {
		s.logger.Error("failed to load attended meetings", zap.String("username", user.Username), zap.Error(err))
		return storeError(err, "failed to load calendar")
	}
	for _, row := range attending {
		if user.Calendar.Contains(row.ID) {
			continue
		}
		row.IsMeeting = true
		ev, err := s.materialize(ctx, row)
		if err != nil {
			return err
		}
		user.Calendar.Add(ev)
	}
	return nil
}

func (s *CalendarService) materialize(ctx context.Context, row models.EventRow) (*models.Event, error) {
	if !row.IsMeeting {
		return row.ToEvent(nil), nil
	}
	roster, err := s.events.ListRoster(ctx, row.ID)
	if err != nil {
		s.logger.Error("failed to load roster", zap.Int64("event_id", row.ID), zap.Error(err))
		return nil, storeError(err, "failed to load meeting roster")
	}
	return row.ToEvent(roster), nil
}

func (s *CalendarService) materializeAll(ctx context.Context, rows []models.EventRow) ([]*models.Event, error) {
	out := make([]*models.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := s.materialize(ctx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// AddEvent validates ev, checks it against the caller's calendar and
// persists it. The event joins the in-memory calendar only after commit.
func (s *CalendarService) AddEvent(ctx context.Context, user *models.User, ev *models.Event) (err error) {
	defer func() { s.record(opAddEvent, err) }()
	if user == nil || ev == nil {
		return appErrors.Clone(appErrors.ErrValidation, "user and event are required")
	}
	if ev.IsPersisted() {
		return appErrors.Clone(appErrors.ErrValidation, "event is already persisted")
	}
	if ev.Owner == "" {
		ev.Owner = user.Username
	}
	if ev.Owner != user.Username {
		return appErrors.Clone(appErrors.ErrForbidden, "events can only be added to your own calendar")
	}
	if ev.Kind == "" {
		ev.Kind = models.EventKindRegular
	}
	ev.Title = strings.TrimSpace(ev.Title)
	if err := s.validator.Struct(ev); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	if ev.IsMeeting() {
		if ev.Meeting == nil {
			return appErrors.Clone(appErrors.ErrValidation, "meeting details are required")
		}
		if !user.IsManager {
			return appErrors.Clone(appErrors.ErrForbidden, "only managers can schedule meetings")
		}
		if ev.Meeting.Organizer == "" {
			ev.Meeting.Organizer = ev.Owner
		}
		if ev.Meeting.Organizer != ev.Owner {
			return appErrors.Clone(appErrors.ErrValidation, "meeting organizer must be the calendar owner")
		}
	} else if ev.Meeting != nil {
		return appErrors.Clone(appErrors.ErrValidation, "only meetings carry attendees")
	}

	if clashes := scheduling.Conflicts(user.Calendar, ev); len(clashes) > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "event overlaps "+clashes[0].Title)
	}

	if err := s.events.PersistNewEvent(ctx, ev); err != nil {
		s.logger.Warn("persist event rolled back", zap.String("username", user.Username), zap.String("title", ev.Title), zap.Error(err))
		switch {
		case errors.Is(err, repository.ErrUnknownReference):
			return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "meeting roster names an unknown user")
		default:
			return storeError(err, "failed to persist event")
		}
	}

	user.Calendar.Add(ev)
	return nil
}

// RemoveEvent deletes ev and its roster. Meetings may only be removed by a
// manager who organizes them, plain events only by their owner. Nothing in
// the store is touched when the caller is not allowed.
func (s *CalendarService) RemoveEvent(ctx context.Context, user *models.User, ev *models.Event) (err error) {
	defer func() { s.record(opRemoveEvent, err) }()
	if user == nil || ev == nil {
		return appErrors.Clone(appErrors.ErrValidation, "user and event are required")
	}
	if ev.IsMeeting() {
		if !user.IsManager || ev.Meeting == nil || ev.Meeting.Organizer != user.Username {
			return appErrors.Clone(appErrors.ErrForbidden, "only the organizing manager can remove a meeting")
		}
	} else if ev.Owner != user.Username {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner can remove an event")
	}
	if !ev.IsPersisted() {
		return appErrors.Clone(appErrors.ErrValidation, "event has no id")
	}
	id := *ev.ID

	if err := s.events.DeleteEventAndRoster(ctx, id, user.Username, ev.IsMeeting()); err != nil {
		if errors.Is(err, repository.ErrDeleteAnomaly) {
			s.logger.Warn("delete rolled back", zap.Int64("event_id", id), zap.String("username", user.Username), zap.Error(err))
			return appErrors.WrapAs(appErrors.ErrDeleteAnomaly, err, "event or roster was not deleted")
		}
		s.logger.Error("delete failed", zap.Int64("event_id", id), zap.Error(err))
		return storeError(err, "failed to delete event")
	}

	s.verifyDeletion(ctx, id)
	user.Calendar.Remove(id)
	return nil
}

func (s *CalendarService) verifyDeletion(ctx context.Context, id int64) {
	report, err := s.events.VerifyDeletion(ctx, id)
	if err != nil {
		s.logger.Warn("could not verify deletion", zap.Int64("event_id", id), zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordDeleteVerification(report.Clean())
	}
	if report.EventRows != 0 {
		s.logger.Warn("event row still present after delete", zap.Int64("event_id", id), zap.Int("rows", report.EventRows))
	}
	if report.RosterRows != 0 {
		s.logger.Warn("roster rows still present after delete", zap.Int64("event_id", id), zap.Int("rows", report.RosterRows))
	}
}

// RemoveEventByID removes the event with id from the user's loaded calendar.
func (s *CalendarService) RemoveEventByID(ctx context.Context, user *models.User, id int64) error {
	ev, ok := user.Calendar.Find(id)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	return s.RemoveEvent(ctx, user, ev)
}

// UpdateEvent changes title, description or location of an event the user owns.
func (s *CalendarService) UpdateEvent(ctx context.Context, user *models.User, id int64, req dto.UpdateEventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	ev, ok := user.Calendar.Find(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	if ev.Owner != user.Username {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner can edit an event")
	}
	if req.Location != nil && !ev.IsMeeting() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only meetings have a location")
	}

	meta := models.EventMetadata{Title: ev.Title, Description: ev.Description, Location: ev.Location()}
	if req.Title != nil {
		meta.Title = strings.TrimSpace(*req.Title)
	}
	if meta.Title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title is required")
	}
	if req.Description != nil {
		meta.Description = req.Description
	}
	if req.Location != nil {
		meta.Location = req.Location
	}

	if err := s.events.UpdateMetadata(ctx, id, user.Username, meta); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, storeError(err, "failed to update event")
	}

	ev.Title = meta.Title
	ev.Description = meta.Description
	if ev.Meeting != nil {
		ev.Meeting.Location = meta.Location
	}
	return ev, nil
}

// EventsOnDate returns the user's events that touch the calendar day of date.
func (s *CalendarService) EventsOnDate(ctx context.Context, username string, date time.Time) ([]*models.Event, error) {
	user, err := s.LoadUser(ctx, username)
	if err != nil {
		return nil, err
	}
	return scheduling.EventsOnDate(user.Calendar, date), nil
}

// EventsInRange returns owned events intersecting [from, to] ordered by start.
func (s *CalendarService) EventsInRange(ctx context.Context, username string, from, to time.Time) ([]*models.Event, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range end precedes start")
	}
	rows, err := s.events.ListOwnedInRange(ctx, username, from, to)
	if err != nil {
		return nil, storeError(err, "failed to list events")
	}
	return s.materializeAll(ctx, rows)
}

// EventsInMonth returns owned events starting in the given month.
func (s *CalendarService) EventsInMonth(ctx context.Context, username string, year int, month time.Month, loc *time.Location) ([]*models.Event, error) {
	if month < time.January || month > time.December {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	rows, err := s.events.ListOwnedInMonth(ctx, username, year, month, loc)
	if err != nil {
		return nil, storeError(err, "failed to list events")
	}
	return s.materializeAll(ctx, rows)
}

// FindAvailableSlots loads every named attendee and searches the manager's
// working day for hourly start times free for everyone. Non-managers get an
// empty result without any store access.
func (s *CalendarService) FindAvailableSlots(ctx context.Context, manager *models.User, date time.Time, duration time.Duration, attendeeNames []string) (slots []time.Time, err error) {
	defer func() { s.record(opFindSlots, err) }()
	if manager == nil || !manager.IsManager {
		return []time.Time{}, nil
	}
	if duration <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "duration must be positive")
	}

	seen := map[string]struct{}{manager.Username: {}}
	attendees := make([]*models.User, 0, len(attendeeNames))
	for _, name := range attendeeNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		attendee, err := s.LoadUser(ctx, name)
		if err != nil {
			return nil, err
		}
		attendees = append(attendees, attendee)
	}

	return scheduling.FindAvailableSlots(manager, date, duration, attendees), nil
}
