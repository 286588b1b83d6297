package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/team-calendar/internal/dto"
	"github.com/noah-isme/team-calendar/internal/models"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
	"github.com/noah-isme/team-calendar/pkg/response"
)

type calendarService interface {
	LoadUser(ctx context.Context, username string) (*models.User, error)
	AddEvent(ctx context.Context, user *models.User, ev *models.Event) error
	RemoveEventByID(ctx context.Context, user *models.User, id int64) error
	UpdateEvent(ctx context.Context, user *models.User, id int64, req dto.UpdateEventRequest) (*models.Event, error)
	EventsOnDate(ctx context.Context, username string, date time.Time) ([]*models.Event, error)
	EventsInRange(ctx context.Context, username string, from, to time.Time) ([]*models.Event, error)
	EventsInMonth(ctx context.Context, username string, year int, month time.Month, loc *time.Location) ([]*models.Event, error)
	FindAvailableSlots(ctx context.Context, manager *models.User, date time.Time, duration time.Duration, attendees []string) ([]time.Time, error)
}

// CalendarHandler exposes the caller's calendar. Every request rebuilds the
// user and calendar from the store.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(svc calendarService) *CalendarHandler {
	return &CalendarHandler{service: svc}
}

func (h *CalendarHandler) currentUser(c *gin.Context) (*models.User, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	user, err := h.service.LoadUser(c.Request.Context(), claims.Username)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return user, true
}

func eventList(c *gin.Context, events []*models.Event) {
	if events == nil {
		events = []*models.Event{}
	}
	response.JSON(c, http.StatusOK, events, map[string]interface{}{"count": len(events)})
}

// Load godoc
// @Summary Load calendar
// @Description Owned events followed by meetings the caller attends
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar [get]
func (h *CalendarHandler) Load(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	eventList(c, user.Calendar)
}

// OnDate godoc
// @Summary Events on a date
// @Description Events that touch the given calendar day
// @Tags Calendar
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param tz query string false "IANA time zone, default UTC"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/date [get]
func (h *CalendarHandler) OnDate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	loc, err := loadLocation(c.Query("tz"))
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := parseDate(c.Query("date"), loc)
	if err != nil {
		response.Error(c, err)
		return
	}

	events, err := h.service.EventsOnDate(c.Request.Context(), claims.Username, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	eventList(c, events)
}

// Range godoc
// @Summary Events in a range
// @Description Owned events intersecting [from, to]
// @Tags Calendar
// @Produce json
// @Param from query string true "RFC 3339 timestamp or YYYY-MM-DD"
// @Param to query string true "RFC 3339 timestamp or YYYY-MM-DD"
// @Param tz query string false "IANA time zone for plain dates, default UTC"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/range [get]
func (h *CalendarHandler) Range(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	from, to, err := parseRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	events, err := h.service.EventsInRange(c.Request.Context(), claims.Username, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	eventList(c, events)
}

func parseRange(c *gin.Context) (time.Time, time.Time, error) {
	loc, err := loadLocation(c.Query("tz"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from, err := parseBound(c.Query("from"), loc, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseBound(c.Query("to"), loc, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// Month godoc
// @Summary Events in a month
// @Description Owned events starting in the given month
// @Tags Calendar
// @Produce json
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param tz query string false "IANA time zone, default UTC"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/month [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	year, yerr := strconv.Atoi(c.Query("year"))
	month, merr := strconv.Atoi(c.Query("month"))
	if yerr != nil || merr != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "year and month must be integers"))
		return
	}
	loc, err := loadLocation(c.Query("tz"))
	if err != nil {
		response.Error(c, err)
		return
	}

	events, err := h.service.EventsInMonth(c.Request.Context(), claims.Username, year, time.Month(month), loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	eventList(c, events)
}

// CreateEvent godoc
// @Summary Add event
// @Description Add a plain event or, for managers, a meeting to the caller's calendar
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.CreateEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/events [post]
func (h *CalendarHandler) CreateEvent(c *gin.Context) {
	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	ev := req.ToEvent(user.Username)
	if err := h.service.AddEvent(c.Request.Context(), user, ev); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, ev)
}

// UpdateEvent godoc
// @Summary Edit event
// @Description Change title, description or location of an owned event
// @Tags Calendar
// @Accept json
// @Produce json
// @Param id path int true "Event ID"
// @Param payload body dto.UpdateEventRequest true "Metadata"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/events/{id} [patch]
func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	id, err := parseEventID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	ev, err := h.service.UpdateEvent(c.Request.Context(), user, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ev, nil)
}

// DeleteEvent godoc
// @Summary Remove event
// @Description Remove an owned event, or a meeting organized by the calling manager, with its roster
// @Tags Calendar
// @Produce json
// @Param id path int true "Event ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/events/{id} [delete]
func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	id, err := parseEventID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	if err := h.service.RemoveEventByID(c.Request.Context(), user, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// FindSlots godoc
// @Summary Find meeting slots
// @Description Hourly start times between 09:00 and 17:00 free for the caller and every attendee. Empty for non-managers.
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.SlotSearchRequest true "Search payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/slots [post]
func (h *CalendarHandler) FindSlots(c *gin.Context) {
	var req dto.SlotSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot search payload"))
		return
	}
	if req.DurationMinutes <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "duration_minutes must be positive"))
		return
	}
	loc, err := loadLocation(req.TZ)
	if err != nil {
		response.Error(c, err)
		return
	}
	date, err := parseDate(req.Date, loc)
	if err != nil {
		response.Error(c, err)
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	slots, err := h.service.FindAvailableSlots(c.Request.Context(), user, date, time.Duration(req.DurationMinutes)*time.Minute, req.Attendees)
	if err != nil {
		response.Error(c, err)
		return
	}
	if slots == nil {
		slots = []time.Time{}
	}
	response.JSON(c, http.StatusOK, dto.SlotSearchResponse{
		Date:            req.Date,
		DurationMinutes: req.DurationMinutes,
		Slots:           slots,
	}, nil)
}
