package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/team-calendar/internal/middleware"
	"github.com/noah-isme/team-calendar/internal/models"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
)

const dateLayout = "2006-01-02"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func loadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown time zone "+name)
	}
	return loc, nil
}

// parseDate reads a YYYY-MM-DD value as midnight in loc.
func parseDate(raw string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}
	return t, nil
}

// parseBound accepts RFC 3339 timestamps or plain dates. A plain date used
// as an upper bound covers the whole day.
func parseBound(raw string, loc *time.Location, upper bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from and to are required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := parseDate(raw, loc)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from and to must be RFC 3339 timestamps or YYYY-MM-DD dates")
	}
	if upper {
		t = t.AddDate(0, 0, 1).Add(-time.Second)
	}
	return t, nil
}

func parseEventID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "event id must be a positive integer")
	}
	return id, nil
}
