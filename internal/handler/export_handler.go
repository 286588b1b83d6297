package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/team-calendar/internal/service"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
	"github.com/noah-isme/team-calendar/pkg/response"
)

type exportService interface {
	Export(ctx context.Context, username string, format service.ExportFormat, from, to time.Time) (*service.ExportFile, error)
}

// ExportHandler streams calendar exports as attachments.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export calendar
// @Description Download owned events intersecting [from, to] as iCalendar, CSV or PDF
// @Tags Calendar
// @Produce text/calendar
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "ics (default), csv or pdf"
// @Param from query string true "RFC 3339 timestamp or YYYY-MM-DD"
// @Param to query string true "RFC 3339 timestamp or YYYY-MM-DD"
// @Param tz query string false "IANA time zone for plain dates, default UTC"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /calendar/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	from, to, err := parseRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.service.Export(c.Request.Context(), claims.Username, format, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
