package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/team-calendar/internal/models"
	"github.com/noah-isme/team-calendar/pkg/export"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
)

// ExportFormat names an output encoding of a calendar range.
type ExportFormat string

const (
	ExportFormatICS ExportFormat = "ics"
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

const agendaTimeLayout = "2006-01-02 15:04"

var agendaHeaders = []string{"id", "title", "kind", "start", "end", "location", "attendees", "description"}

type rangeLister interface {
	EventsInRange(ctx context.Context, username string, from, to time.Time) ([]*models.Event, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

type icsRenderer interface {
	Render(calName string, events []export.ICSEvent) ([]byte, error)
}

// ExportFile is a rendered calendar ready to be served as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders a user's events in a date range as ICS, CSV or PDF.
type ExportService struct {
	events rangeLister
	ics    icsRenderer
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService wires the renderers.
func NewExportService(events rangeLister, ics icsRenderer, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{events: events, ics: ics, csv: csv, pdf: pdf, logger: logger}
}

// ParseExportFormat normalises a format query value.
func ParseExportFormat(raw string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(raw))); f {
	case ExportFormatICS, ExportFormatCSV, ExportFormatPDF:
		return f, nil
	case "":
		return ExportFormatICS, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be one of ics, csv, pdf")
	}
}

// Export renders username's owned events intersecting [from, to].
func (s *ExportService) Export(ctx context.Context, username string, format ExportFormat, from, to time.Time) (*ExportFile, error) {
	events, err := s.events.EventsInRange(ctx, username, from, to)
	if err != nil {
		return nil, err
	}

	base := fmt.Sprintf("calendar_%s_%s_%s", sanitizeFilename(username), from.Format("20060102"), to.Format("20060102"))
	var file ExportFile
	switch format {
	case ExportFormatICS:
		file.Body, err = s.ics.Render(username+" calendar", toICSEvents(events))
		file.ContentType = "text/calendar; charset=utf-8"
	case ExportFormatCSV:
		file.Body, err = s.csv.Render(agendaDataset(events))
		file.ContentType = "text/csv"
	case ExportFormatPDF:
		subtitle := fmt.Sprintf("%s to %s", from.Format(agendaTimeLayout), to.Format(agendaTimeLayout))
		file.Body, err = s.pdf.Render(agendaDataset(events), "Agenda for "+username, subtitle)
		file.ContentType = "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if err != nil {
		s.logger.Error("export render failed", zap.String("format", string(format)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	file.Filename = base + "." + string(format)
	return &file, nil
}

func toICSEvents(events []*models.Event) []export.ICSEvent {
	out := make([]export.ICSEvent, 0, len(events))
	for _, ev := range events {
		item := export.ICSEvent{
			UID:         fmt.Sprintf("event-%d", *ev.ID),
			Summary:     ev.Title,
			Description: deref(ev.Description),
			Location:    deref(ev.Location()),
			Start:       ev.Start,
			End:         ev.End,
		}
		if ev.IsMeeting() {
			item.Organizer = ev.Meeting.Organizer
			item.Attendees = ev.Meeting.Roster()
		}
		out = append(out, item)
	}
	return out
}

func agendaDataset(events []*models.Event) export.Dataset {
	rows := make([]map[string]string, 0, len(events))
	for _, ev := range events {
		row := map[string]string{
			"id":          strconv.FormatInt(*ev.ID, 10),
			"title":       ev.Title,
			"kind":        strings.ToLower(string(ev.Kind)),
			"start":       ev.Start.Format(agendaTimeLayout),
			"end":         ev.End.Format(agendaTimeLayout),
			"location":    deref(ev.Location()),
			"description": deref(ev.Description),
		}
		if ev.IsMeeting() {
			row["attendees"] = strings.Join(ev.Meeting.Roster(), " ")
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: agendaHeaders, Rows: rows}
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
