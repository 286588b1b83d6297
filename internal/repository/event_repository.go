package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/team-calendar/internal/models"
	"github.com/noah-isme/team-calendar/pkg/database"
)

var (
	// ErrDeleteAnomaly is returned when a paired delete touches fewer rows than required.
	ErrDeleteAnomaly = errors.New("delete affected no rows")
	// ErrUnknownReference is returned when a roster row names a user or event that does not exist.
	ErrUnknownReference = errors.New("unknown reference")
)

const eventColumns = `e.event_id, e.owner, e.title, e.start_time, e.end_time, e.is_meeting, e.description, e.location`

// QueryObserver receives the duration of each store call.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// EventRepository is the gateway to the events and event_roster tables.
type EventRepository struct {
	db       *sqlx.DB
	observer QueryObserver
}

// NewEventRepository creates a new instance of EventRepository. observer may be nil.
func NewEventRepository(db *sqlx.DB, observer QueryObserver) *EventRepository {
	return &EventRepository{db: db, observer: observer}
}

func (r *EventRepository) observe(label string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveDBQuery(label, time.Since(start))
	}
}

// PersistNewEvent inserts the event row and, for meetings, one roster row per
// distinct attendee plus the organizer, all in one transaction. The store
// assigned id is set on ev after the commit; on failure ev.ID stays nil.
func (r *EventRepository) PersistNewEvent(ctx context.Context, ev *models.Event) (err error) {
	defer r.observe("persist_event", time.Now())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin persist event: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertEvent = `INSERT INTO events (owner, title, start_time, end_time, is_meeting, description, location) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING event_id`
	var id int64
	if err = tx.QueryRowxContext(ctx, insertEvent,
		ev.Owner,
		ev.Title,
		ev.Start.UTC(),
		ev.End.UTC(),
		ev.IsMeeting(),
		ev.Description,
		ev.Location(),
	).Scan(&id); err != nil {
		return fmt.Errorf("insert event: %w", classify(err))
	}

	if ev.IsMeeting() {
		const insertRoster = `INSERT INTO event_roster (event_id, username) VALUES ($1, $2)`
		for _, username := range ev.Meeting.Roster() {
			if _, err = tx.ExecContext(ctx, insertRoster, id, username); err != nil {
				return fmt.Errorf("insert roster row for %s: %w", username, classify(err))
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit persist event: %w", err)
	}
	ev.ID = &id
	return nil
}

// DeleteEventAndRoster removes the roster rows of the event and then the
// event row owned by owner, in one transaction. The cascade declared on the
// roster table is not relied upon. The event delete must remove exactly one
// row and, for meetings, the roster delete at least one; otherwise the
// transaction is rolled back with ErrDeleteAnomaly.
func (r *EventRepository) DeleteEventAndRoster(ctx context.Context, id int64, owner string, isMeeting bool) (err error) {
	defer r.observe("delete_event", time.Now())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete event: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM event_roster WHERE event_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete roster: %w", err)
	}
	rosterRows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete roster rows affected: %w", err)
	}
	if isMeeting && rosterRows == 0 {
		err = fmt.Errorf("roster of event %d: %w", id, ErrDeleteAnomaly)
		return err
	}

	res, err = tx.ExecContext(ctx, `DELETE FROM events WHERE event_id = $1 AND owner = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	eventRows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event rows affected: %w", err)
	}
	if eventRows != 1 {
		err = fmt.Errorf("event %d owned by %s removed %d rows: %w", id, owner, eventRows, ErrDeleteAnomaly)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete event: %w", err)
	}
	return nil
}

// VerifyDeletion counts the rows still present for the event in both tables.
func (r *EventRepository) VerifyDeletion(ctx context.Context, id int64) (models.DeletionReport, error) {
	defer r.observe("verify_deletion", time.Now())

	report := models.DeletionReport{EventID: id}
	if err := r.db.GetContext(ctx, &report.EventRows, `SELECT COUNT(*) FROM events WHERE event_id = $1`, id); err != nil {
		return report, fmt.Errorf("count event rows: %w", err)
	}
	if err := r.db.GetContext(ctx, &report.RosterRows, `SELECT COUNT(*) FROM event_roster WHERE event_id = $1`, id); err != nil {
		return report, fmt.Errorf("count roster rows: %w", err)
	}
	return report, nil
}

// FindByID returns a single event row.
func (r *EventRepository) FindByID(ctx context.Context, id int64) (*models.EventRow, error) {
	defer r.observe("find_event", time.Now())

	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.event_id = $1`
	var row models.EventRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find event by id: %w", err)
	}
	return &row, nil
}

// ListOwned returns the events owned by owner ordered by start time.
func (r *EventRepository) ListOwned(ctx context.Context, owner string) ([]models.EventRow, error) {
	defer r.observe("list_owned_events", time.Now())

	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.owner = $1 ORDER BY e.start_time, e.event_id`
	rows := make([]models.EventRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, owner); err != nil {
		return nil, fmt.Errorf("list owned events: %w", err)
	}
	return rows, nil
}

// ListAttending returns the events whose roster names username.
func (r *EventRepository) ListAttending(ctx context.Context, username string) ([]models.EventRow, error) {
	defer r.observe("list_attending_events", time.Now())

	query := `SELECT ` + eventColumns + ` FROM events e JOIN event_roster er ON er.event_id = e.event_id WHERE er.username = $1 ORDER BY e.start_time, e.event_id`
	rows := make([]models.EventRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, username); err != nil {
		return nil, fmt.Errorf("list attending events: %w", err)
	}
	return rows, nil
}

// ListOwnedInRange returns owned events overlapping the closed range [from, to].
func (r *EventRepository) ListOwnedInRange(ctx context.Context, owner string, from, to time.Time) ([]models.EventRow, error) {
	defer r.observe("list_events_in_range", time.Now())

	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.owner = $1 AND e.start_time <= $3 AND e.end_time >= $2 ORDER BY e.start_time, e.event_id`
	rows := make([]models.EventRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, owner, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("list events in range: %w", err)
	}
	return rows, nil
}

// ListOwnedInMonth returns owned events starting within the calendar month in loc.
func (r *EventRepository) ListOwnedInMonth(ctx context.Context, owner string, year int, month time.Month, loc *time.Location) ([]models.EventRow, error) {
	defer r.observe("list_events_in_month", time.Now())

	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	next := first.AddDate(0, 1, 0)

	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.owner = $1 AND e.start_time >= $2 AND e.start_time < $3 ORDER BY e.start_time, e.event_id`
	rows := make([]models.EventRow, 0)
	if err := r.db.SelectContext(ctx, &rows, query, owner, first.UTC(), next.UTC()); err != nil {
		return nil, fmt.Errorf("list events in month: %w", err)
	}
	return rows, nil
}

// ListRoster returns the usernames on the roster of an event.
func (r *EventRepository) ListRoster(ctx context.Context, eventID int64) ([]string, error) {
	defer r.observe("list_roster", time.Now())

	roster := make([]string, 0)
	if err := r.db.SelectContext(ctx, &roster, `SELECT username FROM event_roster WHERE event_id = $1 ORDER BY username`, eventID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return roster, nil
}

// UpdateMetadata rewrites title, description and location of an event owned
// by owner. The interval and roster are immutable. A missing or foreign event
// yields sql.ErrNoRows.
func (r *EventRepository) UpdateMetadata(ctx context.Context, id int64, owner string, meta models.EventMetadata) error {
	defer r.observe("update_event", time.Now())

	const query = `UPDATE events SET title = $3, description = $4, location = $5 WHERE event_id = $1 AND owner = $2`
	res, err := r.db.ExecContext(ctx, query, id, owner, meta.Title, meta.Description, meta.Location)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Ping checks store connectivity.
func (r *EventRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func classify(err error) error {
	switch {
	case database.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", ErrUnknownReference, err)
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}
