package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/team-calendar/internal/models"
)

var (
	rowColumns = []string{"event_id", "owner", "title", "start_time", "end_time", "is_meeting", "description", "location"}
	slotStart  = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
)

const (
	insertEventSQL  = "INSERT INTO events (owner, title, start_time, end_time, is_meeting, description, location) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING event_id"
	insertRosterSQL = "INSERT INTO event_roster (event_id, username) VALUES ($1, $2)"
	deleteRosterSQL = "DELETE FROM event_roster WHERE event_id = $1"
	deleteEventSQL  = "DELETE FROM events WHERE event_id = $1 AND owner = $2"
)

type recordingObserver struct {
	labels []string
}

func (o *recordingObserver) ObserveDBQuery(label string, _ time.Duration) {
	o.labels = append(o.labels, label)
}

func TestPersistNewEventPlain(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	observer := &recordingObserver{}
	repo := NewEventRepository(db, observer)

	ev := models.NewEvent("Dentist", slotStart, slotStart.Add(time.Hour), "alice")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertEventSQL)).
		WithArgs("alice", "Dentist", slotStart, slotStart.Add(time.Hour), false, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow(int64(7)))
	mock.ExpectCommit()

	require.NoError(t, repo.PersistNewEvent(context.Background(), ev))
	require.NotNil(t, ev.ID)
	assert.Equal(t, int64(7), *ev.ID)
	assert.Equal(t, []string{"persist_event"}, observer.labels)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistNewEventMeetingInjectsOrganizer(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db, nil)

	ev := models.NewMeeting("Planning", slotStart, slotStart.Add(time.Hour), "olivia", []string{"alice", "bob", "alice"})
	room := "Room 4"
	ev.Meeting.Location = &room

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertEventSQL)).
		WithArgs("olivia", "Planning", slotStart, slotStart.Add(time.Hour), true, nil, "Room 4").
		WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow(int64(11)))
	mock.ExpectExec(regexp.QuoteMeta(insertRosterSQL)).WithArgs(int64(11), "alice").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertRosterSQL)).WithArgs(int64(11), "bob").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertRosterSQL)).WithArgs(int64(11), "olivia").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.PersistNewEvent(context.Background(), ev))
	assert.Equal(t, int64(11), *ev.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistNewEventRosterFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db, nil)

	ev := models.NewMeeting("Planning", slotStart, slotStart.Add(time.Hour), "olivia", []string{"ghost"})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertEventSQL)).WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow(int64(12)))
	mock.ExpectExec(regexp.QuoteMeta(insertRosterSQL)).WithArgs(int64(12), "ghost").
		WillReturnError(&pq.Error{Code: "23503", Message: "insert or update on table \"event_roster\" violates foreign key constraint"})
	mock.ExpectRollback()

	err := repo.PersistNewEvent(context.Background(), ev)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownReference)
	assert.Nil(t, ev.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistNewEventCommitFailureLeavesIDUnset(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db, nil)

	ev := models.NewEvent("Dentist", slotStart, slotStart.Add(time.Hour), "alice")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(insertEventSQL)).WillReturnRows(sqlmock.NewRows([]string{"event_id"}).AddRow(int64(3)))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	require.Error(t, repo.PersistNewEvent(context.Background(), ev))
	assert.Nil(t, ev.ID)
}

func TestDeleteEventAndRosterMeeting(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteRosterSQL)).WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(deleteEventSQL)).WithArgs(int64(11), "olivia").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteEventAndRoster(context.Background(), 11, "olivia", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEventAndRosterPlainEventWithoutRoster(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteRosterSQL)).WithArgs(int64(7)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(deleteEventSQL)).WithArgs(int64(7), "alice").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteEventAndRoster(context.Background(), 7, "alice", false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEventAndRosterEmptyMeetingRosterRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteRosterSQL)).WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteEventAndRoster(context.Background(), 11, "olivia", true)
	assert.ErrorIs(t, err, ErrDeleteAnomaly)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEventAndRosterWrongOwnerRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteRosterSQL)).WithArgs(int64(11)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(deleteEventSQL)).WithArgs(int64(11), "mallory").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteEventAndRoster(context.Background(), 11, "mallory", true)
	assert.ErrorIs(t, err, ErrDeleteAnomaly)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEventAndRosterStatementFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db, nil)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(deleteRosterSQL)).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	err := repo.DeleteEventAndRoster(context.Background(), 11, "olivia", true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeleteAnomaly)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyDeletion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db, nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM events WHERE event_id = $1")).WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM event_roster WHERE event_id = $1")).WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	report, err := repo.VerifyDeletion(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, 0, report.EventRows)
	assert.Equal(t, 2, report.RosterRows)
	assert.False(t, report.Clean())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOwnedInMonthUsesHalfOpenRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db, nil)

	first := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	next := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(rowColumns).AddRow(int64(1), "alice", "Party", first.Add(18*time.Hour), first.Add(20*time.Hour), false, nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM events e WHERE e.owner = $1 AND e.start_time >= $2 AND e.start_time < $3")).
		WithArgs("alice", first, next).
		WillReturnRows(rows)

	got, err := repo.ListOwnedInMonth(context.Background(), "alice", 2024, time.December, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Party", got[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMetadataRequiresOwnership(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db, nil)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET title = $3, description = $4, location = $5 WHERE event_id = $1 AND owner = $2")).
		WithArgs(int64(5), "mallory", "Renamed", nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateMetadata(context.Background(), 5, "mallory", models.EventMetadata{Title: "Renamed"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
