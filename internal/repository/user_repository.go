package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/team-calendar/internal/models"
	"github.com/noah-isme/team-calendar/pkg/database"
)

// ErrDuplicate is returned when an insert collides with an existing key.
var ErrDuplicate = errors.New("duplicate key")

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user. A username collision yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const query = `INSERT INTO users (username, password, first_name, last_name, is_manager) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, user.Username, user.Password, user.FirstName, user.LastName, user.IsManager); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("create user %s: %w", user.Username, ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindByUsername returns a user without its calendar.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	const query = `SELECT username, password, first_name, last_name, is_manager FROM users WHERE username = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	return &user, nil
}

// List returns every user ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	const query = `SELECT username, password, first_name, last_name, is_manager FROM users ORDER BY username`
	users := make([]models.User, 0)
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Update rewrites the mutable columns of a user. A missing user yields sql.ErrNoRows.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	const query = `UPDATE users SET password = $2, first_name = $3, last_name = $4, is_manager = $5 WHERE username = $1`
	res, err := r.db.ExecContext(ctx, query, user.Username, user.Password, user.FirstName, user.LastName, user.IsManager)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a user together with the calendar rows that reference it:
// its attendance rows, the rosters of events it owns, those events and
// finally the user row. A missing user yields sql.ErrNoRows.
func (r *UserRepository) Delete(ctx context.Context, username string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM event_roster WHERE username = $1`, username); err != nil {
		return fmt.Errorf("delete user attendance: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM event_roster WHERE event_id IN (SELECT event_id FROM events WHERE owner = $1)`, username); err != nil {
		return fmt.Errorf("delete rosters of owned events: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM events WHERE owner = $1`, username); err != nil {
		return fmt.Errorf("delete owned events: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}
	return nil
}
