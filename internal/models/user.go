package models

import (
	"strings"
	"unicode/utf8"
)

// User is an account together with its in-memory calendar.
type User struct {
	Username  string   `db:"username" json:"username"`
	Password  string   `db:"password" json:"-"`
	FirstName string   `db:"first_name" json:"first_name"`
	LastName  string   `db:"last_name" json:"last_name"`
	IsManager bool     `db:"is_manager" json:"is_manager"`
	Calendar  Calendar `db:"-" json:"-"`
}

// DeriveUsername returns the lower-cased first initial followed by the last name.
func DeriveUsername(firstName, lastName string) string {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return ""
	}
	initial, _ := utf8.DecodeRuneInString(firstName)
	return strings.ToLower(string(initial) + strings.ReplaceAll(lastName, " ", ""))
}

// Info strips the secret and the calendar for responses.
func (u *User) Info() UserInfo {
	return UserInfo{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsManager: u.IsManager,
	}
}

// CreateUserRequest registers a new account; the username is derived.
type CreateUserRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Password  string `json:"password" validate:"required,min=6"`
	IsManager bool   `json:"is_manager"`
}

// UpdateUserRequest changes profile fields of an existing account.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Password  *string `json:"password" validate:"omitempty,min=6"`
	IsManager *bool   `json:"is_manager"`
}
