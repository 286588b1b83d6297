package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/team-calendar/internal/models"
	"github.com/noah-isme/team-calendar/internal/repository"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
)

type mockUserRepo struct {
	users   map[string]*models.User
	deleted []string
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: map[string]*models.User{}}
	for _, u := range users {
		clone := *u
		repo.users[u.Username] = &clone
	}
	return repo
}

func (m *mockUserRepo) Create(_ context.Context, user *models.User) error {
	if _, ok := m.users[user.Username]; ok {
		return fmt.Errorf("insert user: %w", repository.ErrDuplicate)
	}
	clone := *user
	m.users[user.Username] = &clone
	return nil
}

func (m *mockUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if user, ok := m.users[username]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := m.users[user.Username]; !ok {
		return sql.ErrNoRows
	}
	clone := *user
	m.users[user.Username] = &clone
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, username string) error {
	if _, ok := m.users[username]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, username)
	m.deleted = append(m.deleted, username)
	return nil
}

func TestUserServiceCreateDerivesUsername(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)

	manager := &models.JWTClaims{Username: "olivia", IsManager: true}
	user, err := svc.Create(context.Background(), manager, models.CreateUserRequest{
		FirstName: " John ",
		LastName:  "Van Dyke",
		Password:  "secret1",
		IsManager: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "jvandyke", user.Username)
	assert.True(t, user.IsManager)
	assert.NotEqual(t, "secret1", repo.users["jvandyke"].Password)
	assert.True(t, VerifyPassword(repo.users["jvandyke"].Password, "secret1"))
}

func TestUserServiceCreateDuplicate(t *testing.T) {
	repo := newMockUserRepo(&models.User{Username: "jsmith"})
	svc := NewUserService(repo, nil, nil)

	_, err := svc.Create(context.Background(), nil, models.CreateUserRequest{FirstName: "Jane", LastName: "Smith", Password: "secret1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, "username already taken", appErrors.FromError(err).Message)
}

func TestUserServiceCreateValidation(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)

	_, err := svc.Create(context.Background(), nil, models.CreateUserRequest{FirstName: "  ", LastName: "Smith", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), nil, models.CreateUserRequest{FirstName: "Jane", LastName: "Smith", Password: "123"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceCreateManagerFlagNeedsManager(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewUserService(repo, nil, nil)
	req := models.CreateUserRequest{FirstName: "Eve", LastName: "Mallory", Password: "secret1", IsManager: true}

	_, err := svc.Create(context.Background(), nil, req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Create(context.Background(), &models.JWTClaims{Username: "alice"}, req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, repo.users)

	req.IsManager = false
	user, err := svc.Create(context.Background(), nil, req)
	require.NoError(t, err)
	assert.Equal(t, "emallory", user.Username)
	assert.False(t, repo.users["emallory"].IsManager)
}

func TestUserServiceGetMissing(t *testing.T) {
	svc := NewUserService(newMockUserRepo(), nil, nil)
	_, err := svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserServiceUpdate(t *testing.T) {
	repo := newMockUserRepo(&models.User{Username: "jsmith", FirstName: "Jane", LastName: "Smith"})
	svc := NewUserService(repo, nil, nil)
	self := &models.JWTClaims{Username: "jsmith"}

	first := "Janet"
	user, err := svc.Update(context.Background(), self, "jsmith", models.UpdateUserRequest{FirstName: &first})
	require.NoError(t, err)
	assert.Equal(t, "Janet", user.FirstName)
	assert.Equal(t, "Janet", repo.users["jsmith"].FirstName)

	promote := true
	_, err = svc.Update(context.Background(), self, "jsmith", models.UpdateUserRequest{IsManager: &promote})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Update(context.Background(), &models.JWTClaims{Username: "other", IsManager: true}, "jsmith", models.UpdateUserRequest{FirstName: &first})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestUserServiceDelete(t *testing.T) {
	repo := newMockUserRepo(&models.User{Username: "jsmith"}, &models.User{Username: "olivia", IsManager: true})
	svc := NewUserService(repo, nil, nil)

	err := svc.Delete(context.Background(), &models.JWTClaims{Username: "olivia", IsManager: true}, "jsmith")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	require.NoError(t, svc.Delete(context.Background(), &models.JWTClaims{Username: "jsmith"}, "jsmith"))
	assert.Equal(t, []string{"jsmith"}, repo.deleted)

	err = svc.Delete(context.Background(), &models.JWTClaims{Username: "jsmith"}, "jsmith")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestVerifyPasswordAcceptsLegacyPlaintext(t *testing.T) {
	assert.True(t, VerifyPassword("hunter2", "hunter2"))
	assert.False(t, VerifyPassword("hunter2", "hunter3"))

	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "hunter2"))
	assert.False(t, VerifyPassword(hash, hash))
}
