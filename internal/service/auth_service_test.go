package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/team-calendar/internal/models"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
)

type memoryDenylist struct {
	revoked map[string]time.Time
	err     error
}

func (m *memoryDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	if m.revoked == nil {
		m.revoked = map[string]time.Time{}
	}
	m.revoked[tokenID] = expiresAt
	return nil
}

func (m *memoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[tokenID]
	return ok, nil
}

func newAuthServiceForTest(t *testing.T, tokens tokenRevoker) *AuthService {
	t.Helper()
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	repo := newMockUserRepo(
		&models.User{Username: "olivia", Password: hash, FirstName: "Olivia", LastName: "Park", IsManager: true},
		&models.User{Username: "legacy", Password: "plain-pw", FirstName: "Lee", LastName: "Gacy"},
	)
	return NewAuthService(repo, tokens, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Minute, Issuer: "team-calendar"})
}

func TestAuthServiceLoginAndValidate(t *testing.T) {
	svc := newAuthServiceForTest(t, &memoryDenylist{})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "olivia", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(60), resp.ExpiresIn)
	assert.Equal(t, "olivia", resp.User.Username)
	assert.True(t, resp.User.IsManager)

	claims, err := svc.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "olivia", claims.Username)
	assert.True(t, claims.IsManager)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "team-calendar", claims.Issuer)
}

func TestAuthServiceLoginLegacyPlaintext(t *testing.T) {
	svc := newAuthServiceForTest(t, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "legacy", Password: "plain-pw"})
	assert.NoError(t, err)
}

func TestAuthServiceLoginRejects(t *testing.T) {
	svc := newAuthServiceForTest(t, nil)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "olivia", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "whatever"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "olivia"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	denylist := &memoryDenylist{}
	svc := newAuthServiceForTest(t, denylist)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "olivia", Password: "password123"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))
	assert.Contains(t, denylist.revoked, claims.ID)

	_, err = svc.ValidateToken(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenDenylistDown(t *testing.T) {
	denylist := &memoryDenylist{}
	svc := newAuthServiceForTest(t, denylist)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "olivia", Password: "password123"})
	require.NoError(t, err)

	denylist.err = errors.New("connection refused")
	_, err = svc.ValidateToken(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrStoreUnavailable)
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	svc := newAuthServiceForTest(t, nil)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "olivia", Password: "password123"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = svc.ValidateToken(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRejectsForeignSignature(t *testing.T) {
	svc := newAuthServiceForTest(t, nil)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{
		Username:         "olivia",
		IsManager:        true,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
