package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/team-calendar/internal/models"
	"github.com/noah-isme/team-calendar/internal/service"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
)

type authServiceMock struct {
	loggedOut *models.JWTClaims
	loginReq  models.LoginRequest
}

func (m *authServiceMock) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.loginReq = req
	if req.Password != "password123" {
		return nil, appErrors.ErrInvalidCredentials
	}
	return &models.LoginResponse{AccessToken: "token", TokenType: "Bearer", User: models.UserInfo{Username: req.Username}}, nil
}

func (m *authServiceMock) Logout(_ context.Context, claims *models.JWTClaims) error {
	m.loggedOut = claims
	return nil
}

type userServiceMock struct {
	created models.CreateUserRequest
	actor   *models.JWTClaims
}

func (m *userServiceMock) List(context.Context) ([]models.User, error) {
	return []models.User{{Username: "alice", Password: "secret"}, {Username: "olivia", IsManager: true}}, nil
}

func (m *userServiceMock) Get(_ context.Context, username string) (*models.User, error) {
	if username != "alice" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return &models.User{Username: "alice", Password: "secret", FirstName: "Alice"}, nil
}

func (m *userServiceMock) Create(_ context.Context, actor *models.JWTClaims, req models.CreateUserRequest) (*models.User, error) {
	m.created = req
	m.actor = actor
	if req.IsManager && (actor == nil || !actor.IsManager) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only managers can grant the manager flag")
	}
	if req.LastName == "Taken" {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already taken")
	}
	return &models.User{Username: models.DeriveUsername(req.FirstName, req.LastName), Password: "hash"}, nil
}

func (m *userServiceMock) Update(_ context.Context, actor *models.JWTClaims, username string, req models.UpdateUserRequest) (*models.User, error) {
	if actor.Username != username {
		return nil, appErrors.ErrForbidden
	}
	return &models.User{Username: username, FirstName: *req.FirstName}, nil
}

func (m *userServiceMock) Delete(_ context.Context, actor *models.JWTClaims, username string) error {
	if actor.Username != username {
		return appErrors.ErrForbidden
	}
	return nil
}

type exportServiceMock struct {
	format service.ExportFormat
}

func (m *exportServiceMock) Export(_ context.Context, username string, format service.ExportFormat, _, _ time.Time) (*service.ExportFile, error) {
	m.format = format
	return &service.ExportFile{Filename: "calendar_" + username + ".csv", ContentType: "text/csv", Body: []byte("id,title\n")}, nil
}

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }

func TestAuthHandlerLogin(t *testing.T) {
	mock := &authServiceMock{}
	handler := NewAuthHandler(mock)

	c, w := newTestContext(http.MethodPost, "/auth/login", []byte(`{"username":"olivia","password":"password123"}`), "")
	handler.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"access_token":"token"`)
	assert.NotEmpty(t, mock.loginReq.IP)

	c, w = newTestContext(http.MethodPost, "/auth/login", []byte(`{"username":"olivia","password":"nope"}`), "")
	handler.Login(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLogout(t *testing.T) {
	mock := &authServiceMock{}
	handler := NewAuthHandler(mock)

	c, w := newTestContext(http.MethodPost, "/auth/logout", nil, "")
	handler.Logout(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	c, _ = newTestContext(http.MethodPost, "/auth/logout", nil, "alice")
	handler.Logout(c)
	require.Equal(t, http.StatusNoContent, c.Writer.Status())
	require.NotNil(t, mock.loggedOut)
	assert.Equal(t, "alice", mock.loggedOut.Username)
}

func TestUserHandlerCreate(t *testing.T) {
	mock := &userServiceMock{}
	handler := NewUserHandler(mock)

	c, w := newTestContext(http.MethodPost, "/users", []byte(`{"first_name":"John","last_name":"Smith","password":"secret1"}`), "")
	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"jsmith"`)
	assert.NotContains(t, w.Body.String(), "hash")

	c, w = newTestContext(http.MethodPost, "/users", []byte(`{"first_name":"John","last_name":"Taken","password":"secret1"}`), "")
	handler.Create(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "username already taken")
}

func TestUserHandlerCreateForwardsCaller(t *testing.T) {
	mock := &userServiceMock{}
	handler := NewUserHandler(mock)
	body := []byte(`{"first_name":"Eve","last_name":"Mallory","password":"secret1","is_manager":true}`)

	c, w := newTestContext(http.MethodPost, "/users", body, "")
	handler.Create(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, mock.actor)

	c, w = newTestContext(http.MethodPost, "/users", body, "olivia")
	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mock.actor)
	assert.True(t, mock.actor.IsManager)
	assert.Equal(t, "emallory", c.GetString("auditSubject"))
}

func TestUserHandlerListHidesPasswords(t *testing.T) {
	handler := NewUserHandler(&userServiceMock{})
	c, w := newTestContext(http.MethodGet, "/users", nil, "olivia")

	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")
	assert.Contains(t, w.Body.String(), `"total":2`)
}

func TestUserHandlerGetUpdateDelete(t *testing.T) {
	handler := NewUserHandler(&userServiceMock{})

	c, w := newTestContext(http.MethodGet, "/users/ghost", nil, "alice")
	c.Params = gin.Params{{Key: "username", Value: "ghost"}}
	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)

	c, w = newTestContext(http.MethodPatch, "/users/alice", []byte(`{"first_name":"Alicia"}`), "alice")
	c.Params = gin.Params{{Key: "username", Value: "alice"}}
	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"first_name":"Alicia"`)

	c, w = newTestContext(http.MethodDelete, "/users/olivia", nil, "alice")
	c.Params = gin.Params{{Key: "username", Value: "olivia"}}
	handler.Delete(c)
	require.Equal(t, http.StatusForbidden, w.Code)

	c, _ = newTestContext(http.MethodDelete, "/users/alice", nil, "alice")
	c.Params = gin.Params{{Key: "username", Value: "alice"}}
	handler.Delete(c)
	require.Equal(t, http.StatusNoContent, c.Writer.Status())
}

func TestExportHandler(t *testing.T) {
	mock := &exportServiceMock{}
	handler := NewExportHandler(mock)

	c, w := newTestContext(http.MethodGet, "/calendar/export?format=csv&from=2024-06-01&to=2024-06-30", nil, "alice")
	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ExportFormatCSV, mock.format)
	assert.Equal(t, `attachment; filename="calendar_alice.csv"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))

	c, w = newTestContext(http.MethodGet, "/calendar/export?format=docx&from=2024-06-01&to=2024-06-30", nil, "alice")
	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodGet, "/calendar/export?format=ics", nil, "alice")
	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewMetricsHandler(service.NewMetricsService(), pingStub{}, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	handler.Ready(c)
	require.Equal(t, http.StatusOK, w.Code)

	handler = NewMetricsHandler(service.NewMetricsService(), pingStub{err: errors.New("dial tcp: refused")}, nil)
	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	handler.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsHandlerSummary(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordCalendarOperation("add_event", "ok")
	handler := NewMetricsHandler(metrics, nil, nil)

	c, w := newTestContext(http.MethodGet, "/metrics/summary", nil, "olivia")
	handler.Summary(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"events_added":1`)
}
