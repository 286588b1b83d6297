package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/team-calendar/internal/middleware"
	"github.com/noah-isme/team-calendar/internal/models"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
	"github.com/noah-isme/team-calendar/pkg/response"
)

type userService interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, actor *models.JWTClaims, req models.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, actor *models.JWTClaims, username string, req models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, actor *models.JWTClaims, username string) error
}

// UserHandler handles account endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Description List every account ordered by username
// @Tags Users
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	infos := make([]models.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].Info())
	}
	response.JSON(c, http.StatusOK, infos, map[string]interface{}{"total": len(infos)})
}

// Get godoc
// @Summary Get user
// @Description Get account detail
// @Tags Users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{username} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user.Info(), nil)
}

// Create godoc
// @Summary Register user
// @Description Create an account; the username is the first initial followed by the last name. Granting is_manager needs a manager token.
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.CreateUserRequest true "Create user payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditSubject(c, user.Username)

	response.Created(c, user.Info())
}

// Update godoc
// @Summary Update user
// @Description Update the caller's own profile
// @Tags Users
// @Accept json
// @Produce json
// @Param username path string true "Username"
// @Param payload body models.UpdateUserRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{username} [patch]
func (h *UserHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	user, err := h.service.Update(c.Request.Context(), claims, c.Param("username"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, user.Info(), nil)
}

// Delete godoc
// @Summary Delete user
// @Description Delete the caller's account with its events and roster entries
// @Tags Users
// @Produce json
// @Param username path string true "Username"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /users/{username} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims, c.Param("username")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
