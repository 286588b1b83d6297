package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/team-calendar/internal/models"
	"github.com/noah-isme/team-calendar/internal/repository"
	appErrors "github.com/noah-isme/team-calendar/pkg/errors"
)

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, username string) error
}

// UserService handles account registration and maintenance.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns every account ordered by username.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list users")
	}
	return users, nil
}

// Get returns a user by username.
func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, storeError(err, "failed to load user")
	}
	return user, nil
}

// Create registers a user under the username derived from the first and last name.
// actor is nil for self-registration; only a manager actor may grant the manager flag.
func (s *UserService) Create(ctx context.Context, actor *models.JWTClaims, req models.CreateUserRequest) (*models.User, error) {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}
	if req.IsManager && (actor == nil || !actor.IsManager) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only managers can grant the manager flag")
	}

	username := models.DeriveUsername(req.FirstName, req.LastName)
	if username == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "first and last name are required")
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Username:  username,
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		IsManager: req.IsManager,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "username already taken")
		}
		return nil, storeError(err, "failed to create user")
	}

	s.logger.Info("user created", zap.String("username", username), zap.Bool("is_manager", user.IsManager))
	return user, nil
}

// Update changes the profile of username. Users edit themselves; only
// managers may change the manager flag.
func (s *UserService) Update(ctx context.Context, actor *models.JWTClaims, username string, req models.UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	if actor == nil || actor.Username != username {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "users can only edit their own profile")
	}
	if req.IsManager != nil && !actor.IsManager {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only managers can change the manager flag")
	}

	user, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Password != nil {
		hash, err := HashPassword(*req.Password)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.Password = hash
	}
	if req.IsManager != nil {
		user.IsManager = *req.IsManager
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, storeError(err, "failed to update user")
	}
	return user, nil
}

// Delete removes the caller's own account together with its events and roster entries.
func (s *UserService) Delete(ctx context.Context, actor *models.JWTClaims, username string) error {
	if actor == nil || actor.Username != username {
		return appErrors.Clone(appErrors.ErrForbidden, "users can only delete their own account")
	}
	if err := s.repo.Delete(ctx, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return storeError(err, "failed to delete user")
	}
	s.logger.Info("user deleted", zap.String("username", username))
	return nil
}
