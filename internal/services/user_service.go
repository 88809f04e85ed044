package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/taihuy1/task-managemet-thesis/internal/apperrors"
	"github.com/taihuy1/task-managemet-thesis/internal/authz"
	"github.com/taihuy1/task-managemet-thesis/internal/models"
	"github.com/taihuy1/task-managemet-thesis/internal/repositories"
)

type UserService interface {
	Register(ctx context.Context, name, email, password string, role authz.Role) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListSolvers(ctx context.Context) ([]*models.User, error)

	UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(ctx context.Context, userID int64) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService // may be nil
	authService  AuthService
}

func NewUserService(repo repositories.UserRepository, emailService EmailService, authService AuthService) UserService {
	return &userService{
		repo:         repo,
		emailService: emailService,
		authService:  authService,
	}
}

func (s *userService) Register(ctx context.Context, name, email, password string, role authz.Role) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, &apperrors.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, &apperrors.ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	if strings.TrimSpace(password) == "" {
		return nil, &apperrors.ValidationError{Field: "password", Reason: "must not be empty"}
	}
	if !role.IsValid() {
		return nil, &apperrors.ValidationError{Field: "role", Reason: "must be AUTHOR or SOLVER"}
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &apperrors.ConflictError{Message: "email already exists"}
	}

	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.emailService != nil {
		// warn but do not fail registration
		if err := s.emailService.SendWelcomeEmail(user.Email, user.Name); err != nil {
			log.Printf("[user][register][warn] welcome email to %s failed: %v", user.Email, err)
		}
	}

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// ListSolvers backs the assignment dropdown in the client.
func (s *userService) ListSolvers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListByRole(ctx, authz.RoleSolver)
}

func (s *userService) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	return s.repo.UpdateRefresh(ctx, userID, token, expiresAt)
}

func (s *userService) RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	return s.repo.RotateRefresh(ctx, oldToken, newToken, newExpiresAt)
}

func (s *userService) ClearRefresh(ctx context.Context, userID int64) error {
	return s.repo.ClearRefresh(ctx, userID)
}

func (s *userService) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return s.repo.GetByRefreshToken(ctx, token)
}
