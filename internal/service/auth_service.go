package service

import (
	"context"
	"errors"
	"time"

	"te-chatbot/internal/models"
	"te-chatbot/internal/repository"
	"te-chatbot/pkg/auth"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService struct {
	userRepo   *repository.UserRepository
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

func NewAuthService(userRepo *repository.UserRepository, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Login verifies the credentials and returns a session token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		// Same error for unknown user and bad password.
		return "", nil, ErrInvalidCredentials
	}

	if !auth.CheckPasswordHash(password, user.Password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.jwtManager.GenerateToken(user.Username, user.FullName, string(user.Role))
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("User logged in", zap.String("username", user.Username))
	return token, user, nil
}

func (s *AuthService) SessionDuration() time.Duration {
	return s.jwtManager.GetTokenDuration()
}

func (s *AuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

// SeedUsers creates the default accounts on first start. Existing users are
// left untouched.
func (s *AuthService) SeedUsers(ctx context.Context) error {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := []struct {
		username string
		fullName string
		role     models.Role
		password string
	}{
		{"admin", "Administrator", models.RoleAdmin, "admin123"},
		{"demo", "Demo User", models.RoleUser, "demo123"},
	}

	now := time.Now()
	for _, d := range defaults {
		hashed, err := auth.HashPassword(d.password)
		if err != nil {
			return err
		}
		user := &models.User{
			ID:        uuid.New(),
			Username:  d.username,
			FullName:  d.fullName,
			Role:      d.role,
			Password:  hashed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		s.logger.Info("Seeded default user", zap.String("username", d.username), zap.String("role", string(d.role)))
	}

	return nil
}
