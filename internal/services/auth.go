package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"mrxstudio/internal/domain"
	"mrxstudio/internal/metrics"
	"mrxstudio/internal/util"
	apperrors "mrxstudio/pkg/errors"
)

// LoginResult is returned by a successful login
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// CreateUserInput describes a new staff account
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	IsAdmin  bool
}

// AuthService authenticates staff users
type AuthService struct {
	db     *gorm.DB
	tokens *util.TokenIssuer
	logger *slog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(db *gorm.DB, tokens *util.TokenIssuer) *AuthService {
	return &AuthService{
		db:     db,
		tokens: tokens,
		logger: slog.Default().With("component", "auth"),
	}
}

// Login checks credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)

	var user domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		metrics.RecordAuthAttempt(false)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Info("login failed", "username", username, "reason", "unknown user")
			return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "incorrect username or password")
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "failed to load user", err)
	}

	if !util.CheckPasswordHash(password, user.HashedPassword) {
		metrics.RecordAuthAttempt(false)
		s.logger.Info("login failed", "username", username, "reason", "bad password")
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "incorrect username or password")
	}
	if !user.IsActive {
		metrics.RecordAuthAttempt(false)
		s.logger.Info("login failed", "username", username, "reason", "inactive")
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "incorrect username or password")
	}

	now := s.db.NowFunc()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login", now).Error; err != nil {
		s.logger.Warn("failed to record last login", "username", username, "error", err)
	}

	token, err := s.tokens.GenerateToken(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.RecordAuthAttempt(true)
	s.logger.Info("login successful", "username", username, "admin", user.IsAdmin)
	return &LoginResult{AccessToken: token, TokenType: "bearer"}, nil
}

// Authenticate resolves a bearer token to an active user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeUnauthorized, "invalid or expired token", err)
	}

	var user domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", claims.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "user not found")
		}
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "failed to load user", err)
	}
	if !user.IsActive {
		return nil, apperrors.New(apperrors.ErrCodeUnauthorized, "incorrect username or password")
	}
	return &user, nil
}

// CreateUser creates a staff account with a bcrypt password hash
func (s *AuthService) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "username, email and password are required")
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "failed to check existing users", err)
	}
	if count > 0 {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "username or email already registered")
	}

	hashed, err := util.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		IsActive:       true,
		IsAdmin:        in.IsAdmin,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStoreUnavailable, "failed to create user", err)
	}

	s.logger.Info("staff user created", "username", username, "id", user.ID)
	return user, nil
}
