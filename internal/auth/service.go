package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wanderwise-ai/orchestrator/internal/circuitbreaker"
)

// Service handles authentication operations. All queries go through the
// database circuit breaker, like every other consumer of the pool.
type Service struct {
	db         *circuitbreaker.DatabaseWrapper
	logger     *zap.Logger
	jwtManager *JWTManager
}

// NewService creates a new authentication service
func NewService(db *circuitbreaker.DatabaseWrapper, logger *zap.Logger, jwtManager *JWTManager) *Service {
	return &Service{
		db:         db,
		logger:     logger,
		jwtManager: jwtManager,
	}
}

// JWTManager exposes the token manager for middleware wiring.
func (s *Service) JWTManager() *JWTManager {
	return s.jwtManager
}

// Register creates a new user account
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email)
	if err != nil {
		return nil, fmt.Errorf("check email existence: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     req.FullName,
		PasswordHash: string(hashedPassword),
		Preferences:  JSONMap{},
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	query := `
		INSERT INTO users (id, email, full_name, password_hash, preferences, is_active, created_at, updated_at)
		VALUES (:id, :email, :full_name, :password_hash, :preferences, :is_active, :created_at, :updated_at)`
	if _, err := s.db.NamedExecContext(ctx, query, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email))

	return user, nil
}

// Login authenticates a user and returns tokens
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user User
	query := `SELECT * FROM users WHERE email = $1 AND is_active = true`
	err := s.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("Failed login attempt", zap.String("email", email))
		return nil, ErrInvalidCredentials
	}

	tokens, refreshTokenHash, err := s.jwtManager.GenerateTokenPair(&user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	if err := s.storeRefreshToken(ctx, user.ID, refreshTokenHash); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login = NOW() WHERE id = $1", user.ID); err != nil {
		s.logger.Warn("Failed to update last login", zap.Error(err))
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID.String()))
	return tokens, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a
// fresh pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	tokenHash := hashToken(refreshToken)

	var stored RefreshToken
	query := `SELECT * FROM refresh_tokens WHERE token_hash = $1`
	err := s.db.GetContext(ctx, &stored, query, tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenRevoked
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	if stored.Revoked || stored.ExpiresAt.Before(time.Now()) {
		return nil, ErrTokenRevoked
	}
	if !compareTokenHash(stored.TokenHash, tokenHash) {
		return nil, ErrTokenRevoked
	}

	var user User
	err = s.db.GetContext(ctx, &user,
		"SELECT * FROM users WHERE id = $1 AND is_active = true", stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user for refresh: %w", err)
	}

	tokens, newHash, err := s.jwtManager.GenerateTokenPair(&user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked = true, revoked_at = NOW() WHERE id = $1",
		stored.ID); err != nil {
		return nil, fmt.Errorf("revoke refresh token: %w", err)
	}
	if err := s.storeRefreshToken(ctx, user.ID, newHash); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return tokens, nil
}

// Logout revokes all refresh tokens for a user.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked = true, revoked_at = NOW() WHERE user_id = $1 AND revoked = false",
		userID)
	if err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*User, error) {
	var user User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdatePreferences replaces a user's stored travel preferences.
func (s *Service) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs JSONMap) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET preferences = $1, updated_at = NOW() WHERE id = $2",
		prefs, userID)
	if err != nil {
		return fmt.Errorf("update preferences: %w", err)
	}
	return nil
}

func (s *Service) storeRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)`
	expiresAt := time.Now().Add(s.jwtManager.refreshTokenExpiry)
	_, err := s.db.ExecContext(ctx, query, uuid.New(), userID, tokenHash, expiresAt)
	return err
}
