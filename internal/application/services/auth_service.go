package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/auth"
	"github.com/chatterfix/backend/pkg/errors"
)

// AuthService handles authentication, session management, and password operations
type AuthService struct {
	db       *database.Connection
	users    *persistence.UserRepository
	sessions *persistence.SessionRepository
}

// NewAuthService creates a new AuthService
func NewAuthService(db *database.Connection, users *persistence.UserRepository, sessions *persistence.SessionRepository) *AuthService {
	return &AuthService{
		db:       db,
		users:    users,
		sessions: sessions,
	}
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	Token     string
	User      auth.UserSession
	ExpiresAt time.Time
}

// Login authenticates a user and creates a session
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	user, err := s.users.FindByEmailWithPassword(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if user == nil {
		log.Printf("⚠️ Login failed for %s: user not found", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}
	if !user.IsActive {
		return nil, errors.NewUnauthorizedError("Account is deactivated")
	}

	if user.PasswordHash == "" {
		return nil, errors.NewUnauthorizedError("Password authentication not configured for this user")
	}
	if !auth.VerifyPassword(password, user.PasswordHash) {
		log.Printf("⚠️ Login failed for %s: invalid password", email)
		return nil, errors.NewUnauthorizedError("Invalid email or password")
	}

	userSession := auth.UserSession{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}

	token, err := auth.GenerateToken(userSession)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	// jti from the token is the session primary key
	claims, _ := auth.DecodeToken(token)
	expiresAt := time.Unix(claims.ExpiresAt.Unix(), 0)

	session := &models.Session{
		ID:        claims.RegisteredClaims.ID,
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: expiresAt,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	if err := s.users.TouchLastLogin(ctx, user.ID); err != nil {
		log.Printf("⚠️ Failed to update last login for %s: %v", user.ID, err)
	}

	return &LoginResult{
		Token:     token,
		User:      userSession,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateSession checks if a session token is valid and active
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*auth.Claims, error) {
	claims, err := auth.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.RegisteredClaims.ID)
	if err == sql.ErrNoRows {
		return nil, errors.NewUnauthorizedError("Session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if revoked {
		return nil, errors.NewUnauthorizedError("Session has been revoked")
	}

	return claims, nil
}

// TouchSession updates the last activity timestamp for a session.
// Fire and forget - errors are acceptable for activity timestamps.
func (s *AuthService) TouchSession(sessionID string) {
	go func() {
		_ = s.sessions.Touch(context.Background(), sessionID)
	}()
}

// Logout revokes a session
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := auth.DecodeToken(tokenString)
	if err != nil {
		return errors.NewValidationError("token", "Invalid token")
	}

	err = s.sessions.Revoke(ctx, claims.RegisteredClaims.ID)
	if err == nil {
		log.Printf("👋 User logged out (Session: %s)", claims.RegisteredClaims.ID)
	}
	return err
}

// ChangePassword updates a user's password
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if err := auth.ValidatePasswordStrength(newPassword); err != nil {
		return errors.NewValidationError("new_password", err.Error())
	}

	storedHash, err := s.users.FindPasswordHash(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if storedHash == "" {
		return errors.NewValidationError("password", "Password authentication not configured for this user")
	}

	if !auth.VerifyPassword(currentPassword, storedHash) {
		return errors.NewUnauthorizedError("Current password is incorrect")
	}

	newHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.users.UpdatePassword(ctx, userID, newHash)
	if err == nil {
		log.Printf("🔐 Password changed for user: %s", userID)
	}
	return err
}

// CleanupExpiredSessions removes sessions past their expiry. Run by the
// scheduler tick as housekeeping.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) {
	n, err := s.sessions.DeleteExpired(ctx)
	if err != nil {
		log.Printf("⚠️ Session cleanup failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("🧹 Removed %d expired sessions", n)
	}
}
