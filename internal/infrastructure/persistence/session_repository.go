package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/pkg/constants"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert stores a new login session
func (r *SessionRepository) Insert(ctx context.Context, s *models.Session) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, token, expires_at, ip_address, user_agent, is_revoked, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, 0, NOW())`, constants.TableSession)
	_, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.Token, s.ExpiresAt, s.IPAddress, s.UserAgent)
	return err
}

// IsRevoked reports the revocation flag for a session.
// sql.ErrNoRows is passed through so callers can distinguish missing sessions.
func (r *SessionRepository) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	var revoked bool
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? LIMIT 1",
		constants.FieldIsRevoked, constants.TableSession, constants.FieldID)
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&revoked)
	return revoked, err
}

// Revoke marks a session as revoked
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = 1 WHERE %s = ?",
		constants.TableSession, constants.FieldIsRevoked, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

// Touch updates the last activity timestamp
func (r *SessionRepository) Touch(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = NOW() WHERE %s = ?",
		constants.TableSession, constants.FieldLastActivity, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

// DeleteExpired removes sessions whose expiry has passed. Returns rows removed.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s < NOW()",
		constants.TableSession, constants.FieldExpiresAt)
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
