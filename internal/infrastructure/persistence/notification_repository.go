package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/pkg/constants"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Insert creates a notification row
func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, recipient_id, title, body, link, type, is_read, created_date)
		VALUES (?, ?, ?, ?, ?, ?, 0, NOW())`, constants.TableNotification)
	_, err := r.db.ExecContext(ctx, query, n.ID, n.RecipientID, n.Title, n.Body, n.Link, n.Type)
	return err
}

// ListForRecipient returns recent notifications for a user, newest first
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	where := "recipient_id = ?"
	if unreadOnly {
		where += " AND is_read = 0"
	}

	query := fmt.Sprintf(`
		SELECT id, recipient_id, title, body, link, type, is_read, created_date
		FROM %s WHERE %s ORDER BY created_date DESC LIMIT %d`,
		constants.TableNotification, where, limit)

	rows, err := r.db.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		var link sql.NullString
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Title, &n.Body, &link, &n.Type, &n.IsRead, &n.CreatedDate); err != nil {
			continue
		}
		n.Link = link.String
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkAsRead flags a notification read, scoped to the recipient so users
// cannot mark each other's notifications.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id, recipientID string) (bool, error) {
	query := fmt.Sprintf("UPDATE %s SET is_read = 1 WHERE id = ? AND recipient_id = ?", constants.TableNotification)
	res, err := r.db.ExecContext(ctx, query, id, recipientID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
