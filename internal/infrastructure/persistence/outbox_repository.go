package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/utils"
)

// execer lets Enqueue run against either *sql.DB or *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type OutboxRepository struct {
	db *sql.DB
}

func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Enqueue inserts a pending event. Pass the transaction of the business
// write so the event commits or rolls back with it.
func (r *OutboxRepository) Enqueue(ctx context.Context, ex execer, eventType string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	id := utils.GenerateID()
	query := fmt.Sprintf(`
		INSERT INTO %s (id, event_type, payload, status, attempts, created_date)
		VALUES (?, ?, ?, 'pending', 0, NOW())`, constants.TableOutbox)
	if _, err := ex.ExecContext(ctx, query, id, eventType, body); err != nil {
		return "", err
	}
	return id, nil
}

// FetchPending returns a batch of pending events, oldest first
func (r *OutboxRepository) FetchPending(ctx context.Context, limit int) ([]*models.OutboxEvent, error) {
	query := fmt.Sprintf(`
		SELECT id, event_type, payload, status, attempts, created_date
		FROM %s WHERE status = 'pending' ORDER BY created_date ASC LIMIT %d`,
		constants.TableOutbox, limit)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.OutboxEvent, 0)
	for rows.Next() {
		var e models.OutboxEvent
		if err := rows.Scan(&e.ID, &e.EventType, &e.Payload, &e.Status, &e.Attempts, &e.CreatedDate); err != nil {
			continue
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// MarkProcessed flags an event as delivered
func (r *OutboxRepository) MarkProcessed(ctx context.Context, id string) error {
	query := fmt.Sprintf("UPDATE %s SET status = 'processed', processed_at = NOW() WHERE id = ?", constants.TableOutbox)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// MarkFailed bumps the attempt counter; events past maxAttempts move to
// 'failed' and are no longer retried.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id string, maxAttempts int) error {
	query := fmt.Sprintf(`
		UPDATE %s SET attempts = attempts + 1,
			status = IF(attempts + 1 >= %d, 'failed', 'pending')
		WHERE id = ?`, constants.TableOutbox, maxAttempts)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
