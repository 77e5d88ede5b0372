package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/pkg/constants"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Upsert creates the conversation or replaces its messages
func (r *ConversationRepository) Upsert(ctx context.Context, c *models.Conversation) error {
	body, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, messages, provider, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE title = VALUES(title), messages = VALUES(messages),
			provider = VALUES(provider), last_modified_date = NOW()`, constants.TableConversation)
	_, err = r.db.ExecContext(ctx, query, c.ID, c.UserID, c.Title, body, c.Provider)
	return err
}

// FindByID fetches a conversation scoped to its owner, nil when absent
func (r *ConversationRepository) FindByID(ctx context.Context, id, userID string) (*models.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, messages, provider, created_date, last_modified_date
		FROM %s WHERE id = ? AND user_id = ? LIMIT 1`, constants.TableConversation)

	var c models.Conversation
	var body []byte
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&c.ID, &c.UserID, &c.Title, &body, &c.Provider, &c.CreatedDate, &c.LastModifiedDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if len(body) > 0 {
		if err := json.Unmarshal(body, &c.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
		}
	}
	return &c, nil
}

// ListForUser returns conversation summaries (no messages), newest first
func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]*models.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, provider, created_date, last_modified_date
		FROM %s WHERE user_id = ? ORDER BY last_modified_date DESC`, constants.TableConversation)

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]*models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Provider, &c.CreatedDate, &c.LastModifiedDate); err != nil {
			continue
		}
		conversations = append(conversations, &c)
	}
	return conversations, rows.Err()
}

// Delete removes a conversation scoped to its owner
func (r *ConversationRepository) Delete(ctx context.Context, id, userID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ? AND user_id = ?", constants.TableConversation)
	_, err := r.db.ExecContext(ctx, query, id, userID)
	return err
}
