package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/pkg/constants"
)

type EscalationRepository struct {
	db *sql.DB
}

func NewEscalationRepository(db *sql.DB) *EscalationRepository {
	return &EscalationRepository{db: db}
}

// Insert creates a rule row
func (r *EscalationRepository) Insert(ctx context.Context, rule *models.EscalationRule) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, %s, set_priority, notify_role, is_active, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`, constants.TableEscalationRule, "`condition`")
	_, err := r.db.ExecContext(ctx, query,
		rule.ID, rule.Name, rule.Condition, rule.SetPriority, rule.NotifyRole, rule.IsActive)
	return err
}

// Update applies a partial update. Keys are column names; "condition" is
// quoted for MySQL.
func (r *EscalationRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := []string{}
	args := []interface{}{}
	for k, v := range updates {
		if k == "condition" {
			k = "`condition`"
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", k))
		args = append(args, v)
	}
	setClauses = append(setClauses, fmt.Sprintf("%s = ?", constants.FieldLastModifiedDate))
	args = append(args, time.Now())

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		constants.TableEscalationRule, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, id)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes a rule row
func (r *EscalationRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableEscalationRule, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// FindByID fetches a single rule, nil when absent
func (r *EscalationRepository) FindByID(ctx context.Context, id string) (*models.EscalationRule, error) {
	query := fmt.Sprintf("SELECT id, name, `condition`, set_priority, notify_role, is_active, created_date, last_modified_date FROM %s WHERE id = ? LIMIT 1",
		constants.TableEscalationRule)
	row := r.db.QueryRowContext(ctx, query, id)
	rule, err := scanEscalationRule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rule, err
}

// FindAll returns all rules ordered by name
func (r *EscalationRepository) FindAll(ctx context.Context) ([]*models.EscalationRule, error) {
	query := fmt.Sprintf("SELECT id, name, `condition`, set_priority, notify_role, is_active, created_date, last_modified_date FROM %s ORDER BY name ASC",
		constants.TableEscalationRule)
	return r.queryMany(ctx, query)
}

// FindActive returns active rules for the escalation pass
func (r *EscalationRepository) FindActive(ctx context.Context) ([]*models.EscalationRule, error) {
	query := fmt.Sprintf("SELECT id, name, `condition`, set_priority, notify_role, is_active, created_date, last_modified_date FROM %s WHERE is_active = 1",
		constants.TableEscalationRule)
	return r.queryMany(ctx, query)
}

func (r *EscalationRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*models.EscalationRule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]*models.EscalationRule, 0)
	for rows.Next() {
		rule, err := scanEscalationRule(rows)
		if err != nil {
			continue
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanEscalationRule(s rowScanner) (*models.EscalationRule, error) {
	var rule models.EscalationRule
	var setPriority, notifyRole sql.NullString

	if err := s.Scan(&rule.ID, &rule.Name, &rule.Condition, &setPriority, &notifyRole,
		&rule.IsActive, &rule.CreatedDate, &rule.LastModifiedDate); err != nil {
		return nil, err
	}

	rule.SetPriority = setPriority.String
	rule.NotifyRole = notifyRole.String
	return &rule, nil
}
