package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/utils"
)

const workOrderColumns = `id, number, title, description, status, priority, asset_id, assigned_to,
		created_by, due_date, started_at, completed_at, labor_hours, notes, escalated_rule_ids,
		created_date, last_modified_date`

type WorkOrderRepository struct {
	db *sql.DB
}

func NewWorkOrderRepository(db *sql.DB) *WorkOrderRepository {
	return &WorkOrderRepository{db: db}
}

// NextNumber allocates the next WO-xxxxx number inside the given transaction.
// MAX+1 under the tx keeps the sequence gap-free for the single-writer case.
func (r *WorkOrderRepository) NextNumber(ctx context.Context, tx *sql.Tx) (string, error) {
	var maxSeq sql.NullInt64
	query := fmt.Sprintf(
		"SELECT MAX(CAST(SUBSTRING(number, %d) AS UNSIGNED)) FROM %s FOR UPDATE",
		len(constants.WorkOrderNumberPrefix)+1, constants.TableWorkOrder)
	if err := tx.QueryRowContext(ctx, query).Scan(&maxSeq); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", constants.WorkOrderNumberPrefix, maxSeq.Int64+1), nil
}

// InsertTx creates a work order row within a transaction
func (r *WorkOrderRepository) InsertTx(ctx context.Context, tx *sql.Tx, w *models.WorkOrder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, number, title, description, status, priority, asset_id, assigned_to,
			created_by, due_date, labor_hours, notes, escalated_rule_ids, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, '', NOW(), NOW())`, constants.TableWorkOrder)
	_, err := tx.ExecContext(ctx, query,
		w.ID, w.Number, w.Title, w.Description, w.Status, w.Priority,
		w.AssetID, w.AssignedTo, w.CreatedBy, w.DueDate, w.Notes)
	return err
}

// Update applies a partial update. Keys are column names.
func (r *WorkOrderRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.update(ctx, r.db, id, updates)
}

// UpdateTx applies a partial update within a transaction, for writes that
// must commit together with their outbox event.
func (r *WorkOrderRepository) UpdateTx(ctx context.Context, tx *sql.Tx, id string, updates map[string]interface{}) error {
	return r.update(ctx, tx, id, updates)
}

func (r *WorkOrderRepository) update(ctx context.Context, ex execer, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := []string{}
	args := []interface{}{}
	for k, v := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", k))
		args = append(args, v)
	}
	setClauses = append(setClauses, fmt.Sprintf("%s = ?", constants.FieldLastModifiedDate))
	args = append(args, time.Now())

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		constants.TableWorkOrder, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, id)

	_, err := ex.ExecContext(ctx, query, args...)
	return err
}

// Delete removes a work order and its comments
func (r *WorkOrderRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE work_order_id = ?", constants.TableWorkOrderComment), id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableWorkOrder, constants.FieldID), id)
	return err
}

// FindByID fetches a single work order, nil when absent
func (r *WorkOrderRepository) FindByID(ctx context.Context, id string) (*models.WorkOrder, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", workOrderColumns, constants.TableWorkOrder)
	row := r.db.QueryRowContext(ctx, query, id)
	w, err := scanWorkOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return w, err
}

// WorkOrderFilter narrows List results. Zero values mean "no filter".
type WorkOrderFilter struct {
	Status     string
	Priority   string
	AssetID    string
	AssignedTo string
	Overdue    bool
	Limit      int
	Offset     int
}

// List returns work orders matching the filter, newest first
func (r *WorkOrderRepository) List(ctx context.Context, f WorkOrderFilter) ([]*models.WorkOrder, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, f.Priority)
	}
	if f.AssetID != "" {
		where = append(where, "asset_id = ?")
		args = append(args, f.AssetID)
	}
	if f.AssignedTo != "" {
		where = append(where, "assigned_to = ?")
		args = append(args, f.AssignedTo)
	}
	if f.Overdue {
		where = append(where, "due_date IS NOT NULL AND due_date < NOW() AND status NOT IN ('completed','closed','cancelled')")
	}

	limit := f.Limit
	if limit <= 0 || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY created_date DESC LIMIT %d OFFSET %d",
		workOrderColumns, constants.TableWorkOrder, strings.Join(where, " AND "), limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.WorkOrder, 0)
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			continue
		}
		orders = append(orders, w)
	}
	return orders, rows.Err()
}

// ListActive returns work orders in open/assigned/in_progress, for the
// escalation pass.
func (r *WorkOrderRepository) ListActive(ctx context.Context) ([]*models.WorkOrder, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE status IN ('open','assigned','in_progress')",
		workOrderColumns, constants.TableWorkOrder)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]*models.WorkOrder, 0)
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			continue
		}
		orders = append(orders, w)
	}
	return orders, rows.Err()
}

// ListByAsset returns the maintenance history for an asset, newest first
func (r *WorkOrderRepository) ListByAsset(ctx context.Context, assetID string) ([]*models.WorkOrder, error) {
	return r.List(ctx, WorkOrderFilter{AssetID: assetID, Limit: constants.MaxPageSize})
}

// CountByColumn returns work order counts grouped by the given column.
// Column must be one of the fixed grouping columns; it is never user input.
func (r *WorkOrderRepository) CountByColumn(ctx context.Context, column string) (map[string]int, error) {
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM %s GROUP BY %s", column, constants.TableWorkOrder, column)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			continue
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// CountOverdue returns the number of overdue active work orders
func (r *WorkOrderRepository) CountOverdue(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s
		WHERE due_date IS NOT NULL AND due_date < NOW()
		AND status NOT IN ('completed','closed','cancelled')`, constants.TableWorkOrder)
	err := r.db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

// InsertComment adds a comment row
func (r *WorkOrderRepository) InsertComment(ctx context.Context, c *models.WorkOrderComment) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, work_order_id, author_id, body, created_date)
		VALUES (?, ?, ?, ?, NOW())`, constants.TableWorkOrderComment)
	_, err := r.db.ExecContext(ctx, query, c.ID, c.WorkOrderID, c.AuthorID, c.Body)
	return err
}

// ListComments returns comments for a work order with author names, oldest first
func (r *WorkOrderRepository) ListComments(ctx context.Context, workOrderID string) ([]*models.WorkOrderComment, error) {
	query := fmt.Sprintf(`
		SELECT c.id, c.work_order_id, c.author_id, COALESCE(u.name, ''), c.body, c.created_date
		FROM %s c LEFT JOIN %s u ON u.id = c.author_id
		WHERE c.work_order_id = ?
		ORDER BY c.created_date ASC`, constants.TableWorkOrderComment, constants.TableUser)

	rows, err := r.db.QueryContext(ctx, query, workOrderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*models.WorkOrderComment, 0)
	for rows.Next() {
		var c models.WorkOrderComment
		if err := rows.Scan(&c.ID, &c.WorkOrderID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedDate); err != nil {
			continue
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func scanWorkOrder(s rowScanner) (*models.WorkOrder, error) {
	var w models.WorkOrder
	var description, notes, escalated sql.NullString
	var assetID, assignedTo sql.NullString
	var dueDate, startedAt, completedAt sql.NullTime

	if err := s.Scan(&w.ID, &w.Number, &w.Title, &description, &w.Status, &w.Priority,
		&assetID, &assignedTo, &w.CreatedBy, &dueDate, &startedAt, &completedAt,
		&w.LaborHours, &notes, &escalated, &w.CreatedDate, &w.LastModifiedDate); err != nil {
		return nil, err
	}

	w.Description = description.String
	w.Notes = notes.String
	w.EscalatedRuleIDs = escalated.String
	w.AssetID = utils.NullableString(assetID)
	w.AssignedTo = utils.NullableString(assignedTo)
	w.DueDate = utils.NullableTime(dueDate)
	w.StartedAt = utils.NullableTime(startedAt)
	w.CompletedAt = utils.NullableTime(completedAt)
	return &w, nil
}
