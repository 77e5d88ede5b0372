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

const partColumns = `id, part_number, name, description, category, quantity, min_quantity,
		unit_cost, location, supplier_id, created_date, last_modified_date`

type PartRepository struct {
	db *sql.DB
}

func NewPartRepository(db *sql.DB) *PartRepository {
	return &PartRepository{db: db}
}

func (r *PartRepository) CheckPartNumberConflict(ctx context.Context, partNumber, excludeID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE part_number = ? AND id != ?)", constants.TablePart)
	err := r.db.QueryRowContext(ctx, query, partNumber, excludeID).Scan(&exists)
	return exists, err
}

// Insert creates a part row
func (r *PartRepository) Insert(ctx context.Context, p *models.Part) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, part_number, name, description, category, quantity, min_quantity,
			unit_cost, location, supplier_id, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`, constants.TablePart)
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.PartNumber, p.Name, p.Description, p.Category, p.Quantity, p.MinQuantity,
		p.UnitCost, p.Location, p.SupplierID)
	return err
}

// Update applies a partial update. Keys are column names. Quantity is
// deliberately excluded here: all quantity changes go through AdjustQuantityTx.
func (r *PartRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
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
		constants.TablePart, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, id)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes a part row
func (r *PartRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TablePart, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// FindByID fetches a single part, nil when absent
func (r *PartRepository) FindByID(ctx context.Context, id string) (*models.Part, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", partColumns, constants.TablePart)
	row := r.db.QueryRowContext(ctx, query, id)
	p, err := scanPart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// FindByIDTx fetches a part with a row lock inside a transaction
func (r *PartRepository) FindByIDTx(ctx context.Context, tx *sql.Tx, id string) (*models.Part, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1 FOR UPDATE", partColumns, constants.TablePart)
	row := tx.QueryRowContext(ctx, query, id)
	p, err := scanPart(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// List returns parts, optionally filtered by category
func (r *PartRepository) List(ctx context.Context, category string) ([]*models.Part, error) {
	where := "1=1"
	args := []interface{}{}
	if category != "" {
		where = "category = ?"
		args = append(args, category)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY name ASC",
		partColumns, constants.TablePart, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parts := make([]*models.Part, 0)
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			continue
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// ListLowStock returns parts at or below their reorder point
func (r *PartRepository) ListLowStock(ctx context.Context) ([]*models.Part, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE quantity <= min_quantity ORDER BY name ASC",
		partColumns, constants.TablePart)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parts := make([]*models.Part, 0)
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			continue
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// CountLowStock returns the number of low-stock parts
func (r *PartRepository) CountLowStock(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE quantity <= min_quantity", constants.TablePart)
	err := r.db.QueryRowContext(ctx, query).Scan(&n)
	return n, err
}

// AdjustQuantityTx changes a part's quantity and records the movement in the
// same transaction. Callers must have locked the row via FindByIDTx first.
func (r *PartRepository) AdjustQuantityTx(ctx context.Context, tx *sql.Tx, m *models.StockMovement) error {
	query := fmt.Sprintf("UPDATE %s SET quantity = quantity + ?, last_modified_date = NOW() WHERE id = ?",
		constants.TablePart)
	if _, err := tx.ExecContext(ctx, query, m.Delta, m.PartID); err != nil {
		return err
	}

	movementQuery := fmt.Sprintf(`
		INSERT INTO %s (id, part_id, work_order_id, delta, reason, actor_id, created_date)
		VALUES (?, ?, ?, ?, ?, ?, NOW())`, constants.TableStockMovement)
	_, err := tx.ExecContext(ctx, movementQuery,
		m.ID, m.PartID, m.WorkOrderID, m.Delta, m.Reason, m.ActorID)
	return err
}

// ListMovements returns movements for a part, newest first
func (r *PartRepository) ListMovements(ctx context.Context, partID string, limit int) ([]*models.StockMovement, error) {
	if limit <= 0 || limit > constants.MaxPageSize {
		limit = constants.DefaultPageSize
	}
	query := fmt.Sprintf(`
		SELECT id, part_id, work_order_id, delta, reason, actor_id, created_date
		FROM %s WHERE part_id = ? ORDER BY created_date DESC LIMIT %d`,
		constants.TableStockMovement, limit)

	rows, err := r.db.QueryContext(ctx, query, partID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]*models.StockMovement, 0)
	for rows.Next() {
		var m models.StockMovement
		var workOrderID sql.NullString
		if err := rows.Scan(&m.ID, &m.PartID, &workOrderID, &m.Delta, &m.Reason, &m.ActorID, &m.CreatedDate); err != nil {
			continue
		}
		m.WorkOrderID = utils.NullableString(workOrderID)
		movements = append(movements, &m)
	}
	return movements, rows.Err()
}

func scanPart(s rowScanner) (*models.Part, error) {
	var p models.Part
	var description, category, location sql.NullString
	var supplierID sql.NullString

	if err := s.Scan(&p.ID, &p.PartNumber, &p.Name, &description, &category, &p.Quantity,
		&p.MinQuantity, &p.UnitCost, &location, &supplierID,
		&p.CreatedDate, &p.LastModifiedDate); err != nil {
		return nil, err
	}

	p.Description = description.String
	p.Category = category.String
	p.Location = location.String
	p.SupplierID = utils.NullableString(supplierID)
	return &p, nil
}
