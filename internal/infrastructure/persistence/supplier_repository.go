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

type SupplierRepository struct {
	db *sql.DB
}

func NewSupplierRepository(db *sql.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

// Insert creates a supplier row
func (r *SupplierRepository) Insert(ctx context.Context, s *models.Supplier) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, contact_name, email, phone, address, notes, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`, constants.TableSupplier)
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.ContactName, s.Email, s.Phone, s.Address, s.Notes)
	return err
}

// Update applies a partial update. Keys are column names.
func (r *SupplierRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
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
		constants.TableSupplier, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, id)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes a supplier row
func (r *SupplierRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableSupplier, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// HasParts reports whether any part references this supplier
func (r *SupplierRepository) HasParts(ctx context.Context, supplierID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE supplier_id = ?)", constants.TablePart)
	err := r.db.QueryRowContext(ctx, query, supplierID).Scan(&exists)
	return exists, err
}

// FindByID fetches a single supplier, nil when absent
func (r *SupplierRepository) FindByID(ctx context.Context, id string) (*models.Supplier, error) {
	query := fmt.Sprintf(`
		SELECT id, name, contact_name, email, phone, address, notes, created_date, last_modified_date
		FROM %s WHERE id = ? LIMIT 1`, constants.TableSupplier)
	row := r.db.QueryRowContext(ctx, query, id)
	s, err := scanSupplier(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// FindAll returns all suppliers ordered by name
func (r *SupplierRepository) FindAll(ctx context.Context) ([]*models.Supplier, error) {
	query := fmt.Sprintf(`
		SELECT id, name, contact_name, email, phone, address, notes, created_date, last_modified_date
		FROM %s ORDER BY name ASC`, constants.TableSupplier)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]*models.Supplier, 0)
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			continue
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func scanSupplier(s rowScanner) (*models.Supplier, error) {
	var sup models.Supplier
	var contactName, email, phone, address, notes sql.NullString

	if err := s.Scan(&sup.ID, &sup.Name, &contactName, &email, &phone, &address, &notes,
		&sup.CreatedDate, &sup.LastModifiedDate); err != nil {
		return nil, err
	}

	sup.ContactName = contactName.String
	sup.Email = email.String
	sup.Phone = phone.String
	sup.Address = address.String
	sup.Notes = notes.String
	return &sup, nil
}
