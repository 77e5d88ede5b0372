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

const assetColumns = `id, name, asset_tag, category, location, status, criticality, parent_id,
		manufacturer, model, serial_number, purchase_date, warranty_expiry, notes,
		created_date, last_modified_date`

type AssetRepository struct {
	db *sql.DB
}

func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) CheckTagConflict(ctx context.Context, tag, excludeID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE asset_tag = ? AND id != ?)", constants.TableAsset)
	err := r.db.QueryRowContext(ctx, query, tag, excludeID).Scan(&exists)
	return exists, err
}

// Insert creates an asset row
func (r *AssetRepository) Insert(ctx context.Context, a *models.Asset) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, asset_tag, category, location, status, criticality, parent_id,
			manufacturer, model, serial_number, purchase_date, warranty_expiry, notes,
			created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`, constants.TableAsset)
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.AssetTag, a.Category, a.Location, a.Status, a.Criticality, a.ParentID,
		a.Manufacturer, a.Model, a.SerialNumber, a.PurchaseDate, a.WarrantyExpiry, a.Notes)
	return err
}

// Update applies a partial update. Keys are column names.
func (r *AssetRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return r.update(ctx, r.db, id, updates)
}

// UpdateTx applies a partial update within a transaction, for writes that
// must commit together with their outbox event.
func (r *AssetRepository) UpdateTx(ctx context.Context, tx *sql.Tx, id string, updates map[string]interface{}) error {
	return r.update(ctx, tx, id, updates)
}

func (r *AssetRepository) update(ctx context.Context, ex execer, id string, updates map[string]interface{}) error {
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
		constants.TableAsset, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, id)

	_, err := ex.ExecContext(ctx, query, args...)
	return err
}

// Delete removes an asset row
func (r *AssetRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableAsset, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// FindByID fetches a single asset, nil when absent
func (r *AssetRepository) FindByID(ctx context.Context, id string) (*models.Asset, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", assetColumns, constants.TableAsset)
	row := r.db.QueryRowContext(ctx, query, id)
	a, err := scanAsset(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// List returns assets, optionally filtered by status and location
func (r *AssetRepository) List(ctx context.Context, status, location string) ([]*models.Asset, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, status)
	}
	if location != "" {
		where = append(where, "location = ?")
		args = append(args, location)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY name ASC",
		assetColumns, constants.TableAsset, strings.Join(where, " AND "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]*models.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			continue
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// ListChildren returns the direct children of an asset
func (r *AssetRepository) ListChildren(ctx context.Context, parentID string) ([]*models.Asset, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE parent_id = ? ORDER BY name ASC",
		assetColumns, constants.TableAsset)
	rows, err := r.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assets := make([]*models.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			continue
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// CountByStatus returns asset counts grouped by status
func (r *AssetRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := fmt.Sprintf("SELECT status, COUNT(*) FROM %s GROUP BY status", constants.TableAsset)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			continue
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanAsset(s rowScanner) (*models.Asset, error) {
	var a models.Asset
	var category, location, manufacturer, model, serial, notes sql.NullString
	var parentID sql.NullString
	var purchaseDate, warrantyExpiry sql.NullTime

	if err := s.Scan(&a.ID, &a.Name, &a.AssetTag, &category, &location, &a.Status, &a.Criticality,
		&parentID, &manufacturer, &model, &serial, &purchaseDate, &warrantyExpiry, &notes,
		&a.CreatedDate, &a.LastModifiedDate); err != nil {
		return nil, err
	}

	a.Category = category.String
	a.Location = location.String
	a.Manufacturer = manufacturer.String
	a.Model = model.String
	a.SerialNumber = serial.String
	a.Notes = notes.String
	a.ParentID = utils.NullableString(parentID)
	a.PurchaseDate = utils.NullableTime(purchaseDate)
	a.WarrantyExpiry = utils.NullableTime(warrantyExpiry)
	return &a, nil
}
