package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/chatterfix/backend/internal/domain/events"
	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/errors"
	"github.com/chatterfix/backend/pkg/utils"
)

var stockReasons = []string{
	constants.StockReasonReceive,
	constants.StockReasonConsume,
	constants.StockReasonAdjust,
	constants.StockReasonReturn,
}

// InventoryService manages parts, suppliers, and stock movements. Every
// quantity change runs under a row lock with an audit movement in the same
// transaction, and quantities never go negative.
type InventoryService struct {
	db        *database.Connection
	parts     *persistence.PartRepository
	suppliers *persistence.SupplierRepository
	outbox    *OutboxService
}

func NewInventoryService(db *database.Connection, parts *persistence.PartRepository,
	suppliers *persistence.SupplierRepository, outbox *OutboxService) *InventoryService {
	return &InventoryService{db: db, parts: parts, suppliers: suppliers, outbox: outbox}
}

// CreatePartRequest is the payload for adding a part
type CreatePartRequest struct {
	PartNumber  string  `json:"part_number" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Quantity    int     `json:"quantity"`
	MinQuantity int     `json:"min_quantity"`
	UnitCost    float64 `json:"unit_cost"`
	Location    string  `json:"location"`
	SupplierID  *string `json:"supplier_id"`
}

// UpdatePartRequest is the payload for a partial part update. Quantity is
// not here: it only changes through AdjustStock.
type UpdatePartRequest struct {
	PartNumber  *string  `json:"part_number"`
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	MinQuantity *int     `json:"min_quantity"`
	UnitCost    *float64 `json:"unit_cost"`
	Location    *string  `json:"location"`
	SupplierID  *string  `json:"supplier_id"`
}

// AdjustStockRequest changes a part's quantity by a signed delta
type AdjustStockRequest struct {
	Delta       int     `json:"delta" binding:"required"`
	Reason      string  `json:"reason" binding:"required"`
	WorkOrderID *string `json:"work_order_id"`
}

// SupplierRequest is the payload for creating or updating a supplier
type SupplierRequest struct {
	Name        string `json:"name" binding:"required"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Notes       string `json:"notes"`
}

// CreatePart adds a part to inventory
func (s *InventoryService) CreatePart(ctx context.Context, req CreatePartRequest) (*models.Part, error) {
	if strings.TrimSpace(req.PartNumber) == "" {
		return nil, errors.NewValidationError("part_number", "Part number is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.NewValidationError("name", "Name is required")
	}
	if req.Quantity < 0 {
		return nil, errors.NewValidationError("quantity", "Quantity cannot be negative")
	}
	if req.MinQuantity < 0 {
		return nil, errors.NewValidationError("min_quantity", "Minimum quantity cannot be negative")
	}

	conflict, err := s.parts.CheckPartNumberConflict(ctx, req.PartNumber, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, errors.NewConflictError("Part", "part_number", req.PartNumber)
	}

	if req.SupplierID != nil && *req.SupplierID != "" {
		supplier, err := s.suppliers.FindByID(ctx, *req.SupplierID)
		if err != nil {
			return nil, err
		}
		if supplier == nil {
			return nil, errors.NewNotFoundError("Supplier", *req.SupplierID)
		}
	}

	p := &models.Part{
		ID:          utils.GenerateID(),
		PartNumber:  req.PartNumber,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Quantity:    req.Quantity,
		MinQuantity: req.MinQuantity,
		UnitCost:    req.UnitCost,
		Location:    req.Location,
		SupplierID:  req.SupplierID,
	}
	if err := s.parts.Insert(ctx, p); err != nil {
		return nil, err
	}

	log.Printf("✅ Added part %s (%s), qty %d", p.Name, p.PartNumber, p.Quantity)
	return p, nil
}

// GetPart fetches a part by ID
func (s *InventoryService) GetPart(ctx context.Context, id string) (*models.Part, error) {
	p, err := s.parts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.NewNotFoundError("Part", id)
	}
	return p, nil
}

// ListParts returns parts, optionally filtered by category
func (s *InventoryService) ListParts(ctx context.Context, category string) ([]*models.Part, error) {
	return s.parts.List(ctx, category)
}

// ListLowStockParts returns parts at or below their reorder point
func (s *InventoryService) ListLowStockParts(ctx context.Context) ([]*models.Part, error) {
	return s.parts.ListLowStock(ctx)
}

// UpdatePart applies a partial update to part metadata
func (s *InventoryService) UpdatePart(ctx context.Context, id string, req UpdatePartRequest) (*models.Part, error) {
	if _, err := s.GetPart(ctx, id); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.PartNumber != nil {
		conflict, err := s.parts.CheckPartNumberConflict(ctx, *req.PartNumber, id)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, errors.NewConflictError("Part", "part_number", *req.PartNumber)
		}
		updates["part_number"] = *req.PartNumber
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, errors.NewValidationError("name", "Name cannot be empty")
		}
		updates[constants.FieldName] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.MinQuantity != nil {
		if *req.MinQuantity < 0 {
			return nil, errors.NewValidationError("min_quantity", "Minimum quantity cannot be negative")
		}
		updates["min_quantity"] = *req.MinQuantity
	}
	if req.UnitCost != nil {
		updates["unit_cost"] = *req.UnitCost
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.SupplierID != nil {
		if *req.SupplierID != "" {
			supplier, err := s.suppliers.FindByID(ctx, *req.SupplierID)
			if err != nil {
				return nil, err
			}
			if supplier == nil {
				return nil, errors.NewNotFoundError("Supplier", *req.SupplierID)
			}
			updates["supplier_id"] = *req.SupplierID
		} else {
			updates["supplier_id"] = nil
		}
	}

	if err := s.parts.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.parts.FindByID(ctx, id)
}

// DeletePart removes a part from inventory
func (s *InventoryService) DeletePart(ctx context.Context, id string) error {
	p, err := s.GetPart(ctx, id)
	if err != nil {
		return err
	}
	if err := s.parts.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("🗑️ Deleted part %s (%s)", p.Name, p.PartNumber)
	return nil
}

// AdjustStock applies a signed quantity change under a row lock. The
// movement row commits with the quantity update. A part crossing into low
// stock emits one part.low_stock event at the transition, not on every
// adjustment below the threshold.
func (s *InventoryService) AdjustStock(ctx context.Context, partID string, req AdjustStockRequest, actorID string) (*models.Part, error) {
	if req.Delta == 0 {
		return nil, errors.NewValidationError("delta", "Delta cannot be zero")
	}
	if !utils.ContainsString(stockReasons, req.Reason) {
		return nil, errors.NewValidationError("reason",
			fmt.Sprintf("Reason must be one of: %s", strings.Join(stockReasons, ", ")))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := s.parts.FindByIDTx(ctx, tx, partID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.NewNotFoundError("Part", partID)
	}

	newQuantity := p.Quantity + req.Delta
	if newQuantity < 0 {
		return nil, errors.NewValidationError("delta",
			fmt.Sprintf("Insufficient stock: have %d, requested %d", p.Quantity, -req.Delta))
	}

	movement := &models.StockMovement{
		ID:          utils.GenerateID(),
		PartID:      partID,
		WorkOrderID: req.WorkOrderID,
		Delta:       req.Delta,
		Reason:      req.Reason,
		ActorID:     actorID,
	}
	if err := s.parts.AdjustQuantityTx(ctx, tx, movement); err != nil {
		return nil, err
	}

	wasLow := p.Quantity <= p.MinQuantity
	nowLow := newQuantity <= p.MinQuantity
	if nowLow && !wasLow {
		if err := s.outbox.EnqueueTx(ctx, tx, events.RecordEvent{
			EventType:  events.PartLowStock,
			RecordID:   p.ID,
			RecordName: fmt.Sprintf("%s (%s)", p.Name, p.PartNumber),
			ActorID:    actorID,
			NotifyRole: constants.RoleManager,
			Detail:     fmt.Sprintf("Quantity %d at or below minimum %d", newQuantity, p.MinQuantity),
			Link:       "/parts/" + p.ID,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("📦 Stock %s %+d for %s (now %d)", req.Reason, req.Delta, p.PartNumber, newQuantity)
	return s.parts.FindByID(ctx, partID)
}

// GetMovements returns the stock movement history for a part
func (s *InventoryService) GetMovements(ctx context.Context, partID string, limit int) ([]*models.StockMovement, error) {
	if _, err := s.GetPart(ctx, partID); err != nil {
		return nil, err
	}
	return s.parts.ListMovements(ctx, partID, limit)
}

// CreateSupplier registers a parts vendor
func (s *InventoryService) CreateSupplier(ctx context.Context, req SupplierRequest) (*models.Supplier, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.NewValidationError("name", "Name is required")
	}

	sup := &models.Supplier{
		ID:          utils.GenerateID(),
		Name:        req.Name,
		ContactName: req.ContactName,
		Email:       req.Email,
		Phone:       req.Phone,
		Address:     req.Address,
		Notes:       req.Notes,
	}
	if err := s.suppliers.Insert(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

// GetSupplier fetches a supplier by ID
func (s *InventoryService) GetSupplier(ctx context.Context, id string) (*models.Supplier, error) {
	sup, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sup == nil {
		return nil, errors.NewNotFoundError("Supplier", id)
	}
	return sup, nil
}

// ListSuppliers returns all suppliers
func (s *InventoryService) ListSuppliers(ctx context.Context) ([]*models.Supplier, error) {
	return s.suppliers.FindAll(ctx)
}

// UpdateSupplier replaces a supplier's editable fields
func (s *InventoryService) UpdateSupplier(ctx context.Context, id string, req SupplierRequest) (*models.Supplier, error) {
	if _, err := s.GetSupplier(ctx, id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.NewValidationError("name", "Name is required")
	}

	updates := map[string]interface{}{
		constants.FieldName: req.Name,
		"contact_name":      req.ContactName,
		"email":             req.Email,
		"phone":             req.Phone,
		"address":           req.Address,
		"notes":             req.Notes,
	}
	if err := s.suppliers.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.suppliers.FindByID(ctx, id)
}

// DeleteSupplier removes a supplier. Suppliers referenced by parts cannot
// be deleted.
func (s *InventoryService) DeleteSupplier(ctx context.Context, id string) error {
	if _, err := s.GetSupplier(ctx, id); err != nil {
		return err
	}

	hasParts, err := s.suppliers.HasParts(ctx, id)
	if err != nil {
		return err
	}
	if hasParts {
		return errors.NewValidationError("id", "Supplier is referenced by parts")
	}
	return s.suppliers.Delete(ctx, id)
}
