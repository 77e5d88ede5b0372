package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chatterfix/backend/internal/domain/events"
	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/errors"
	"github.com/chatterfix/backend/pkg/utils"
)

var assetStatuses = []string{
	constants.AssetStatusOperational,
	constants.AssetStatusDegraded,
	constants.AssetStatusDown,
	constants.AssetStatusRetired,
}

var criticalityLevels = []string{
	constants.CriticalityLow,
	constants.CriticalityMedium,
	constants.CriticalityHigh,
}

// AssetService manages the equipment registry and its parent-child hierarchy
type AssetService struct {
	db         *database.Connection
	assets     *persistence.AssetRepository
	workOrders *persistence.WorkOrderRepository
	outbox     *OutboxService
}

func NewAssetService(db *database.Connection, assets *persistence.AssetRepository,
	workOrders *persistence.WorkOrderRepository, outbox *OutboxService) *AssetService {
	return &AssetService{db: db, assets: assets, workOrders: workOrders, outbox: outbox}
}

// CreateAssetRequest is the payload for registering an asset
type CreateAssetRequest struct {
	Name           string     `json:"name" binding:"required"`
	AssetTag       string     `json:"asset_tag" binding:"required"`
	Category       string     `json:"category"`
	Location       string     `json:"location"`
	Status         string     `json:"status"`
	Criticality    string     `json:"criticality"`
	ParentID       *string    `json:"parent_id"`
	Manufacturer   string     `json:"manufacturer"`
	Model          string     `json:"model"`
	SerialNumber   string     `json:"serial_number"`
	PurchaseDate   *time.Time `json:"purchase_date"`
	WarrantyExpiry *time.Time `json:"warranty_expiry"`
	Notes          string     `json:"notes"`
}

// UpdateAssetRequest is the payload for a partial asset update
type UpdateAssetRequest struct {
	Name           *string    `json:"name"`
	AssetTag       *string    `json:"asset_tag"`
	Category       *string    `json:"category"`
	Location       *string    `json:"location"`
	Status         *string    `json:"status"`
	Criticality    *string    `json:"criticality"`
	ParentID       *string    `json:"parent_id"`
	Manufacturer   *string    `json:"manufacturer"`
	Model          *string    `json:"model"`
	SerialNumber   *string    `json:"serial_number"`
	PurchaseDate   *time.Time `json:"purchase_date"`
	WarrantyExpiry *time.Time `json:"warranty_expiry"`
	Notes          *string    `json:"notes"`
}

// CreateAsset registers a new asset. Tags are unique across the registry.
func (s *AssetService) CreateAsset(ctx context.Context, req CreateAssetRequest) (*models.Asset, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, errors.NewValidationError("name", "Name is required")
	}
	if strings.TrimSpace(req.AssetTag) == "" {
		return nil, errors.NewValidationError("asset_tag", "Asset tag is required")
	}
	if req.Status == "" {
		req.Status = constants.AssetStatusOperational
	}
	if !utils.ContainsString(assetStatuses, req.Status) {
		return nil, errors.NewValidationError("status", fmt.Sprintf("Unknown status: %s", req.Status))
	}
	if req.Criticality == "" {
		req.Criticality = constants.CriticalityMedium
	}
	if !utils.ContainsString(criticalityLevels, req.Criticality) {
		return nil, errors.NewValidationError("criticality", fmt.Sprintf("Unknown criticality: %s", req.Criticality))
	}

	conflict, err := s.assets.CheckTagConflict(ctx, req.AssetTag, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, errors.NewConflictError("Asset", "asset_tag", req.AssetTag)
	}

	if req.ParentID != nil && *req.ParentID != "" {
		parent, err := s.assets.FindByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, errors.NewNotFoundError("Asset", *req.ParentID)
		}
	}

	a := &models.Asset{
		ID:             utils.GenerateID(),
		Name:           req.Name,
		AssetTag:       req.AssetTag,
		Category:       req.Category,
		Location:       req.Location,
		Status:         req.Status,
		Criticality:    req.Criticality,
		ParentID:       req.ParentID,
		Manufacturer:   req.Manufacturer,
		Model:          req.Model,
		SerialNumber:   req.SerialNumber,
		PurchaseDate:   req.PurchaseDate,
		WarrantyExpiry: req.WarrantyExpiry,
		Notes:          req.Notes,
	}
	if err := s.assets.Insert(ctx, a); err != nil {
		return nil, err
	}

	log.Printf("✅ Registered asset %s (%s)", a.Name, a.AssetTag)
	return a, nil
}

// GetAsset fetches an asset by ID
func (s *AssetService) GetAsset(ctx context.Context, id string) (*models.Asset, error) {
	a, err := s.assets.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errors.NewNotFoundError("Asset", id)
	}
	return a, nil
}

// ListAssets returns assets, optionally filtered by status and location
func (s *AssetService) ListAssets(ctx context.Context, status, location string) ([]*models.Asset, error) {
	if status != "" && !utils.ContainsString(assetStatuses, status) {
		return nil, errors.NewValidationError("status", fmt.Sprintf("Unknown status: %s", status))
	}
	return s.assets.List(ctx, status, location)
}

// UpdateAsset applies a partial update. A status change emits an
// asset.status_changed event, committed with the update in one transaction.
func (s *AssetService) UpdateAsset(ctx context.Context, id string, req UpdateAssetRequest, actorID string) (*models.Asset, error) {
	existing, err := s.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	statusChanged := false

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, errors.NewValidationError("name", "Name cannot be empty")
		}
		updates[constants.FieldName] = *req.Name
	}
	if req.AssetTag != nil {
		conflict, err := s.assets.CheckTagConflict(ctx, *req.AssetTag, id)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, errors.NewConflictError("Asset", "asset_tag", *req.AssetTag)
		}
		updates["asset_tag"] = *req.AssetTag
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Status != nil {
		if !utils.ContainsString(assetStatuses, *req.Status) {
			return nil, errors.NewValidationError("status", fmt.Sprintf("Unknown status: %s", *req.Status))
		}
		if *req.Status != existing.Status {
			statusChanged = true
		}
		updates[constants.FieldStatus] = *req.Status
	}
	if req.Criticality != nil {
		if !utils.ContainsString(criticalityLevels, *req.Criticality) {
			return nil, errors.NewValidationError("criticality", fmt.Sprintf("Unknown criticality: %s", *req.Criticality))
		}
		updates["criticality"] = *req.Criticality
	}
	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, errors.NewValidationError("parent_id", "Asset cannot be its own parent")
		}
		if *req.ParentID != "" {
			parent, err := s.assets.FindByID(ctx, *req.ParentID)
			if err != nil {
				return nil, err
			}
			if parent == nil {
				return nil, errors.NewNotFoundError("Asset", *req.ParentID)
			}
			updates["parent_id"] = *req.ParentID
		} else {
			updates["parent_id"] = nil
		}
	}
	if req.Manufacturer != nil {
		updates["manufacturer"] = *req.Manufacturer
	}
	if req.Model != nil {
		updates["model"] = *req.Model
	}
	if req.SerialNumber != nil {
		updates["serial_number"] = *req.SerialNumber
	}
	if req.PurchaseDate != nil {
		updates["purchase_date"] = *req.PurchaseDate
	}
	if req.WarrantyExpiry != nil {
		updates["warranty_expiry"] = *req.WarrantyExpiry
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.assets.UpdateTx(ctx, tx, id, updates); err != nil {
		return nil, err
	}
	if statusChanged {
		if err := s.outbox.EnqueueTx(ctx, tx, events.RecordEvent{
			EventType:  events.AssetStatusChanged,
			RecordID:   id,
			RecordName: existing.Name,
			ActorID:    actorID,
			NotifyRole: constants.RoleManager,
			Detail:     fmt.Sprintf("%s -> %s", existing.Status, *req.Status),
			Link:       "/assets/" + id,
		}); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.assets.FindByID(ctx, id)
}

// DeleteAsset removes an asset. Assets with children or active work orders
// cannot be deleted.
func (s *AssetService) DeleteAsset(ctx context.Context, id string) error {
	a, err := s.GetAsset(ctx, id)
	if err != nil {
		return err
	}

	children, err := s.assets.ListChildren(ctx, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return errors.NewValidationError("id", fmt.Sprintf("Asset has %d child assets", len(children)))
	}

	orders, err := s.workOrders.List(ctx, persistence.WorkOrderFilter{AssetID: id, Limit: constants.MaxPageSize})
	if err != nil {
		return err
	}
	for _, w := range orders {
		if utils.ContainsString(constants.ActiveWorkOrderStatuses, w.Status) || w.Status == constants.WorkOrderStatusOnHold {
			return errors.NewValidationError("id", "Asset has active work orders")
		}
	}

	if err := s.assets.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("🗑️ Deleted asset %s (%s)", a.Name, a.AssetTag)
	return nil
}

// GetChildren returns the direct children of an asset
func (s *AssetService) GetChildren(ctx context.Context, id string) ([]*models.Asset, error) {
	if _, err := s.GetAsset(ctx, id); err != nil {
		return nil, err
	}
	return s.assets.ListChildren(ctx, id)
}

// GetMaintenanceHistory returns the work orders recorded against an asset
func (s *AssetService) GetMaintenanceHistory(ctx context.Context, id string) ([]*models.WorkOrder, error) {
	if _, err := s.GetAsset(ctx, id); err != nil {
		return nil, err
	}
	return s.workOrders.ListByAsset(ctx, id)
}
