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

// WorkOrderService owns the work order lifecycle: creation with sequential
// numbering, status transitions, assignment, comments, and the outbox events
// that drive notifications.
type WorkOrderService struct {
	db         *database.Connection
	workOrders *persistence.WorkOrderRepository
	assets     *persistence.AssetRepository
	users      *persistence.UserRepository
	outbox     *OutboxService
}

func NewWorkOrderService(db *database.Connection, workOrders *persistence.WorkOrderRepository,
	assets *persistence.AssetRepository, users *persistence.UserRepository, outbox *OutboxService) *WorkOrderService {
	return &WorkOrderService{
		db:         db,
		workOrders: workOrders,
		assets:     assets,
		users:      users,
		outbox:     outbox,
	}
}

// CreateWorkOrderRequest is the payload for creating a work order
type CreateWorkOrderRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	AssetID     *string    `json:"asset_id"`
	AssignedTo  *string    `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
	Notes       string     `json:"notes"`
}

// UpdateWorkOrderRequest is the payload for a partial update. Status changes
// go through Transition, not here.
type UpdateWorkOrderRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Priority    *string    `json:"priority"`
	AssetID     *string    `json:"asset_id"`
	DueDate     *time.Time `json:"due_date"`
	Notes       *string    `json:"notes"`
}

// TransitionRequest moves a work order to a new status
type TransitionRequest struct {
	Status     string  `json:"status" binding:"required"`
	LaborHours float64 `json:"labor_hours"`
	Notes      string  `json:"notes"`
}

func validPriority(p string) bool {
	_, ok := constants.PriorityRank[p]
	return ok
}

// CreateWorkOrder creates a work order with the next sequential number.
// Number allocation, insert, and the created/assigned events commit in one
// transaction so the outbox never references an uncommitted record.
func (s *WorkOrderService) CreateWorkOrder(ctx context.Context, req CreateWorkOrderRequest, actorID string) (*models.WorkOrder, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.NewValidationError("title", "Title is required")
	}
	if req.Priority == "" {
		req.Priority = constants.PriorityMedium
	}
	if !validPriority(req.Priority) {
		return nil, errors.NewValidationError("priority", fmt.Sprintf("Unknown priority: %s", req.Priority))
	}

	if req.AssetID != nil && *req.AssetID != "" {
		asset, err := s.assets.FindByID(ctx, *req.AssetID)
		if err != nil {
			return nil, err
		}
		if asset == nil {
			return nil, errors.NewNotFoundError("Asset", *req.AssetID)
		}
	}
	if req.AssignedTo != nil && *req.AssignedTo != "" {
		assignee, err := s.users.FindByID(ctx, *req.AssignedTo)
		if err != nil {
			return nil, err
		}
		if assignee == nil {
			return nil, errors.NewNotFoundError("User", *req.AssignedTo)
		}
	}

	status := constants.WorkOrderStatusOpen
	if req.AssignedTo != nil && *req.AssignedTo != "" {
		status = constants.WorkOrderStatusAssigned
	}

	w := &models.WorkOrder{
		ID:          utils.GenerateID(),
		Title:       req.Title,
		Description: req.Description,
		Status:      status,
		Priority:    req.Priority,
		AssetID:     req.AssetID,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   actorID,
		DueDate:     req.DueDate,
		Notes:       req.Notes,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	number, err := s.workOrders.NextNumber(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate work order number: %w", err)
	}
	w.Number = number

	if err := s.workOrders.InsertTx(ctx, tx, w); err != nil {
		return nil, err
	}

	if err := s.outbox.EnqueueTx(ctx, tx, events.RecordEvent{
		EventType:  events.WorkOrderCreated,
		RecordID:   w.ID,
		RecordName: fmt.Sprintf("%s %s", w.Number, w.Title),
		ActorID:    actorID,
		NotifyRole: constants.RoleManager,
		Detail:     fmt.Sprintf("Priority %s", w.Priority),
		Link:       "/work-orders/" + w.ID,
	}); err != nil {
		return nil, err
	}

	if w.AssignedTo != nil && *w.AssignedTo != "" {
		if err := s.outbox.EnqueueTx(ctx, tx, events.RecordEvent{
			EventType:   events.WorkOrderAssigned,
			RecordID:    w.ID,
			RecordName:  fmt.Sprintf("%s %s", w.Number, w.Title),
			ActorID:     actorID,
			RecipientID: *w.AssignedTo,
			Link:        "/work-orders/" + w.ID,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("✅ Created work order %s: %s", w.Number, w.Title)
	return s.workOrders.FindByID(ctx, w.ID)
}

// GetWorkOrder fetches a work order by ID
func (s *WorkOrderService) GetWorkOrder(ctx context.Context, id string) (*models.WorkOrder, error) {
	w, err := s.workOrders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, errors.NewNotFoundError("WorkOrder", id)
	}
	return w, nil
}

// ListWorkOrders returns work orders matching the filter
func (s *WorkOrderService) ListWorkOrders(ctx context.Context, f persistence.WorkOrderFilter) ([]*models.WorkOrder, error) {
	if f.Status != "" {
		if _, ok := constants.WorkOrderTransitions[f.Status]; !ok {
			return nil, errors.NewValidationError("status", fmt.Sprintf("Unknown status: %s", f.Status))
		}
	}
	return s.workOrders.List(ctx, f)
}

// UpdateWorkOrder applies a partial update to editable fields
func (s *WorkOrderService) UpdateWorkOrder(ctx context.Context, id string, req UpdateWorkOrderRequest) (*models.WorkOrder, error) {
	existing, err := s.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, errors.NewValidationError("title", "Title cannot be empty")
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			return nil, errors.NewValidationError("priority", fmt.Sprintf("Unknown priority: %s", *req.Priority))
		}
		updates[constants.FieldPriority] = *req.Priority
	}
	if req.AssetID != nil {
		if *req.AssetID != "" {
			asset, err := s.assets.FindByID(ctx, *req.AssetID)
			if err != nil {
				return nil, err
			}
			if asset == nil {
				return nil, errors.NewNotFoundError("Asset", *req.AssetID)
			}
			updates["asset_id"] = *req.AssetID
		} else {
			updates["asset_id"] = nil
		}
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if err := s.workOrders.Update(ctx, existing.ID, updates); err != nil {
		return nil, err
	}
	return s.workOrders.FindByID(ctx, id)
}

// Assign sets or changes the assignee. An open work order moves to
// assigned; other active statuses keep theirs. The update and the
// assignment event commit in one transaction.
func (s *WorkOrderService) Assign(ctx context.Context, id, assigneeID, actorID string) (*models.WorkOrder, error) {
	w, err := s.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	switch w.Status {
	case constants.WorkOrderStatusCompleted, constants.WorkOrderStatusClosed, constants.WorkOrderStatusCancelled:
		return nil, errors.NewValidationError("status", fmt.Sprintf("Cannot assign a %s work order", w.Status))
	}

	assignee, err := s.users.FindByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if assignee == nil {
		return nil, errors.NewNotFoundError("User", assigneeID)
	}

	updates := map[string]interface{}{"assigned_to": assigneeID}
	if w.Status == constants.WorkOrderStatusOpen {
		updates[constants.FieldStatus] = constants.WorkOrderStatusAssigned
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.workOrders.UpdateTx(ctx, tx, id, updates); err != nil {
		return nil, err
	}
	if err := s.outbox.EnqueueTx(ctx, tx, events.RecordEvent{
		EventType:   events.WorkOrderAssigned,
		RecordID:    w.ID,
		RecordName:  fmt.Sprintf("%s %s", w.Number, w.Title),
		ActorID:     actorID,
		RecipientID: assigneeID,
		Link:        "/work-orders/" + w.ID,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("✅ Assigned work order %s to %s", w.Number, assignee.Name)
	return s.workOrders.FindByID(ctx, id)
}

// Transition moves a work order along the status lifecycle. Illegal moves
// are rejected against the transition table. Completion stamps completed_at
// and records labor hours; starting work stamps started_at once.
func (s *WorkOrderService) Transition(ctx context.Context, id string, req TransitionRequest, actorID string) (*models.WorkOrder, error) {
	w, err := s.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed, ok := constants.WorkOrderTransitions[w.Status]
	if !ok {
		return nil, errors.NewValidationError("status", fmt.Sprintf("Unknown current status: %s", w.Status))
	}
	if !utils.ContainsString(allowed, req.Status) {
		return nil, errors.NewValidationError("status",
			fmt.Sprintf("Cannot transition from %s to %s", w.Status, req.Status))
	}

	now := time.Now()
	updates := map[string]interface{}{constants.FieldStatus: req.Status}

	if req.Status == constants.WorkOrderStatusInProgress && w.StartedAt == nil {
		updates["started_at"] = now
	}
	if req.Status == constants.WorkOrderStatusCompleted {
		updates["completed_at"] = now
		if req.LaborHours > 0 {
			updates["labor_hours"] = req.LaborHours
		}
	}
	// Reopening a completed work order clears the completion stamp
	if w.Status == constants.WorkOrderStatusCompleted && req.Status == constants.WorkOrderStatusInProgress {
		updates["completed_at"] = nil
	}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.workOrders.UpdateTx(ctx, tx, id, updates); err != nil {
		return nil, err
	}
	if req.Status == constants.WorkOrderStatusCompleted {
		if err := s.outbox.EnqueueTx(ctx, tx, events.RecordEvent{
			EventType:  events.WorkOrderCompleted,
			RecordID:   w.ID,
			RecordName: fmt.Sprintf("%s %s", w.Number, w.Title),
			ActorID:    actorID,
			NotifyRole: constants.RoleManager,
			Link:       "/work-orders/" + w.ID,
		}); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("✅ Work order %s: %s -> %s", w.Number, w.Status, req.Status)
	return s.workOrders.FindByID(ctx, id)
}

// DeleteWorkOrder removes a work order and its comments. Admin only,
// enforced at the route layer.
func (s *WorkOrderService) DeleteWorkOrder(ctx context.Context, id string) error {
	w, err := s.GetWorkOrder(ctx, id)
	if err != nil {
		return err
	}
	if err := s.workOrders.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("🗑️ Deleted work order %s", w.Number)
	return nil
}

// AddComment appends a comment to the work order feed
func (s *WorkOrderService) AddComment(ctx context.Context, workOrderID, authorID, body string) (*models.WorkOrderComment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, errors.NewValidationError("body", "Comment body is required")
	}
	if _, err := s.GetWorkOrder(ctx, workOrderID); err != nil {
		return nil, err
	}

	c := &models.WorkOrderComment{
		ID:          utils.GenerateID(),
		WorkOrderID: workOrderID,
		AuthorID:    authorID,
		Body:        body,
	}
	if err := s.workOrders.InsertComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetComments returns the comment feed for a work order, oldest first
func (s *WorkOrderService) GetComments(ctx context.Context, workOrderID string) ([]*models.WorkOrderComment, error) {
	if _, err := s.GetWorkOrder(ctx, workOrderID); err != nil {
		return nil, err
	}
	return s.workOrders.ListComments(ctx, workOrderID)
}
