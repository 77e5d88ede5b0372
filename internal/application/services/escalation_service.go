package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/chatterfix/backend/internal/domain/events"
	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/errors"
	"github.com/chatterfix/backend/pkg/utils"
)

// EscalationService evaluates rule conditions against active work orders.
// Conditions are expr expressions over the work order environment, e.g.
//
//	priority == "high" && age_hours > 24
//	overdue && status != "in_progress"
//
// A rule fires at most once per work order, tracked in escalated_rule_ids.
type EscalationService struct {
	db         *database.Connection
	rules      *persistence.EscalationRepository
	workOrders *persistence.WorkOrderRepository
	outbox     *OutboxService

	// compiled caches programs by rule ID + condition text
	mu       sync.Mutex
	compiled map[string]*vm.Program
}

func NewEscalationService(db *database.Connection, rules *persistence.EscalationRepository,
	workOrders *persistence.WorkOrderRepository, outbox *OutboxService) *EscalationService {
	return &EscalationService{
		db:         db,
		rules:      rules,
		workOrders: workOrders,
		outbox:     outbox,
		compiled:   make(map[string]*vm.Program),
	}
}

// EscalationRuleRequest is the payload for creating or updating a rule
type EscalationRuleRequest struct {
	Name        string `json:"name" binding:"required"`
	Condition   string `json:"condition" binding:"required"`
	SetPriority string `json:"set_priority"`
	NotifyRole  string `json:"notify_role"`
	IsActive    *bool  `json:"is_active"`
}

// conditionEnv is the variable set conditions may reference.
func conditionEnv(w *models.WorkOrder, now time.Time) map[string]interface{} {
	assignedTo := utils.StringOrEmpty(w.AssignedTo)
	return map[string]interface{}{
		"status":      w.Status,
		"priority":    w.Priority,
		"age_hours":   w.AgeHours(now),
		"overdue":     w.IsOverdue(now),
		"labor_hours": w.LaborHours,
		"assigned":    assignedTo != "",
		"assigned_to": assignedTo,
	}
}

// CompileCondition validates a condition expression. Used at rule save time
// so broken expressions are rejected before they reach the scheduler.
func CompileCondition(condition string) (*vm.Program, error) {
	sample := &models.WorkOrder{Status: constants.WorkOrderStatusOpen, Priority: constants.PriorityMedium, CreatedDate: time.Now()}
	return expr.Compile(condition, expr.Env(conditionEnv(sample, time.Now())), expr.AsBool())
}

// CreateRule validates and stores an escalation rule
func (s *EscalationService) CreateRule(ctx context.Context, req EscalationRuleRequest) (*models.EscalationRule, error) {
	if err := s.validateRule(req); err != nil {
		return nil, err
	}

	rule := &models.EscalationRule{
		ID:          utils.GenerateID(),
		Name:        req.Name,
		Condition:   req.Condition,
		SetPriority: req.SetPriority,
		NotifyRole:  req.NotifyRole,
		IsActive:    true,
	}
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := s.rules.Insert(ctx, rule); err != nil {
		return nil, err
	}
	log.Printf("✅ Created escalation rule %q", rule.Name)
	return rule, nil
}

// UpdateRule validates and replaces a rule's fields
func (s *EscalationService) UpdateRule(ctx context.Context, id string, req EscalationRuleRequest) (*models.EscalationRule, error) {
	existing, err := s.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateRule(req); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		constants.FieldName: req.Name,
		"condition":         req.Condition,
		"set_priority":      req.SetPriority,
		"notify_role":       req.NotifyRole,
	}
	if req.IsActive != nil {
		updates[constants.FieldIsActive] = *req.IsActive
	}
	if err := s.rules.Update(ctx, id, updates); err != nil {
		return nil, err
	}

	// Condition text changed: invalidate the cached program
	s.mu.Lock()
	delete(s.compiled, cacheKey(existing.ID, existing.Condition))
	s.mu.Unlock()
	return s.rules.FindByID(ctx, id)
}

// GetRule fetches a rule by ID
func (s *EscalationService) GetRule(ctx context.Context, id string) (*models.EscalationRule, error) {
	rule, err := s.rules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, errors.NewNotFoundError("EscalationRule", id)
	}
	return rule, nil
}

// ListRules returns all rules
func (s *EscalationService) ListRules(ctx context.Context) ([]*models.EscalationRule, error) {
	return s.rules.FindAll(ctx)
}

// DeleteRule removes a rule
func (s *EscalationService) DeleteRule(ctx context.Context, id string) error {
	rule, err := s.GetRule(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.compiled, cacheKey(rule.ID, rule.Condition))
	s.mu.Unlock()
	return s.rules.Delete(ctx, id)
}

func (s *EscalationService) validateRule(req EscalationRuleRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.NewValidationError("name", "Name is required")
	}
	if _, err := CompileCondition(req.Condition); err != nil {
		return errors.NewValidationError("condition", fmt.Sprintf("Invalid condition: %v", err))
	}
	if req.SetPriority != "" {
		if _, ok := constants.PriorityRank[req.SetPriority]; !ok {
			return errors.NewValidationError("set_priority", fmt.Sprintf("Unknown priority: %s", req.SetPriority))
		}
	}
	if req.NotifyRole != "" && !utils.ContainsString(constants.ValidRoles, req.NotifyRole) {
		return errors.NewValidationError("notify_role", fmt.Sprintf("Unknown role: %s", req.NotifyRole))
	}
	if req.SetPriority == "" && req.NotifyRole == "" {
		return errors.NewValidationError("set_priority", "Rule must set a priority or notify a role")
	}
	return nil
}

// RunEscalationPass evaluates every active rule against every active work
// order. Called from the scheduler tick. Returns the number of escalations
// applied.
func (s *EscalationService) RunEscalationPass(ctx context.Context) (int, error) {
	rules, err := s.rules.FindActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load rules: %w", err)
	}
	if len(rules) == 0 {
		return 0, nil
	}

	orders, err := s.workOrders.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load active work orders: %w", err)
	}

	now := time.Now()
	escalated := 0
	for _, w := range orders {
		fired := utils.SplitCSV(w.EscalatedRuleIDs)
		env := conditionEnv(w, now)

		for _, rule := range rules {
			if utils.ContainsString(fired, rule.ID) {
				continue
			}

			matched, err := s.evaluate(rule, env)
			if err != nil {
				log.Printf("⚠️ Escalation rule %q failed on %s: %v", rule.Name, w.Number, err)
				continue
			}
			if !matched {
				continue
			}

			if err := s.apply(ctx, w, rule, &fired); err != nil {
				log.Printf("⚠️ Failed to apply rule %q to %s: %v", rule.Name, w.Number, err)
				continue
			}
			escalated++
		}
	}
	return escalated, nil
}

func (s *EscalationService) evaluate(rule *models.EscalationRule, env map[string]interface{}) (bool, error) {
	key := cacheKey(rule.ID, rule.Condition)
	s.mu.Lock()
	program, ok := s.compiled[key]
	s.mu.Unlock()
	if !ok {
		var err error
		program, err = CompileCondition(rule.Condition)
		if err != nil {
			return false, err
		}
		s.mu.Lock()
		s.compiled[key] = program
		s.mu.Unlock()
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition did not evaluate to a boolean")
	}
	return matched, nil
}

// apply records the rule as fired and raises priority when the rule's
// target outranks the current one. Priority never goes down. The marker
// update and the escalation event commit in one transaction.
func (s *EscalationService) apply(ctx context.Context, w *models.WorkOrder, rule *models.EscalationRule, fired *[]string) error {
	*fired = append(*fired, rule.ID)
	updates := map[string]interface{}{
		"escalated_rule_ids": utils.JoinCSV(*fired),
	}

	newPriority := w.Priority
	if rule.SetPriority != "" && constants.PriorityRank[rule.SetPriority] > constants.PriorityRank[w.Priority] {
		newPriority = rule.SetPriority
		updates[constants.FieldPriority] = newPriority
	}

	detail := fmt.Sprintf("Rule %q matched", rule.Name)
	if updates[constants.FieldPriority] != nil {
		detail = fmt.Sprintf("Rule %q raised priority to %s", rule.Name, newPriority)
	}

	event := events.RecordEvent{
		EventType:  events.WorkOrderEscalated,
		RecordID:   w.ID,
		RecordName: fmt.Sprintf("%s %s", w.Number, w.Title),
		ActorID:    constants.SystemUserID,
		NotifyRole: rule.NotifyRole,
		Detail:     detail,
		Link:       "/work-orders/" + w.ID,
	}
	if event.NotifyRole == "" && w.AssignedTo != nil {
		event.RecipientID = *w.AssignedTo
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.workOrders.UpdateTx(ctx, tx, w.ID, updates); err != nil {
		return err
	}
	if err := s.outbox.EnqueueTx(ctx, tx, event); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	w.Priority = newPriority

	log.Printf("🚨 Escalated %s via rule %q", w.Number, rule.Name)
	return nil
}

func cacheKey(id, condition string) string {
	return id + "|" + condition
}
