package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/errors"
	"github.com/chatterfix/backend/pkg/utils"
)

// cronParser accepts standard 5-field cron expressions
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// PMSchedulerService manages preventive-maintenance schedules and the
// background tick that generates work orders when they come due. The
// is_running flag on each schedule acts as a compare-and-set lock so
// overlapping ticks (or multiple instances) never double-generate.
type PMSchedulerService struct {
	schedules  *persistence.PMScheduleRepository
	assets     *persistence.AssetRepository
	workOrders *WorkOrderService
	escalation *EscalationService
	auth       *AuthService

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// lastTick is the unix-nano timestamp of the last completed pass,
	// read by the health probe
	lastTick atomic.Int64
}

func NewPMSchedulerService(schedules *persistence.PMScheduleRepository, assets *persistence.AssetRepository,
	workOrders *WorkOrderService, escalation *EscalationService, auth *AuthService) *PMSchedulerService {
	return &PMSchedulerService{
		schedules:  schedules,
		assets:     assets,
		workOrders: workOrders,
		escalation: escalation,
		auth:       auth,
		stopCh:     make(chan struct{}),
	}
}

// PMScheduleRequest is the payload for creating or updating a schedule
type PMScheduleRequest struct {
	Name            string  `json:"name" binding:"required"`
	AssetID         *string `json:"asset_id"`
	CronExpr        string  `json:"cron_expr" binding:"required"`
	Timezone        string  `json:"timezone"`
	Priority        string  `json:"priority"`
	TaskDescription string  `json:"task_description"`
	AssignedTo      *string `json:"assigned_to"`
	IsActive        *bool   `json:"is_active"`
}

// NextRunTime computes the next fire time for a cron expression in the
// given timezone, relative to after.
func NextRunTime(cronExpr, timezone string, after time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}

	if timezone == "" {
		timezone = constants.ScheduleDefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return schedule.Next(after.In(loc)), nil
}

// CreateSchedule validates and stores a PM schedule with its first
// next_run_at precomputed.
func (s *PMSchedulerService) CreateSchedule(ctx context.Context, req PMScheduleRequest) (*models.PMSchedule, error) {
	if err := s.validateSchedule(ctx, req); err != nil {
		return nil, err
	}
	if req.Timezone == "" {
		req.Timezone = constants.ScheduleDefaultTimezone
	}
	if req.Priority == "" {
		req.Priority = constants.PriorityMedium
	}

	nextRun, err := NextRunTime(req.CronExpr, req.Timezone, time.Now())
	if err != nil {
		return nil, errors.NewValidationError("cron_expr", err.Error())
	}

	sched := &models.PMSchedule{
		ID:              utils.GenerateID(),
		Name:            req.Name,
		AssetID:         req.AssetID,
		CronExpr:        req.CronExpr,
		Timezone:        req.Timezone,
		Priority:        req.Priority,
		TaskDescription: req.TaskDescription,
		AssignedTo:      req.AssignedTo,
		IsActive:        true,
		NextRunAt:       &nextRun,
	}
	if req.IsActive != nil {
		sched.IsActive = *req.IsActive
	}
	if err := s.schedules.Insert(ctx, sched); err != nil {
		return nil, err
	}

	log.Printf("✅ Created PM schedule %q, next run %s", sched.Name, nextRun.Format(time.RFC3339))
	return sched, nil
}

// UpdateSchedule validates and replaces a schedule's fields, recomputing
// next_run_at when the cadence changed.
func (s *PMSchedulerService) UpdateSchedule(ctx context.Context, id string, req PMScheduleRequest) (*models.PMSchedule, error) {
	existing, err := s.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateSchedule(ctx, req); err != nil {
		return nil, err
	}
	if req.Timezone == "" {
		req.Timezone = constants.ScheduleDefaultTimezone
	}
	if req.Priority == "" {
		req.Priority = constants.PriorityMedium
	}

	updates := map[string]interface{}{
		constants.FieldName: req.Name,
		"cron_expr":         req.CronExpr,
		"timezone":          req.Timezone,
		"priority":          req.Priority,
		"task_description":  req.TaskDescription,
	}
	if req.AssetID != nil && *req.AssetID != "" {
		updates["asset_id"] = *req.AssetID
	} else {
		updates["asset_id"] = nil
	}
	if req.AssignedTo != nil && *req.AssignedTo != "" {
		updates["assigned_to"] = *req.AssignedTo
	} else {
		updates["assigned_to"] = nil
	}
	if req.IsActive != nil {
		updates[constants.FieldIsActive] = *req.IsActive
	}

	if req.CronExpr != existing.CronExpr || req.Timezone != existing.Timezone {
		nextRun, err := NextRunTime(req.CronExpr, req.Timezone, time.Now())
		if err != nil {
			return nil, errors.NewValidationError("cron_expr", err.Error())
		}
		updates["next_run_at"] = nextRun
	}

	if err := s.schedules.Update(ctx, id, updates); err != nil {
		return nil, err
	}
	return s.schedules.FindByID(ctx, id)
}

// GetSchedule fetches a schedule by ID
func (s *PMSchedulerService) GetSchedule(ctx context.Context, id string) (*models.PMSchedule, error) {
	sched, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, errors.NewNotFoundError("PMSchedule", id)
	}
	return sched, nil
}

// ListSchedules returns all schedules
func (s *PMSchedulerService) ListSchedules(ctx context.Context) ([]*models.PMSchedule, error) {
	return s.schedules.FindAll(ctx)
}

// DeleteSchedule removes a schedule
func (s *PMSchedulerService) DeleteSchedule(ctx context.Context, id string) error {
	if _, err := s.GetSchedule(ctx, id); err != nil {
		return err
	}
	return s.schedules.Delete(ctx, id)
}

func (s *PMSchedulerService) validateSchedule(ctx context.Context, req PMScheduleRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return errors.NewValidationError("name", "Name is required")
	}
	if _, err := cronParser.Parse(req.CronExpr); err != nil {
		return errors.NewValidationError("cron_expr", fmt.Sprintf("Invalid cron expression: %v", err))
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return errors.NewValidationError("timezone", fmt.Sprintf("Unknown timezone: %s", req.Timezone))
		}
	}
	if req.Priority != "" {
		if _, ok := constants.PriorityRank[req.Priority]; !ok {
			return errors.NewValidationError("priority", fmt.Sprintf("Unknown priority: %s", req.Priority))
		}
	}
	if req.AssetID != nil && *req.AssetID != "" {
		asset, err := s.assets.FindByID(ctx, *req.AssetID)
		if err != nil {
			return err
		}
		if asset == nil {
			return errors.NewNotFoundError("Asset", *req.AssetID)
		}
	}
	return nil
}

// LastTick reports when the scheduler last completed a pass. Zero before
// the first tick.
func (s *PMSchedulerService) LastTick() time.Time {
	nanos := s.lastTick.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

// StartScheduler starts the background tick
func (s *PMSchedulerService) StartScheduler() {
	s.lastTick.Store(time.Now().UnixNano())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		interval := time.Duration(constants.ScheduleCheckInterval) * time.Second
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("⏰ PM scheduler started with %v interval", interval)

		for {
			select {
			case <-s.stopCh:
				log.Printf("⏰ PM scheduler stopping...")
				return
			case <-ticker.C:
				s.Tick(context.Background())
			}
		}
	}()
}

// StopScheduler stops the background tick gracefully
func (s *PMSchedulerService) StopScheduler() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	log.Printf("⏰ PM scheduler stopped")
}

// Tick runs one scheduler pass: due PM schedules, the escalation pass, and
// session housekeeping. Exported so tests can drive it directly.
func (s *PMSchedulerService) Tick(ctx context.Context) {
	now := time.Now()

	schedules, err := s.schedules.FindActive(ctx)
	if err != nil {
		log.Printf("⚠️ Scheduler failed to load schedules: %v", err)
	} else {
		for _, sched := range schedules {
			if sched.NextRunAt != nil && sched.NextRunAt.After(now) {
				continue
			}
			s.runSchedule(ctx, sched, now)
		}
	}

	if n, err := s.escalation.RunEscalationPass(ctx); err != nil {
		log.Printf("⚠️ Escalation pass failed: %v", err)
	} else if n > 0 {
		log.Printf("🚨 Escalation pass applied %d escalations", n)
	}

	s.auth.CleanupExpiredSessions(ctx)
	s.lastTick.Store(time.Now().UnixNano())
}

// TriggerSchedule runs one schedule immediately, outside its cadence. The
// cadence is untouched: last_run_at is stamped but next_run_at stays where
// the cron left it.
func (s *PMSchedulerService) TriggerSchedule(ctx context.Context, id, actorID string) (*models.WorkOrder, error) {
	sched, err := s.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	acquired, err := s.schedules.AcquireRunLock(ctx, sched.ID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, errors.NewConflictError("PMSchedule", "is_running", sched.Name)
	}
	defer func() {
		if err := s.schedules.ReleaseRunLock(ctx, sched.ID); err != nil {
			log.Printf("⚠️ Failed to release run lock for schedule %q: %v", sched.Name, err)
		}
	}()

	w, err := s.workOrders.CreateWorkOrder(ctx, s.workOrderTemplate(sched), actorID)
	if err != nil {
		return nil, err
	}
	if err := s.schedules.Update(ctx, sched.ID, map[string]interface{}{"last_run_at": time.Now()}); err != nil {
		log.Printf("⚠️ Failed to stamp manual run for schedule %q: %v", sched.Name, err)
	}

	log.Printf("⏰ Schedule %q triggered manually, generated %s", sched.Name, w.Number)
	return w, nil
}

// workOrderTemplate expands a schedule into the work order it generates
func (s *PMSchedulerService) workOrderTemplate(sched *models.PMSchedule) CreateWorkOrderRequest {
	description := sched.TaskDescription
	if description == "" {
		description = fmt.Sprintf("Preventive maintenance generated by schedule %q", sched.Name)
	}
	return CreateWorkOrderRequest{
		Title:       fmt.Sprintf("PM: %s", sched.Name),
		Description: description,
		Priority:    sched.Priority,
		AssetID:     sched.AssetID,
		AssignedTo:  sched.AssignedTo,
	}
}

// runSchedule generates the work order for one due schedule under the
// is_running lock.
func (s *PMSchedulerService) runSchedule(ctx context.Context, sched *models.PMSchedule, now time.Time) {
	// A panic in one job must not take the scheduler goroutine down
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Schedule %q panicked: %v", sched.Name, r)
		}
	}()

	acquired, err := s.schedules.AcquireRunLock(ctx, sched.ID)
	if err != nil {
		log.Printf("⚠️ Failed to acquire run lock for schedule %q: %v", sched.Name, err)
		return
	}
	if !acquired {
		return
	}
	defer func() {
		if err := s.schedules.ReleaseRunLock(ctx, sched.ID); err != nil {
			log.Printf("⚠️ Failed to release run lock for schedule %q: %v", sched.Name, err)
		}
	}()

	w, err := s.workOrders.CreateWorkOrder(ctx, s.workOrderTemplate(sched), constants.SystemUserID)
	if err != nil {
		log.Printf("⚠️ Schedule %q failed to create work order: %v", sched.Name, err)
		return
	}

	nextRun, err := NextRunTime(sched.CronExpr, sched.Timezone, now)
	if err != nil {
		log.Printf("⚠️ Schedule %q has an invalid cadence: %v", sched.Name, err)
		return
	}
	if err := s.schedules.MarkRun(ctx, sched.ID, now, nextRun); err != nil {
		log.Printf("⚠️ Failed to stamp run for schedule %q: %v", sched.Name, err)
		return
	}

	log.Printf("⏰ Schedule %q generated %s, next run %s", sched.Name, w.Number, nextRun.Format(time.RFC3339))
}
