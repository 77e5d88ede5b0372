package services

import (
	"context"
	"time"

	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/pkg/constants"
)

// ComponentHealth is the probe result for one dependency
type ComponentHealth struct {
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// HealthReport aggregates component probes into one overall status. The
// database being down makes the whole service down; an unreachable AI
// provider only degrades it.
type HealthReport struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthService probes the database, configured AI providers, and the
// PM scheduler's tick liveness
type HealthService struct {
	db        *database.Connection
	ai        *AIService
	scheduler *PMSchedulerService
	version   string
	startedAt time.Time
}

func NewHealthService(db *database.Connection, ai *AIService, scheduler *PMSchedulerService, version string) *HealthService {
	return &HealthService{
		db:        db,
		ai:        ai,
		scheduler: scheduler,
		version:   version,
		startedAt: time.Now(),
	}
}

// Liveness is the cheap probe for load balancers: no dependency checks.
func (s *HealthService) Liveness() map[string]string {
	return map[string]string{
		"status":  constants.HealthOK,
		"version": s.version,
	}
}

// Check runs the full dependency probe set
func (s *HealthService) Check(ctx context.Context) *HealthReport {
	report := &HealthReport{
		Status:     constants.HealthOK,
		Version:    s.version,
		Uptime:     time.Since(s.startedAt).Round(time.Second).String(),
		Components: make(map[string]ComponentHealth),
	}

	start := time.Now()
	if err := s.db.Ping(ctx); err != nil {
		report.Components["database"] = ComponentHealth{
			Status:    constants.HealthDown,
			Detail:    err.Error(),
			LatencyMs: time.Since(start).Milliseconds(),
		}
		report.Status = constants.HealthDown
	} else {
		report.Components["database"] = ComponentHealth{
			Status:    constants.HealthOK,
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}

	for _, provider := range s.ai.Providers() {
		start := time.Now()
		component := ComponentHealth{Status: constants.HealthOK}
		if err := s.ai.PingProvider(ctx, provider); err != nil {
			component.Status = constants.HealthDown
			component.Detail = err.Error()
			if report.Status == constants.HealthOK {
				report.Status = constants.HealthDegraded
			}
		}
		component.LatencyMs = time.Since(start).Milliseconds()
		report.Components["ai:"+provider] = component
	}

	// Scheduler liveness: a tick older than three intervals means the
	// background loop has stalled. Zero means it was never started, which
	// is normal for one-shot binaries.
	if lastTick := s.scheduler.LastTick(); !lastTick.IsZero() {
		component := ComponentHealth{Status: constants.HealthOK}
		stale := 3 * constants.ScheduleCheckInterval * time.Second
		if time.Since(lastTick) > stale {
			component.Status = constants.HealthDown
			component.Detail = "last tick at " + lastTick.Format(time.RFC3339)
			if report.Status == constants.HealthOK {
				report.Status = constants.HealthDegraded
			}
		}
		report.Components["scheduler"] = component
	}

	return report
}
