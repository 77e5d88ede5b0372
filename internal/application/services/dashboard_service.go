package services

import (
	"context"
	"time"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/constants"
)

// DashboardSummary is the landing-page snapshot
type DashboardSummary struct {
	WorkOrdersByStatus   map[string]int `json:"work_orders_by_status"`
	WorkOrdersByPriority map[string]int `json:"work_orders_by_priority"`
	OverdueWorkOrders    int            `json:"overdue_work_orders"`
	OpenAgeBuckets       map[string]int `json:"open_age_buckets"`
	AssetsByStatus       map[string]int `json:"assets_by_status"`
	LowStockParts        int            `json:"low_stock_parts"`
	GeneratedAt          time.Time      `json:"generated_at"`
}

// ageBucket groups an active work order's age for the dashboard
func ageBucket(ageHours float64) string {
	switch {
	case ageHours < 24:
		return "under_24h"
	case ageHours < 24*7:
		return "1_to_7d"
	default:
		return "over_7d"
	}
}

// MyWorkSummary is the technician view: their queue plus recent alerts
type MyWorkSummary struct {
	AssignedWorkOrders []*models.WorkOrder    `json:"assigned_work_orders"`
	OverdueCount       int                    `json:"overdue_count"`
	Notifications      []*models.Notification `json:"notifications"`
}

// DashboardService assembles aggregate views over the repositories
type DashboardService struct {
	workOrders    *persistence.WorkOrderRepository
	assets        *persistence.AssetRepository
	parts         *persistence.PartRepository
	notifications *persistence.NotificationRepository
}

func NewDashboardService(workOrders *persistence.WorkOrderRepository, assets *persistence.AssetRepository,
	parts *persistence.PartRepository, notifications *persistence.NotificationRepository) *DashboardService {
	return &DashboardService{
		workOrders:    workOrders,
		assets:        assets,
		parts:         parts,
		notifications: notifications,
	}
}

// GetSummary builds the site-wide dashboard snapshot
func (s *DashboardService) GetSummary(ctx context.Context) (*DashboardSummary, error) {
	byStatus, err := s.workOrders.CountByColumn(ctx, constants.FieldStatus)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.workOrders.CountByColumn(ctx, constants.FieldPriority)
	if err != nil {
		return nil, err
	}
	overdue, err := s.workOrders.CountOverdue(ctx)
	if err != nil {
		return nil, err
	}
	assetCounts, err := s.assets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.parts.CountLowStock(ctx)
	if err != nil {
		return nil, err
	}

	active, err := s.workOrders.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	buckets := map[string]int{}
	now := time.Now()
	for _, w := range active {
		buckets[ageBucket(w.AgeHours(now))]++
	}

	return &DashboardSummary{
		WorkOrdersByStatus:   byStatus,
		WorkOrdersByPriority: byPriority,
		OverdueWorkOrders:    overdue,
		OpenAgeBuckets:       buckets,
		AssetsByStatus:       assetCounts,
		LowStockParts:        lowStock,
		GeneratedAt:          time.Now(),
	}, nil
}

// GetMyWork builds the per-user view: open assignments and recent unread
// notifications.
func (s *DashboardService) GetMyWork(ctx context.Context, userID string) (*MyWorkSummary, error) {
	assigned, err := s.workOrders.List(ctx, persistence.WorkOrderFilter{
		AssignedTo: userID,
		Limit:      constants.MaxPageSize,
	})
	if err != nil {
		return nil, err
	}

	active := make([]*models.WorkOrder, 0, len(assigned))
	now := time.Now()
	overdueCount := 0
	for _, w := range assigned {
		switch w.Status {
		case constants.WorkOrderStatusCompleted, constants.WorkOrderStatusClosed, constants.WorkOrderStatusCancelled:
			continue
		}
		active = append(active, w)
		if w.IsOverdue(now) {
			overdueCount++
		}
	}

	notifications, err := s.notifications.ListForRecipient(ctx, userID, true, 10)
	if err != nil {
		return nil, err
	}

	return &MyWorkSummary{
		AssignedWorkOrders: active,
		OverdueCount:       overdueCount,
		Notifications:      notifications,
	}, nil
}
