package services

import (
	"time"

	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/constants"
)

// ServiceManager wires repositories and services together and owns the
// background workers. Handlers reach services only through the manager.
type ServiceManager struct {
	db *database.Connection

	Auth          *AuthService
	Users         *UserService
	WorkOrders    *WorkOrderService
	Assets        *AssetService
	Inventory     *InventoryService
	PMScheduler   *PMSchedulerService
	Escalation    *EscalationService
	AI            *AIService
	Health        *HealthService
	Dashboard     *DashboardService
	Analytics     *AnalyticsService
	Notifications *NotificationService
	Outbox        *OutboxService
	EventBus      *EventBus
}

// NewServiceManager builds the full service graph on one database
// connection and subscribes the notification handlers.
func NewServiceManager(db *database.Connection, version string) *ServiceManager {
	sqlDB := db.DB()

	userRepo := persistence.NewUserRepository(sqlDB)
	sessionRepo := persistence.NewSessionRepository(sqlDB)
	workOrderRepo := persistence.NewWorkOrderRepository(sqlDB)
	assetRepo := persistence.NewAssetRepository(sqlDB)
	partRepo := persistence.NewPartRepository(sqlDB)
	supplierRepo := persistence.NewSupplierRepository(sqlDB)
	pmRepo := persistence.NewPMScheduleRepository(sqlDB)
	escalationRepo := persistence.NewEscalationRepository(sqlDB)
	notificationRepo := persistence.NewNotificationRepository(sqlDB)
	conversationRepo := persistence.NewConversationRepository(sqlDB)

	eventBus := NewEventBus()
	outbox := NewOutboxService(db, eventBus)

	m := &ServiceManager{
		db:       db,
		EventBus: eventBus,
		Outbox:   outbox,
	}

	m.Auth = NewAuthService(db, userRepo, sessionRepo)
	m.Users = NewUserService(userRepo)
	m.WorkOrders = NewWorkOrderService(db, workOrderRepo, assetRepo, userRepo, outbox)
	m.Assets = NewAssetService(db, assetRepo, workOrderRepo, outbox)
	m.Inventory = NewInventoryService(db, partRepo, supplierRepo, outbox)
	m.Escalation = NewEscalationService(db, escalationRepo, workOrderRepo, outbox)
	m.PMScheduler = NewPMSchedulerService(pmRepo, assetRepo, m.WorkOrders, m.Escalation, m.Auth)
	m.AI = NewAIService(conversationRepo, workOrderRepo, partRepo, assetRepo)
	m.Health = NewHealthService(db, m.AI, m.PMScheduler, version)
	m.Dashboard = NewDashboardService(workOrderRepo, assetRepo, partRepo, notificationRepo)
	m.Analytics = NewAnalyticsService(db)
	m.Notifications = NewNotificationService(notificationRepo, userRepo)

	m.Notifications.RegisterHandlers(eventBus)

	return m
}

// StartWorkers launches the outbox dispatcher and the PM scheduler
func (m *ServiceManager) StartWorkers() {
	m.Outbox.StartWorker(time.Duration(constants.OutboxPollIntervalMs) * time.Millisecond)
	m.PMScheduler.StartScheduler()
}

// StopWorkers shuts the background workers down gracefully
func (m *ServiceManager) StopWorkers() {
	m.PMScheduler.StopScheduler()
	m.Outbox.StopWorker()
}
