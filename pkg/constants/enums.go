package constants

// User roles
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleTechnician = "technician"
)

// IsAdmin reports whether the role carries system administration rights.
func IsAdmin(role string) bool {
	return role == RoleAdmin
}

// ValidRoles lists assignable user roles.
var ValidRoles = []string{RoleAdmin, RoleManager, RoleTechnician}

// Work order statuses
const (
	WorkOrderStatusOpen       = "open"
	WorkOrderStatusAssigned   = "assigned"
	WorkOrderStatusInProgress = "in_progress"
	WorkOrderStatusOnHold     = "on_hold"
	WorkOrderStatusCompleted  = "completed"
	WorkOrderStatusClosed     = "closed"
	WorkOrderStatusCancelled  = "cancelled"
)

// WorkOrderTransitions maps each status to the statuses it may move to.
// Completion data (completed_at, labor_hours) is handled by the service.
var WorkOrderTransitions = map[string][]string{
	WorkOrderStatusOpen:       {WorkOrderStatusAssigned, WorkOrderStatusInProgress, WorkOrderStatusCancelled},
	WorkOrderStatusAssigned:   {WorkOrderStatusInProgress, WorkOrderStatusOpen, WorkOrderStatusOnHold, WorkOrderStatusCancelled},
	WorkOrderStatusInProgress: {WorkOrderStatusOnHold, WorkOrderStatusCompleted, WorkOrderStatusCancelled},
	WorkOrderStatusOnHold:     {WorkOrderStatusInProgress, WorkOrderStatusCancelled},
	WorkOrderStatusCompleted:  {WorkOrderStatusClosed, WorkOrderStatusInProgress},
	WorkOrderStatusClosed:     {},
	WorkOrderStatusCancelled:  {},
}

// ActiveWorkOrderStatuses are the statuses escalation rules evaluate.
var ActiveWorkOrderStatuses = []string{
	WorkOrderStatusOpen,
	WorkOrderStatusAssigned,
	WorkOrderStatusInProgress,
}

// Work order priorities, in ascending order of urgency
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// PriorityRank orders priorities so escalation can only raise them.
var PriorityRank = map[string]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}

// Asset statuses
const (
	AssetStatusOperational = "operational"
	AssetStatusDegraded    = "degraded"
	AssetStatusDown        = "down"
	AssetStatusRetired     = "retired"
)

// Asset criticality levels
const (
	CriticalityLow    = "low"
	CriticalityMedium = "medium"
	CriticalityHigh   = "high"
)

// Stock movement reasons
const (
	StockReasonReceive = "receive"
	StockReasonConsume = "consume"
	StockReasonAdjust  = "adjust"
	StockReasonReturn  = "return"
)

// Notification types
const (
	NotificationTypeAssignment = "assignment"
	NotificationTypeCompletion = "completion"
	NotificationTypeLowStock   = "low_stock"
	NotificationTypeEscalation = "escalation"
	NotificationTypePMCreated  = "pm_created"
)

// AI providers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGrok      = "grok"
	ProviderOllama    = "ollama"
)

// Health statuses
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
	HealthDown     = "down"
)
