package constants

// Table names. All DDL lives in internal/bootstrap; everything else refers
// to tables through these constants so a rename stays a one-line change.
const (
	TableUser             = "users"
	TableSession          = "sessions"
	TableAsset            = "assets"
	TableWorkOrder        = "work_orders"
	TableWorkOrderComment = "work_order_comments"
	TablePart             = "parts"
	TableStockMovement    = "stock_movements"
	TableSupplier         = "suppliers"
	TablePMSchedule       = "pm_schedules"
	TableEscalationRule   = "escalation_rules"
	TableNotification     = "notifications"
	TableOutbox           = "outbox_events"
	TableConversation     = "conversations"
)

// AnalyticsTables is the whitelist of tables the read-only analytics
// endpoint may query. Sessions, conversations and the outbox are excluded
// because they carry tokens and raw chat content.
var AnalyticsTables = map[string]bool{
	TableAsset:            true,
	TableWorkOrder:        true,
	TableWorkOrderComment: true,
	TablePart:             true,
	TableStockMovement:    true,
	TableSupplier:         true,
	TablePMSchedule:       true,
	TableNotification:     true,
	TableUser:             true,
}

// AnalyticsDeniedColumns lists columns that must never be selected through
// analytics even on whitelisted tables.
var AnalyticsDeniedColumns = map[string]bool{
	"password": true,
	"token":    true,
}
