package events

// EventType identifies a record event flowing through the outbox and bus.
type EventType string

const (
	WorkOrderCreated   EventType = "work_order.created"
	WorkOrderAssigned  EventType = "work_order.assigned"
	WorkOrderCompleted EventType = "work_order.completed"
	WorkOrderEscalated EventType = "work_order.escalated"
	PartLowStock       EventType = "part.low_stock"
	AssetStatusChanged EventType = "asset.status_changed"
)

// RecordEvent is the payload shape for all record events. Fields are
// populated as relevant for the event type.
type RecordEvent struct {
	EventType   EventType `json:"event_type"`
	RecordID    string    `json:"record_id"`
	RecordName  string    `json:"record_name,omitempty"`
	ActorID     string    `json:"actor_id,omitempty"`
	RecipientID string    `json:"recipient_id,omitempty"`
	// NotifyRole targets every active user with the role instead of a
	// single recipient. Used by escalation and low-stock events.
	NotifyRole string `json:"notify_role,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Link       string `json:"link,omitempty"`
}
