package models

import "time"

// User is a system user account. Password hashes never leave the
// persistence layer; this struct is safe to serialize.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	Phone            string     `json:"phone,omitempty"`
	IsActive         bool       `json:"is_active"`
	CreatedDate      time.Time  `json:"created_date"`
	LastModifiedDate time.Time  `json:"last_modified_date"`
	LastLoginDate    *time.Time `json:"last_login_date,omitempty"`
}

// Session is a server-side login session keyed by the JWT jti.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Token        string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	IsRevoked    bool      `json:"is_revoked"`
	LastActivity time.Time `json:"last_activity"`
}

// Asset is a maintainable piece of equipment or infrastructure.
type Asset struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	AssetTag         string     `json:"asset_tag"`
	Category         string     `json:"category,omitempty"`
	Location         string     `json:"location,omitempty"`
	Status           string     `json:"status"`
	Criticality      string     `json:"criticality"`
	ParentID         *string    `json:"parent_id,omitempty"`
	Manufacturer     string     `json:"manufacturer,omitempty"`
	Model            string     `json:"model,omitempty"`
	SerialNumber     string     `json:"serial_number,omitempty"`
	PurchaseDate     *time.Time `json:"purchase_date,omitempty"`
	WarrantyExpiry   *time.Time `json:"warranty_expiry,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	CreatedDate      time.Time  `json:"created_date"`
	LastModifiedDate time.Time  `json:"last_modified_date"`
}

// WorkOrder is the central CMMS record: a unit of maintenance work
// against an asset, moving through a fixed status lifecycle.
type WorkOrder struct {
	ID               string     `json:"id"`
	Number           string     `json:"number"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Status           string     `json:"status"`
	Priority         string     `json:"priority"`
	AssetID          *string    `json:"asset_id,omitempty"`
	AssignedTo       *string    `json:"assigned_to,omitempty"`
	CreatedBy        string     `json:"created_by"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	LaborHours       float64    `json:"labor_hours"`
	Notes            string     `json:"notes,omitempty"`
	EscalatedRuleIDs string     `json:"-"`
	CreatedDate      time.Time  `json:"created_date"`
	LastModifiedDate time.Time  `json:"last_modified_date"`
}

// IsOverdue reports whether the work order has a due date in the past and
// is still in an active status.
func (w *WorkOrder) IsOverdue(now time.Time) bool {
	if w.DueDate == nil {
		return false
	}
	switch w.Status {
	case "completed", "closed", "cancelled":
		return false
	}
	return now.After(*w.DueDate)
}

// AgeHours returns the age of the work order in hours.
func (w *WorkOrder) AgeHours(now time.Time) float64 {
	return now.Sub(w.CreatedDate).Hours()
}

// WorkOrderComment is a feed entry on a work order.
type WorkOrderComment struct {
	ID          string    `json:"id"`
	WorkOrderID string    `json:"work_order_id"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name,omitempty"`
	Body        string    `json:"body"`
	CreatedDate time.Time `json:"created_date"`
}

// Part is a spare part tracked in inventory.
type Part struct {
	ID               string    `json:"id"`
	PartNumber       string    `json:"part_number"`
	Name             string    `json:"name"`
	Description      string    `json:"description,omitempty"`
	Category         string    `json:"category,omitempty"`
	Quantity         int       `json:"quantity"`
	MinQuantity      int       `json:"min_quantity"`
	UnitCost         float64   `json:"unit_cost"`
	Location         string    `json:"location,omitempty"`
	SupplierID       *string   `json:"supplier_id,omitempty"`
	CreatedDate      time.Time `json:"created_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

// IsLowStock reports whether the part is at or below its reorder point.
func (p *Part) IsLowStock() bool {
	return p.Quantity <= p.MinQuantity
}

// StockMovement is an audit row for every part quantity change.
type StockMovement struct {
	ID          string    `json:"id"`
	PartID      string    `json:"part_id"`
	WorkOrderID *string   `json:"work_order_id,omitempty"`
	Delta       int       `json:"delta"`
	Reason      string    `json:"reason"`
	ActorID     string    `json:"actor_id"`
	CreatedDate time.Time `json:"created_date"`
}

// Supplier is a parts vendor.
type Supplier struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ContactName      string    `json:"contact_name,omitempty"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Address          string    `json:"address,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedDate      time.Time `json:"created_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

// PMSchedule is a preventive-maintenance schedule that generates work
// orders on a cron cadence.
type PMSchedule struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	AssetID          *string    `json:"asset_id,omitempty"`
	CronExpr         string     `json:"cron_expr"`
	Timezone         string     `json:"timezone"`
	Priority         string     `json:"priority"`
	TaskDescription  string     `json:"task_description,omitempty"`
	AssignedTo       *string    `json:"assigned_to,omitempty"`
	IsActive         bool       `json:"is_active"`
	IsRunning        bool       `json:"-"`
	LastRunAt        *time.Time `json:"last_run_at,omitempty"`
	NextRunAt        *time.Time `json:"next_run_at,omitempty"`
	CreatedDate      time.Time  `json:"created_date"`
	LastModifiedDate time.Time  `json:"last_modified_date"`
}

// EscalationRule raises priority or notifies a role when its condition
// matches an active work order. Condition is an expr-lang expression.
type EscalationRule struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Condition        string    `json:"condition"`
	SetPriority      string    `json:"set_priority,omitempty"`
	NotifyRole       string    `json:"notify_role,omitempty"`
	IsActive         bool      `json:"is_active"`
	CreatedDate      time.Time `json:"created_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

// Notification is an in-app notification row.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Link        string    `json:"link,omitempty"`
	Type        string    `json:"type"`
	IsRead      bool      `json:"is_read"`
	CreatedDate time.Time `json:"created_date"`
}

// OutboxEvent is a transactional event row awaiting dispatch.
type OutboxEvent struct {
	ID          string     `json:"id"`
	EventType   string     `json:"event_type"`
	Payload     []byte     `json:"payload"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	CreatedDate time.Time  `json:"created_date"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// ChatMessage is one turn in an AI conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is a persisted AI chat thread, messages stored as JSON.
type Conversation struct {
	ID               string        `json:"id"`
	UserID           string        `json:"user_id"`
	Title            string        `json:"title"`
	Messages         []ChatMessage `json:"messages"`
	Provider         string        `json:"provider"`
	CreatedDate      time.Time     `json:"created_date"`
	LastModifiedDate time.Time     `json:"last_modified_date"`
}
