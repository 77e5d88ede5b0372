package bootstrap

import (
	"fmt"
	"log"

	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/pkg/constants"
)

// tableDDL lists every table in creation order. Statements are idempotent;
// foreign keys are enforced in code, not the schema, so tables can be
// created independently.
var tableDDL = []struct {
	name string
	ddl  string
}{
	{constants.TableUser, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password VARCHAR(255) NOT NULL DEFAULT '',
			role VARCHAR(32) NOT NULL DEFAULT 'technician',
			phone VARCHAR(64) NOT NULL DEFAULT '',
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_login_date DATETIME NULL,
			INDEX idx_users_role (role)
		)`},
	{constants.TableSession, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			token TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			ip_address VARCHAR(64) NOT NULL DEFAULT '',
			user_agent VARCHAR(512) NOT NULL DEFAULT '',
			is_revoked TINYINT(1) NOT NULL DEFAULT 0,
			last_activity DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_sessions_user (user_id),
			INDEX idx_sessions_expires (expires_at)
		)`},
	{constants.TableAsset, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			asset_tag VARCHAR(128) NOT NULL UNIQUE,
			category VARCHAR(128) NULL,
			location VARCHAR(255) NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'operational',
			criticality VARCHAR(32) NOT NULL DEFAULT 'medium',
			parent_id CHAR(36) NULL,
			manufacturer VARCHAR(255) NULL,
			model VARCHAR(255) NULL,
			serial_number VARCHAR(255) NULL,
			purchase_date DATETIME NULL,
			warranty_expiry DATETIME NULL,
			notes TEXT NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_assets_status (status),
			INDEX idx_assets_parent (parent_id)
		)`},
	{constants.TableWorkOrder, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			number VARCHAR(32) NOT NULL UNIQUE,
			title VARCHAR(255) NOT NULL,
			description TEXT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'open',
			priority VARCHAR(32) NOT NULL DEFAULT 'medium',
			asset_id CHAR(36) NULL,
			assigned_to CHAR(36) NULL,
			created_by CHAR(36) NOT NULL,
			due_date DATETIME NULL,
			started_at DATETIME NULL,
			completed_at DATETIME NULL,
			labor_hours DOUBLE NOT NULL DEFAULT 0,
			notes TEXT NULL,
			escalated_rule_ids TEXT NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_work_orders_status (status),
			INDEX idx_work_orders_asset (asset_id),
			INDEX idx_work_orders_assigned (assigned_to),
			INDEX idx_work_orders_due (due_date)
		)`},
	{constants.TableWorkOrderComment, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			work_order_id CHAR(36) NOT NULL,
			author_id CHAR(36) NOT NULL,
			body TEXT NOT NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_wo_comments_wo (work_order_id)
		)`},
	{constants.TablePart, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			part_number VARCHAR(128) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			description TEXT NULL,
			category VARCHAR(128) NULL,
			quantity INT NOT NULL DEFAULT 0,
			min_quantity INT NOT NULL DEFAULT 0,
			unit_cost DOUBLE NOT NULL DEFAULT 0,
			location VARCHAR(255) NULL,
			supplier_id CHAR(36) NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_parts_supplier (supplier_id)
		)`},
	{constants.TableStockMovement, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			part_id CHAR(36) NOT NULL,
			work_order_id CHAR(36) NULL,
			delta INT NOT NULL,
			reason VARCHAR(32) NOT NULL,
			actor_id CHAR(36) NOT NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_stock_movements_part (part_id)
		)`},
	{constants.TableSupplier, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			contact_name VARCHAR(255) NULL,
			email VARCHAR(255) NULL,
			phone VARCHAR(64) NULL,
			address VARCHAR(512) NULL,
			notes TEXT NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{constants.TablePMSchedule, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			asset_id CHAR(36) NULL,
			cron_expr VARCHAR(128) NOT NULL,
			timezone VARCHAR(64) NOT NULL DEFAULT 'UTC',
			priority VARCHAR(32) NOT NULL DEFAULT 'medium',
			task_description TEXT NULL,
			assigned_to CHAR(36) NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			is_running TINYINT(1) NOT NULL DEFAULT 0,
			last_run_at DATETIME NULL,
			next_run_at DATETIME NULL,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_pm_schedules_next (is_active, next_run_at)
		)`},
	{constants.TableEscalationRule, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			` + "`condition`" + ` TEXT NOT NULL,
			set_priority VARCHAR(32) NULL,
			notify_role VARCHAR(32) NULL,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`},
	{constants.TableNotification, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			recipient_id CHAR(36) NOT NULL,
			title VARCHAR(512) NOT NULL,
			body TEXT NULL,
			link VARCHAR(512) NULL,
			type VARCHAR(32) NOT NULL,
			is_read TINYINT(1) NOT NULL DEFAULT 0,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_notifications_recipient (recipient_id, is_read)
		)`},
	{constants.TableOutbox, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			event_type VARCHAR(64) NOT NULL,
			payload JSON NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			attempts INT NOT NULL DEFAULT 0,
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			processed_at DATETIME NULL,
			INDEX idx_outbox_status (status, created_date)
		)`},
	{constants.TableConversation, `
		CREATE TABLE IF NOT EXISTS %s (
			id CHAR(36) PRIMARY KEY,
			user_id CHAR(36) NOT NULL,
			title VARCHAR(255) NOT NULL,
			messages JSON NOT NULL,
			provider VARCHAR(32) NOT NULL DEFAULT '',
			created_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_modified_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_conversations_user (user_id)
		)`},
}

// InitializeSchema creates every table when missing. Safe to run on every
// startup.
func InitializeSchema(db *database.Connection) error {
	log.Println("🔧 Initializing schema...")

	for _, t := range tableDDL {
		if _, err := db.Exec(fmt.Sprintf(t.ddl, t.name)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
	}

	log.Printf("   ✅ Ensured %d tables", len(tableDDL))
	return nil
}
