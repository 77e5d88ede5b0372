package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatterfix/backend/internal/domain/events"
	"github.com/chatterfix/backend/internal/infrastructure/database"
	"github.com/chatterfix/backend/internal/infrastructure/persistence"
	"github.com/chatterfix/backend/pkg/constants"
)

func newWorkOrderServiceWithMock(t *testing.T) (*WorkOrderService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	conn := database.NewFromDB(db)
	svc := NewWorkOrderService(conn, persistence.NewWorkOrderRepository(db),
		persistence.NewAssetRepository(db), persistence.NewUserRepository(db),
		NewOutboxService(conn, NewEventBus()))
	return svc, mock
}

func workOrderRows(id, number, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "number", "title", "description", "status", "priority",
		"asset_id", "assigned_to", "created_by", "due_date", "started_at", "completed_at",
		"labor_hours", "notes", "escalated_rule_ids", "created_date", "last_modified_date"}).
		AddRow(id, number, "Replace hydraulic seal", "", status, constants.PriorityMedium,
			nil, nil, "mgr-1", nil, nil, nil, 0.0, "", "", now, now)
}

func userRows(id, name, role string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "email", "role", "phone", "is_active",
		"created_date", "last_modified_date", "last_login_date"}).
		AddRow(id, name, name+"@example.com", role, nil, true, now, now, nil)
}

func TestAssignCommitsUpdateWithEvent(t *testing.T) {
	svc, mock := newWorkOrderServiceWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM work_orders WHERE id = \\? LIMIT 1").
		WithArgs("wo-1").WillReturnRows(workOrderRows("wo-1", "WO-00007", "open"))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\? LIMIT 1").
		WithArgs("tech-1").WillReturnRows(userRows("tech-1", "Dan", constants.RoleTechnician))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE work_orders SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(sqlmock.AnyArg(), string(events.WorkOrderAssigned), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("SELECT (.+) FROM work_orders WHERE id = \\? LIMIT 1").
		WithArgs("wo-1").WillReturnRows(workOrderRows("wo-1", "WO-00007", "assigned"))

	w, err := svc.Assign(context.Background(), "wo-1", "tech-1", "mgr-1")
	require.NoError(t, err)
	assert.Equal(t, constants.WorkOrderStatusAssigned, w.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignRollsBackWhenEventInsertFails(t *testing.T) {
	svc, mock := newWorkOrderServiceWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM work_orders WHERE id = \\? LIMIT 1").
		WithArgs("wo-1").WillReturnRows(workOrderRows("wo-1", "WO-00007", "open"))
	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\? LIMIT 1").
		WithArgs("tech-1").WillReturnRows(userRows("tech-1", "Dan", constants.RoleTechnician))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE work_orders SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	// The status change must not survive the lost event
	_, err := svc.Assign(context.Background(), "wo-1", "tech-1", "mgr-1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionCompletionCommitsUpdateWithEvent(t *testing.T) {
	svc, mock := newWorkOrderServiceWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM work_orders WHERE id = \\? LIMIT 1").
		WithArgs("wo-1").WillReturnRows(workOrderRows("wo-1", "WO-00007", "in_progress"))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE work_orders SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(sqlmock.AnyArg(), string(events.WorkOrderCompleted), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("SELECT (.+) FROM work_orders WHERE id = \\? LIMIT 1").
		WithArgs("wo-1").WillReturnRows(workOrderRows("wo-1", "WO-00007", "completed"))

	w, err := svc.Transition(context.Background(), "wo-1",
		TransitionRequest{Status: constants.WorkOrderStatusCompleted, LaborHours: 3.5}, "tech-1")
	require.NoError(t, err)
	assert.Equal(t, constants.WorkOrderStatusCompleted, w.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionNonTerminalEmitsNoEvent(t *testing.T) {
	svc, mock := newWorkOrderServiceWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM work_orders WHERE id = \\? LIMIT 1").
		WithArgs("wo-1").WillReturnRows(workOrderRows("wo-1", "WO-00007", "assigned"))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE work_orders SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("SELECT (.+) FROM work_orders WHERE id = \\? LIMIT 1").
		WithArgs("wo-1").WillReturnRows(workOrderRows("wo-1", "WO-00007", "in_progress"))

	_, err := svc.Transition(context.Background(), "wo-1",
		TransitionRequest{Status: constants.WorkOrderStatusInProgress}, "tech-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
