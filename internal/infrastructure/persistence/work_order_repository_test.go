package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/chatterfix/backend/pkg/constants"
)

func TestNextNumber(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkOrderRepository(db)

	query := fmt.Sprintf(
		"SELECT MAX(CAST(SUBSTRING(number, %d) AS UNSIGNED)) FROM %s FOR UPDATE",
		len(constants.WorkOrderNumberPrefix)+1, constants.TableWorkOrder)

	// Existing rows: max sequence 41 yields WO-00042
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(41))

	tx, err := db.Begin()
	assert.NoError(t, err)

	number, err := repo.NextNumber(context.Background(), tx)
	assert.NoError(t, err)
	assert.Equal(t, "WO-00042", number)

	// Empty table: NULL max yields WO-00001
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	tx, err = db.Begin()
	assert.NoError(t, err)

	number, err = repo.NextNumber(context.Background(), tx)
	assert.NoError(t, err)
	assert.Equal(t, "WO-00001", number)
}

func TestListWithFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkOrderRepository(db)

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE 1=1 AND status = ? AND assigned_to = ? ORDER BY created_date DESC LIMIT 25 OFFSET 0",
		workOrderColumns, constants.TableWorkOrder)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "number", "title", "description", "status", "priority",
		"asset_id", "assigned_to", "created_by", "due_date", "started_at", "completed_at",
		"labor_hours", "notes", "escalated_rule_ids", "created_date", "last_modified_date"}).
		AddRow("wo-1", "WO-00001", "Fix pump", nil, constants.WorkOrderStatusAssigned, constants.PriorityHigh,
			nil, "tech-1", "mgr-1", nil, nil, nil, 0.0, nil, "", now, now)
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs(constants.WorkOrderStatusAssigned, "tech-1").
		WillReturnRows(rows)

	orders, err := repo.List(context.Background(), WorkOrderFilter{
		Status:     constants.WorkOrderStatusAssigned,
		AssignedTo: "tech-1",
		Limit:      25,
	})
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, "WO-00001", orders[0].Number)
	assert.Nil(t, orders[0].AssetID)
	assert.Equal(t, "tech-1", *orders[0].AssignedTo)
}

func TestListOverdueFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkOrderRepository(db)

	// Overdue adds a predicate with no bind args and terminal states excluded
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE 1=1 AND due_date IS NOT NULL AND due_date < NOW() AND status NOT IN ('completed','closed','cancelled') ORDER BY created_date DESC LIMIT %d OFFSET 0",
		workOrderColumns, constants.TableWorkOrder, constants.DefaultPageSize)

	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	orders, err := repo.List(context.Background(), WorkOrderFilter{Overdue: true})
	assert.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCountOverdue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWorkOrderRepository(db)

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s
		WHERE due_date IS NOT NULL AND due_date < NOW()
		AND status NOT IN ('completed','closed','cancelled')`, constants.TableWorkOrder)

	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountOverdue(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}
