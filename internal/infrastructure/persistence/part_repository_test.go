package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/pkg/constants"
)

func TestAdjustQuantityTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPartRepository(db)

	updateQuery := fmt.Sprintf("UPDATE %s SET quantity = quantity + ?, last_modified_date = NOW() WHERE id = ?",
		constants.TablePart)
	movementQuery := fmt.Sprintf(`
		INSERT INTO %s (id, part_id, work_order_id, delta, reason, actor_id, created_date)
		VALUES (?, ?, ?, ?, ?, ?, NOW())`, constants.TableStockMovement)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(updateQuery)).
		WithArgs(-3, "part-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(movementQuery)).
		WithArgs("mv-1", "part-1", nil, -3, constants.StockReasonConsume, "tech-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)

	err = repo.AdjustQuantityTx(context.Background(), tx, &models.StockMovement{
		ID:      "mv-1",
		PartID:  "part-1",
		Delta:   -3,
		Reason:  constants.StockReasonConsume,
		ActorID: "tech-1",
	})
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDTxLocksRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPartRepository(db)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1 FOR UPDATE", partColumns, constants.TablePart)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "part_number", "name", "description", "category",
		"quantity", "min_quantity", "unit_cost", "location", "supplier_id",
		"created_date", "last_modified_date"}).
		AddRow("part-1", "SEAL-HYD-35", "Hydraulic Seal Kit", nil, "hydraulics",
			5, 3, 64.0, nil, nil, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("part-1").WillReturnRows(rows)

	tx, err := db.Begin()
	assert.NoError(t, err)

	p, err := repo.FindByIDTx(context.Background(), tx, "part-1")
	assert.NoError(t, err)
	assert.NotNil(t, p)
	assert.Equal(t, 5, p.Quantity)
	assert.Equal(t, 3, p.MinQuantity)
}

func TestListLowStock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPartRepository(db)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE quantity <= min_quantity ORDER BY name ASC",
		partColumns, constants.TablePart)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "part_number", "name", "description", "category",
		"quantity", "min_quantity", "unit_cost", "location", "supplier_id",
		"created_date", "last_modified_date"}).
		AddRow("part-1", "BELT-V-220", "V-Belt", nil, nil, 2, 4, 18.5, nil, nil, now, now)

	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(rows)

	parts, err := repo.ListLowStock(context.Background())
	assert.NoError(t, err)
	assert.Len(t, parts, 1)
	assert.Equal(t, "BELT-V-220", parts[0].PartNumber)
}
