package services

import (
	"context"
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

func newAssetServiceWithMock(t *testing.T) (*AssetService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { db.Close() })

	conn := database.NewFromDB(db)
	svc := NewAssetService(conn, persistence.NewAssetRepository(db),
		persistence.NewWorkOrderRepository(db), NewOutboxService(conn, NewEventBus()))
	return svc, mock
}

func assetRows(id, name, tag, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "asset_tag", "category", "location", "status",
		"criticality", "parent_id", "manufacturer", "model", "serial_number", "purchase_date",
		"warranty_expiry", "notes", "created_date", "last_modified_date"}).
		AddRow(id, name, tag, nil, nil, status, constants.CriticalityMedium,
			nil, nil, nil, nil, nil, nil, nil, now, now)
}

func TestAssetStatusChangeCommitsUpdateWithEvent(t *testing.T) {
	svc, mock := newAssetServiceWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM assets WHERE id = \\? LIMIT 1").
		WithArgs("asset-1").WillReturnRows(assetRows("asset-1", "Hydraulic Pump 7", "PUMP-007", "operational"))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assets SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(sqlmock.AnyArg(), string(events.AssetStatusChanged), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("SELECT (.+) FROM assets WHERE id = \\? LIMIT 1").
		WithArgs("asset-1").WillReturnRows(assetRows("asset-1", "Hydraulic Pump 7", "PUMP-007", "down"))

	status := constants.AssetStatusDown
	a, err := svc.UpdateAsset(context.Background(), "asset-1", UpdateAssetRequest{Status: &status}, "tech-1")
	require.NoError(t, err)
	assert.Equal(t, constants.AssetStatusDown, a.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssetUpdateWithoutStatusChangeEmitsNoEvent(t *testing.T) {
	svc, mock := newAssetServiceWithMock(t)

	mock.ExpectQuery("SELECT (.+) FROM assets WHERE id = \\? LIMIT 1").
		WithArgs("asset-1").WillReturnRows(assetRows("asset-1", "Hydraulic Pump 7", "PUMP-007", "operational"))

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE assets SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery("SELECT (.+) FROM assets WHERE id = \\? LIMIT 1").
		WithArgs("asset-1").WillReturnRows(assetRows("asset-1", "Hydraulic Pump 7", "PUMP-007", "operational"))

	location := "Building B"
	_, err := svc.UpdateAsset(context.Background(), "asset-1", UpdateAssetRequest{Location: &location}, "tech-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
