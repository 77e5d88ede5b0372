package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatterfix/backend/pkg/constants"
)

func TestValidateQueryAllowsWhitelistedSelects(t *testing.T) {
	svc := NewAnalyticsService(nil)

	queries := []string{
		"SELECT status, COUNT(*) FROM work_orders GROUP BY status",
		"SELECT name, quantity FROM parts WHERE quantity <= min_quantity",
		"SELECT a.name, COUNT(w.id) FROM assets a LEFT JOIN work_orders w ON w.asset_id = a.id GROUP BY a.name",
	}
	for _, q := range queries {
		validated, err := svc.ValidateQuery(q)
		assert.NoError(t, err, q)
		assert.NotEmpty(t, validated)
	}
}

func TestValidateQueryInjectsLimit(t *testing.T) {
	svc := NewAnalyticsService(nil)

	validated, err := svc.ValidateQuery("SELECT id FROM work_orders;")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("SELECT id FROM work_orders LIMIT %d", constants.AnalyticsRowLimit), validated)

	// Existing LIMIT is left alone
	validated, err = svc.ValidateQuery("SELECT id FROM work_orders LIMIT 5")
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM work_orders LIMIT 5", validated)
}

func TestValidateQueryRejectsNonSelect(t *testing.T) {
	svc := NewAnalyticsService(nil)

	rejected := []string{
		"DELETE FROM work_orders",
		"UPDATE parts SET quantity = 0",
		"INSERT INTO assets (id) VALUES ('x')",
		"DROP TABLE users",
		"SELECT id FROM work_orders; SELECT id FROM parts",
		"SELECT id FROM work_orders UNION SELECT id FROM parts",
	}
	for _, q := range rejected {
		_, err := svc.ValidateQuery(q)
		assert.Error(t, err, q)
	}
}

func TestValidateQueryRejectsUnlistedTables(t *testing.T) {
	svc := NewAnalyticsService(nil)

	_, err := svc.ValidateQuery("SELECT token FROM sessions")
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "sessions") || strings.Contains(err.Error(), "not allowed"))

	_, err = svc.ValidateQuery("SELECT payload FROM outbox_events")
	assert.Error(t, err)
}

func TestValidateQueryRejectsCredentialColumns(t *testing.T) {
	svc := NewAnalyticsService(nil)

	_, err := svc.ValidateQuery("SELECT password FROM users")
	assert.Error(t, err)

	_, err = svc.ValidateQuery("SELECT name FROM users WHERE password != ''")
	assert.Error(t, err)
}
