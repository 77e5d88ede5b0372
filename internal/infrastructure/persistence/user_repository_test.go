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

func TestCheckUserExistsByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	email := "test@example.com"
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)", constants.TableUser, constants.FieldEmail)

	// Test Case 1: User exists
	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(email).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.CheckUserExistsByEmail(context.Background(), email)
	assert.NoError(t, err)
	assert.True(t, exists)

	// Test Case 2: User does not exist
	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("nonexistent@example.com").WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err = repo.CheckUserExistsByEmail(context.Background(), "nonexistent@example.com")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestCheckEmailConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	email := "test@example.com"
	excludeID := "user-123"
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ? AND %s != ?)", constants.TableUser, constants.FieldEmail, constants.FieldID)

	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(email, excludeID).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.CheckEmailConflict(context.Background(), email, excludeID)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestFindByEmailWithPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	query := fmt.Sprintf(`
		SELECT id, name, email, password, role, is_active
		FROM %s
		WHERE email = ? LIMIT 1`, constants.TableUser)

	rows := sqlmock.NewRows([]string{"id", "name", "email", "password", "role", "is_active"}).
		AddRow("user-1", "Test User", "test@example.com", "$2a$10$hash", constants.RoleTechnician, true)
	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("test@example.com").WillReturnRows(rows)

	u, err := repo.FindByEmailWithPassword(context.Background(), "test@example.com")
	assert.NoError(t, err)
	assert.NotNil(t, u)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "$2a$10$hash", u.PasswordHash)
	assert.True(t, u.IsActive)

	// Unknown email returns nil, nil rather than an error
	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("nobody@example.com").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "email", "password", "role", "is_active"}))

	u, err = repo.FindByEmailWithPassword(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)
}

func TestFindByRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	query := fmt.Sprintf(`
		SELECT id, name, email, role, phone, is_active, created_date, last_modified_date, last_login_date
		FROM %s
		WHERE role = ? AND is_active = 1`, constants.TableUser)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "email", "role", "phone", "is_active",
		"created_date", "last_modified_date", "last_login_date"}).
		AddRow("mgr-1", "Maria", "maria@example.com", constants.RoleManager, nil, true,
			now, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(constants.RoleManager).WillReturnRows(rows)

	users, err := repo.FindByRole(context.Background(), constants.RoleManager)
	assert.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "mgr-1", users[0].ID)
	assert.Nil(t, users[0].LastLoginDate)
}
