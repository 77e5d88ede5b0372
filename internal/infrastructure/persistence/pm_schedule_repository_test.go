package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/chatterfix/backend/pkg/constants"
)

func TestAcquireRunLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPMScheduleRepository(db)

	query := fmt.Sprintf(`
		UPDATE %s SET is_running = 1
		WHERE id = ? AND is_running = 0`, constants.TablePMSchedule)

	// Lock is free: one row updated, lock acquired
	mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("pm-1").WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.AcquireRunLock(context.Background(), "pm-1")
	assert.NoError(t, err)
	assert.True(t, ok)

	// Lock held elsewhere: zero rows updated, caller must skip the run
	mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("pm-1").WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.AcquireRunLock(context.Background(), "pm-1")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestReleaseRunLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPMScheduleRepository(db)

	query := fmt.Sprintf("UPDATE %s SET is_running = 0 WHERE id = ?", constants.TablePMSchedule)
	mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs("pm-1").WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.ReleaseRunLock(context.Background(), "pm-1"))
}
