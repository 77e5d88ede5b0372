package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/chatterfix/backend/internal/domain/models"
	"github.com/chatterfix/backend/pkg/constants"
	"github.com/chatterfix/backend/pkg/utils"
)

const pmScheduleColumns = `id, name, asset_id, cron_expr, timezone, priority, task_description,
		assigned_to, is_active, is_running, last_run_at, next_run_at, created_date, last_modified_date`

type PMScheduleRepository struct {
	db *sql.DB
}

func NewPMScheduleRepository(db *sql.DB) *PMScheduleRepository {
	return &PMScheduleRepository{db: db}
}

// Insert creates a schedule row
func (r *PMScheduleRepository) Insert(ctx context.Context, s *models.PMSchedule) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, asset_id, cron_expr, timezone, priority, task_description,
			assigned_to, is_active, is_running, next_run_at, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, NOW(), NOW())`, constants.TablePMSchedule)
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.Name, s.AssetID, s.CronExpr, s.Timezone, s.Priority, s.TaskDescription,
		s.AssignedTo, s.IsActive, s.NextRunAt)
	return err
}

// Update applies a partial update. Keys are column names.
func (r *PMScheduleRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := []string{}
	args := []interface{}{}
	for k, v := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", k))
		args = append(args, v)
	}
	setClauses = append(setClauses, fmt.Sprintf("%s = ?", constants.FieldLastModifiedDate))
	args = append(args, time.Now())

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		constants.TablePMSchedule, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, id)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes a schedule row
func (r *PMScheduleRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TablePMSchedule, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// FindByID fetches a single schedule, nil when absent
func (r *PMScheduleRepository) FindByID(ctx context.Context, id string) (*models.PMSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", pmScheduleColumns, constants.TablePMSchedule)
	row := r.db.QueryRowContext(ctx, query, id)
	s, err := scanPMSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// FindAll returns all schedules ordered by name
func (r *PMScheduleRepository) FindAll(ctx context.Context) ([]*models.PMSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY name ASC", pmScheduleColumns, constants.TablePMSchedule)
	return r.queryMany(ctx, query)
}

// FindActive returns active schedules for the scheduler tick
func (r *PMScheduleRepository) FindActive(ctx context.Context) ([]*models.PMSchedule, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE is_active = 1", pmScheduleColumns, constants.TablePMSchedule)
	return r.queryMany(ctx, query)
}

// AcquireRunLock atomically sets is_running when not already set. Returns
// false when another scheduler tick holds the lock.
func (r *PMScheduleRepository) AcquireRunLock(ctx context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET is_running = 1
		WHERE id = ? AND is_running = 0`, constants.TablePMSchedule)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

// ReleaseRunLock clears is_running
func (r *PMScheduleRepository) ReleaseRunLock(ctx context.Context, id string) error {
	query := fmt.Sprintf("UPDATE %s SET is_running = 0 WHERE id = ?", constants.TablePMSchedule)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// MarkRun stamps last_run_at and the computed next_run_at
func (r *PMScheduleRepository) MarkRun(ctx context.Context, id string, lastRun, nextRun time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET last_run_at = ?, next_run_at = ? WHERE id = ?", constants.TablePMSchedule)
	_, err := r.db.ExecContext(ctx, query, lastRun, nextRun, id)
	return err
}

func (r *PMScheduleRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*models.PMSchedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]*models.PMSchedule, 0)
	for rows.Next() {
		s, err := scanPMSchedule(rows)
		if err != nil {
			continue
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func scanPMSchedule(s rowScanner) (*models.PMSchedule, error) {
	var sched models.PMSchedule
	var assetID, taskDescription, assignedTo sql.NullString
	var lastRunAt, nextRunAt sql.NullTime

	if err := s.Scan(&sched.ID, &sched.Name, &assetID, &sched.CronExpr, &sched.Timezone,
		&sched.Priority, &taskDescription, &assignedTo, &sched.IsActive, &sched.IsRunning,
		&lastRunAt, &nextRunAt, &sched.CreatedDate, &sched.LastModifiedDate); err != nil {
		return nil, err
	}

	sched.TaskDescription = taskDescription.String
	sched.AssetID = utils.NullableString(assetID)
	sched.AssignedTo = utils.NullableString(assignedTo)
	sched.LastRunAt = utils.NullableTime(lastRunAt)
	sched.NextRunAt = utils.NullableTime(nextRunAt)
	return &sched, nil
}
