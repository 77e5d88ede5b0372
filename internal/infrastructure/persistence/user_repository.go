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

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CheckUserExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ?)", constants.TableUser, constants.FieldEmail)
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) CheckEmailConflict(ctx context.Context, email, excludeID string) (bool, error) {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ? AND %s != ?)", constants.TableUser, constants.FieldEmail, constants.FieldID)
	err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Insert creates a user row. Password must already be hashed.
func (r *UserRepository) Insert(ctx context.Context, u *models.User, passwordHash string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, email, password, role, phone, is_active, created_date, last_modified_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`, constants.TableUser)
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Name, u.Email, passwordHash, u.Role, u.Phone, u.IsActive)
	return err
}

// Update applies a partial update. Keys are column names.
func (r *UserRepository) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	setClauses := []string{}
	args := []interface{}{}

	for k, v := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", k))
		args = append(args, v)
	}

	// Always update last_modified_date
	setClauses = append(setClauses, fmt.Sprintf("%s = ?", constants.FieldLastModifiedDate))
	args = append(args, time.Now())

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", constants.TableUser, strings.Join(setClauses, ", "), constants.FieldID)
	args = append(args, userID)

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Delete removes a user row
func (r *UserRepository) Delete(ctx context.Context, userID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableUser, constants.FieldID)
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

// FindAll retrieves all users, newest first
func (r *UserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, role, phone, is_active, created_date, last_modified_date, last_login_date
		FROM %s
		ORDER BY created_date DESC`, constants.TableUser)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			continue
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// FindByID fetches a single user, nil when absent
func (r *UserRepository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, role, phone, is_active, created_date, last_modified_date, last_login_date
		FROM %s
		WHERE id = ? LIMIT 1`, constants.TableUser)

	row := r.db.QueryRowContext(ctx, query, userID)
	u, err := scanUserRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// FindByRole returns active users with the given role
func (r *UserRepository) FindByRole(ctx context.Context, role string) ([]*models.User, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, role, phone, is_active, created_date, last_modified_date, last_login_date
		FROM %s
		WHERE role = ? AND is_active = 1`, constants.TableUser)

	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			continue
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserWithPassword extends User with the password hash for auth checks
type UserWithPassword struct {
	*models.User
	PasswordHash string
}

// FindByEmailWithPassword retrieves a user and their password hash by email.
// Returns nil, nil when the email is unknown.
func (r *UserRepository) FindByEmailWithPassword(ctx context.Context, email string) (*UserWithPassword, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, password, role, is_active
		FROM %s
		WHERE email = ? LIMIT 1`, constants.TableUser)

	var u UserWithPassword
	var user models.User
	u.User = &user

	var password sql.NullString

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&password,
		&user.Role,
		&user.IsActive,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if password.Valid {
		u.PasswordHash = password.String
	}
	return &u, nil
}

// FindPasswordHash retrieves just the password hash for a user
func (r *UserRepository) FindPasswordHash(ctx context.Context, userID string) (string, error) {
	query := fmt.Sprintf("SELECT password FROM %s WHERE id = ? LIMIT 1", constants.TableUser)
	var password sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&password)
	if err != nil {
		return "", err
	}
	return password.String, nil
}

// UpdatePassword updates the user's password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := fmt.Sprintf("UPDATE %s SET password = ?, last_modified_date = NOW() WHERE id = ?", constants.TableUser)
	_, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	return err
}

// TouchLastLogin stamps last_login_date
func (r *UserRepository) TouchLastLogin(ctx context.Context, userID string) error {
	query := fmt.Sprintf("UPDATE %s SET last_login_date = NOW() WHERE id = ?", constants.TableUser)
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s rowScanner) (*models.User, error) {
	var u models.User
	var phone sql.NullString
	var lastLogin sql.NullTime

	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &phone, &u.IsActive,
		&u.CreatedDate, &u.LastModifiedDate, &lastLogin); err != nil {
		return nil, err
	}

	u.Phone = phone.String
	u.LastLoginDate = utils.NullableTime(lastLogin)
	return &u, nil
}

func scanUserRow(row *sql.Row) (*models.User, error) {
	return scanUser(row)
}
