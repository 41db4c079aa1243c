package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/domain"
)

const uniqueViolation = pq.ErrorCode("23505")

// UserRepository stores application users and their roles.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const selectUser = `
	SELECT id, user_name, email, password_hash, company_id, first_name, last_name,
	       department, position, hire_date, status, created_at, updated_at, is_deleted,
	       business_user_id, access_failed_count, lockout_end, email_confirmed
	FROM application_users
`

// GetByID retrieves an application user by id
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.ApplicationUser, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

// GetByUserName matches the user name case-insensitively
func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (*domain.ApplicationUser, error) {
	return r.getOne(ctx, selectUser+` WHERE lower(user_name) = lower($1)`, userName)
}

// GetByEmail matches the email case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.ApplicationUser, error) {
	return r.getOne(ctx, selectUser+` WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*domain.ApplicationUser, error) {
	var (
		user                 domain.ApplicationUser
		passwordHash         sql.NullString
		department, position sql.NullString
		firstName, lastName  sql.NullString
		hireDate, updatedAt  sql.NullTime
		lockoutEnd           sql.NullTime
		businessUserID       sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.UserName,
		&user.Email,
		&passwordHash,
		&user.CompanyID,
		&firstName,
		&lastName,
		&department,
		&position,
		&hireDate,
		&user.Status,
		&user.CreatedAt,
		&updatedAt,
		&user.IsDeleted,
		&businessUserID,
		&user.AccessFailedCount,
		&lockoutEnd,
		&user.EmailConfirmed,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	// Handle nullable fields
	user.PasswordHash = passwordHash.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.Department = department.String
	user.Position = position.String
	if hireDate.Valid {
		user.HireDate = &hireDate.Time
	}
	if updatedAt.Valid {
		user.UpdatedAt = &updatedAt.Time
	}
	if lockoutEnd.Valid {
		user.LockoutEnd = &lockoutEnd.Time
	}
	if businessUserID.Valid {
		id := int(businessUserID.Int64)
		user.BusinessUserID = &id
	}

	return &user, nil
}

// Create inserts a new application user
func (r *UserRepository) Create(ctx context.Context, user *domain.ApplicationUser) error {
	query := `
		INSERT INTO application_users (id, user_name, email, password_hash, company_id, first_name, last_name,
		                               department, position, hire_date, status, business_user_id, email_confirmed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.UserName,
		user.Email,
		nullString(user.PasswordHash),
		user.CompanyID,
		nullString(user.FirstName),
		nullString(user.LastName),
		nullString(user.Department),
		nullString(user.Position),
		user.HireDate,
		user.Status,
		user.BusinessUserID,
		user.EmailConfirmed,
	).Scan(&user.CreatedAt)

	return mapUniqueViolation(err)
}

// Update saves every mutable column of an application user
func (r *UserRepository) Update(ctx context.Context, user *domain.ApplicationUser) error {
	query := `
		UPDATE application_users
		SET user_name = $2, email = $3, password_hash = $4, company_id = $5, first_name = $6, last_name = $7,
		    department = $8, position = $9, hire_date = $10, status = $11, is_deleted = $12,
		    business_user_id = $13, access_failed_count = $14, lockout_end = $15, email_confirmed = $16,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.UserName,
		user.Email,
		nullString(user.PasswordHash),
		user.CompanyID,
		nullString(user.FirstName),
		nullString(user.LastName),
		nullString(user.Department),
		nullString(user.Position),
		user.HireDate,
		user.Status,
		user.IsDeleted,
		user.BusinessUserID,
		user.AccessFailedCount,
		user.LockoutEnd,
		user.EmailConfirmed,
	).Scan(&updatedAt)

	if err == sql.ErrNoRows {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return mapUniqueViolation(err)
	}

	user.UpdatedAt = &updatedAt
	return nil
}

// Delete removes the user and, through the foreign key, its roles
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM application_users WHERE id = $1`, id)
}

// SetBusinessUserID links the account to its business-domain user
func (r *UserRepository) SetBusinessUserID(ctx context.Context, id string, businessUserID int) error {
	return r.execOne(ctx, `
		UPDATE application_users
		SET business_user_id = $2, updated_at = NOW()
		WHERE id = $1
	`, id, businessUserID)
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

// GetRoles lists role names in alphabetical order
func (r *UserRepository) GetRoles(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT role FROM application_user_roles WHERE user_id = $1 ORDER BY role
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := make([]string, 0, 4)
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *UserRepository) AddRole(ctx context.Context, id, role string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO application_user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`, id, role)
	return err
}

func (r *UserRepository) RemoveRole(ctx context.Context, id, role string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM application_user_roles WHERE user_id = $1 AND role = $2
	`, id, role)
	return err
}

func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch {
		case strings.Contains(pqErr.Constraint, "email"):
			return domain.ErrDuplicateEmail
		case strings.Contains(pqErr.Constraint, "user_name"):
			return domain.ErrDuplicateName
		}
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
