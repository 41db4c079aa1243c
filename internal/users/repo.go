package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/storage/postgres"
)

// Repo stores business users in the users table.
type Repo struct {
	db postgres.Querier
}

func NewRepo(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const userColumns = `
  id, company_id, first_name, last_name, email, password_hash, phone, employee_id,
  department, position, hire_date, status, hourly_rate, monthly_salary, profile_image,
  skills, last_login_at, created_at, updated_at, created_by, updated_by,
  created_by_user_id, updated_by_user_id, is_deleted
`

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u                    domain.User
		createdBy, updatedBy *string
	)
	err := row.Scan(
		&u.ID, &u.CompanyID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Phone, &u.EmployeeID,
		&u.Department, &u.Position, &u.HireDate, &u.Status, &u.HourlyRate, &u.MonthlySalary, &u.ProfileImage,
		&u.Skills, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt, &createdBy, &updatedBy,
		&u.CreatedByUserID, &u.UpdatedByUserID, &u.IsDeleted,
	)
	if err != nil {
		return nil, err
	}
	if createdBy != nil {
		u.CreatedBy = *createdBy
	}
	if updatedBy != nil {
		u.UpdatedBy = *updatedBy
	}
	return &u, nil
}

// FindIDByEmail returns the id of a non-deleted user of the company with the
// given email, or 0 when there is none.
func (r *Repo) FindIDByEmail(ctx context.Context, companyID int, email string) (int, error) {
	const q = `
select id from users
where company_id = $1 and lower(email) = lower($2) and not is_deleted
order by id
limit 1;
`
	var id int
	err := r.db.QueryRow(ctx, q, companyID, email).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find user by email: %w", err)
	}
	return id, nil
}

// Get returns a user of the current tenant, deleted or not.
func (r *Repo) Get(ctx context.Context, id int) (*domain.User, error) {
	var w postgres.Where
	w.Add("id = ?", id)
	if err := w.Tenant(ctx, "company_id"); err != nil {
		return nil, err
	}

	u, err := scanUser(r.db.QueryRow(ctx, "select "+userColumns+" from users "+w.SQL(), w.Args()...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NewNotFound("User", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ExistsInCompany reports whether a non-deleted user with id belongs to the company.
func (r *Repo) ExistsInCompany(ctx context.Context, id, companyID int) (bool, error) {
	const q = `select exists(select 1 from users where id = $1 and company_id = $2 and not is_deleted);`
	var ok bool
	if err := r.db.QueryRow(ctx, q, id, companyID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return ok, nil
}

// ListByCompany returns the non-deleted users of a company ordered by name.
func (r *Repo) ListByCompany(ctx context.Context, companyID int) ([]domain.User, error) {
	var w postgres.Where
	w.Add("company_id = ?", companyID)
	w.Add("not is_deleted")
	if err := w.Tenant(ctx, "company_id"); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, "select "+userColumns+" from users "+w.SQL()+" order by last_name, first_name, id", w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	out := make([]domain.User, 0, 16)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts u and sets its id. Audit columns must already be stamped.
func (r *Repo) Create(ctx context.Context, u *domain.User) error {
	const q = `
insert into users (
  company_id, first_name, last_name, email, password_hash, phone, employee_id,
  department, position, hire_date, status, hourly_rate, monthly_salary, profile_image,
  skills, created_at, updated_at, created_by, updated_by, created_by_user_id, updated_by_user_id
)
values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,nullif($18,''),nullif($19,''),$20,$21)
returning id;
`
	err := r.db.QueryRow(ctx, q,
		u.CompanyID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Phone, u.EmployeeID,
		u.Department, u.Position, u.HireDate, u.Status, u.HourlyRate, u.MonthlySalary, u.ProfileImage,
		u.Skills, u.CreatedAt, u.UpdatedAt, u.CreatedBy, u.UpdatedBy, u.CreatedByUserID, u.UpdatedByUserID,
	).Scan(&u.ID)
	if err != nil {
		if constraint, ok := postgres.UniqueViolation(err); ok && constraint == "users_company_email_key" {
			return apperr.NewValidationError(apperr.Failure{Property: "Email", Message: "Email is already in use."})
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update writes every mutable column of u.
func (r *Repo) Update(ctx context.Context, u *domain.User) error {
	w := postgres.NewWhere(
		u.FirstName, u.LastName, u.Email, u.Phone, u.EmployeeID, u.Department, u.Position, u.HireDate,
		u.Status, u.HourlyRate, u.MonthlySalary, u.ProfileImage, u.Skills, u.UpdatedAt, u.UpdatedBy,
		u.UpdatedByUserID, u.IsDeleted,
	)
	w.Add("id = ?", u.ID)
	if err := w.Tenant(ctx, "company_id"); err != nil {
		return err
	}

	q := `
update users set
  first_name = $1, last_name = $2, email = $3, phone = $4, employee_id = $5, department = $6,
  position = $7, hire_date = $8, status = $9, hourly_rate = $10, monthly_salary = $11,
  profile_image = $12, skills = $13, updated_at = $14, updated_by = nullif($15,''),
  updated_by_user_id = $16, is_deleted = $17
` + w.SQL()

	tag, err := r.db.Exec(ctx, q, w.Args()...)
	if err != nil {
		if constraint, ok := postgres.UniqueViolation(err); ok && constraint == "users_company_email_key" {
			return apperr.NewValidationError(apperr.Failure{Property: "Email", Message: "Email is already in use."})
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("User", u.ID)
	}
	return nil
}
