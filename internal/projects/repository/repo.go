package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/projects"
	"github.com/GoSim-25-26J-441/erp-backend/internal/storage/postgres"
)

const recentTaskLimit = 5

// ProjectRepository provides persistence operations for projects
type ProjectRepository struct {
	pool *pgxpool.Pool
}

var _ projects.Store = (*ProjectRepository)(nil)

// NewProjectRepository creates a new project repository
func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) CodeExists(ctx context.Context, companyID int, code string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM projects WHERE company_id = $1 AND code = $2);`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, companyID, code).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check project code: %w", err)
	}
	return ok, nil
}

func (r *ProjectRepository) CustomerExists(ctx context.Context, companyID, customerID int) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND company_id = $2 AND NOT is_deleted);`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, customerID, companyID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check customer: %w", err)
	}
	return ok, nil
}

func (r *ProjectRepository) UserExists(ctx context.Context, companyID, userID int) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND company_id = $2 AND NOT is_deleted);`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, userID, companyID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return ok, nil
}

// Create inserts p and sets its id.
func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	const q = `
INSERT INTO projects (
  company_id, name, description, code, start_date, end_date, actual_start_date, actual_end_date,
  status, type, priority, budget, actual_cost, progress, customer_id, project_manager_id,
  technical_lead_id, repository, technologies, created_at, updated_at, created_by, updated_by,
  created_by_user_id, updated_by_user_id
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,
        NULLIF($22,''),NULLIF($23,''),$24,$25)
RETURNING id;
`
	err := r.pool.QueryRow(ctx, q,
		p.CompanyID, p.Name, p.Description, p.Code, p.StartDate, p.EndDate, p.ActualStartDate, p.ActualEndDate,
		p.Status, p.Type, p.Priority, p.Budget, p.ActualCost, p.Progress, p.CustomerID, p.ProjectManagerID,
		p.TechnicalLeadID, p.Repository, p.Technologies, p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy,
		p.CreatedByUserID, p.UpdatedByUserID,
	).Scan(&p.ID)
	if err != nil {
		if constraint, ok := postgres.UniqueViolation(err); ok && constraint == "projects_company_code_key" {
			return apperr.NewValidationError(apperr.Failure{Property: "Code", Message: "Project code must be unique."})
		}
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// Get returns a non-deleted project of the current tenant, or nil.
func (r *ProjectRepository) Get(ctx context.Context, id int) (*domain.Project, error) {
	var w postgres.Where
	w.Add("id = ?", id)
	w.Add("NOT is_deleted")
	if err := w.Tenant(ctx, "company_id"); err != nil {
		return nil, err
	}

	q := `
SELECT id, company_id, name, description, code, start_date, end_date, actual_start_date, actual_end_date,
       status, type, priority, budget, actual_cost, progress, customer_id, project_manager_id,
       technical_lead_id, repository, technologies, created_at, updated_at,
       COALESCE(created_by, ''), COALESCE(updated_by, ''), created_by_user_id, updated_by_user_id, is_deleted
FROM projects ` + w.SQL()

	var p domain.Project
	err := r.pool.QueryRow(ctx, q, w.Args()...).Scan(
		&p.ID, &p.CompanyID, &p.Name, &p.Description, &p.Code, &p.StartDate, &p.EndDate, &p.ActualStartDate, &p.ActualEndDate,
		&p.Status, &p.Type, &p.Priority, &p.Budget, &p.ActualCost, &p.Progress, &p.CustomerID, &p.ProjectManagerID,
		&p.TechnicalLeadID, &p.Repository, &p.Technologies, &p.CreatedAt, &p.UpdatedAt,
		&p.CreatedBy, &p.UpdatedBy, &p.CreatedByUserID, &p.UpdatedByUserID, &p.IsDeleted,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// Update writes every mutable column of p, including the soft-delete flag.
func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	w := postgres.NewWhere(
		p.Name, p.Description, p.StartDate, p.EndDate, p.ActualStartDate, p.ActualEndDate, p.Status, p.Type,
		p.Priority, p.Budget, p.ActualCost, p.Progress, p.CustomerID, p.ProjectManagerID, p.TechnicalLeadID,
		p.Repository, p.Technologies, p.UpdatedAt, p.UpdatedBy, p.UpdatedByUserID, p.IsDeleted,
	)
	w.Add("id = ?", p.ID)
	if err := w.Tenant(ctx, "company_id"); err != nil {
		return err
	}

	q := `
UPDATE projects SET
  name = $1, description = $2, start_date = $3, end_date = $4, actual_start_date = $5,
  actual_end_date = $6, status = $7, type = $8, priority = $9, budget = $10, actual_cost = $11,
  progress = $12, customer_id = $13, project_manager_id = $14, technical_lead_id = $15,
  repository = $16, technologies = $17, updated_at = $18, updated_by = NULLIF($19,''),
  updated_by_user_id = $20, is_deleted = $21
` + w.SQL()

	tag, err := r.pool.Exec(ctx, q, w.Args()...)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("Project", p.ID)
	}
	return nil
}

// HasBillableHistory reports whether time was logged or invoices were issued
// against the project. Such projects are archived instead of deleted.
func (r *ProjectRepository) HasBillableHistory(ctx context.Context, id int) (bool, error) {
	const q = `
SELECT EXISTS(SELECT 1 FROM time_entries WHERE project_id = $1)
    OR EXISTS(SELECT 1 FROM invoices WHERE project_id = $1);
`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check project history: %w", err)
	}
	return ok, nil
}

// Purge hard-deletes the project with its members and tasks in one transaction.
func (r *ProjectRepository) Purge(ctx context.Context, id int) error {
	companyID, filtered, err := postgres.TenantFilter(ctx)
	if err != nil {
		return err
	}

	return postgres.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if filtered {
			var owned bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1 AND company_id = $2)`, id, companyID).Scan(&owned); err != nil {
				return fmt.Errorf("failed to check project owner: %w", err)
			}
			if !owned {
				return apperr.NewNotFound("Project", id)
			}
		}

		// subtasks first: parent_task_id references project_tasks
		stmts := []string{
			`UPDATE project_tasks SET parent_task_id = NULL WHERE project_id = $1`,
			`DELETE FROM project_tasks WHERE project_id = $1`,
			`DELETE FROM project_members WHERE project_id = $1`,
			`DELETE FROM projects WHERE id = $1`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(ctx, stmt, id); err != nil {
				return fmt.Errorf("failed to delete project %d: %w", id, err)
			}
		}
		return nil
	})
}

// Detail loads the project with its customer, manager, statistics, active
// members and the most recently updated tasks.
func (r *ProjectRepository) Detail(ctx context.Context, id int) (*projects.ProjectDetailDto, error) {
	var w postgres.Where
	w.Add("p.id = ?", id)
	w.Add("NOT p.is_deleted")
	if err := w.Tenant(ctx, "p.company_id"); err != nil {
		return nil, err
	}

	q := `
SELECT p.id, p.name, p.description, p.code, p.start_date, p.end_date, p.actual_start_date, p.actual_end_date,
       p.status, p.type, p.priority, p.budget, p.actual_cost, p.progress, p.created_at, p.updated_at,
       p.customer_id, COALESCE(c.name, ''), COALESCE(c.contact_name, ''), COALESCE(c.contact_email, ''),
       p.project_manager_id, COALESCE(u.first_name || ' ' || u.last_name, ''), COALESCE(u.email, ''),
       (SELECT count(*) FROM project_tasks t WHERE t.project_id = p.id),
       (SELECT count(*) FROM project_tasks t WHERE t.project_id = p.id AND t.status = 'Done'),
       (SELECT count(*) FROM project_members m WHERE m.project_id = p.id AND m.unassigned_date IS NULL),
       (SELECT COALESCE(sum(e.hours), 0)::float8 FROM time_entries e WHERE e.project_id = p.id)
FROM projects p
LEFT JOIN customers c ON c.id = p.customer_id
LEFT JOIN users u ON u.id = p.project_manager_id
` + w.SQL()

	var d projects.ProjectDetailDto
	err := r.pool.QueryRow(ctx, q, w.Args()...).Scan(
		&d.ID, &d.Name, &d.Description, &d.Code, &d.StartDate, &d.EndDate, &d.ActualStartDate, &d.ActualEndDate,
		&d.Status, &d.Type, &d.Priority, &d.Budget, &d.ActualCost, &d.Progress, &d.CreatedAt, &d.UpdatedAt,
		&d.CustomerID, &d.CustomerName, &d.CustomerContact, &d.CustomerEmail,
		&d.ProjectManagerID, &d.ProjectManagerName, &d.ProjectManagerEmail,
		&d.TotalTasks, &d.CompletedTasks, &d.ActiveMembers, &d.TotalHoursLogged,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project detail: %w", err)
	}

	if d.Members, err = r.activeMembers(ctx, id); err != nil {
		return nil, err
	}
	if d.RecentTasks, err = r.recentTasks(ctx, id); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *ProjectRepository) activeMembers(ctx context.Context, projectID int) ([]projects.ProjectMemberDto, error) {
	const q = `
SELECT m.user_id, COALESCE(u.first_name || ' ' || u.last_name, ''), COALESCE(u.email, ''),
       m.role, m.allocation_percentage, m.assigned_date, m.hourly_rate
FROM project_members m
LEFT JOIN users u ON u.id = m.user_id
WHERE m.project_id = $1 AND m.unassigned_date IS NULL
ORDER BY m.assigned_date, m.id;
`
	rows, err := r.pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	out := make([]projects.ProjectMemberDto, 0, 8)
	for rows.Next() {
		var m projects.ProjectMemberDto
		if err := rows.Scan(&m.UserID, &m.UserName, &m.UserEmail, &m.Role, &m.AllocationPercentage, &m.AssignedDate, &m.HourlyRate); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ProjectRepository) recentTasks(ctx context.Context, projectID int) ([]projects.ProjectTaskDto, error) {
	const q = `
SELECT t.id, t.title, t.status, t.priority, t.due_date,
       COALESCE(u.first_name || ' ' || u.last_name, ''), t.updated_at
FROM project_tasks t
LEFT JOIN users u ON u.id = t.assignee_id
WHERE t.project_id = $1
ORDER BY t.updated_at DESC, t.id DESC
LIMIT $2;
`
	rows, err := r.pool.Query(ctx, q, projectID, recentTaskLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent tasks: %w", err)
	}
	defer rows.Close()

	out := make([]projects.ProjectTaskDto, 0, recentTaskLimit)
	for rows.Next() {
		var t projects.ProjectTaskDto
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.Priority, &t.DueDate, &t.AssigneeName, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// listWhere builds the list predicates. A blank search term matches everything;
// otherwise the term is matched as given.
func listWhere(ctx context.Context, f projects.ListFilter) (*postgres.Where, error) {
	w := postgres.NewWhere()
	w.Add("NOT p.is_deleted")
	if err := w.Tenant(ctx, "p.company_id"); err != nil {
		return nil, err
	}
	if f.Status != nil {
		w.Add("p.status = ?", *f.Status)
	}
	if f.CustomerID != nil {
		w.Add("p.customer_id = ?", *f.CustomerID)
	}
	if strings.TrimSpace(f.SearchTerm) != "" {
		w.Add("(strpos(p.name, ?) > 0 OR strpos(p.code, ?) > 0 OR strpos(p.description, ?) > 0)",
			f.SearchTerm, f.SearchTerm, f.SearchTerm)
	}
	return w, nil
}

// List returns one page of non-deleted projects, newest first, and the total
// number of matches.
func (r *ProjectRepository) List(ctx context.Context, f projects.ListFilter, now time.Time) ([]projects.ProjectDto, int, error) {
	w, err := listWhere(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM projects p `+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	limit, offset := w.Arg(f.Limit), w.Arg(f.Offset)
	q := `
SELECT p.id, p.name, p.description, p.code, p.start_date, p.end_date, p.actual_start_date, p.actual_end_date,
       p.status, p.type, p.priority, p.budget, p.actual_cost, p.progress, p.customer_id, COALESCE(c.name, ''),
       p.project_manager_id, COALESCE(u.first_name || ' ' || u.last_name, ''), p.created_at
FROM projects p
LEFT JOIN customers c ON c.id = p.customer_id
LEFT JOIN users u ON u.id = p.project_manager_id
` + w.SQL() + `
ORDER BY p.created_at DESC, p.id DESC
LIMIT ` + limit + ` OFFSET ` + offset

	rows, err := r.pool.Query(ctx, q, w.Args()...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	out := make([]projects.ProjectDto, 0, f.Limit)
	for rows.Next() {
		var d projects.ProjectDto
		err := rows.Scan(
			&d.ID, &d.Name, &d.Description, &d.Code, &d.StartDate, &d.EndDate, &d.ActualStartDate, &d.ActualEndDate,
			&d.Status, &d.Type, &d.Priority, &d.Budget, &d.ActualCost, &d.Progress, &d.CustomerID, &d.CustomerName,
			&d.ProjectManagerID, &d.ProjectManagerName, &d.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		p := domain.Project{
			Budget: d.Budget, ActualCost: d.ActualCost, Status: d.Status,
			EndDate: d.EndDate, ActualEndDate: d.ActualEndDate,
		}
		d.IsOverBudget = p.IsOverBudget()
		d.IsDelayed = p.IsDelayed(now)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
