package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/erp-backend/internal/users"
)

// Repo reads and writes across all tenants.
type Repo struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repo)(nil)

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Counts(ctx context.Context) (Counts, error) {
	const q = `
SELECT (SELECT count(*) FROM companies),
       (SELECT count(*) FROM users),
       (SELECT count(*) FROM customers),
       (SELECT count(*) FROM projects);
`
	var c Counts
	if err := r.pool.QueryRow(ctx, q).Scan(&c.Companies, &c.Users, &c.Customers, &c.Projects); err != nil {
		return Counts{}, fmt.Errorf("failed to count seed data: %w", err)
	}
	return c, nil
}

func (r *Repo) LatestCompany(ctx context.Context) (*domain.Company, error) {
	const q = `
SELECT id, name, domain, created_at
FROM companies
ORDER BY created_at DESC, id DESC
LIMIT 1;
`
	var c domain.Company
	err := r.pool.QueryRow(ctx, q).Scan(&c.ID, &c.Name, &c.Domain, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest company: %w", err)
	}
	return &c, nil
}

func (r *Repo) Seed(ctx context.Context, d *Demo) error {
	return postgres.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const companyQ = `
INSERT INTO companies (name, domain, contact_email, contact_phone, plan, created_at, updated_at, created_by, updated_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,'system','system')
RETURNING id;
`
		c := d.Company
		if err := tx.QueryRow(ctx, companyQ, c.Name, c.Domain, c.ContactEmail, c.ContactPhone, c.Plan, c.CreatedAt, c.UpdatedAt).Scan(&c.ID); err != nil {
			return fmt.Errorf("failed to create company: %w", err)
		}
		d.link()

		userRepo := users.NewRepo(tx)
		for _, u := range d.Users {
			if err := userRepo.Create(ctx, u); err != nil {
				return err
			}
		}

		const customerQ = `
INSERT INTO customers (company_id, name, contact_name, contact_email, contact_phone, address, business_number,
                       industry, type, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id;
`
		for _, cu := range d.Customers {
			err := tx.QueryRow(ctx, customerQ, cu.CompanyID, cu.Name, cu.ContactName, cu.ContactEmail, cu.ContactPhone,
				cu.Address, cu.BusinessNumber, cu.Industry, cu.Type, cu.Status, cu.CreatedAt, cu.UpdatedAt).Scan(&cu.ID)
			if err != nil {
				return fmt.Errorf("failed to create customer: %w", err)
			}
		}
		d.link()

		const projectQ = `
INSERT INTO projects (company_id, name, description, code, start_date, end_date, actual_start_date,
                      status, type, priority, budget, actual_cost, progress, customer_id, project_manager_id,
                      technical_lead_id, created_at, updated_at, created_by, updated_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,'system','system')
RETURNING id;
`
		for _, p := range d.Projects {
			err := tx.QueryRow(ctx, projectQ, p.CompanyID, p.Name, p.Description, p.Code, p.StartDate, p.EndDate,
				p.ActualStartDate, p.Status, p.Type, p.Priority, p.Budget, p.ActualCost, p.Progress, p.CustomerID,
				p.ProjectManagerID, p.TechnicalLeadID, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}
		}
		return nil
	})
}

// Clean deletes children before parents.
func (r *Repo) Clean(ctx context.Context) (Counts, error) {
	var c Counts
	err := postgres.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, table := range []string{"invoice_items", "invoices", "time_entries"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		if _, err := tx.Exec(ctx, "UPDATE project_tasks SET parent_task_id = NULL"); err != nil {
			return fmt.Errorf("failed to detach tasks: %w", err)
		}
		for _, table := range []string{"project_tasks", "project_members"} {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		steps := []struct {
			table string
			count *int
		}{
			{"projects", &c.Projects},
			{"customers", &c.Customers},
			{"users", &c.Users},
			{"companies", &c.Companies},
		}
		for _, s := range steps {
			tag, err := tx.Exec(ctx, "DELETE FROM "+s.table)
			if err != nil {
				return fmt.Errorf("failed to clear %s: %w", s.table, err)
			}
			*s.count = int(tag.RowsAffected())
		}
		return nil
	})
	return c, err
}
