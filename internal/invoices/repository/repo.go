package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/invoices"
	"github.com/GoSim-25-26J-441/erp-backend/internal/storage/postgres"
)

// InvoiceRepository runs across every company. It is used by background
// jobs, which carry no user and therefore no tenant filter.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

var _ invoices.Store = (*InvoiceRepository)(nil)

func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

func (r *InvoiceRepository) ListOverdue(ctx context.Context, today time.Time) ([]invoices.OverdueInvoice, error) {
	var w postgres.Where
	w.Add("i.status = ?", string(domain.InvoiceSent)).
		Add("i.due_date < ?", today).
		Add("NOT i.is_deleted")
	if err := w.Tenant(ctx, "i.company_id"); err != nil {
		return nil, err
	}

	q := `
		SELECT i.id, i.company_id, i.invoice_number, i.due_date, i.total,
		       c.name, c.contact_name, c.contact_email
		FROM invoices i
		JOIN customers c ON c.id = i.customer_id
		` + w.SQL() + `
		ORDER BY i.due_date, i.id`

	rows, err := r.pool.Query(ctx, q, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overdue invoices: %w", err)
	}
	defer rows.Close()

	var out []invoices.OverdueInvoice
	for rows.Next() {
		var inv invoices.OverdueInvoice
		if err := rows.Scan(&inv.ID, &inv.CompanyID, &inv.InvoiceNumber, &inv.DueDate, &inv.Total,
			&inv.CustomerName, &inv.ContactName, &inv.ContactEmail); err != nil {
			return nil, fmt.Errorf("failed to scan overdue invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *InvoiceRepository) MarkOverdue(ctx context.Context, ids []int, now time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	const q = `
		UPDATE invoices
		SET status = $1, updated_at = $2
		WHERE id = ANY($3) AND status = $4`

	tag, err := r.pool.Exec(ctx, q, string(domain.InvoiceOverdue), now, ids, string(domain.InvoiceSent))
	if err != nil {
		return 0, fmt.Errorf("failed to mark invoices overdue: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
