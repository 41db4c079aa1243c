// Package invoices tracks invoices that pass their due date unpaid.
package invoices

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// OverdueInvoice is a Sent invoice past its due date together with the
// customer contact it should be chased with.
type OverdueInvoice struct {
	ID            int
	CompanyID     int
	InvoiceNumber string
	DueDate       time.Time
	Total         decimal.Decimal
	CustomerName  string
	ContactName   string
	ContactEmail  string
}

type Store interface {
	// ListOverdue returns Sent invoices due strictly before today.
	ListOverdue(ctx context.Context, today time.Time) ([]OverdueInvoice, error)
	// MarkOverdue flips the given Sent invoices to Overdue and returns how many changed.
	MarkOverdue(ctx context.Context, ids []int, now time.Time) (int, error)
}

// Mailer is satisfied by *email.Sender.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string, isHTML bool) bool
}

// Broadcaster is satisfied by *realtime.Notifier.
type Broadcaster interface {
	SendNotificationToAll(ctx context.Context, message, kind string) error
}
