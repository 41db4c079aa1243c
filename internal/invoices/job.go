package invoices

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

const JobName = "mark-overdue-invoices"

// MarkOverdueJob moves unpaid invoices past their due date to Overdue,
// reminds each customer contact and tells connected clients how many changed.
type MarkOverdueJob struct {
	store       Store
	mailer      Mailer
	broadcaster Broadcaster
	clock       clock.Clock
	logger      *zap.Logger
}

func NewMarkOverdueJob(store Store, mailer Mailer, broadcaster Broadcaster, clk clock.Clock, logger *zap.Logger) *MarkOverdueJob {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkOverdueJob{
		store:       store,
		mailer:      mailer,
		broadcaster: broadcaster,
		clock:       clk,
		logger:      logger.Named("invoices"),
	}
}

// Run returns the number of invoices marked overdue.
func (j *MarkOverdueJob) Run(ctx context.Context) (int, error) {
	today := clock.Today(j.clock)

	overdue, err := j.store.ListOverdue(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue invoices: %w", err)
	}
	if len(overdue) == 0 {
		j.logger.Info("no invoices became overdue")
		return 0, nil
	}

	ids := make([]int, 0, len(overdue))
	for _, inv := range overdue {
		ids = append(ids, inv.ID)
	}

	n, err := j.store.MarkOverdue(ctx, ids, j.clock.UTCNow())
	if err != nil {
		return 0, fmt.Errorf("failed to mark invoices overdue: %w", err)
	}
	j.logger.Info("invoices marked overdue", zap.Int("count", n))

	for _, inv := range overdue {
		j.remind(ctx, inv)
	}

	if j.broadcaster != nil {
		msg := fmt.Sprintf("%d invoices became overdue", n)
		if err := j.broadcaster.SendNotificationToAll(ctx, msg, "warning"); err != nil {
			j.logger.Warn("overdue broadcast failed", zap.Error(err))
		}
	}
	return n, nil
}

func (j *MarkOverdueJob) remind(ctx context.Context, inv OverdueInvoice) {
	if j.mailer == nil || inv.ContactEmail == "" {
		return
	}

	name := inv.ContactName
	if name == "" {
		name = inv.CustomerName
	}
	subject := fmt.Sprintf("Invoice %s is overdue", inv.InvoiceNumber)
	body := fmt.Sprintf(
		"<p>Dear %s,</p><p>Invoice <strong>%s</strong> for %s was due on %s and is now overdue.</p><p>Please arrange payment at your earliest convenience.</p>",
		html.EscapeString(name), html.EscapeString(inv.InvoiceNumber), inv.Total.StringFixed(2), inv.DueDate.Format("2006-01-02"))

	if !j.mailer.SendEmail(ctx, inv.ContactEmail, subject, body, true) {
		j.logger.Warn("overdue reminder not sent",
			zap.Int("invoice_id", inv.ID),
			zap.String("to", inv.ContactEmail))
	}
}
