package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceNumberMaxLength = 50
	invoicePaymentTermDays = 30
)

type Invoice struct {
	BaseEntity
	CustomerID    int             `json:"customerId"`
	ProjectID     *int            `json:"projectId,omitempty"`
	InvoiceNumber string          `json:"invoiceNumber"`
	IssueDate     time.Time       `json:"issueDate"`
	DueDate       time.Time       `json:"dueDate"`
	Status        InvoiceStatus   `json:"status"`
	SubTotal      decimal.Decimal `json:"subTotal"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Total         decimal.Decimal `json:"total"`
	Notes         string          `json:"notes"`
	PaidDate      *time.Time      `json:"paidDate,omitempty"`
	Items         []InvoiceItem   `json:"items,omitempty"`
}

// NewInvoice issues a draft dated today and due after the standard payment term.
func NewInvoice(today time.Time) *Invoice {
	return &Invoice{
		IssueDate: today,
		DueDate:   today.AddDate(0, 0, invoicePaymentTermDays),
		Status:    InvoiceDraft,
	}
}

func (i *Invoice) IsOverdue(today time.Time) bool {
	return i.Status == InvoiceSent && i.DueDate.Before(today)
}

func (i *Invoice) DaysOverdue(today time.Time) int {
	if !i.IsOverdue(today) {
		return 0
	}
	return wholeDays(today.Sub(i.DueDate))
}

// CalculateTotals recomputes every item amount, the subtotal and the total.
func (i *Invoice) CalculateTotals() {
	sub := decimal.Zero
	for idx := range i.Items {
		i.Items[idx].CalculateAmount()
		sub = sub.Add(i.Items[idx].Amount)
	}
	i.SubTotal = sub
	i.Total = sub.Add(i.TaxAmount)
}

type InvoiceItem struct {
	BaseEntity
	InvoiceID   int             `json:"invoiceId"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Amount      decimal.Decimal `json:"amount"`
}

func NewInvoiceItem(description string, unitPrice decimal.Decimal) *InvoiceItem {
	return &InvoiceItem{Description: description, Quantity: decimal.NewFromInt(1), UnitPrice: unitPrice}
}

func (it *InvoiceItem) CalculateAmount() {
	it.Amount = it.Quantity.Mul(it.UnitPrice)
}
