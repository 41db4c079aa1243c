package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TimeEntry struct {
	BaseEntity
	UserID      int              `json:"userId"`
	ProjectID   int              `json:"projectId"`
	TaskID      *int             `json:"taskId,omitempty"`
	Description string           `json:"description"`
	Hours       decimal.Decimal  `json:"hours"`
	Date        time.Time        `json:"date"`
	HourlyRate  *decimal.Decimal `json:"hourlyRate,omitempty"`
	Status      TimeEntryStatus  `json:"status"`
}

func NewTimeEntry(userID, projectID int, hours decimal.Decimal, date time.Time) *TimeEntry {
	return &TimeEntry{UserID: userID, ProjectID: projectID, Hours: hours, Date: date, Status: TimeEntryDraft}
}

func (e *TimeEntry) TotalAmount() decimal.Decimal {
	if e.HourlyRate == nil {
		return decimal.Zero
	}
	return e.Hours.Mul(*e.HourlyRate)
}
