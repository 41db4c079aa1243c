package domain

import "time"

// BaseEntity carries the tenant key, audit columns and soft-delete flag shared
// by every table. CreatedBy/UpdatedBy hold identity user ids, while the *UserID
// pointers hold business user ids and stay nil for anonymous writes.
type BaseEntity struct {
	ID              int       `json:"id"`
	CompanyID       int       `json:"companyId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	CreatedBy       string    `json:"createdBy,omitempty"`
	UpdatedBy       string    `json:"updatedBy,omitempty"`
	CreatedByUserID *int      `json:"createdByUserId,omitempty"`
	UpdatedByUserID *int      `json:"updatedByUserId,omitempty"`
	IsDeleted       bool      `json:"isDeleted"`
}

// Kind names the table an entity lives in. The auditor stamps identity ids
// only on kinds that have those columns.
type Kind string

const (
	KindCompany       Kind = "companies"
	KindUser          Kind = "users"
	KindCustomer      Kind = "customers"
	KindProject       Kind = "projects"
	KindProjectMember Kind = "project_members"
	KindProjectTask   Kind = "project_tasks"
	KindTimeEntry     Kind = "time_entries"
	KindInvoice       Kind = "invoices"
	KindInvoiceItem   Kind = "invoice_items"
)

// TenantKinds are filtered by company on every read.
var TenantKinds = []Kind{
	KindUser, KindCustomer, KindProject, KindInvoice, KindTimeEntry,
	KindProjectTask, KindProjectMember, KindInvoiceItem,
}

// wholeDays counts complete days, truncating toward zero.
func wholeDays(d time.Duration) int {
	return int(d / (24 * time.Hour))
}
