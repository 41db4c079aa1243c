package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type SubscriptionPlan string

const (
	PlanFree         SubscriptionPlan = "Free"
	PlanBasic        SubscriptionPlan = "Basic"
	PlanProfessional SubscriptionPlan = "Professional"
	PlanEnterprise   SubscriptionPlan = "Enterprise"
)

type Department string

const (
	DepartmentDevelopment Department = "Development"
	DepartmentDesign      Department = "Design"
	DepartmentQA          Department = "QA"
	DepartmentPM          Department = "PM"
	DepartmentSales       Department = "Sales"
	DepartmentHR          Department = "HR"
	DepartmentFinance     Department = "Finance"
	DepartmentMarketing   Department = "Marketing"
	DepartmentSupport     Department = "Support"
)

type UserStatus string

const (
	UserStatusActive     UserStatus = "Active"
	UserStatusInactive   UserStatus = "Inactive"
	UserStatusTerminated UserStatus = "Terminated"
)

type CustomerType string

const (
	CustomerIndividual CustomerType = "Individual"
	CustomerSME        CustomerType = "SME"
	CustomerEnterprise CustomerType = "Enterprise"
	CustomerGovernment CustomerType = "Government"
)

type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "Active"
	CustomerStatusInactive  CustomerStatus = "Inactive"
	CustomerStatusPotential CustomerStatus = "Potential"
)

type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "Planning"
	ProjectInProgress ProjectStatus = "InProgress"
	ProjectOnHold     ProjectStatus = "OnHold"
	ProjectCompleted  ProjectStatus = "Completed"
	ProjectCancelled  ProjectStatus = "Cancelled"
)

type ProjectType string

const (
	ProjectTypeWebDevelopment ProjectType = "WebDevelopment"
	ProjectTypeMobileApp      ProjectType = "MobileApp"
	ProjectTypeMaintenance    ProjectType = "Maintenance"
	ProjectTypeConsulting     ProjectType = "Consulting"
	ProjectTypeIntegration    ProjectType = "Integration"
	ProjectTypeOther          ProjectType = "Other"
)

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

type TaskStatus string

const (
	TaskToDo       TaskStatus = "ToDo"
	TaskInProgress TaskStatus = "InProgress"
	TaskReview     TaskStatus = "Review"
	TaskTesting    TaskStatus = "Testing"
	TaskDone       TaskStatus = "Done"
	TaskBlocked    TaskStatus = "Blocked"
)

type TimeEntryStatus string

const (
	TimeEntryDraft     TimeEntryStatus = "Draft"
	TimeEntrySubmitted TimeEntryStatus = "Submitted"
	TimeEntryApproved  TimeEntryStatus = "Approved"
	TimeEntryRejected  TimeEntryStatus = "Rejected"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "Draft"
	InvoiceSent      InvoiceStatus = "Sent"
	InvoicePaid      InvoiceStatus = "Paid"
	InvoiceOverdue   InvoiceStatus = "Overdue"
	InvoiceCancelled InvoiceStatus = "Cancelled"
)

type ProjectRole string

const (
	RoleProjectManager  ProjectRole = "ProjectManager"
	RoleTechLead        ProjectRole = "TechLead"
	RoleSeniorDeveloper ProjectRole = "SeniorDeveloper"
	RoleDeveloper       ProjectRole = "Developer"
	RoleJuniorDeveloper ProjectRole = "JuniorDeveloper"
	RoleDesigner        ProjectRole = "Designer"
	RoleQA              ProjectRole = "QA"
	RoleAnalyst         ProjectRole = "Analyst"
	RoleDevOps          ProjectRole = "DevOps"
)

func SubscriptionPlans() []SubscriptionPlan {
	return []SubscriptionPlan{PlanFree, PlanBasic, PlanProfessional, PlanEnterprise}
}

func Departments() []Department {
	return []Department{
		DepartmentDevelopment, DepartmentDesign, DepartmentQA, DepartmentPM, DepartmentSales,
		DepartmentHR, DepartmentFinance, DepartmentMarketing, DepartmentSupport,
	}
}

func UserStatuses() []UserStatus {
	return []UserStatus{UserStatusActive, UserStatusInactive, UserStatusTerminated}
}

func CustomerTypes() []CustomerType {
	return []CustomerType{CustomerIndividual, CustomerSME, CustomerEnterprise, CustomerGovernment}
}

func CustomerStatuses() []CustomerStatus {
	return []CustomerStatus{CustomerStatusActive, CustomerStatusInactive, CustomerStatusPotential}
}

func ProjectStatuses() []ProjectStatus {
	return []ProjectStatus{ProjectPlanning, ProjectInProgress, ProjectOnHold, ProjectCompleted, ProjectCancelled}
}

func ProjectTypes() []ProjectType {
	return []ProjectType{
		ProjectTypeWebDevelopment, ProjectTypeMobileApp, ProjectTypeMaintenance,
		ProjectTypeConsulting, ProjectTypeIntegration, ProjectTypeOther,
	}
}

func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}
}

func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskToDo, TaskInProgress, TaskReview, TaskTesting, TaskDone, TaskBlocked}
}

func TimeEntryStatuses() []TimeEntryStatus {
	return []TimeEntryStatus{TimeEntryDraft, TimeEntrySubmitted, TimeEntryApproved, TimeEntryRejected}
}

func InvoiceStatuses() []InvoiceStatus {
	return []InvoiceStatus{InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue, InvoiceCancelled}
}

func ProjectRoles() []ProjectRole {
	return []ProjectRole{
		RoleProjectManager, RoleTechLead, RoleSeniorDeveloper, RoleDeveloper, RoleJuniorDeveloper,
		RoleDesigner, RoleQA, RoleAnalyst, RoleDevOps,
	}
}

func (s ProjectStatus) IsValid() bool { return contains(ProjectStatuses(), s) }
func (t ProjectType) IsValid() bool   { return contains(ProjectTypes(), t) }
func (p Priority) IsValid() bool      { return contains(Priorities(), p) }
func (s TaskStatus) IsValid() bool    { return contains(TaskStatuses(), s) }
func (s InvoiceStatus) IsValid() bool { return contains(InvoiceStatuses(), s) }
func (r ProjectRole) IsValid() bool   { return contains(ProjectRoles(), r) }
func (d Department) IsValid() bool    { return contains(Departments(), d) }

func ParseSubscriptionPlan(s string) (SubscriptionPlan, error) {
	return parseEnum(s, SubscriptionPlans())
}
func ParseDepartment(s string) (Department, error)     { return parseEnum(s, Departments()) }
func ParseUserStatus(s string) (UserStatus, error)     { return parseEnum(s, UserStatuses()) }
func ParseCustomerType(s string) (CustomerType, error) { return parseEnum(s, CustomerTypes()) }
func ParseCustomerStatus(s string) (CustomerStatus, error) {
	return parseEnum(s, CustomerStatuses())
}
func ParseProjectStatus(s string) (ProjectStatus, error) { return parseEnum(s, ProjectStatuses()) }
func ParseProjectType(s string) (ProjectType, error)     { return parseEnum(s, ProjectTypes()) }
func ParsePriority(s string) (Priority, error)           { return parseEnum(s, Priorities()) }
func ParseTaskStatus(s string) (TaskStatus, error)       { return parseEnum(s, TaskStatuses()) }
func ParseTimeEntryStatus(s string) (TimeEntryStatus, error) {
	return parseEnum(s, TimeEntryStatuses())
}
func ParseInvoiceStatus(s string) (InvoiceStatus, error) { return parseEnum(s, InvoiceStatuses()) }
func ParseProjectRole(s string) (ProjectRole, error)     { return parseEnum(s, ProjectRoles()) }

func (p *SubscriptionPlan) UnmarshalJSON(b []byte) error {
	return decodeEnum(b, SubscriptionPlans(), p)
}
func (d *Department) UnmarshalJSON(b []byte) error   { return decodeEnum(b, Departments(), d) }
func (s *UserStatus) UnmarshalJSON(b []byte) error   { return decodeEnum(b, UserStatuses(), s) }
func (t *CustomerType) UnmarshalJSON(b []byte) error { return decodeEnum(b, CustomerTypes(), t) }
func (s *CustomerStatus) UnmarshalJSON(b []byte) error {
	return decodeEnum(b, CustomerStatuses(), s)
}
func (s *ProjectStatus) UnmarshalJSON(b []byte) error { return decodeEnum(b, ProjectStatuses(), s) }
func (t *ProjectType) UnmarshalJSON(b []byte) error   { return decodeEnum(b, ProjectTypes(), t) }
func (p *Priority) UnmarshalJSON(b []byte) error      { return decodeEnum(b, Priorities(), p) }
func (s *TaskStatus) UnmarshalJSON(b []byte) error    { return decodeEnum(b, TaskStatuses(), s) }
func (s *TimeEntryStatus) UnmarshalJSON(b []byte) error {
	return decodeEnum(b, TimeEntryStatuses(), s)
}
func (s *InvoiceStatus) UnmarshalJSON(b []byte) error { return decodeEnum(b, InvoiceStatuses(), s) }
func (r *ProjectRole) UnmarshalJSON(b []byte) error   { return decodeEnum(b, ProjectRoles(), r) }

// decodeEnum accepts a name in any case or the value's ordinal position.
// Unknown names are kept verbatim so validation can report them by field.
func decodeEnum[E ~string](data []byte, values []E, dst *E) error {
	if string(data) == "null" {
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n < 0 || n >= len(values) {
			return fmt.Errorf("%w: %d", ErrInvalidEnum, n)
		}
		*dst = values[n]
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, err := parseEnum(s, values); err == nil {
		*dst = v
		return nil
	}
	*dst = E(s)
	return nil
}

// parseEnum matches case-insensitively against the declared values, which
// double as their display descriptions.
func parseEnum[E ~string](s string, values []E) (E, error) {
	s = strings.TrimSpace(s)
	for _, v := range values {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	var zero E
	return zero, fmt.Errorf("%w: %q", ErrInvalidEnum, s)
}

func contains[E comparable](values []E, v E) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
