package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Project struct {
	BaseEntity
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	Code             string          `json:"code"`
	StartDate        time.Time       `json:"startDate"`
	EndDate          time.Time       `json:"endDate"`
	ActualStartDate  *time.Time      `json:"actualStartDate,omitempty"`
	ActualEndDate    *time.Time      `json:"actualEndDate,omitempty"`
	Status           ProjectStatus   `json:"status"`
	Type             ProjectType     `json:"type"`
	Priority         Priority        `json:"priority"`
	Budget           decimal.Decimal `json:"budget"`
	ActualCost       decimal.Decimal `json:"actualCost"`
	Progress         int             `json:"progress"`
	CustomerID       int             `json:"customerId"`
	ProjectManagerID int             `json:"projectManagerId"`
	TechnicalLeadID  *int            `json:"technicalLeadId,omitempty"`
	Repository       *string         `json:"repository,omitempty"`
	Technologies     *string         `json:"technologies,omitempty"`
}

func NewProject() *Project {
	return &Project{Status: ProjectPlanning, Type: ProjectTypeWebDevelopment, Priority: PriorityLow}
}

func (p *Project) IsOverBudget() bool {
	return p.ActualCost.GreaterThan(p.Budget)
}

func (p *Project) IsDelayed(now time.Time) bool {
	if p.ActualEndDate != nil && p.ActualEndDate.After(p.EndDate) {
		return true
	}
	return now.After(p.EndDate) && p.Status != ProjectCompleted
}

func (p *Project) DaysElapsed(now time.Time) int {
	if p.ActualStartDate == nil {
		return 0
	}
	return wholeDays(now.Sub(*p.ActualStartDate))
}

func (p *Project) DaysRemaining(now time.Time) int {
	return wholeDays(p.EndDate.Sub(now))
}

func (p *Project) TotalDays() int {
	return wholeDays(p.EndDate.Sub(p.StartDate))
}

func (p *Project) IsActive() bool {
	return p.Status == ProjectInProgress || p.Status == ProjectPlanning
}

func (p *Project) IsCompleted() bool {
	return p.Status == ProjectCompleted
}

func (p *Project) BudgetUtilizationPercentage() float64 {
	return BudgetUtilization(p.ActualCost, p.Budget)
}

// BudgetUtilization is actual/budget as a percentage rounded to two places,
// 0 without a positive budget.
func BudgetUtilization(actual, budget decimal.Decimal) float64 {
	if !budget.IsPositive() {
		return 0
	}
	return actual.Div(budget).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}

func (p *Project) DisplayName() string {
	return fmt.Sprintf("[%s] %s", p.Code, p.Name)
}

type ProjectMember struct {
	BaseEntity
	ProjectID            int              `json:"projectId"`
	UserID               int              `json:"userId"`
	Role                 ProjectRole      `json:"role"`
	AllocationPercentage int              `json:"allocationPercentage"`
	AssignedDate         time.Time        `json:"assignedDate"`
	UnassignedDate       *time.Time       `json:"unassignedDate,omitempty"`
	HourlyRate           *decimal.Decimal `json:"hourlyRate,omitempty"`
}

func NewProjectMember(projectID, userID int, role ProjectRole, assigned time.Time) *ProjectMember {
	return &ProjectMember{
		ProjectID:            projectID,
		UserID:               userID,
		Role:                 role,
		AllocationPercentage: 100,
		AssignedDate:         assigned,
	}
}

// IsActive reports whether the member is still assigned at now.
func (m *ProjectMember) IsActive(now time.Time) bool {
	return m.UnassignedDate == nil || m.UnassignedDate.After(now)
}

type ProjectTask struct {
	BaseEntity
	ProjectID      int        `json:"projectId"`
	ParentTaskID   *int       `json:"parentTaskId,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Status         TaskStatus `json:"status"`
	Priority       Priority   `json:"priority"`
	EstimatedHours *float64   `json:"estimatedHours,omitempty"`
	ActualHours    float64    `json:"actualHours"`
	StartDate      *time.Time `json:"startDate,omitempty"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	CompletedDate  *time.Time `json:"completedDate,omitempty"`
	AssigneeID     *int       `json:"assigneeId,omitempty"`
}

func NewProjectTask(projectID int, title string) *ProjectTask {
	return &ProjectTask{ProjectID: projectID, Title: title, Status: TaskToDo, Priority: PriorityMedium}
}

func (t *ProjectTask) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskDone
}

func (t *ProjectTask) RemainingHours() float64 {
	var est float64
	if t.EstimatedHours != nil {
		est = *t.EstimatedHours
	}
	return math.Max(0, est-t.ActualHours)
}
