package projects

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
)

// ProjectDto is one row of the project list.
type ProjectDto struct {
	ID                 int                  `json:"id"`
	Name               string               `json:"name"`
	Description        string               `json:"description"`
	Code               string               `json:"code"`
	StartDate          time.Time            `json:"startDate"`
	EndDate            time.Time            `json:"endDate"`
	ActualStartDate    *time.Time           `json:"actualStartDate,omitempty"`
	ActualEndDate      *time.Time           `json:"actualEndDate,omitempty"`
	Status             domain.ProjectStatus `json:"status"`
	Type               domain.ProjectType   `json:"type"`
	Priority           domain.Priority      `json:"priority"`
	Budget             decimal.Decimal      `json:"budget"`
	ActualCost         decimal.Decimal      `json:"actualCost"`
	Progress           int                  `json:"progress"`
	CustomerID         int                  `json:"customerId"`
	CustomerName       string               `json:"customerName"`
	ProjectManagerID   int                  `json:"projectManagerId"`
	ProjectManagerName string               `json:"projectManagerName"`
	IsOverBudget       bool                 `json:"isOverBudget"`
	IsDelayed          bool                 `json:"isDelayed"`
	CreatedAt          time.Time            `json:"createdAt"`
}

// ProjectDetailDto is a project with its customer, manager, team and recent work.
type ProjectDetailDto struct {
	ID                  int                  `json:"id"`
	Name                string               `json:"name"`
	Description         string               `json:"description"`
	Code                string               `json:"code"`
	StartDate           time.Time            `json:"startDate"`
	EndDate             time.Time            `json:"endDate"`
	ActualStartDate     *time.Time           `json:"actualStartDate,omitempty"`
	ActualEndDate       *time.Time           `json:"actualEndDate,omitempty"`
	Status              domain.ProjectStatus `json:"status"`
	Type                domain.ProjectType   `json:"type"`
	Priority            domain.Priority      `json:"priority"`
	Budget              decimal.Decimal      `json:"budget"`
	ActualCost          decimal.Decimal      `json:"actualCost"`
	Progress            int                  `json:"progress"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
	CustomerID          int                  `json:"customerId"`
	CustomerName        string               `json:"customerName"`
	CustomerContact     string               `json:"customerContact"`
	CustomerEmail       string               `json:"customerEmail"`
	ProjectManagerID    int                  `json:"projectManagerId"`
	ProjectManagerName  string               `json:"projectManagerName"`
	ProjectManagerEmail string               `json:"projectManagerEmail"`

	TotalTasks        int     `json:"totalTasks"`
	CompletedTasks    int     `json:"completedTasks"`
	ActiveMembers     int     `json:"activeMembers"`
	TotalHoursLogged  float64 `json:"totalHoursLogged"`
	BudgetUtilization float64 `json:"budgetUtilization"`

	Members     []ProjectMemberDto `json:"members"`
	RecentTasks []ProjectTaskDto   `json:"recentTasks"`
}

type ProjectMemberDto struct {
	UserID               int                `json:"userId"`
	UserName             string             `json:"userName"`
	UserEmail            string             `json:"userEmail"`
	Role                 domain.ProjectRole `json:"role"`
	AllocationPercentage int                `json:"allocationPercentage"`
	AssignedDate         time.Time          `json:"assignedDate"`
	HourlyRate           *decimal.Decimal   `json:"hourlyRate,omitempty"`
}

type ProjectTaskDto struct {
	ID           int               `json:"id"`
	Title        string            `json:"title"`
	Status       domain.TaskStatus `json:"status"`
	Priority     domain.Priority   `json:"priority"`
	DueDate      *time.Time        `json:"dueDate,omitempty"`
	AssigneeName string            `json:"assigneeName"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// budgetUtilization is ActualCost/Budget*100, 0 without a budget.
func budgetUtilization(actualCost, budget decimal.Decimal) float64 {
	if !budget.IsPositive() {
		return 0
	}
	return actualCost.Div(budget).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
