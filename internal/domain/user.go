package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// User is the business-domain employee record. It is distinct from the
// identity provider's account, which links to it by id.
type User struct {
	BaseEntity
	FirstName     string           `json:"firstName"`
	LastName      string           `json:"lastName"`
	Email         string           `json:"email"`
	PasswordHash  string           `json:"-"`
	Phone         *string          `json:"phone,omitempty"`
	EmployeeID    *string          `json:"employeeId,omitempty"`
	Department    Department       `json:"department"`
	Position      *string          `json:"position,omitempty"`
	HireDate      *time.Time       `json:"hireDate,omitempty"`
	Status        UserStatus       `json:"status"`
	HourlyRate    *decimal.Decimal `json:"hourlyRate,omitempty"`
	MonthlySalary *decimal.Decimal `json:"monthlySalary,omitempty"`
	ProfileImage  *string          `json:"profileImage,omitempty"`
	Skills        *string          `json:"skills,omitempty"`
	LastLoginAt   *time.Time       `json:"lastLoginAt,omitempty"`
}

func (u *User) FullName() string {
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

func (u *User) DisplayName() string {
	if u.Position != nil && *u.Position != "" {
		return fmt.Sprintf("%s (%s)", u.FullName(), *u.Position)
	}
	return u.FullName()
}
