package domain

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrDuplicateEmail  = errors.New("email is already taken")
	ErrDuplicateName   = errors.New("user name is already taken")
	ErrLockedOut       = errors.New("user is locked out")
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidPassword = errors.New("invalid password")
)

const DefaultStatus = "Active"

// ApplicationUser is the identity provider's account. It links to the
// business-domain users row through BusinessUserID once that row exists.
type ApplicationUser struct {
	ID                string     `json:"id"`
	UserName          string     `json:"userName"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	CompanyID         int        `json:"companyId"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Department        string     `json:"department"`
	Position          string     `json:"position"`
	HireDate          *time.Time `json:"hireDate,omitempty"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
	IsDeleted         bool       `json:"isDeleted"`
	BusinessUserID    *int       `json:"businessUserId,omitempty"`
	AccessFailedCount int        `json:"-"`
	LockoutEnd        *time.Time `json:"-"`
	EmailConfirmed    bool       `json:"emailConfirmed"`
	Roles             []string   `json:"roles,omitempty"`
}

// IsLockedOut reports whether a lockout window is still open at now.
func (u *ApplicationUser) IsLockedOut(now time.Time) bool {
	return u.LockoutEnd != nil && u.LockoutEnd.After(now)
}
