package domain

import "time"

type Company struct {
	BaseEntity
	Name               string           `json:"name"`
	Domain             string           `json:"domain"`
	ContactEmail       *string          `json:"contactEmail,omitempty"`
	ContactPhone       *string          `json:"contactPhone,omitempty"`
	Plan               SubscriptionPlan `json:"plan"`
	SubscriptionExpiry *time.Time       `json:"subscriptionExpiry,omitempty"`
	Settings           *string          `json:"settings,omitempty"`
	Logo               *string          `json:"logo,omitempty"`
	Address            *string          `json:"address,omitempty"`
	BusinessNumber     *string          `json:"businessNumber,omitempty"`
}

func NewCompany(name, domain string) *Company {
	return &Company{Name: name, Domain: domain, Plan: PlanFree}
}
