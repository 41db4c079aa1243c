package auth

import (
	"strconv"
	"strings"
)

// Custom claim names carried by access tokens.
const (
	ClaimCompanyID      = "CompanyId"
	ClaimBusinessUserID = "BusinessUserId"
	ClaimDepartment     = "Department"
	ClaimPosition       = "Position"
)

// Principal is the claim set of a verified token.
type Principal struct {
	Subject     string
	Name        string
	GivenName   string
	Surname     string
	Email       string
	Roles       []string
	Permissions []string
	Custom      map[string]string
}

func (p *Principal) Claim(key string) string {
	if p == nil || p.Custom == nil {
		return ""
	}
	return p.Custom[key]
}

// IntClaim parses a numeric custom claim, returning 0 when it is missing or malformed.
func (p *Principal) IntClaim(key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(p.Claim(key)))
	if err != nil {
		return 0
	}
	return v
}
