package auth

import (
	"context"
	"errors"
	"strconv"

	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/domain"
)

// TokenVerifier turns a raw bearer token into a Principal.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*Principal, error)
}

// ChainVerifier tries each verifier in order and returns the first success.
type ChainVerifier []TokenVerifier

func (c ChainVerifier) Verify(ctx context.Context, raw string) (*Principal, error) {
	var errs []error
	for _, v := range c {
		if v == nil {
			continue
		}
		p, err := v.Verify(ctx, raw)
		if err == nil {
			return p, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, domain.ErrInvalidToken
	}
	return nil, errors.Join(errs...)
}

var customClaims = []string{ClaimCompanyID, ClaimBusinessUserID, ClaimDepartment, ClaimPosition}

// principalFromClaims maps a decoded claim set, from either token source,
// onto a Principal.
func principalFromClaims(claims map[string]any) *Principal {
	p := &Principal{
		Subject:   firstString(claims, "nameid", "sub"),
		Name:      firstString(claims, "name"),
		GivenName: firstString(claims, "given_name"),
		Surname:   firstString(claims, "family_name"),
		Email:     firstString(claims, "email"),
		Custom:    map[string]string{},
	}
	p.Roles = append(stringList(claims["role"]), stringList(claims["roles"])...)
	p.Permissions = append(stringList(claims["permission"]), stringList(claims["Permission"])...)

	for _, key := range customClaims {
		if v, ok := claims[key]; ok {
			if s := claimString(v); s != "" {
				p.Custom[key] = s
			}
		}
	}
	return p
}

func firstString(claims map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := claims[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	}
	return ""
}
