package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/GoSim-25-26J-441/erp-backend/config"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

const clockSkew = 5 * time.Minute

// JWTIssuer signs and verifies HS256 access tokens.
type JWTIssuer struct {
	secret   []byte
	issuer   string
	audience string
	expiry   time.Duration
	clock    clock.Clock
}

func NewJWTIssuer(cfg config.JWTConfig, clk clock.Clock) *JWTIssuer {
	if clk == nil {
		clk = clock.System{}
	}
	return &JWTIssuer{
		secret:   []byte(cfg.SecretKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		expiry:   cfg.Expiry,
		clock:    clk,
	}
}

// Issue signs a token for p and returns it with its expiry.
func (i *JWTIssuer) Issue(p *Principal) (string, time.Time, error) {
	now := i.clock.UTCNow()
	expiresAt := now.Add(i.expiry)

	claims := jwt.MapClaims{
		"sub":    p.Subject,
		"nameid": p.Subject,
		"jti":    uuid.NewString(),
		"iss":    i.issuer,
		"aud":    i.audience,
		"iat":    now.Unix(),
		"nbf":    now.Unix(),
		"exp":    expiresAt.Unix(),
	}
	setIfNotEmpty(claims, "name", p.Name)
	setIfNotEmpty(claims, "email", p.Email)
	setIfNotEmpty(claims, "given_name", p.GivenName)
	setIfNotEmpty(claims, "family_name", p.Surname)
	if len(p.Roles) > 0 {
		claims["role"] = p.Roles
	}
	if len(p.Permissions) > 0 {
		claims["permission"] = p.Permissions
	}
	for k, v := range p.Custom {
		setIfNotEmpty(claims, k, v)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks the signature, issuer, audience and lifetime of raw.
func (i *JWTIssuer) Verify(_ context.Context, raw string) (*Principal, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}

	now := i.clock.UTCNow()
	switch {
	case !claims.VerifyExpiresAt(now.Add(-clockSkew).Unix(), true):
		return nil, fmt.Errorf("%w: token expired", domain.ErrInvalidToken)
	case !claims.VerifyNotBefore(now.Add(clockSkew).Unix(), false):
		return nil, fmt.Errorf("%w: token not valid yet", domain.ErrInvalidToken)
	case !claims.VerifyIssuer(i.issuer, true):
		return nil, fmt.Errorf("%w: unexpected issuer", domain.ErrInvalidToken)
	case !claims.VerifyAudience(i.audience, true):
		return nil, fmt.Errorf("%w: unexpected audience", domain.ErrInvalidToken)
	}

	p := principalFromClaims(claims)
	if p.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrInvalidToken)
	}
	return p, nil
}

func setIfNotEmpty(claims jwt.MapClaims, key, value string) {
	if value != "" {
		claims[key] = value
	}
}
