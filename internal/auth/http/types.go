package http

import (
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

type Handler struct {
	issuer *auth.JWTIssuer
	clock  clock.Clock
}

func New(issuer *auth.JWTIssuer, clk clock.Clock) *Handler {
	if clk == nil {
		clk = clock.System{}
	}
	return &Handler{
		issuer: issuer,
		clock:  clk,
	}
}

type mockLoginRequest struct {
	Email     string `json:"email"`
	CompanyID *int   `json:"companyId"`
}

type loginUser struct {
	ID         int    `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	CompanyID  int    `json:"companyId"`
	Department string `json:"department"`
	Position   string `json:"position"`
}
