package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

const (
	maxFailedAccess   = 5
	lockoutDuration   = 5 * time.Minute
	minPasswordLength = 8
	userTokenLifetime = 24 * time.Hour

	purposeResetPassword = "ResetPassword"
	purposeConfirmEmail  = "EmailConfirmation"
)

// UserStore is implemented by repository.UserRepository.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*domain.ApplicationUser, error)
	GetByUserName(ctx context.Context, userName string) (*domain.ApplicationUser, error)
	GetByEmail(ctx context.Context, email string) (*domain.ApplicationUser, error)
	Create(ctx context.Context, user *domain.ApplicationUser) error
	Update(ctx context.Context, user *domain.ApplicationUser) error
	Delete(ctx context.Context, id string) error
	GetRoles(ctx context.Context, id string) ([]string, error)
	AddRole(ctx context.Context, id, role string) error
	RemoveRole(ctx context.Context, id, role string) error
}

// IdentityService manages application users: passwords, roles and
// one-time tokens for password reset and email confirmation.
type IdentityService struct {
	store       UserStore
	tokenSecret []byte
	clock       clock.Clock
	hashCost    int
}

func NewIdentityService(store UserStore, tokenSecret string, clk clock.Clock) *IdentityService {
	if clk == nil {
		clk = clock.System{}
	}
	return &IdentityService{
		store:       store,
		tokenSecret: []byte(tokenSecret),
		clock:       clk,
		hashCost:    bcrypt.DefaultCost,
	}
}

var errUserNotFound = apperr.Failed("User not found.")

// GetUserName returns "" when the user does not exist.
func (s *IdentityService) GetUserName(ctx context.Context, userID string) (string, error) {
	user, err := s.find(ctx, userID)
	if err != nil || user == nil {
		return "", err
	}
	return user.UserName, nil
}

// GetUserID returns "" when no user has that name.
func (s *IdentityService) GetUserID(ctx context.Context, userName string) (string, error) {
	user, err := s.store.GetByUserName(ctx, userName)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user by name: %w", err)
	}
	return user.ID, nil
}

func (s *IdentityService) IsInRole(ctx context.Context, userID, role string) (bool, error) {
	roles, err := s.GetUserRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			return true, nil
		}
	}
	return false, nil
}

// Authorize evaluates a permission policy against the user's roles.
func (s *IdentityService) Authorize(ctx context.Context, userID, policy string) (bool, error) {
	user, err := s.find(ctx, userID)
	if err != nil || user == nil {
		return false, err
	}
	roles, err := s.store.GetRoles(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("failed to get roles: %w", err)
	}
	return auth.RolesGrant(roles, policy), nil
}

// CreateUser registers userName, which doubles as the email, under the
// caller's company.
func (s *IdentityService) CreateUser(ctx context.Context, userName, password string) (apperr.Result, string, error) {
	if problems := validatePassword(password); len(problems) > 0 {
		return apperr.Failed(problems...), "", nil
	}

	if _, err := s.store.GetByEmail(ctx, userName); err == nil {
		return apperr.Failed(fmt.Sprintf("Email '%s' is already taken.", userName)), "", nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return apperr.Result{}, "", fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return apperr.Result{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	companyID, _ := auth.FromContext(ctx).CompanyID(ctx)
	user := &domain.ApplicationUser{
		ID:           uuid.NewString(),
		UserName:     userName,
		Email:        userName,
		PasswordHash: string(hash),
		CompanyID:    companyID,
		Status:       domain.DefaultStatus,
	}

	if err := s.store.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateEmail):
			return apperr.Failed(fmt.Sprintf("Email '%s' is already taken.", userName)), "", nil
		case errors.Is(err, domain.ErrDuplicateName):
			return apperr.Failed(fmt.Sprintf("Username '%s' is already taken.", userName)), "", nil
		}
		return apperr.Result{}, "", fmt.Errorf("failed to create user: %w", err)
	}

	return apperr.Success(), user.ID, nil
}

// DeleteUser succeeds when the user is already gone.
func (s *IdentityService) DeleteUser(ctx context.Context, userID string) (apperr.Result, error) {
	err := s.store.Delete(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return apperr.Result{}, fmt.Errorf("failed to delete user: %w", err)
	}
	return apperr.Success(), nil
}

func (s *IdentityService) GetUserRoles(ctx context.Context, userID string) ([]string, error) {
	user, err := s.find(ctx, userID)
	if err != nil || user == nil {
		return []string{}, err
	}
	roles, err := s.store.GetRoles(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	return roles, nil
}

func (s *IdentityService) AddToRole(ctx context.Context, userID, role string) (apperr.Result, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return apperr.Result{}, err
	}
	if user == nil {
		return errUserNotFound, nil
	}
	if err := s.store.AddRole(ctx, user.ID, role); err != nil {
		return apperr.Result{}, fmt.Errorf("failed to add role: %w", err)
	}
	return apperr.Success(), nil
}

func (s *IdentityService) RemoveFromRole(ctx context.Context, userID, role string) (apperr.Result, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return apperr.Result{}, err
	}
	if user == nil {
		return errUserNotFound, nil
	}
	if err := s.store.RemoveRole(ctx, user.ID, role); err != nil {
		return apperr.Result{}, fmt.Errorf("failed to remove role: %w", err)
	}
	return apperr.Success(), nil
}

// CheckPassword counts failures toward a lockout. A locked out user fails
// even with the right password; a success clears the counter.
func (s *IdentityService) CheckPassword(ctx context.Context, userID, password string) (bool, error) {
	user, err := s.find(ctx, userID)
	if err != nil || user == nil {
		return false, err
	}

	now := s.clock.UTCNow()
	if user.IsLockedOut(now) {
		return false, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		user.AccessFailedCount++
		if user.AccessFailedCount >= maxFailedAccess {
			end := now.Add(lockoutDuration)
			user.LockoutEnd = &end
			user.AccessFailedCount = 0
		}
		if err := s.store.Update(ctx, user); err != nil {
			return false, fmt.Errorf("failed to record failed access: %w", err)
		}
		return false, nil
	}

	if user.AccessFailedCount > 0 || user.LockoutEnd != nil {
		user.AccessFailedCount = 0
		user.LockoutEnd = nil
		if err := s.store.Update(ctx, user); err != nil {
			return false, fmt.Errorf("failed to reset failed access: %w", err)
		}
	}
	return true, nil
}

func (s *IdentityService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (apperr.Result, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return apperr.Result{}, err
	}
	if user == nil {
		return errUserNotFound, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return apperr.Failed("Incorrect password."), nil
	}
	return s.setPassword(ctx, user, newPassword)
}

func (s *IdentityService) ResetPassword(ctx context.Context, userID, token, newPassword string) (apperr.Result, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return apperr.Result{}, err
	}
	if user == nil {
		return errUserNotFound, nil
	}
	if !s.verifyUserToken(user, purposeResetPassword, token) {
		return apperr.Failed("Invalid token."), nil
	}
	return s.setPassword(ctx, user, newPassword)
}

func (s *IdentityService) GeneratePasswordResetToken(ctx context.Context, userID string) (string, error) {
	return s.generateToken(ctx, userID, purposeResetPassword)
}

func (s *IdentityService) GenerateEmailConfirmationToken(ctx context.Context, userID string) (string, error) {
	return s.generateToken(ctx, userID, purposeConfirmEmail)
}

func (s *IdentityService) ConfirmEmail(ctx context.Context, userID, token string) (apperr.Result, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return apperr.Result{}, err
	}
	if user == nil {
		return errUserNotFound, nil
	}
	if !s.verifyUserToken(user, purposeConfirmEmail, token) {
		return apperr.Failed("Invalid token."), nil
	}

	user.EmailConfirmed = true
	if err := s.store.Update(ctx, user); err != nil {
		return apperr.Result{}, fmt.Errorf("failed to confirm email: %w", err)
	}
	return apperr.Success(), nil
}

func (s *IdentityService) IsEmailConfirmed(ctx context.Context, userID string) (bool, error) {
	user, err := s.find(ctx, userID)
	if err != nil || user == nil {
		return false, err
	}
	return user.EmailConfirmed, nil
}

func (s *IdentityService) setPassword(ctx context.Context, user *domain.ApplicationUser, password string) (apperr.Result, error) {
	if problems := validatePassword(password); len(problems) > 0 {
		return apperr.Failed(problems...), nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return apperr.Result{}, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := s.store.Update(ctx, user); err != nil {
		return apperr.Result{}, fmt.Errorf("failed to update password: %w", err)
	}
	return apperr.Success(), nil
}

// find returns nil, nil for a missing user.
func (s *IdentityService) find(ctx context.Context, userID string) (*domain.ApplicationUser, error) {
	user, err := s.store.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

type userTokenClaims struct {
	Purpose string `json:"purpose"`
	Stamp   string `json:"stamp"`
	jwt.RegisteredClaims
}

func (s *IdentityService) generateToken(ctx context.Context, userID, purpose string) (string, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrUserNotFound, userID)
	}

	now := s.clock.UTCNow()
	claims := userTokenClaims{
		Purpose: purpose,
		Stamp:   securityStamp(user),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(userTokenLifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.tokenSecret)
}

func (s *IdentityService) verifyUserToken(user *domain.ApplicationUser, purpose, raw string) bool {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims userTokenClaims
	if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.tokenSecret, nil
	}); err != nil {
		return false
	}

	return claims.Subject == user.ID &&
		claims.Purpose == purpose &&
		claims.Stamp == securityStamp(user) &&
		claims.VerifyExpiresAt(s.clock.UTCNow(), true)
}

// securityStamp changes whenever the password or email changes, which
// invalidates outstanding tokens.
func securityStamp(user *domain.ApplicationUser) string {
	sum := sha256.Sum256([]byte(user.PasswordHash + "|" + strings.ToLower(user.Email)))
	return hex.EncodeToString(sum[:8])
}

func validatePassword(password string) []string {
	var problems []string
	if len(password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("Passwords must be at least %d characters.", minPasswordLength))
	}

	var digit, lower, upper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	if !digit {
		problems = append(problems, "Passwords must have at least one digit ('0'-'9').")
	}
	if !lower {
		problems = append(problems, "Passwords must have at least one lowercase ('a'-'z').")
	}
	if !upper {
		problems = append(problems, "Passwords must have at least one uppercase ('A'-'Z').")
	}
	return problems
}
