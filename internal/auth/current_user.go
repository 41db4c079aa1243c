package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/domain"
)

// AccountStore is the part of the identity store the resolver reads and repairs.
type AccountStore interface {
	GetByID(ctx context.Context, id string) (*domain.ApplicationUser, error)
	SetBusinessUserID(ctx context.Context, id string, businessUserID int) error
}

// BusinessUserFinder finds a non-deleted business user of a company by email.
// It returns 0 when there is no match.
type BusinessUserFinder interface {
	FindIDByEmail(ctx context.Context, companyID int, email string) (int, error)
}

const defaultRepairTimeout = 10 * time.Second

// Resolver builds request-scoped users and owns the background link repairs
// they start.
type Resolver struct {
	accounts AccountStore
	users    BusinessUserFinder
	logger   *zap.Logger

	repairs       sync.WaitGroup
	repairTimeout time.Duration
}

func NewResolver(accounts AccountStore, users BusinessUserFinder, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		accounts:      accounts,
		users:         users,
		logger:        logger.Named("current_user"),
		repairTimeout: defaultRepairTimeout,
	}
}

// ForPrincipal returns a fresh CurrentUser for one request.
func (r *Resolver) ForPrincipal(p *Principal) *CurrentUser {
	return &CurrentUser{principal: p, resolver: r}
}

// Wait blocks until every background link repair has finished.
func (r *Resolver) Wait() {
	r.repairs.Wait()
}

func (r *Resolver) repairLink(ctx context.Context, identityUserID string, businessUserID int) {
	r.repairs.Add(1)
	go func() {
		defer r.repairs.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.repairTimeout)
		defer cancel()

		if err := r.accounts.SetBusinessUserID(ctx, identityUserID, businessUserID); err != nil {
			r.logger.Warn("failed to update application user business id",
				zap.String("identity_user_id", identityUserID),
				zap.Int("business_user_id", businessUserID),
				zap.Error(err))
			return
		}
		r.logger.Debug("linked application user to business user",
			zap.String("identity_user_id", identityUserID),
			zap.Int("business_user_id", businessUserID))
	}()
}

// CurrentUser is the caller of one request. Resolved ids are computed once
// and reused for the rest of the request.
type CurrentUser struct {
	principal *Principal
	resolver  *Resolver

	mu             sync.Mutex
	businessUserID atomic.Pointer[int]
	companyID      atomic.Pointer[int]
	userName       atomic.Pointer[string]

	account       *domain.ApplicationUser
	accountLoaded bool
}

// Anonymous returns an unauthenticated user.
func Anonymous() *CurrentUser {
	return &CurrentUser{}
}

func (u *CurrentUser) IsAuthenticated() bool {
	return u != nil && u.principal != nil
}

func (u *CurrentUser) Principal() *Principal {
	if u == nil {
		return nil
	}
	return u.principal
}

// IdentityUserID is the token subject, "" when anonymous.
func (u *CurrentUser) IdentityUserID() string {
	if !u.IsAuthenticated() {
		return ""
	}
	return u.principal.Subject
}

func (u *CurrentUser) Email() string {
	if !u.IsAuthenticated() {
		return ""
	}
	return u.principal.Email
}

func (u *CurrentUser) Roles() []string {
	if !u.IsAuthenticated() {
		return nil
	}
	return u.principal.Roles
}

// BusinessUserID resolves the business-domain user id: the claim first, then
// the linked application user, then an email match inside the same company.
// A store failure yields 0 and the error, and is not cached.
func (u *CurrentUser) BusinessUserID(ctx context.Context) (int, error) {
	if !u.IsAuthenticated() {
		return 0, nil
	}
	if v := u.businessUserID.Load(); v != nil {
		return *v, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if v := u.businessUserID.Load(); v != nil {
		return *v, nil
	}

	id, err := u.resolveBusinessUserID(ctx)
	if err != nil {
		return 0, err
	}
	u.businessUserID.Store(&id)
	return id, nil
}

func (u *CurrentUser) resolveBusinessUserID(ctx context.Context) (int, error) {
	if id := u.principal.IntClaim(ClaimBusinessUserID); id > 0 {
		return id, nil
	}

	account, err := u.loadAccount(ctx)
	if err != nil || account == nil {
		return 0, err
	}
	if account.BusinessUserID != nil && *account.BusinessUserID > 0 {
		return *account.BusinessUserID, nil
	}

	if account.Email == "" || u.resolver.users == nil {
		return 0, nil
	}
	id, err := u.resolver.users.FindIDByEmail(ctx, account.CompanyID, account.Email)
	if err != nil {
		return 0, fmt.Errorf("failed to match business user by email: %w", err)
	}
	if id <= 0 {
		u.resolver.logger.Warn("no business user found for identity user",
			zap.String("identity_user_id", account.ID),
			zap.Int("company_id", account.CompanyID))
		return 0, nil
	}

	u.resolver.repairLink(ctx, account.ID, id)
	return id, nil
}

// CompanyID resolves the tenant: the claim first, then the application user row.
func (u *CurrentUser) CompanyID(ctx context.Context) (int, error) {
	if !u.IsAuthenticated() {
		return 0, nil
	}
	if v := u.companyID.Load(); v != nil {
		return *v, nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if v := u.companyID.Load(); v != nil {
		return *v, nil
	}

	id := u.principal.IntClaim(ClaimCompanyID)
	if id < 0 {
		id = 0
	}
	if id == 0 {
		account, err := u.loadAccount(ctx)
		if err != nil {
			return 0, err
		}
		if account != nil && account.CompanyID > 0 {
			id = account.CompanyID
		}
	}
	u.companyID.Store(&id)
	return id, nil
}

// UserName prefers the name claim, then given name and surname, then the
// local part of the email.
func (u *CurrentUser) UserName() string {
	if !u.IsAuthenticated() {
		return ""
	}
	if v := u.userName.Load(); v != nil {
		return *v
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if v := u.userName.Load(); v != nil {
		return *v
	}

	name := u.resolveUserName()
	u.userName.Store(&name)
	return name
}

func (u *CurrentUser) resolveUserName() string {
	p := u.principal
	if p.Name != "" {
		return p.Name
	}
	if p.GivenName != "" || p.Surname != "" {
		return strings.TrimSpace(p.GivenName + " " + p.Surname)
	}
	if p.Email != "" {
		local, _, _ := strings.Cut(p.Email, "@")
		return local
	}
	return ""
}

// loadAccount must be called with mu held.
func (u *CurrentUser) loadAccount(ctx context.Context) (*domain.ApplicationUser, error) {
	if u.accountLoaded {
		return u.account, nil
	}
	if u.resolver == nil || u.resolver.accounts == nil || u.principal.Subject == "" {
		u.accountLoaded = true
		return nil, nil
	}

	account, err := u.resolver.accounts.GetByID(ctx, u.principal.Subject)
	if errors.Is(err, domain.ErrUserNotFound) {
		u.resolver.logger.Warn("application user not found", zap.String("identity_user_id", u.principal.Subject))
		account, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load application user: %w", err)
	}
	u.account = account
	u.accountLoaded = true
	return account, nil
}

func (u *CurrentUser) IsInRole(role string) bool {
	for _, r := range u.Roles() {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}
