package users

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	authdomain "github.com/GoSim-25-26J-441/erp-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/storage/postgres"
)

// Store is the users table as the service needs it.
type Store interface {
	FindIDByEmail(ctx context.Context, companyID int, email string) (int, error)
	Get(ctx context.Context, id int) (*domain.User, error)
	ListByCompany(ctx context.Context, companyID int) ([]domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
}

// BusinessUserService manages employee records and their link to identity accounts.
type BusinessUserService struct {
	store    Store
	accounts auth.AccountStore
	auditor  *postgres.Auditor
	logger   *zap.Logger
}

func NewBusinessUserService(store Store, accounts auth.AccountStore, auditor *postgres.Auditor, logger *zap.Logger) *BusinessUserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BusinessUserService{store: store, accounts: accounts, auditor: auditor, logger: logger.Named("users")}
}

func (s *BusinessUserService) GetUser(ctx context.Context, id int) (*domain.User, error) {
	return s.store.Get(ctx, id)
}

// CreateUser inserts u and, when identityUserID is set, links the identity
// account to the new record.
func (s *BusinessUserService) CreateUser(ctx context.Context, u *domain.User, identityUserID string) (*domain.User, error) {
	if u.Status == "" {
		u.Status = domain.UserStatusActive
	}
	s.auditor.OnCreate(ctx, &u.BaseEntity, domain.KindUser)

	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}

	if identityUserID != "" && s.accounts != nil {
		if err := s.accounts.SetBusinessUserID(ctx, identityUserID, u.ID); err != nil {
			return nil, fmt.Errorf("failed to link identity user %s: %w", identityUserID, err)
		}
	}

	s.logger.Info("business user created",
		zap.Int("user_id", u.ID),
		zap.Int("company_id", u.CompanyID),
		zap.String("identity_user_id", identityUserID))
	return u, nil
}

// UpdateUser copies the editable fields of changes onto the stored record.
func (s *BusinessUserService) UpdateUser(ctx context.Context, changes *domain.User) (*domain.User, error) {
	u, err := s.store.Get(ctx, changes.ID)
	if err != nil {
		return nil, err
	}

	u.FirstName = changes.FirstName
	u.LastName = changes.LastName
	u.Email = changes.Email
	u.Phone = changes.Phone
	u.EmployeeID = changes.EmployeeID
	u.Department = changes.Department
	u.Position = changes.Position
	u.HireDate = changes.HireDate
	u.HourlyRate = changes.HourlyRate
	u.MonthlySalary = changes.MonthlySalary
	u.ProfileImage = changes.ProfileImage
	u.Skills = changes.Skills
	if changes.Status != "" {
		u.Status = changes.Status
	}

	s.auditor.OnUpdate(ctx, &u.BaseEntity, domain.KindUser)
	if err := s.store.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// DeactivateUser marks the user inactive and soft-deletes the row.
func (s *BusinessUserService) DeactivateUser(ctx context.Context, id int) error {
	u, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	u.Status = domain.UserStatusInactive
	u.IsDeleted = true
	s.auditor.OnUpdate(ctx, &u.BaseEntity, domain.KindUser)
	return s.store.Update(ctx, u)
}

func (s *BusinessUserService) GetUsersByCompany(ctx context.Context, companyID int) ([]domain.User, error) {
	return s.store.ListByCompany(ctx, companyID)
}

// GetUserByIdentityID follows the account's link, falling back to an email
// match inside the account's company.
func (s *BusinessUserService) GetUserByIdentityID(ctx context.Context, identityUserID string) (*domain.User, error) {
	if s.accounts == nil {
		return nil, apperr.NewNotFound("User", identityUserID)
	}

	account, err := s.accounts.GetByID(ctx, identityUserID)
	if errors.Is(err, authdomain.ErrUserNotFound) {
		return nil, apperr.NewNotFound("User", identityUserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load identity user: %w", err)
	}

	if account.BusinessUserID != nil && *account.BusinessUserID > 0 {
		return s.store.Get(ctx, *account.BusinessUserID)
	}

	id, err := s.store.FindIDByEmail(ctx, account.CompanyID, account.Email)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, apperr.NewNotFound("User", identityUserID)
	}
	return s.store.Get(ctx, id)
}
