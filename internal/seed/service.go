// Package seed creates and removes a demo tenant so the API can be tried
// without preparing data by hand.
package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
	"github.com/GoSim-25-26J-441/erp-backend/internal/domain"
)

const demoPassword = "Demo123!"

var ErrNotDevelopment = errors.New("seed data can only be cleaned in development")

type Counts struct {
	Companies int `json:"companies"`
	Users     int `json:"users"`
	Customers int `json:"customers"`
	Projects  int `json:"projects"`
}

// Demo is the data set written by CreateSafeData. Projects reference users
// and customers by position until the store has assigned ids.
type Demo struct {
	Company   *domain.Company
	Users     []*domain.User
	Customers []*domain.Customer
	Projects  []*domain.Project

	projectCustomer []int
	projectManager  int
	technicalLead   int
}

// link copies the new company, user and customer ids onto the dependants.
func (d *Demo) link() {
	for _, u := range d.Users {
		u.CompanyID = d.Company.ID
	}
	for _, c := range d.Customers {
		c.CompanyID = d.Company.ID
	}
	lead := d.Users[d.technicalLead].ID
	for i, p := range d.Projects {
		p.CompanyID = d.Company.ID
		p.CustomerID = d.Customers[d.projectCustomer[i]].ID
		p.ProjectManagerID = d.Users[d.projectManager].ID
		p.TechnicalLeadID = &lead
	}
}

type Store interface {
	Counts(ctx context.Context) (Counts, error)
	LatestCompany(ctx context.Context) (*domain.Company, error)
	// Seed writes d in one transaction, filling in every id.
	Seed(ctx context.Context, d *Demo) error
	// Clean deletes all tenant data and reports what went.
	Clean(ctx context.Context) (Counts, error)
}

type TestUsers struct {
	Admin     string `json:"admin"`
	PM        string `json:"pm"`
	Developer string `json:"developer"`
}

type CreateResult struct {
	Message           string     `json:"message"`
	ExistingCompanies int        `json:"existingCompanies,omitempty"`
	Created           *Counts    `json:"created,omitempty"`
	CompanyID         int        `json:"companyId,omitempty"`
	CompanyDomain     string     `json:"companyDomain,omitempty"`
	Ready             bool       `json:"ready"`
	TestUsers         *TestUsers `json:"testUsers,omitempty"`
	Timestamp         time.Time  `json:"timestamp"`
}

type LatestCompany struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"createdAt"`
}

type Status struct {
	Message       string         `json:"message"`
	Counts        Counts         `json:"counts"`
	Ready         bool           `json:"ready"`
	LatestCompany *LatestCompany `json:"latestCompany"`
	Timestamp     time.Time      `json:"timestamp"`
}

type Service struct {
	store       Store
	clock       clock.Clock
	environment string
	bcryptCost  int
	logger      *zap.Logger
}

func NewService(store Store, clk clock.Clock, environment string, logger *zap.Logger) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		clock:       clk,
		environment: environment,
		bcryptCost:  bcrypt.DefaultCost,
		logger:      logger.Named("seed"),
	}
}

// CreateSafeData seeds one demo company unless any company exists already.
func (s *Service) CreateSafeData(ctx context.Context) (*CreateResult, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	now := s.clock.UTCNow()
	if counts.Companies > 0 {
		return &CreateResult{
			Message:           "Seed data already exists. Call POST /api/seeddata/clean-data first.",
			ExistingCompanies: counts.Companies,
			Timestamp:         now,
		}, nil
	}

	demo, users, err := s.buildDemo()
	if err != nil {
		return nil, err
	}
	if err := s.store.Seed(ctx, demo); err != nil {
		return nil, fmt.Errorf("failed to seed demo data: %w", err)
	}

	s.logger.Info("demo data created", zap.Int("company_id", demo.Company.ID), zap.String("domain", demo.Company.Domain))
	return &CreateResult{
		Message: "Demo data created.",
		Created: &Counts{
			Companies: 1,
			Users:     len(demo.Users),
			Customers: len(demo.Customers),
			Projects:  len(demo.Projects),
		},
		CompanyID:     demo.Company.ID,
		CompanyDomain: demo.Company.Domain,
		Ready:         true,
		TestUsers:     users,
		Timestamp:     now,
	}, nil
}

// CleanData wipes every tenant. It refuses outside development.
func (s *Service) CleanData(ctx context.Context) (Counts, error) {
	if !strings.EqualFold(s.environment, "development") {
		return Counts{}, ErrNotDevelopment
	}
	counts, err := s.store.Clean(ctx)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to clean data: %w", err)
	}
	s.logger.Warn("all tenant data deleted",
		zap.Int("projects", counts.Projects),
		zap.Int("customers", counts.Customers),
		zap.Int("users", counts.Users),
		zap.Int("companies", counts.Companies))
	return counts, nil
}

func (s *Service) Status(ctx context.Context) (*Status, error) {
	counts, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	st := &Status{
		Message:   "Current database status",
		Counts:    counts,
		Ready:     counts.Companies > 0 && counts.Users > 0 && counts.Customers > 0,
		Timestamp: s.clock.UTCNow(),
	}

	latest, err := s.store.LatestCompany(ctx)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		st.LatestCompany = &LatestCompany{ID: latest.ID, Name: latest.Name, Domain: latest.Domain, CreatedAt: latest.CreatedAt}
	}
	return st, nil
}

func (s *Service) buildDemo() (*Demo, *TestUsers, error) {
	now := s.clock.UTCNow()
	today := clock.Today(s.clock)
	ts := now.UnixMilli()

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash demo password: %w", err)
	}

	stamp := func(e *domain.BaseEntity) {
		e.CreatedAt = now
		e.UpdatedAt = now
	}

	company := domain.NewCompany(fmt.Sprintf("Demo Company %d", ts), fmt.Sprintf("demo-%d", ts))
	company.Plan = domain.PlanProfessional
	company.ContactEmail = ptr(fmt.Sprintf("admin-%d@demo.com", ts))
	company.ContactPhone = ptr("02-1234-5678")
	stamp(&company.BaseEntity)

	testUsers := &TestUsers{
		Admin:     fmt.Sprintf("admin-%d@demo.com", ts),
		PM:        fmt.Sprintf("pm-%d@demo.com", ts),
		Developer: fmt.Sprintf("dev-%d@demo.com", ts),
	}

	user := func(first, last, email, emp string, dept domain.Department, position string, hired time.Time, rate, salary int64) *domain.User {
		u := &domain.User{
			FirstName:     first,
			LastName:      last,
			Email:         email,
			PasswordHash:  string(hash),
			EmployeeID:    ptr(fmt.Sprintf("%s-%d", emp, ts)),
			Department:    dept,
			Position:      ptr(position),
			HireDate:      &hired,
			Status:        domain.UserStatusActive,
			HourlyRate:    ptr(decimal.NewFromInt(rate)),
			MonthlySalary: ptr(decimal.NewFromInt(salary)),
		}
		u.CreatedBy, u.UpdatedBy = "system", "system"
		stamp(&u.BaseEntity)
		return u
	}
	users := []*domain.User{
		user("Kim", "Admin", testUsers.Admin, "EMP001", domain.DepartmentPM, "System Administrator", today.AddDate(-2, 0, 0), 60000, 5000000),
		user("Lee", "Manager", testUsers.PM, "EMP002", domain.DepartmentPM, "Project Manager", today.AddDate(-1, 0, 0), 50000, 4000000),
		user("Park", "Developer", testUsers.Developer, "EMP003", domain.DepartmentDevelopment, "Senior Developer", today.AddDate(0, -6, 0), 45000, 3500000),
	}
	users[0].Phone, users[1].Phone, users[2].Phone = ptr("010-1111-1111"), ptr("010-2222-2222"), ptr("010-3333-3333")

	customer := func(name, contact, email, phone, bizPrefix, industry string, typ domain.CustomerType) *domain.Customer {
		c := domain.NewCustomer(fmt.Sprintf("%s %d", name, ts))
		c.ContactName = contact
		c.ContactEmail = email
		c.ContactPhone = phone
		c.BusinessNumber = fmt.Sprintf("%s-%05d", bizPrefix, ts%100000)
		c.Industry = industry
		c.Type = typ
		stamp(&c.BaseEntity)
		return c
	}
	customers := []*domain.Customer{
		customer("ABC Corp", "Kim Customer", fmt.Sprintf("contact-%d@abc.com", ts), "02-1111-2222", "123-45", "Manufacturing", domain.CustomerEnterprise),
		customer("XYZ Solutions", "Lee Contact", fmt.Sprintf("contact2-%d@xyz.com", ts), "02-2222-3333", "987-65", "IT Services", domain.CustomerSME),
	}

	started := today.AddDate(0, 0, -30)
	web := domain.NewProject()
	web.Name = fmt.Sprintf("Website Renewal %d", ts)
	web.Description = "Full renewal of the customer website."
	web.Code = fmt.Sprintf("WEB-%04d", ts%10000)
	web.StartDate = started
	web.EndDate = today.AddDate(0, 0, 60)
	web.ActualStartDate = &started
	web.Status = domain.ProjectInProgress
	web.Type = domain.ProjectTypeWebDevelopment
	web.Priority = domain.PriorityHigh
	web.Budget = decimal.NewFromInt(50000000)
	web.ActualCost = decimal.NewFromInt(15000000)
	web.Progress = 30
	stamp(&web.BaseEntity)

	app := domain.NewProject()
	app.Name = fmt.Sprintf("Mobile App Development %d", ts)
	app.Description = "New mobile application."
	app.Code = fmt.Sprintf("APP-%04d", ts%10000)
	app.StartDate = today.AddDate(0, 0, 10)
	app.EndDate = today.AddDate(0, 0, 120)
	app.Type = domain.ProjectTypeMobileApp
	app.Priority = domain.PriorityMedium
	app.Budget = decimal.NewFromInt(80000000)
	app.Progress = 5
	stamp(&app.BaseEntity)

	return &Demo{
		Company:         company,
		Users:           users,
		Customers:       customers,
		Projects:        []*domain.Project{web, app},
		projectCustomer: []int{0, 1},
		projectManager:  1,
		technicalLead:   2,
	}, testUsers, nil
}

func ptr[T any](v T) *T { return &v }
