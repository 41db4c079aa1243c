package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/erp-backend/internal/clock"
)

type memStore struct {
	mu    sync.Mutex
	users map[string]*domain.ApplicationUser
	roles map[string][]string
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*domain.ApplicationUser{}, roles: map[string][]string{}}
}

func (m *memStore) GetByID(_ context.Context, id string) (*domain.ApplicationUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) find(match func(*domain.ApplicationUser) bool) (*domain.ApplicationUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memStore) GetByUserName(_ context.Context, name string) (*domain.ApplicationUser, error) {
	return m.find(func(u *domain.ApplicationUser) bool { return strings.EqualFold(u.UserName, name) })
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*domain.ApplicationUser, error) {
	return m.find(func(u *domain.ApplicationUser) bool { return strings.EqualFold(u.Email, email) })
}

func (m *memStore) Create(_ context.Context, u *domain.ApplicationUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) Update(_ context.Context, u *domain.ApplicationUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memStore) GetRoles(_ context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.roles[id]...), nil
}

func (m *memStore) AddRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[id] = append(m.roles[id], role)
	return nil
}

func (m *memStore) RemoveRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.roles[id][:0]
	for _, r := range m.roles[id] {
		if r != role {
			kept = append(kept, r)
		}
	}
	m.roles[id] = kept
	return nil
}

type movableClock struct{ at time.Time }

func (c *movableClock) Now() time.Time    { return c.at }
func (c *movableClock) UTCNow() time.Time { return c.at.UTC() }

func newTestService(clk clock.Clock) (*IdentityService, *memStore) {
	store := newMemStore()
	svc := NewIdentityService(store, "test-secret-key-that-is-at-least-32-characters", clk)
	svc.hashCost = bcrypt.MinCost
	return svc, store
}

func companyContext(companyID string) context.Context {
	u := auth.NewResolver(nil, nil, nil).ForPrincipal(&auth.Principal{
		Subject: "admin",
		Custom:  map[string]string{auth.ClaimCompanyID: companyID},
	})
	return auth.WithCurrentUser(context.Background(), u)
}

func TestCreateUser(t *testing.T) {
	svc, store := newTestService(nil)
	ctx := companyContext("8")

	t.Run("password policy", func(t *testing.T) {
		res, id, err := svc.CreateUser(ctx, "weak@acme.test", "short")
		require.NoError(t, err)
		assert.False(t, res.Succeeded)
		assert.Empty(t, id)
		assert.Len(t, res.Errors, 3) // length, digit, uppercase
	})

	t.Run("success", func(t *testing.T) {
		res, id, err := svc.CreateUser(ctx, "dev@acme.test", "Passw0rdx")
		require.NoError(t, err)
		require.True(t, res.Succeeded)

		stored := store.users[id]
		require.NotNil(t, stored)
		assert.Equal(t, "dev@acme.test", stored.Email)
		assert.Equal(t, 8, stored.CompanyID)
		assert.Equal(t, domain.DefaultStatus, stored.Status)
		assert.NotEqual(t, "Passw0rdx", stored.PasswordHash)
	})

	t.Run("duplicate email", func(t *testing.T) {
		res, _, err := svc.CreateUser(ctx, "DEV@acme.test", "Passw0rdx")
		require.NoError(t, err)
		assert.False(t, res.Succeeded)
	})
}

func TestCheckPassword_Lockout(t *testing.T) {
	clk := &movableClock{at: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)}
	svc, _ := newTestService(clk)
	ctx := context.Background()

	_, id, err := svc.CreateUser(ctx, "lock@acme.test", "Passw0rdx")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ok, err := svc.CheckPassword(ctx, id, "wrong")
		require.NoError(t, err)
		assert.False(t, ok)
	}

	ok, err := svc.CheckPassword(ctx, id, "Passw0rdx")
	require.NoError(t, err)
	assert.False(t, ok, "locked out user must fail")

	clk.at = clk.at.Add(6 * time.Minute)
	ok, err = svc.CheckPassword(ctx, id, "Passw0rdx")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChangeAndResetPassword(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	_, id, err := svc.CreateUser(ctx, "pw@acme.test", "Passw0rdx")
	require.NoError(t, err)

	res, err := svc.ChangePassword(ctx, id, "nope", "N3wPassword")
	require.NoError(t, err)
	assert.False(t, res.Succeeded)

	res, err = svc.ChangePassword(ctx, id, "Passw0rdx", "N3wPassword")
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	token, err := svc.GeneratePasswordResetToken(ctx, id)
	require.NoError(t, err)

	res, err = svc.ResetPassword(ctx, id, "tampered"+token, "An0therOne")
	require.NoError(t, err)
	assert.False(t, res.Succeeded)

	res, err = svc.ResetPassword(ctx, id, token, "An0therOne")
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	// the stamp changed with the password, so the token is spent
	res, err = svc.ResetPassword(ctx, id, token, "Y3tAnother")
	require.NoError(t, err)
	assert.False(t, res.Succeeded)

	ok, err := svc.CheckPassword(ctx, id, "An0therOne")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfirmEmail(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	_, id, err := svc.CreateUser(ctx, "mail@acme.test", "Passw0rdx")
	require.NoError(t, err)

	confirmed, err := svc.IsEmailConfirmed(ctx, id)
	require.NoError(t, err)
	assert.False(t, confirmed)

	resetToken, err := svc.GeneratePasswordResetToken(ctx, id)
	require.NoError(t, err)
	res, err := svc.ConfirmEmail(ctx, id, resetToken)
	require.NoError(t, err)
	assert.False(t, res.Succeeded, "tokens are bound to their purpose")

	token, err := svc.GenerateEmailConfirmationToken(ctx, id)
	require.NoError(t, err)
	res, err = svc.ConfirmEmail(ctx, id, token)
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	confirmed, err = svc.IsEmailConfirmed(ctx, id)
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestRolesAndAuthorize(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	_, id, err := svc.CreateUser(ctx, "roles@acme.test", "Passw0rdx")
	require.NoError(t, err)

	res, err := svc.AddToRole(ctx, id, "Finance")
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	in, err := svc.IsInRole(ctx, id, "finance")
	require.NoError(t, err)
	assert.True(t, in)

	ok, err := svc.Authorize(ctx, id, "Invoices.Create")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Authorize(ctx, id, "Tasks.Delete")
	require.NoError(t, err)
	assert.False(t, ok)

	res, err = svc.RemoveFromRole(ctx, id, "Finance")
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	roles, err := svc.GetUserRoles(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, roles)

	res, err = svc.AddToRole(ctx, "missing", "HR")
	require.NoError(t, err)
	assert.Equal(t, []string{"User not found."}, res.Errors)
}

func TestLookupsAndDelete(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()
	_, id, err := svc.CreateUser(ctx, "look@acme.test", "Passw0rdx")
	require.NoError(t, err)

	name, err := svc.GetUserName(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "look@acme.test", name)

	gotID, err := svc.GetUserID(ctx, "LOOK@acme.test")
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	res, err := svc.DeleteUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	res, err = svc.DeleteUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.Succeeded)

	name, err = svc.GetUserName(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, name)
}
