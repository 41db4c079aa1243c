package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/erp-backend/internal/auth/domain"
)

type fakeAccounts struct {
	mu      sync.Mutex
	users   map[string]*domain.ApplicationUser
	gets    int
	linked  map[string]int
	getErr  error
	linkErr error
}

func newFakeAccounts(users ...*domain.ApplicationUser) *fakeAccounts {
	f := &fakeAccounts{users: map[string]*domain.ApplicationUser{}, linked: map[string]int{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (*domain.ApplicationUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeAccounts) SetBusinessUserID(_ context.Context, id string, businessUserID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.linkErr != nil {
		return f.linkErr
	}
	f.linked[id] = businessUserID
	return nil
}

type fakeFinder struct {
	byEmail map[string]int
	calls   int
}

func (f *fakeFinder) FindIDByEmail(_ context.Context, companyID int, email string) (int, error) {
	f.calls++
	return f.byEmail[email], nil
}

func intPtr(v int) *int { return &v }

func TestCurrentUser_Anonymous(t *testing.T) {
	u := FromContext(context.Background())

	assert.False(t, u.IsAuthenticated())
	assert.Equal(t, "", u.IdentityUserID())
	assert.Equal(t, "", u.UserName())
	assert.False(t, u.HasPermission("Projects.View"))

	id, err := u.BusinessUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	company, err := u.CompanyID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, company)
}

func TestCurrentUser_ClaimsWin(t *testing.T) {
	accounts := newFakeAccounts()
	r := NewResolver(accounts, nil, nil)
	u := r.ForPrincipal(&Principal{
		Subject: "abc",
		Custom:  map[string]string{ClaimCompanyID: "7", ClaimBusinessUserID: "42"},
	})

	id, err := u.BusinessUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	company, err := u.CompanyID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, company)

	assert.Equal(t, 0, accounts.gets, "claims should avoid the store")
}

func TestCurrentUser_FallsBackToAccountRow(t *testing.T) {
	accounts := newFakeAccounts(&domain.ApplicationUser{ID: "abc", CompanyID: 3, BusinessUserID: intPtr(9)})
	r := NewResolver(accounts, nil, nil)
	u := r.ForPrincipal(&Principal{Subject: "abc", Custom: map[string]string{ClaimCompanyID: "not-a-number"}})

	id, err := u.BusinessUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, id)

	company, err := u.CompanyID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, company)

	// second reads come from the per-request cache
	_, _ = u.BusinessUserID(context.Background())
	_, _ = u.CompanyID(context.Background())
	assert.Equal(t, 1, accounts.gets)
}

func TestCurrentUser_EmailMatchRepairsLink(t *testing.T) {
	accounts := newFakeAccounts(&domain.ApplicationUser{ID: "abc", CompanyID: 3, Email: "dev@acme.test"})
	finder := &fakeFinder{byEmail: map[string]int{"dev@acme.test": 15}}
	r := NewResolver(accounts, finder, nil)
	u := r.ForPrincipal(&Principal{Subject: "abc"})

	id, err := u.BusinessUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, id)

	r.Wait()
	accounts.mu.Lock()
	defer accounts.mu.Unlock()
	assert.Equal(t, 15, accounts.linked["abc"])
}

func TestCurrentUser_RepairFailureIsSwallowed(t *testing.T) {
	accounts := newFakeAccounts(&domain.ApplicationUser{ID: "abc", CompanyID: 3, Email: "dev@acme.test"})
	accounts.linkErr = errors.New("db down")
	finder := &fakeFinder{byEmail: map[string]int{"dev@acme.test": 15}}
	r := NewResolver(accounts, finder, nil)

	id, err := r.ForPrincipal(&Principal{Subject: "abc"}).BusinessUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, id)
	r.Wait()
}

func TestCurrentUser_NoMatchYieldsZero(t *testing.T) {
	accounts := newFakeAccounts(&domain.ApplicationUser{ID: "abc", CompanyID: 3, Email: "ghost@acme.test"})
	r := NewResolver(accounts, &fakeFinder{byEmail: map[string]int{}}, nil)

	id, err := r.ForPrincipal(&Principal{Subject: "abc"}).BusinessUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	id, err = r.ForPrincipal(&Principal{Subject: "missing"}).BusinessUserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, id)
}

func TestCurrentUser_StoreErrorIsNotCached(t *testing.T) {
	accounts := newFakeAccounts(&domain.ApplicationUser{ID: "abc", CompanyID: 3})
	accounts.getErr = errors.New("timeout")
	u := NewResolver(accounts, nil, nil).ForPrincipal(&Principal{Subject: "abc"})

	company, err := u.CompanyID(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, company)

	accounts.getErr = nil
	company, err = u.CompanyID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, company)
}

func TestCurrentUser_UserName(t *testing.T) {
	tests := []struct {
		name      string
		principal Principal
		want      string
	}{
		{"name claim", Principal{Subject: "1", Name: "Jane Roe", GivenName: "J", Email: "j@x.test"}, "Jane Roe"},
		{"given and surname", Principal{Subject: "1", GivenName: "Jane", Surname: "Roe"}, "Jane Roe"},
		{"given only", Principal{Subject: "1", GivenName: "Jane"}, "Jane"},
		{"email local part", Principal{Subject: "1", Email: "jane.roe@x.test"}, "jane.roe"},
		{"nothing", Principal{Subject: "1"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.principal
			u := NewResolver(nil, nil, nil).ForPrincipal(&p)
			assert.Equal(t, tt.want, u.UserName())
		})
	}
}

func TestCurrentUser_ConcurrentResolution(t *testing.T) {
	accounts := newFakeAccounts(&domain.ApplicationUser{ID: "abc", CompanyID: 5})
	u := NewResolver(accounts, nil, nil).ForPrincipal(&Principal{Subject: "abc"})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			company, err := u.CompanyID(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 5, company)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accounts.gets)
}
