package user

import (
	"context"
	"testing"

	"github.com/rada-network/launchpad/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	users map[string]*User
}

func newFakeRepo() *fakeRepo { return &fakeRepo{users: make(map[string]*User)} }

func (f *fakeRepo) Create(u *User) error {
	if len(u.Roles) == 0 {
		u.Roles = []string{"user"}
	}
	f.users[u.Address] = u
	return nil
}

func (f *fakeRepo) GetByAddress(address string) (*User, error) { return f.users[address], nil }

func (f *fakeRepo) Update(u *User) error {
	f.users[u.Address] = u
	return nil
}

func (f *fakeRepo) List(limit, offset int) ([]*User, error) { return nil, nil }

func (f *fakeRepo) UpdateNonce(address, nonce string) error {
	if u := f.users[address]; u != nil {
		u.Nonce = nonce
	}
	return nil
}

const someone = "0x00000000000000000000000000000000000000AA"

func TestEnsureUser_CreatesLowercased(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo)
	ctx := context.Background()

	u, err := service.EnsureUser(ctx, someone)
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", u.Address)
	assert.Contains(t, []string(u.Roles), "user")

	// Second call with different casing resolves to the same row.
	again, err := service.EnsureUser(ctx, "0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)
	assert.Same(t, u, again)
}

func TestSetAdmin_GrantAndRevoke(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo)
	ctx := context.Background()

	require.NoError(t, service.SetAdmin(ctx, someone, true))
	ok, err := service.IsAdmin(ctx, someone)
	require.NoError(t, err)
	assert.True(t, ok)

	// Granting twice must not duplicate the role.
	require.NoError(t, service.SetAdmin(ctx, someone, true))
	u, err := service.GetUser(ctx, someone)
	require.NoError(t, err)
	count := 0
	for _, r := range u.Roles {
		if r == RoleAdmin {
			count++
		}
	}
	assert.Equal(t, 1, count)

	require.NoError(t, service.SetAdmin(ctx, someone, false))
	ok, err = service.IsAdmin(ctx, someone)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, []string(u.Roles), "user")
}

func TestIsAdmin_UnknownAddress(t *testing.T) {
	service := NewService(newFakeRepo())

	ok, err := service.IsAdmin(context.Background(), someone)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetUser_NotFound(t *testing.T) {
	service := NewService(newFakeRepo())

	_, err := service.GetUser(context.Background(), someone)
	assert.ErrorIs(t, err, engine.ErrUserNotFound)
}
