package users

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trackhub/trackhub/internal/platform/httpx"
	"github.com/trackhub/trackhub/internal/rbac"
	"github.com/trackhub/trackhub/internal/shared"
)

type fakeRepo struct {
	users map[string]*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: map[string]*User{}}
}

func (r *fakeRepo) List(_ context.Context, _ ListFilters) ([]User, int, error) {
	var out []User
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*User, error) {
	if user, ok := r.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, fmt.Errorf("users: %w", httpx.ErrNotFound)
}

func (r *fakeRepo) Insert(_ context.Context, user *User) error {
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return fmt.Errorf("users: email already registered: %w", httpx.ErrDuplicate)
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeRepo) Update(_ context.Context, user *User) error {
	if _, ok := r.users[user.ID]; !ok {
		return fmt.Errorf("users: %w", httpx.ErrNotFound)
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("users: %w", httpx.ErrNotFound)
	}
	delete(r.users, id)
	return nil
}

func (r *fakeRepo) DisplayName(_ context.Context, id string) (string, error) {
	if user, ok := r.users[id]; ok {
		return user.Name, nil
	}
	return "", fmt.Errorf("users: %w", httpx.ErrNotFound)
}

func newTestService() (*Service, *fakeRepo) {
	repo := newFakeRepo()
	return NewService(repo, rbac.NewEvaluator()), repo
}

func adminPrincipal() *shared.Principal {
	return &shared.Principal{
		ID:          "admin-1",
		Role:        rbac.RoleAdmin,
		Permissions: rbac.PermissionsForRole(rbac.RoleAdmin),
		Status:      shared.StatusActive,
	}
}

func TestCreateSeedsPermissionsFromCatalog(t *testing.T) {
	svc, _ := newTestService()

	user, err := svc.Create(context.Background(), CreateInput{
		Email:    "dev@example.com",
		Name:     "Dev",
		Password: "s3cret-pw",
		Role:     rbac.RoleTester,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, rbac.PermissionsForRole(rbac.RoleTester), user.Permissions)
	assert.Equal(t, shared.StatusActive, user.Status)
	assert.NotEmpty(t, user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret-pw")))
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc, _ := newTestService()
	input := CreateInput{Email: "dev@example.com", Name: "Dev", Password: "s3cret-pw", Role: rbac.RoleDeveloper}

	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), input)
	assert.True(t, errors.Is(err, httpx.ErrDuplicate))
}

func TestUpdateRoleChangeReseedsPermissions(t *testing.T) {
	svc, _ := newTestService()
	user, err := svc.Create(context.Background(), CreateInput{Email: "dev@example.com", Name: "Dev", Password: "s3cret-pw", Role: rbac.RoleViewer})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), user.ID, UpdateInput{Role: rbac.RoleManager})
	require.NoError(t, err)
	assert.ElementsMatch(t, rbac.PermissionsForRole(rbac.RoleManager), updated.Permissions)
}

func TestUpdateSameRoleKeepsPermissions(t *testing.T) {
	svc, repo := newTestService()
	user, err := svc.Create(context.Background(), CreateInput{Email: "dev@example.com", Name: "Dev", Password: "s3cret-pw", Role: rbac.RoleViewer})
	require.NoError(t, err)

	// Manually widened permissions survive a non-role update.
	repo.users[user.ID].Permissions = append(repo.users[user.ID].Permissions, rbac.PermUserDelete)

	updated, err := svc.Update(context.Background(), user.ID, UpdateInput{Name: "Renamed"})
	require.NoError(t, err)
	assert.Contains(t, updated.Permissions, rbac.PermUserDelete)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	svc, _ := newTestService()
	target, err := svc.Create(context.Background(), CreateInput{Email: "dev@example.com", Name: "Dev", Password: "s3cret-pw", Role: rbac.RoleDeveloper})
	require.NoError(t, err)

	nonAdmin := &shared.Principal{
		ID:          "mgr-1",
		Role:        rbac.RoleManager,
		Permissions: rbac.PermissionsForRole(rbac.RoleManager),
		Status:      shared.StatusActive,
	}
	err = svc.Delete(context.Background(), nonAdmin, target.ID)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))

	require.NoError(t, svc.Delete(context.Background(), adminPrincipal(), target.ID))
}

func TestDeleteOwnAccountRejected(t *testing.T) {
	svc, repo := newTestService()
	admin := adminPrincipal()
	repo.users[admin.ID] = &User{ID: admin.ID, Email: "admin@example.com", Name: "Admin"}

	err := svc.Delete(context.Background(), admin, admin.ID)
	assert.True(t, errors.Is(err, httpx.ErrForbidden))
}

func TestRepairPermissionsOverwritesDrift(t *testing.T) {
	svc, repo := newTestService()
	user, err := svc.Create(context.Background(), CreateInput{Email: "dev@example.com", Name: "Dev", Password: "s3cret-pw", Role: rbac.RoleDeveloper})
	require.NoError(t, err)

	repo.users[user.ID].Permissions = []string{rbac.PermBugRead}

	result, err := svc.RepairPermissions(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, result.Repaired)
	assert.ElementsMatch(t, rbac.PermissionsForRole(rbac.RoleDeveloper), result.Permissions)
}

func TestRepairPermissionsOrderInsensitive(t *testing.T) {
	svc, repo := newTestService()
	user, err := svc.Create(context.Background(), CreateInput{Email: "dev@example.com", Name: "Dev", Password: "s3cret-pw", Role: rbac.RoleDeveloper})
	require.NoError(t, err)

	// Same set in reverse order is not drift.
	perms := rbac.PermissionsForRole(rbac.RoleDeveloper)
	for i, j := 0, len(perms)-1; i < j; i, j = i+1, j-1 {
		perms[i], perms[j] = perms[j], perms[i]
	}
	repo.users[user.ID].Permissions = perms

	result, err := svc.RepairPermissions(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, result.Repaired)
}

func TestDisplayName(t *testing.T) {
	svc, repo := newTestService()
	repo.users["u1"] = &User{ID: "u1", Name: "Alice"}

	name, err := svc.DisplayName(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
}
