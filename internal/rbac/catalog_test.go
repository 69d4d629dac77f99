package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionsForRoleNeverEmpty(t *testing.T) {
	for _, role := range Roles() {
		perms := PermissionsForRole(role)
		require.NotEmpty(t, perms, "role %s", role)
	}
	assert.NotEmpty(t, PermissionsForRole("no-such-role"))
}

func TestUnknownRoleGetsDeveloperDefaults(t *testing.T) {
	assert.Equal(t, PermissionsForRole(RoleDeveloper), PermissionsForRole("intern"))
}

func TestRoleAliasResolves(t *testing.T) {
	assert.Equal(t, PermissionsForRole(RoleProduct), PermissionsForRole("project-engineer"))
}

func TestAdminIsSupersetOfEveryRole(t *testing.T) {
	admin := make(map[string]struct{})
	for _, p := range PermissionsForRole(RoleAdmin) {
		admin[p] = struct{}{}
	}
	for _, role := range Roles() {
		if role == RoleAdmin {
			continue
		}
		for _, p := range PermissionsForRole(role) {
			_, ok := admin[p]
			assert.True(t, ok, "admin missing %s granted to %s", p, role)
		}
	}
}

func TestOnlyAdminHoldsUserDelete(t *testing.T) {
	for _, role := range Roles() {
		has := false
		for _, p := range PermissionsForRole(role) {
			if p == PermUserDelete {
				has = true
			}
		}
		assert.Equal(t, role == RoleAdmin, has, "role %s", role)
	}
}

func TestPermissionsForRoleReturnsCopy(t *testing.T) {
	perms := PermissionsForRole(RoleViewer)
	perms[0] = "tampered"
	assert.NotContains(t, PermissionsForRole(RoleViewer), "tampered")
}

func TestPermissionsMatch(t *testing.T) {
	assert.True(t, PermissionsMatch([]string{"a", "b"}, []string{"b", "a"}))
	assert.False(t, PermissionsMatch([]string{"a", "b"}, []string{"a"}))
	assert.False(t, PermissionsMatch([]string{"a", "a"}, []string{"a", "b"}))
	assert.False(t, PermissionsMatch([]string{"a", "b"}, []string{"a", "c"}))
}
