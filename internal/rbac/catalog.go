// Package rbac holds the role catalog and the authorization evaluator.
package rbac

// Role names. The catalog extends the base enumeration with the product and
// dqe roles used by a few teams.
const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleDeveloper = "developer"
	RoleTester    = "tester"
	RoleViewer    = "viewer"
	RoleProduct   = "product"
	RoleDQE       = "dqe"
)

// Permission strings follow the "<resource>:<action>" format and are treated
// as opaque tokens; there is no hierarchy or wildcard semantics.
const (
	PermUserRead   = "user:read"
	PermUserCreate = "user:create"
	PermUserUpdate = "user:update"
	PermUserDelete = "user:delete"

	PermTeamRead   = "team:read"
	PermTeamCreate = "team:create"
	PermTeamUpdate = "team:update"
	PermTeamDelete = "team:delete"

	PermBugRead   = "bug:read"
	PermBugCreate = "bug:create"
	PermBugUpdate = "bug:update"
	PermBugDelete = "bug:delete"

	PermTaskRead   = "task:read"
	PermTaskCreate = "task:create"
	PermTaskUpdate = "task:update"
	PermTaskDelete = "task:delete"

	PermProjectRead   = "project:read"
	PermProjectCreate = "project:create"
	PermProjectUpdate = "project:update"
	PermProjectDelete = "project:delete"

	PermDashboardRead = "dashboard:read"

	PermSystemRead     = "system:read"
	PermSystemSettings = "system:settings"
)

// rolePermissions is the single source of truth for default permission sets.
// It seeds new users at creation, re-seeds on role change, and backs live
// authorization decisions. Admin is a strict superset of every other role.
var rolePermissions = map[string][]string{
	RoleAdmin: {
		PermUserRead, PermUserCreate, PermUserUpdate, PermUserDelete,
		PermTeamRead, PermTeamCreate, PermTeamUpdate, PermTeamDelete,
		PermBugRead, PermBugCreate, PermBugUpdate, PermBugDelete,
		PermTaskRead, PermTaskCreate, PermTaskUpdate, PermTaskDelete,
		PermProjectRead, PermProjectCreate, PermProjectUpdate, PermProjectDelete,
		PermDashboardRead,
		PermSystemRead, PermSystemSettings,
	},
	RoleManager: {
		PermUserRead, PermUserCreate, PermUserUpdate,
		PermTeamRead, PermTeamCreate, PermTeamUpdate, PermTeamDelete,
		PermBugRead, PermBugCreate, PermBugUpdate,
		PermTaskRead, PermTaskCreate, PermTaskUpdate, PermTaskDelete,
		PermProjectRead, PermProjectCreate, PermProjectUpdate, PermProjectDelete,
		PermDashboardRead,
		PermSystemRead,
	},
	RoleDeveloper: {
		PermUserRead,
		PermTeamRead,
		PermBugRead, PermBugCreate, PermBugUpdate,
		PermTaskRead, PermTaskCreate, PermTaskUpdate,
		PermProjectRead,
		PermDashboardRead,
	},
	RoleTester: {
		PermUserRead,
		PermTeamRead,
		PermBugRead, PermBugCreate, PermBugUpdate,
		PermTaskRead,
		PermProjectRead,
		PermDashboardRead,
	},
	RoleViewer: {
		PermUserRead,
		PermTeamRead,
		PermBugRead,
		PermTaskRead,
		PermProjectRead,
		PermDashboardRead,
	},
	RoleProduct: {
		PermUserRead,
		PermTeamRead,
		PermBugRead, PermBugCreate, PermBugUpdate,
		PermTaskRead, PermTaskCreate, PermTaskUpdate, PermTaskDelete,
		PermProjectRead, PermProjectCreate, PermProjectUpdate, PermProjectDelete,
		PermDashboardRead,
	},
	RoleDQE: {
		PermUserRead,
		PermTeamRead,
		PermBugRead, PermBugCreate, PermBugUpdate,
		PermTaskRead, PermTaskCreate, PermTaskUpdate,
		PermProjectRead,
		PermDashboardRead,
		PermSystemRead,
	},
}

// roleAliases maps informal role spellings onto catalog entries.
var roleAliases = map[string]string{
	"project-engineer": RoleProduct,
}

// PermissionsForRole returns a copy of the default permission set for role.
// Unknown roles fall back to the developer set; the result is never empty.
func PermissionsForRole(role string) []string {
	if canonical, ok := roleAliases[role]; ok {
		role = canonical
	}
	perms, ok := rolePermissions[role]
	if !ok {
		perms = rolePermissions[RoleDeveloper]
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// Roles returns the catalog role names.
func Roles() []string {
	return []string{RoleAdmin, RoleManager, RoleDeveloper, RoleTester, RoleViewer, RoleProduct, RoleDQE}
}

// PermissionsMatch compares two permission sets order-insensitively. Used by
// the drift-repair maintenance operation to decide whether a user's stored
// permissions still agree with the catalog.
func PermissionsMatch(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, p := range a {
		set[p] = struct{}{}
	}
	if len(set) != len(a) {
		// Duplicate entries never match the catalog.
		return false
	}
	for _, p := range b {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}
