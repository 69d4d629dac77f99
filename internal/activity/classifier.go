package activity

import (
	"regexp"
	"strings"
)

// Canonical action names. The table below is a curated allow-list: requests
// that do not map to one of these are deliberately not audited.
const (
	ActionLogin             = "LOGIN"
	ActionLogout            = "LOGOUT"
	ActionResetPassword     = "RESET_PASSWORD"
	ActionCreateUser        = "CREATE_USER"
	ActionUpdateUser        = "UPDATE_USER"
	ActionDeleteUser        = "DELETE_USER"
	ActionRepairPermissions = "REPAIR_PERMISSIONS"
	ActionCreateTeam        = "CREATE_TEAM"
	ActionUpdateTeam        = "UPDATE_TEAM"
	ActionDeleteTeam        = "DELETE_TEAM"
	ActionCreateBug         = "CREATE_BUG"
	ActionUpdateBug         = "UPDATE_BUG"
	ActionDeleteBug         = "DELETE_BUG"
	ActionUpdateBugStatus   = "UPDATE_BUG_STATUS"
	ActionAssignBug         = "ASSIGN_BUG"
	ActionCreateTask        = "CREATE_TASK"
	ActionUpdateTask        = "UPDATE_TASK"
	ActionDeleteTask        = "DELETE_TASK"
	ActionUpdateTaskStatus  = "UPDATE_TASK_STATUS"
	ActionCreateProject     = "CREATE_PROJECT"
	ActionUpdateProject     = "UPDATE_PROJECT"
	ActionDeleteProject     = "DELETE_PROJECT"
	ActionCleanupLogs       = "CLEANUP_ACTIVITY_LOGS"
)

// actionTable maps "<METHOD> <path>" to a canonical action name.
var actionTable = map[string]string{
	"POST /api/auth/login":          ActionLogin,
	"POST /api/auth/logout":         ActionLogout,
	"POST /api/auth/password-reset": ActionResetPassword,

	"POST /api/users":                        ActionCreateUser,
	"PUT /api/users/:id":                     ActionUpdateUser,
	"DELETE /api/users/:id":                  ActionDeleteUser,
	"POST /api/users/:id/repair-permissions": ActionRepairPermissions,

	"POST /api/teams":       ActionCreateTeam,
	"PUT /api/teams/:id":    ActionUpdateTeam,
	"DELETE /api/teams/:id": ActionDeleteTeam,

	"POST /api/bugs":             ActionCreateBug,
	"PUT /api/bugs/:id":          ActionUpdateBug,
	"DELETE /api/bugs/:id":       ActionDeleteBug,
	"PATCH /api/bugs/:id/status": ActionUpdateBugStatus,
	"PATCH /api/bugs/:id/assign": ActionAssignBug,

	"POST /api/tasks":             ActionCreateTask,
	"PUT /api/tasks/:id":          ActionUpdateTask,
	"DELETE /api/tasks/:id":       ActionDeleteTask,
	"PATCH /api/tasks/:id/status": ActionUpdateTaskStatus,

	"POST /api/projects":       ActionCreateProject,
	"PUT /api/projects/:id":    ActionUpdateProject,
	"DELETE /api/projects/:id": ActionDeleteProject,

	"DELETE /api/activity-logs/cleanup": ActionCleanupLogs,
}

// actionResources maps actions to the resource type recorded on the entry.
var actionResources = map[string]string{
	ActionLogin: "system", ActionLogout: "system", ActionResetPassword: "system",
	ActionCreateUser: "user", ActionUpdateUser: "user", ActionDeleteUser: "user",
	ActionRepairPermissions: "user",
	ActionCreateTeam:        "team", ActionUpdateTeam: "team", ActionDeleteTeam: "team",
	ActionCreateBug: "bug", ActionUpdateBug: "bug", ActionDeleteBug: "bug",
	ActionUpdateBugStatus: "bug", ActionAssignBug: "bug",
	ActionCreateTask: "task", ActionUpdateTask: "task", ActionDeleteTask: "task",
	ActionUpdateTaskStatus: "task",
	ActionCreateProject:    "project", ActionUpdateProject: "project", ActionDeleteProject: "project",
	ActionCleanupLogs: "system",
}

// idSegmentPattern recognizes long hexadecimal-style identifiers (uuids,
// object ids). Short numeric or base62 ids do not match and therefore fail to
// classify; this is a documented limitation of the allow-list, not a bug.
var idSegmentPattern = regexp.MustCompile(`^[a-f0-9-]{20,}$`)

// Classify maps an HTTP method and path to a canonical action name. It tries
// an exact table lookup first, then retries with id-looking path segments
// replaced by the :id placeholder. A false result means the request is not
// audited.
func Classify(method, path string) (string, bool) {
	key := method + " " + path
	if action, ok := actionTable[key]; ok {
		return action, true
	}
	normalized := NormalizePath(path)
	if normalized == path {
		return "", false
	}
	action, ok := actionTable[method+" "+normalized]
	return action, ok
}

// NormalizePath replaces path segments matching the long-hex id pattern with
// the literal placeholder :id.
func NormalizePath(path string) string {
	segments := strings.Split(path, "/")
	changed := false
	for i, segment := range segments {
		if idSegmentPattern.MatchString(segment) {
			segments[i] = ":id"
			changed = true
		}
	}
	if !changed {
		return path
	}
	return strings.Join(segments, "/")
}

// ResourceType returns the resource type an action operates on, empty for
// unknown actions.
func ResourceType(action string) string {
	return actionResources[action]
}

// PathResourceID extracts the first id-looking segment from a path, empty
// when none is present.
func PathResourceID(path string) string {
	for _, segment := range strings.Split(path, "/") {
		if idSegmentPattern.MatchString(segment) {
			return segment
		}
	}
	return ""
}
