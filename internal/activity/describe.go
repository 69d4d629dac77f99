package activity

import (
	"fmt"
	"strings"
)

// actionDescriptions overrides the generic fallback with a curated
// human-readable description per action.
var actionDescriptions = map[string]string{
	ActionLogin:             "user logged in",
	ActionLogout:            "user logged out",
	ActionResetPassword:     "password reset requested",
	ActionCreateUser:        "created user",
	ActionUpdateUser:        "updated user",
	ActionDeleteUser:        "deleted user",
	ActionRepairPermissions: "repaired user permissions",
	ActionCreateTeam:        "created team",
	ActionUpdateTeam:        "updated team",
	ActionDeleteTeam:        "deleted team",
	ActionCreateBug:         "created bug",
	ActionUpdateBug:         "updated bug",
	ActionDeleteBug:         "deleted bug",
	ActionUpdateBugStatus:   "changed bug status",
	ActionAssignBug:         "assigned bug",
	ActionCreateTask:        "created task",
	ActionUpdateTask:        "updated task",
	ActionDeleteTask:        "deleted task",
	ActionUpdateTaskStatus:  "changed task status",
	ActionCreateProject:     "created project",
	ActionUpdateProject:     "updated project",
	ActionDeleteProject:     "deleted project",
	ActionCleanupLogs:       "cleaned up activity logs",
}

// enrichmentFields lists response body fields probed per action when building
// the detailed description, in priority order.
var enrichmentFields = []string{"title", "name", "email"}

// BuildDescription returns the curated description for an action, falling
// back to a generic verb + last path segment string.
func BuildDescription(method, path, action string) string {
	if desc, ok := actionDescriptions[action]; ok {
		return desc
	}
	segment := lastMeaningfulSegment(path)
	return strings.ToLower(method) + " " + segment
}

// BuildDetailedDescription enriches the base description with a resource
// identifier from the path or a display field from the parsed response body,
// falling back to the base description when no enrichment data is available.
func BuildDetailedDescription(method, path, action string, response any) string {
	base := BuildDescription(method, path, action)
	if label := responseLabel(response); label != "" {
		return base + ": " + label
	}
	if id := PathResourceID(path); id != "" {
		return fmt.Sprintf("%s (%s)", base, id)
	}
	return base
}

func responseLabel(response any) string {
	body, ok := response.(map[string]any)
	if !ok {
		return ""
	}
	// API payloads nest the resource under data.
	if data, ok := body["data"].(map[string]any); ok {
		body = data
	}
	for _, field := range enrichmentFields {
		if value, ok := body[field].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

func lastMeaningfulSegment(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" && !idSegmentPattern.MatchString(segments[i]) {
			return segments[i]
		}
	}
	return path
}
