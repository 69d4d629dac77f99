package rbac

import (
	"github.com/trackhub/trackhub/internal/shared"
)

// Evaluator decides allow/deny for actions on resources. It is a pure
// predicate over the principal's permission set; callers translate a false
// result into an HTTP 401/403 at the boundary.
type Evaluator struct{}

// NewEvaluator constructs an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// IsAdmin reports whether the principal is treated as an administrator.
// Admin status is determined by presence of user:delete in the permission
// set, not by the role field: a user whose permissions were manually widened
// to include user:delete gets admin treatment for every delete decision.
func (e *Evaluator) IsAdmin(p *shared.Principal) bool {
	return p.HasPermission(PermUserDelete)
}

// CanDelete evaluates a delete-style check with fixed precedence:
// inactive deny, admin allow, bug deny, creator allow, explicit permission.
func (e *Evaluator) CanDelete(p *shared.Principal, resourceType, resourceCreatorID string) bool {
	if !p.IsActive() {
		return false
	}
	if e.IsAdmin(p) {
		return true
	}
	if resourceType == "bug" {
		// Bug deletion never delegates to the creator.
		return false
	}
	if resourceCreatorID != "" && p.ID == resourceCreatorID {
		return true
	}
	return p.HasPermission(resourceType + ":delete")
}

// CanPerform is a direct membership test against the principal's permission
// set. An absent or inactive principal always denies.
func (e *Evaluator) CanPerform(p *shared.Principal, perm string) bool {
	if !p.IsActive() {
		return false
	}
	return p.HasPermission(perm)
}
