package shared

// Account status values.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	Status      string   `json:"status"`
}

// IsActive reports whether the account may be attached to requests.
func (p *Principal) IsActive() bool {
	return p != nil && p.Status == StatusActive
}

// HasPermission reports membership of perm in the principal's permission set.
// Permission strings are opaque tokens compared for equality only.
func (p *Principal) HasPermission(perm string) bool {
	if p == nil {
		return false
	}
	for _, granted := range p.Permissions {
		if granted == perm {
			return true
		}
	}
	return false
}
