package lifecycle

import "github.com/kendall-kelly/repair-shop-api/models"

// Scope restricts which repair requests an actor sees. Empty fields mean unrestricted.
type Scope struct {
	CustomerID   string
	TechnicianID string
}

// ScopeFor returns the slice of repair requests visible to actor
func ScopeFor(actor Actor) (Scope, error) {
	switch {
	case actor.Role == models.RoleCustomer:
		return Scope{CustomerID: actor.ID}, nil
	case actor.Role == models.RoleTechnician:
		return Scope{TechnicianID: actor.ID}, nil
	case actor.Role.IsAdmin():
		return Scope{}, nil
	}
	return Scope{}, Unauthorized("unknown role %q", actor.Role)
}

// Allows reports whether request falls inside the scope
func (s Scope) Allows(request *models.RepairRequest) bool {
	if s.CustomerID != "" && request.CustomerID != s.CustomerID {
		return false
	}
	if s.TechnicianID != "" && !request.IsAssignedTo(s.TechnicianID) {
		return false
	}
	return true
}

// Unrestricted reports whether the scope is the admin view
func (s Scope) Unrestricted() bool {
	return s.CustomerID == "" && s.TechnicianID == ""
}
