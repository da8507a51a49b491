package models

// RepairStatus is the lifecycle state of a repair request
type RepairStatus string

const (
	StatusSubmitted       RepairStatus = "submitted"
	StatusAssigned        RepairStatus = "assigned"
	StatusDiagnosing      RepairStatus = "diagnosing"
	StatusRepairing       RepairStatus = "repairing"
	StatusWaitingApproval RepairStatus = "waiting_approval"
	StatusReadyPickup     RepairStatus = "ready_pickup"
	StatusCompleted       RepairStatus = "completed"
	StatusCancelled       RepairStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []RepairStatus{
	StatusSubmitted,
	StatusAssigned,
	StatusDiagnosing,
	StatusRepairing,
	StatusWaitingApproval,
	StatusReadyPickup,
	StatusCompleted,
	StatusCancelled,
}

// IsValid reports whether s is one of the known statuses
func (s RepairStatus) IsValid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave s
func (s RepairStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Priority is how urgently the customer needs the device back
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid reports whether p is one of the known priorities
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Role is the kind of actor a profile represents
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleTechnician, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin reports whether r carries admin privileges
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}
