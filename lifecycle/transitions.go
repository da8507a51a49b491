// Package lifecycle holds the repair request state machine, the role rules for
// moving along it and the aggregates dashboards derive from request lists.
// Nothing in here talks to the database.
package lifecycle

import (
	"math"
	"strings"

	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/samber/lo"
)

// Actor is the authenticated profile performing an operation
type Actor struct {
	ID   string
	Role models.Role
}

// Gate is the identity check a trigger applies on top of the role check
type Gate int

const (
	// AnyHolder lets any actor with the role through
	AnyHolder Gate = iota
	// Assignee requires the actor to be the request's technician
	Assignee
	// Owner requires the actor to be the request's customer
	Owner
)

// Requirement is the field a transition must write
type Requirement int

const (
	RequiresNothing Requirement = iota
	RequiresTechnician
	RequiresEstimate
	RequiresFinalCost
)

// Trigger is one kind of actor allowed to take an edge
type Trigger struct {
	Roles []models.Role
	Gate  Gate
}

// Edge is a permitted status change
type Edge struct {
	From     models.RepairStatus
	To       models.RepairStatus
	Triggers []Trigger
	Requires Requirement
}

// Fields carries the optional values a transition request may set
type Fields struct {
	TechnicianID  *string
	EstimatedCost *float64
	FinalCost     *float64
	Notes         *string
}

var (
	admins          = []models.Role{models.RoleAdmin, models.RoleSuperAdmin}
	technicians     = []models.Role{models.RoleTechnician}
	customers       = []models.Role{models.RoleCustomer}
	byAdmin         = Trigger{Roles: admins, Gate: AnyHolder}
	byAssignee      = Trigger{Roles: technicians, Gate: Assignee}
	byOwner         = Trigger{Roles: customers, Gate: Owner}
	cancellableFrom = []models.RepairStatus{
		models.StatusAssigned,
		models.StatusDiagnosing,
		models.StatusRepairing,
		models.StatusWaitingApproval,
	}
)

// transitions is keyed by the current status
var transitions = buildTable()

func buildTable() map[models.RepairStatus][]Edge {
	edges := []Edge{
		{From: models.StatusSubmitted, To: models.StatusAssigned, Triggers: []Trigger{byAdmin}, Requires: RequiresTechnician},
		{From: models.StatusAssigned, To: models.StatusDiagnosing, Triggers: []Trigger{byAssignee}},
		{From: models.StatusDiagnosing, To: models.StatusRepairing, Triggers: []Trigger{byAssignee}},
		{From: models.StatusDiagnosing, To: models.StatusWaitingApproval, Triggers: []Trigger{byAssignee}, Requires: RequiresEstimate},
		{From: models.StatusRepairing, To: models.StatusReadyPickup, Triggers: []Trigger{byAssignee}, Requires: RequiresFinalCost},
		{From: models.StatusReadyPickup, To: models.StatusCompleted, Triggers: []Trigger{byAssignee, byOwner}},
	}

	// Cancelling is kept to states where a technician is assigned and no final
	// cost exists yet. The customer may only cancel by declining an estimate.
	for _, from := range cancellableFrom {
		triggers := []Trigger{byAdmin}
		if from == models.StatusWaitingApproval {
			triggers = append(triggers, byOwner)
		}
		edges = append(edges, Edge{From: from, To: models.StatusCancelled, Triggers: triggers})
	}

	table := make(map[models.RepairStatus][]Edge)
	for _, edge := range edges {
		table[edge.From] = append(table[edge.From], edge)
	}
	return table
}

// Edges returns every edge in the table
func Edges() []Edge {
	var all []Edge
	for _, status := range models.AllStatuses {
		all = append(all, transitions[status]...)
	}
	return all
}

// FindEdge returns the edge from one status to another, if there is one
func FindEdge(from, to models.RepairStatus) (Edge, bool) {
	for _, edge := range transitions[from] {
		if edge.To == to {
			return edge, true
		}
	}
	return Edge{}, false
}

// CheckTransition validates that actor may move request to target with fields.
// It never mutates request.
func CheckTransition(actor Actor, request *models.RepairRequest, target models.RepairStatus, fields Fields) (Edge, error) {
	if !target.IsValid() {
		return Edge{}, ValidationError("unknown status %q", target)
	}

	edge, ok := FindEdge(request.Status, target)
	if !ok {
		return Edge{}, InvalidTransition(request.Status, target)
	}

	if err := edge.authorize(actor, request); err != nil {
		return Edge{}, err
	}

	if err := edge.validate(actor, fields); err != nil {
		return Edge{}, err
	}

	return edge, nil
}

// AvailableTransitions lists the statuses actor can move request to right now,
// ignoring field requirements
func AvailableTransitions(actor Actor, request *models.RepairRequest) []models.RepairStatus {
	targets := []models.RepairStatus{}
	for _, edge := range transitions[request.Status] {
		if edge.authorize(actor, request) == nil {
			targets = append(targets, edge.To)
		}
	}
	return targets
}

func (e Edge) authorize(actor Actor, request *models.RepairRequest) error {
	roleMatched := false
	for _, trigger := range e.Triggers {
		if !lo.Contains(trigger.Roles, actor.Role) {
			continue
		}
		roleMatched = true

		switch trigger.Gate {
		case AnyHolder:
			return nil
		case Assignee:
			if request.IsAssignedTo(actor.ID) {
				return nil
			}
		case Owner:
			if request.CustomerID == actor.ID {
				return nil
			}
		}
	}

	if roleMatched {
		return Unauthorized("this repair request belongs to another %s", actor.Role)
	}
	return Unauthorized("a %s cannot move a repair request from %s to %s", actor.Role, e.From, e.To)
}

func (e Edge) validate(actor Actor, fields Fields) error {
	if fields.TechnicianID != nil && e.Requires != RequiresTechnician {
		return ValidationError("technician_id can only be set when assigning")
	}
	if fields.EstimatedCost != nil && e.Requires != RequiresEstimate {
		return ValidationError("estimated_cost can only be set when sending an estimate")
	}
	if fields.FinalCost != nil && e.Requires != RequiresFinalCost {
		return ValidationError("final_cost can only be set when the repair is ready for pickup")
	}
	if fields.Notes != nil && actor.Role != models.RoleTechnician {
		return ValidationError("only technicians can attach notes")
	}

	switch e.Requires {
	case RequiresTechnician:
		if fields.TechnicianID == nil || strings.TrimSpace(*fields.TechnicianID) == "" {
			return ValidationError("technician_id is required")
		}
	case RequiresEstimate:
		if !isPositive(fields.EstimatedCost) {
			return ValidationError("estimated_cost must be a positive number")
		}
	case RequiresFinalCost:
		if !isPositive(fields.FinalCost) {
			return ValidationError("final_cost must be a positive number")
		}
	}
	return nil
}

// Changes returns the column updates a checked transition writes
func Changes(edge Edge, fields Fields) map[string]any {
	changes := map[string]any{"status": edge.To}
	switch edge.Requires {
	case RequiresTechnician:
		changes["technician_id"] = strings.TrimSpace(*fields.TechnicianID)
	case RequiresEstimate:
		changes["estimated_cost"] = *fields.EstimatedCost
	case RequiresFinalCost:
		changes["final_cost"] = *fields.FinalCost
	}
	if fields.Notes != nil {
		changes["technician_notes"] = *fields.Notes
	}
	return changes
}

// CheckNotesUpdate validates a notes-only update by the assigned technician.
// Blank notes are allowed and clear the stored value.
func CheckNotesUpdate(actor Actor, request *models.RepairRequest, notes string) error {
	if actor.Role != models.RoleTechnician {
		return Unauthorized("only technicians can update notes")
	}
	if !request.IsAssignedTo(actor.ID) {
		return Unauthorized("this repair request belongs to another technician")
	}
	if request.Status.IsTerminal() {
		return ValidationError("notes cannot be changed on a %s request", request.Status)
	}
	return nil
}

// CheckInvariants verifies the data-model invariants hold for request
func CheckInvariants(request *models.RepairRequest) error {
	if request.Status != models.StatusSubmitted && request.TechnicianID == nil {
		return ValidationError("%s request has no technician", request.Status)
	}
	if request.FinalCost != nil && request.Status != models.StatusReadyPickup && request.Status != models.StatusCompleted {
		return ValidationError("final cost set on a %s request", request.Status)
	}
	if request.EstimatedCost != nil && (request.Status == models.StatusSubmitted || request.Status == models.StatusAssigned) {
		return ValidationError("estimated cost set on a %s request", request.Status)
	}
	return nil
}

func isPositive(value *float64) bool {
	return value != nil && !math.IsNaN(*value) && !math.IsInf(*value, 0) && *value > 0
}
