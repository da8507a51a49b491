package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/kendall-kelly/repair-shop-api/lifecycle"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/monitoring"
	"github.com/kendall-kelly/repair-shop-api/repository"
	"gorm.io/datatypes"
)

// CreateRequestInput is what a customer provides when submitting a repair request
type CreateRequestInput struct {
	DeviceTypeID       string
	DeviceBrand        string
	DeviceModel        *string
	ProblemDescription string
	Priority           models.Priority
	PickupAddress      *string
}

// ListOptions filters and pages a request list
type ListOptions struct {
	Status models.RepairStatus
	Page   int
	Limit  int
}

// LifecycleService runs every repair request operation through the lifecycle rules
type LifecycleService interface {
	ListForRole(ctx context.Context, actor lifecycle.Actor, opts ListOptions) ([]models.RepairRequest, int64, error)
	Create(ctx context.Context, actor lifecycle.Actor, input CreateRequestInput) (*models.RepairRequest, error)
	Get(ctx context.Context, actor lifecycle.Actor, id string) (*models.RepairRequest, error)
	History(ctx context.Context, actor lifecycle.Actor, id string) ([]models.StatusUpdate, error)
	Transition(ctx context.Context, actor lifecycle.Actor, id string, target models.RepairStatus, fields lifecycle.Fields) (*models.RepairRequest, error)
	Assign(ctx context.Context, actor lifecycle.Actor, id, technicianID string) (*models.RepairRequest, error)
	UpdateNotes(ctx context.Context, actor lifecycle.Actor, id, notes string) (*models.RepairRequest, error)
	Track(ctx context.Context, actor lifecycle.Actor, code string) (*models.RepairRequest, error)
	Stats(ctx context.Context, actor lifecycle.Actor) (lifecycle.Stats, error)
	Analytics(ctx context.Context, actor lifecycle.Actor) (lifecycle.Analytics, error)
}

// RepairLifecycleService implements LifecycleService on a repository.
// Events and notifications are sent after the database commit and never
// undo it; their failures are logged and counted.
type RepairLifecycleService struct {
	repo     repository.Repository
	events   EventPublisher
	notifier Notifier
	log      logr.Logger
	now      func() time.Time
}

var lifecycleServiceInstance LifecycleService

// NewRepairLifecycleService creates a lifecycle service
func NewRepairLifecycleService(repo repository.Repository, events EventPublisher, notifier Notifier, log logr.Logger) *RepairLifecycleService {
	return &RepairLifecycleService{
		repo:     repo,
		events:   events,
		notifier: notifier,
		log:      log.WithName("lifecycle"),
		now:      time.Now,
	}
}

// InitLifecycleService initializes the global lifecycle service
func InitLifecycleService(repo repository.Repository, events EventPublisher, notifier Notifier, log logr.Logger) LifecycleService {
	lifecycleServiceInstance = NewRepairLifecycleService(repo, events, notifier, log)
	return lifecycleServiceInstance
}

// GetLifecycleService returns the initialized lifecycle service instance
func GetLifecycleService() LifecycleService {
	return lifecycleServiceInstance
}

// SetLifecycleService sets the lifecycle service instance (primarily for testing)
func SetLifecycleService(service LifecycleService) {
	lifecycleServiceInstance = service
}

// ListForRole returns the page of requests the actor may see, newest first,
// and the total number of matching requests
func (s *RepairLifecycleService) ListForRole(ctx context.Context, actor lifecycle.Actor, opts ListOptions) ([]models.RepairRequest, int64, error) {
	scope, err := lifecycle.ScopeFor(actor)
	if err != nil {
		return nil, 0, err
	}
	if opts.Status != "" && !opts.Status.IsValid() {
		return nil, 0, lifecycle.ValidationError("unknown status %q", opts.Status)
	}

	filter := repository.Filter{Scope: scope, Status: opts.Status}
	total, err := s.repo.CountRequests(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	if opts.Limit > 0 {
		page := max(opts.Page, 1)
		filter.Limit = opts.Limit
		filter.Offset = (page - 1) * opts.Limit
	}
	requests, err := s.repo.FetchRequests(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// Create submits a new repair request for a customer
func (s *RepairLifecycleService) Create(ctx context.Context, actor lifecycle.Actor, input CreateRequestInput) (*models.RepairRequest, error) {
	ctx, span := monitoring.StartServiceSpan(ctx, "Lifecycle.Create", "")
	defer span.End()

	request, err := s.create(ctx, actor, input)
	monitoring.RecordSpanError(span, err)
	return request, err
}

func (s *RepairLifecycleService) create(ctx context.Context, actor lifecycle.Actor, input CreateRequestInput) (*models.RepairRequest, error) {
	if actor.Role != models.RoleCustomer {
		return nil, lifecycle.Unauthorized("only customers can submit repair requests")
	}

	brand := strings.TrimSpace(input.DeviceBrand)
	description := strings.TrimSpace(input.ProblemDescription)
	switch {
	case input.DeviceTypeID == "":
		return nil, lifecycle.ValidationError("device_type_id is required")
	case brand == "":
		return nil, lifecycle.ValidationError("device_brand is required")
	case description == "":
		return nil, lifecycle.ValidationError("problem_description is required")
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, lifecycle.ValidationError("unknown priority %q", priority)
	}

	if _, err := s.repo.GetDeviceType(ctx, input.DeviceTypeID); err != nil {
		if errors.Is(err, lifecycle.ErrNotFound) {
			return nil, lifecycle.ValidationError("unknown device type %q", input.DeviceTypeID)
		}
		return nil, err
	}

	request := models.RepairRequest{
		CustomerID:         actor.ID,
		DeviceTypeID:       input.DeviceTypeID,
		DeviceBrand:        brand,
		DeviceModel:        trimmedOrNil(input.DeviceModel),
		ProblemDescription: description,
		Priority:           priority,
		PickupAddress:      trimmedOrNil(input.PickupAddress),
	}
	if err := s.repo.InsertRequest(ctx, &request); err != nil {
		return nil, err
	}
	monitoring.RecordRequestCreated()

	s.publish(ctx, Event{
		Type:            EventRequestCreated,
		RepairRequestID: request.ID,
		To:              models.StatusSubmitted,
		ActorID:         actor.ID,
	})

	return s.repo.GetRequest(ctx, request.ID)
}

// Get returns one request if it is inside the actor's scope. Requests outside
// the scope are reported as not found.
func (s *RepairLifecycleService) Get(ctx context.Context, actor lifecycle.Actor, id string) (*models.RepairRequest, error) {
	scope, err := lifecycle.ScopeFor(actor)
	if err != nil {
		return nil, err
	}

	request, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Allows(request) {
		return nil, lifecycle.NotFound("repair request")
	}
	return request, nil
}

// History returns the status updates of a visible request oldest first
func (s *RepairLifecycleService) History(ctx context.Context, actor lifecycle.Actor, id string) ([]models.StatusUpdate, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repo.FetchHistory(ctx, id)
}

// Transition moves a request to target. Every rule is checked before the
// write, and the write only lands if the request is still in the status the
// checks ran against.
func (s *RepairLifecycleService) Transition(ctx context.Context, actor lifecycle.Actor, id string, target models.RepairStatus, fields lifecycle.Fields) (*models.RepairRequest, error) {
	ctx, span := monitoring.StartServiceSpan(ctx, "Lifecycle.Transition", id)
	defer span.End()

	request, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		monitoring.RecordSpanError(span, err)
		return nil, err
	}
	from := request.Status

	updated, err := s.transition(ctx, actor, request, target, fields)
	monitoring.RecordTransition(string(from), string(target), err)
	monitoring.RecordSpanError(span, err)
	if err != nil {
		s.log.V(1).Info("transition rejected", "repairRequestID", id, "from", from, "to", target, "actor", actor.ID, "reason", err.Error())
		return nil, err
	}

	s.log.Info("transition applied", "repairRequestID", id, "from", from, "to", target, "actor", actor.ID)
	return updated, nil
}

func (s *RepairLifecycleService) transition(ctx context.Context, actor lifecycle.Actor, request *models.RepairRequest, target models.RepairStatus, fields lifecycle.Fields) (*models.RepairRequest, error) {
	edge, err := lifecycle.CheckTransition(actor, request, target, fields)
	if err != nil {
		return nil, err
	}

	if edge.Requires == lifecycle.RequiresTechnician {
		if err := s.checkTechnician(ctx, strings.TrimSpace(*fields.TechnicianID)); err != nil {
			return nil, err
		}
	}

	changes := lifecycle.Changes(edge, fields)
	from := request.Status
	history := &models.StatusUpdate{
		FromStatus: &from,
		Status:     edge.To,
		UpdatedBy:  actor.ID,
		Message:    fields.Notes,
		Details:    historyDetails(changes),
	}
	if err := s.repo.UpdateRequestIfStatus(ctx, request.ID, from, changes, history); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetRequest(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckInvariants(updated); err != nil {
		s.log.Error(err, "repair request invariant violated after transition", "repairRequestID", updated.ID)
	}

	s.publish(ctx, Event{
		Type:            EventStatusChanged,
		RepairRequestID: updated.ID,
		From:            from,
		To:              updated.Status,
		ActorID:         actor.ID,
	})
	if ShouldNotify(updated.Status) {
		s.notify(ctx, updated)
	}
	return updated, nil
}

func (s *RepairLifecycleService) checkTechnician(ctx context.Context, technicianID string) error {
	technician, err := s.repo.GetProfile(ctx, technicianID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotFound) {
			return lifecycle.ValidationError("technician %q does not exist", technicianID)
		}
		return err
	}
	if technician.Role != models.RoleTechnician {
		return lifecycle.ValidationError("profile %q is not a technician", technicianID)
	}
	return nil
}

// Assign is the admin shortcut for the submitted to assigned transition
func (s *RepairLifecycleService) Assign(ctx context.Context, actor lifecycle.Actor, id, technicianID string) (*models.RepairRequest, error) {
	return s.Transition(ctx, actor, id, models.StatusAssigned, lifecycle.Fields{TechnicianID: &technicianID})
}

// UpdateNotes replaces the technician notes without changing status. Blank
// notes set the column to NULL.
func (s *RepairLifecycleService) UpdateNotes(ctx context.Context, actor lifecycle.Actor, id, notes string) (*models.RepairRequest, error) {
	request, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CheckNotesUpdate(actor, request, notes); err != nil {
		return nil, err
	}

	var value any
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		value = trimmed
	}
	changes := map[string]any{"technician_notes": value}
	if err := s.repo.UpdateRequestIfStatus(ctx, id, request.Status, changes, nil); err != nil {
		return nil, err
	}
	return s.repo.GetRequest(ctx, id)
}

// Track finds a request by id or tracking code inside the actor's scope
func (s *RepairLifecycleService) Track(ctx context.Context, actor lifecycle.Actor, code string) (*models.RepairRequest, error) {
	scope, err := lifecycle.ScopeFor(actor)
	if err != nil {
		return nil, err
	}
	return s.repo.LookupByCodeOrID(ctx, code, scope)
}

// Stats computes the dashboard counters over the actor's requests
func (s *RepairLifecycleService) Stats(ctx context.Context, actor lifecycle.Actor) (lifecycle.Stats, error) {
	scope, err := lifecycle.ScopeFor(actor)
	if err != nil {
		return lifecycle.Stats{}, err
	}
	requests, err := s.repo.FetchRequests(ctx, repository.Filter{Scope: scope})
	if err != nil {
		return lifecycle.Stats{}, err
	}
	return lifecycle.ComputeStats(requests), nil
}

// Analytics computes the admin reports over every request and review
func (s *RepairLifecycleService) Analytics(ctx context.Context, actor lifecycle.Actor) (lifecycle.Analytics, error) {
	if !actor.Role.IsAdmin() {
		return lifecycle.Analytics{}, lifecycle.Unauthorized("only admins can view analytics")
	}

	requests, err := s.repo.FetchRequests(ctx, repository.Filter{})
	if err != nil {
		return lifecycle.Analytics{}, err
	}
	reviews, err := s.repo.FetchReviews(ctx, "")
	if err != nil {
		return lifecycle.Analytics{}, err
	}
	return lifecycle.ComputeAnalytics(requests, reviews), nil
}

func (s *RepairLifecycleService) publish(ctx context.Context, event Event) {
	event.OccurredAt = s.now().UTC()
	err := s.events.Publish(ctx, event)
	monitoring.RecordEventPublished("events", err)
	if err != nil {
		s.log.Error(err, "failed to publish event", "type", event.Type, "repairRequestID", event.RepairRequestID)
	}
}

func (s *RepairLifecycleService) notify(ctx context.Context, request *models.RepairRequest) {
	err := s.notifier.Notify(ctx, Notification{
		RepairRequestID: request.ID,
		CustomerID:      request.CustomerID,
		Status:          request.Status,
		TrackingCode:    request.TrackingCode,
	})
	monitoring.RecordEventPublished("notifications", err)
	if err != nil {
		s.log.Error(err, "failed to notify customer", "repairRequestID", request.ID, "status", request.Status)
	}
}

// historyDetails keeps the values a transition wrote besides status and notes
func historyDetails(changes map[string]any) datatypes.JSON {
	details := make(map[string]any)
	for key, value := range changes {
		if key != "status" && key != "technician_notes" {
			details[key] = value
		}
	}
	if len(details) == 0 {
		return nil
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	return datatypes.JSON(encoded)
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
