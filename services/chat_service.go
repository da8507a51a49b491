package services

import (
	"context"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/kendall-kelly/repair-shop-api/lifecycle"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/monitoring"
	"github.com/kendall-kelly/repair-shop-api/repository"
)

// ChatService is the conversation between a customer and the assigned technician
type ChatService interface {
	ListMessages(ctx context.Context, actor lifecycle.Actor, requestID string) ([]models.ChatMessage, error)
	SendMessage(ctx context.Context, actor lifecycle.Actor, requestID, body string, attachmentURL *string) (*models.ChatMessage, error)
	Subscribe(ctx context.Context, actor lifecycle.Actor, requestID string) (<-chan models.ChatMessage, error)
}

// RepairChatService implements ChatService with the repository and an in-process hub
type RepairChatService struct {
	repo   repository.Repository
	hub    *ChatHub
	events EventPublisher
	log    logr.Logger
}

var chatServiceInstance ChatService

// NewRepairChatService creates a chat service
func NewRepairChatService(repo repository.Repository, hub *ChatHub, events EventPublisher, log logr.Logger) *RepairChatService {
	return &RepairChatService{
		repo:   repo,
		hub:    hub,
		events: events,
		log:    log.WithName("chat"),
	}
}

// InitChatService initializes the global chat service
func InitChatService(repo repository.Repository, hub *ChatHub, events EventPublisher, log logr.Logger) ChatService {
	chatServiceInstance = NewRepairChatService(repo, hub, events, log)
	return chatServiceInstance
}

// GetChatService returns the initialized chat service instance
func GetChatService() ChatService {
	return chatServiceInstance
}

// SetChatService sets the chat service instance (primarily for testing)
func SetChatService(service ChatService) {
	chatServiceInstance = service
}

// canRead: the customer, the assigned technician and admins
func canRead(actor lifecycle.Actor, request *models.RepairRequest) bool {
	return actor.Role.IsAdmin() || canSend(actor, request)
}

// canSend: only the two parties of the conversation
func canSend(actor lifecycle.Actor, request *models.RepairRequest) bool {
	switch actor.Role {
	case models.RoleCustomer:
		return request.CustomerID == actor.ID
	case models.RoleTechnician:
		return request.IsAssignedTo(actor.ID)
	}
	return false
}

func (s *RepairChatService) readableRequest(ctx context.Context, actor lifecycle.Actor, requestID string) (*models.RepairRequest, error) {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, request) {
		return nil, lifecycle.Unauthorized("you do not have permission to view messages on this repair request")
	}
	return request, nil
}

// ListMessages returns the conversation in send order
func (s *RepairChatService) ListMessages(ctx context.Context, actor lifecycle.Actor, requestID string) ([]models.ChatMessage, error) {
	if _, err := s.readableRequest(ctx, actor, requestID); err != nil {
		return nil, err
	}
	return s.repo.FetchMessages(ctx, requestID)
}

// SendMessage stores a message and fans it out to live subscribers
func (s *RepairChatService) SendMessage(ctx context.Context, actor lifecycle.Actor, requestID, body string, attachmentURL *string) (*models.ChatMessage, error) {
	message, err := s.send(ctx, actor, requestID, body, attachmentURL)
	monitoring.RecordChatMessage(err)
	return message, err
}

func (s *RepairChatService) send(ctx context.Context, actor lifecycle.Actor, requestID, body string, attachmentURL *string) (*models.ChatMessage, error) {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !canSend(actor, request) {
		return nil, lifecycle.Unauthorized("you do not have permission to message on this repair request")
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, lifecycle.ValidationError("message is required")
	}

	message := models.ChatMessage{
		RepairRequestID: requestID,
		SenderID:        actor.ID,
		Message:         body,
		AttachmentURL:   trimmedOrNil(attachmentURL),
	}
	if err := s.repo.InsertMessage(ctx, &message); err != nil {
		return nil, err
	}

	s.hub.Publish(message)

	err = s.events.Publish(ctx, Event{
		Type:            EventMessageCreated,
		RepairRequestID: requestID,
		ActorID:         actor.ID,
		OccurredAt:      time.Now().UTC(),
	})
	monitoring.RecordEventPublished("events", err)
	if err != nil {
		s.log.Error(err, "failed to publish chat event", "repairRequestID", requestID)
	}

	return &message, nil
}

// Subscribe streams new messages on a request the actor can read until ctx ends
func (s *RepairChatService) Subscribe(ctx context.Context, actor lifecycle.Actor, requestID string) (<-chan models.ChatMessage, error) {
	if _, err := s.readableRequest(ctx, actor, requestID); err != nil {
		return nil, err
	}
	return s.hub.Subscribe(ctx, requestID), nil
}
