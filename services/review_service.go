package services

import (
	"context"

	"github.com/kendall-kelly/repair-shop-api/lifecycle"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/repository"
)

// ReviewService lets customers rate the technician who completed their repair
type ReviewService interface {
	CreateReview(ctx context.Context, actor lifecycle.Actor, requestID string, rating int, comment *string) (*models.Review, error)
	ListTechnicianReviews(ctx context.Context, technicianID string) ([]models.Review, error)
}

// RepairReviewService implements ReviewService on a repository
type RepairReviewService struct {
	repo repository.Repository
}

var reviewServiceInstance ReviewService

// NewRepairReviewService creates a review service
func NewRepairReviewService(repo repository.Repository) *RepairReviewService {
	return &RepairReviewService{repo: repo}
}

// InitReviewService initializes the global review service
func InitReviewService(repo repository.Repository) ReviewService {
	reviewServiceInstance = NewRepairReviewService(repo)
	return reviewServiceInstance
}

// GetReviewService returns the initialized review service instance
func GetReviewService() ReviewService {
	return reviewServiceInstance
}

// SetReviewService sets the review service instance (primarily for testing)
func SetReviewService(service ReviewService) {
	reviewServiceInstance = service
}

// CreateReview records the owner's rating of a completed request. Each request
// can be reviewed once.
func (s *RepairReviewService) CreateReview(ctx context.Context, actor lifecycle.Actor, requestID string, rating int, comment *string) (*models.Review, error) {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleCustomer || request.CustomerID != actor.ID {
		return nil, lifecycle.Unauthorized("only the customer who submitted this repair request can review it")
	}
	if request.Status != models.StatusCompleted || request.TechnicianID == nil {
		return nil, lifecycle.ValidationError("repair request is not completed")
	}
	if rating < 1 || rating > 5 {
		return nil, lifecycle.ValidationError("rating must be between 1 and 5")
	}

	review := models.Review{
		RepairRequestID: request.ID,
		CustomerID:      actor.ID,
		TechnicianID:    *request.TechnicianID,
		Rating:          rating,
		Comment:         trimmedOrNil(comment),
	}
	if err := s.repo.InsertReview(ctx, &review); err != nil {
		return nil, err
	}
	review.Customer = request.Customer
	return &review, nil
}

// ListTechnicianReviews returns a technician's reviews newest first
func (s *RepairReviewService) ListTechnicianReviews(ctx context.Context, technicianID string) ([]models.Review, error) {
	technician, err := s.repo.GetProfile(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	if technician.Role != models.RoleTechnician {
		return nil, lifecycle.NotFound("technician")
	}
	return s.repo.FetchReviews(ctx, technicianID)
}
