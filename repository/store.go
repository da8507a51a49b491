// Package repository is the gorm-backed data access layer. Every failure it
// returns is a *lifecycle.Error so callers can map it without knowing gorm.
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/kendall-kelly/repair-shop-api/lifecycle"
	"github.com/kendall-kelly/repair-shop-api/models"
	"gorm.io/gorm"
)

// Filter narrows a repair request query
type Filter struct {
	Scope  lifecycle.Scope
	Status models.RepairStatus
	Limit  int
	Offset int
}

// Repository is everything the services need from the database
type Repository interface {
	FetchRequests(ctx context.Context, filter Filter) ([]models.RepairRequest, error)
	CountRequests(ctx context.Context, filter Filter) (int64, error)
	GetRequest(ctx context.Context, id string) (*models.RepairRequest, error)
	InsertRequest(ctx context.Context, request *models.RepairRequest) error
	UpdateRequestIfStatus(ctx context.Context, id string, expected models.RepairStatus, changes map[string]any, history *models.StatusUpdate) error
	LookupByCodeOrID(ctx context.Context, code string, scope lifecycle.Scope) (*models.RepairRequest, error)
	FetchHistory(ctx context.Context, requestID string) ([]models.StatusUpdate, error)

	FetchMessages(ctx context.Context, requestID string) ([]models.ChatMessage, error)
	InsertMessage(ctx context.Context, message *models.ChatMessage) error

	InsertReview(ctx context.Context, review *models.Review) error
	FetchReviews(ctx context.Context, technicianID string) ([]models.Review, error)

	InsertImage(ctx context.Context, image *models.RepairImage) error
	FetchImages(ctx context.Context, requestID string) ([]models.RepairImage, error)

	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByAuth0ID(ctx context.Context, auth0ID string) (*models.Profile, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error
	UpdateProfile(ctx context.Context, id string, updates map[string]any) (*models.Profile, error)
	ListProfiles(ctx context.Context, role models.Role) ([]models.Profile, error)

	ListDeviceTypes(ctx context.Context) ([]models.DeviceType, error)
	GetDeviceType(ctx context.Context, id string) (*models.DeviceType, error)
}

// Store implements Repository with gorm
type Store struct {
	db *gorm.DB
}

var _ Repository = (*Store)(nil)

// NewStore wraps an open gorm connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

func applyScope(query *gorm.DB, scope lifecycle.Scope) *gorm.DB {
	if scope.CustomerID != "" {
		query = query.Where("customer_id = ?", scope.CustomerID)
	}
	if scope.TechnicianID != "" {
		query = query.Where("technician_id = ?", scope.TechnicianID)
	}
	return query
}

func (s *Store) requestQuery(ctx context.Context, filter Filter) *gorm.DB {
	query := applyScope(s.db.WithContext(ctx).Model(&models.RepairRequest{}), filter.Scope)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}

func withDisplayFields(query *gorm.DB) *gorm.DB {
	return query.Preload("Customer").Preload("Technician").Preload("DeviceType")
}

// FetchRequests lists repair requests newest first with their customer,
// technician and device type loaded
func (s *Store) FetchRequests(ctx context.Context, filter Filter) ([]models.RepairRequest, error) {
	query := withDisplayFields(s.requestQuery(ctx, filter)).Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var requests []models.RepairRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, lifecycle.CollaboratorError("fetch repair requests", err)
	}
	return requests, nil
}

// CountRequests counts the repair requests matching filter, ignoring paging
func (s *Store) CountRequests(ctx context.Context, filter Filter) (int64, error) {
	var total int64
	if err := s.requestQuery(ctx, filter).Count(&total).Error; err != nil {
		return 0, lifecycle.CollaboratorError("count repair requests", err)
	}
	return total, nil
}

// GetRequest loads one repair request by id
func (s *Store) GetRequest(ctx context.Context, id string) (*models.RepairRequest, error) {
	var request models.RepairRequest
	if err := withDisplayFields(s.db.WithContext(ctx)).Where("id = ?", id).First(&request).Error; err != nil {
		return nil, translate(err, "repair request", "load repair request")
	}
	return &request, nil
}

// InsertRequest stores a new submitted request and its first history entry.
// Status and technician are always reset so a request cannot be created mid-lifecycle.
func (s *Store) InsertRequest(ctx context.Context, request *models.RepairRequest) error {
	request.Status = models.StatusSubmitted
	request.TechnicianID = nil
	request.Technician = nil
	request.EstimatedCost = nil
	request.FinalCost = nil

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Customer", "Technician", "DeviceType").Create(request).Error; err != nil {
			return lifecycle.CollaboratorError("create repair request", err)
		}

		history := models.StatusUpdate{
			RepairRequestID: request.ID,
			Status:          models.StatusSubmitted,
			UpdatedBy:       request.CustomerID,
		}
		if err := tx.Create(&history).Error; err != nil {
			return lifecycle.CollaboratorError("record repair request history", err)
		}
		return nil
	})
}

// UpdateRequestIfStatus applies changes only while the request is still in the
// expected status and records history in the same transaction. A request that
// moved on in the meantime yields a Conflict.
func (s *Store) UpdateRequestIfStatus(ctx context.Context, id string, expected models.RepairStatus, changes map[string]any, history *models.StatusUpdate) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.RepairRequest{}).
			Where("id = ? AND status = ?", id, expected).
			Updates(changes)
		if result.Error != nil {
			return lifecycle.CollaboratorError("update repair request", result.Error)
		}
		if result.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.RepairRequest{}).Where("id = ?", id).Count(&exists).Error; err != nil {
				return lifecycle.CollaboratorError("update repair request", err)
			}
			if exists == 0 {
				return lifecycle.NotFound("repair request")
			}
			return lifecycle.Conflict("repair request is no longer %s, reload and try again", expected)
		}

		if history != nil {
			history.RepairRequestID = id
			if err := tx.Create(history).Error; err != nil {
				return lifecycle.CollaboratorError("record repair request history", err)
			}
		}
		return nil
	})
}

// LookupByCodeOrID finds the single request inside scope whose id or tracking
// code equals code exactly, case included. No match and an ambiguous match
// are both NotFound.
func (s *Store) LookupByCodeOrID(ctx context.Context, code string, scope lifecycle.Scope) (*models.RepairRequest, error) {
	if code == "" {
		return nil, lifecycle.NotFound("repair request")
	}

	var matches []models.RepairRequest
	query := applyScope(withDisplayFields(s.db.WithContext(ctx)), scope).
		Where("(id = ? OR tracking_code = ?)", code, code).
		Limit(2)
	if err := query.Find(&matches).Error; err != nil {
		return nil, lifecycle.CollaboratorError("look up repair request", err)
	}
	if len(matches) != 1 {
		return nil, lifecycle.NotFound("repair request")
	}
	return &matches[0], nil
}

// FetchHistory returns the status updates of a request oldest first
func (s *Store) FetchHistory(ctx context.Context, requestID string) ([]models.StatusUpdate, error) {
	var history []models.StatusUpdate
	err := s.db.WithContext(ctx).
		Where("repair_request_id = ?", requestID).
		Order("created_at ASC").
		Find(&history).Error
	if err != nil {
		return nil, lifecycle.CollaboratorError("fetch repair request history", err)
	}
	return history, nil
}

// FetchMessages returns a request's chat messages in send order
func (s *Store) FetchMessages(ctx context.Context, requestID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("repair_request_id = ?", requestID).
		Preload("Sender").
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, lifecycle.CollaboratorError("fetch messages", err)
	}
	return messages, nil
}

// InsertMessage stores a chat message and loads its sender
func (s *Store) InsertMessage(ctx context.Context, message *models.ChatMessage) error {
	db := s.db.WithContext(ctx)
	if err := db.Omit("RepairRequest", "Sender").Create(message).Error; err != nil {
		return lifecycle.CollaboratorError("create message", err)
	}
	if err := db.Where("id = ?", message.SenderID).First(&message.Sender).Error; err != nil {
		return lifecycle.CollaboratorError("load message details", err)
	}
	return nil
}

// InsertReview stores a review. A second review for the same request is a Conflict.
func (s *Store) InsertReview(ctx context.Context, review *models.Review) error {
	if err := s.db.WithContext(ctx).Omit("Customer").Create(review).Error; err != nil {
		if isUniqueViolation(err) {
			return lifecycle.Conflict("this repair request has already been reviewed")
		}
		return lifecycle.CollaboratorError("create review", err)
	}
	return nil
}

// FetchReviews returns reviews newest first, for one technician or all when technicianID is empty
func (s *Store) FetchReviews(ctx context.Context, technicianID string) ([]models.Review, error) {
	query := s.db.WithContext(ctx).Preload("Customer").Order("created_at DESC")
	if technicianID != "" {
		query = query.Where("technician_id = ?", technicianID)
	}

	var reviews []models.Review
	if err := query.Find(&reviews).Error; err != nil {
		return nil, lifecycle.CollaboratorError("fetch reviews", err)
	}
	return reviews, nil
}

// InsertImage stores the metadata of an uploaded device photo
func (s *Store) InsertImage(ctx context.Context, image *models.RepairImage) error {
	if err := s.db.WithContext(ctx).Create(image).Error; err != nil {
		return lifecycle.CollaboratorError("create image", err)
	}
	return nil
}

// FetchImages returns a request's photos oldest first
func (s *Store) FetchImages(ctx context.Context, requestID string) ([]models.RepairImage, error) {
	var images []models.RepairImage
	err := s.db.WithContext(ctx).
		Where("repair_request_id = ?", requestID).
		Order("created_at ASC").
		Find(&images).Error
	if err != nil {
		return nil, lifecycle.CollaboratorError("fetch images", err)
	}
	return images, nil
}

// GetProfile loads a profile by id
func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, translate(err, "profile", "load profile")
	}
	return &profile, nil
}

// GetProfileByAuth0ID loads the profile of an identity provider subject
func (s *Store) GetProfileByAuth0ID(ctx context.Context, auth0ID string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("auth0_id = ?", auth0ID).First(&profile).Error; err != nil {
		return nil, translate(err, "profile", "load profile")
	}
	return &profile, nil
}

// CreateProfile stores a new profile. A reused subject or email is a Conflict.
func (s *Store) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isUniqueViolation(err) {
			return lifecycle.Conflict("a profile with this Auth0 ID or email already exists")
		}
		return lifecycle.CollaboratorError("create profile", err)
	}
	return nil
}

// UpdateProfile applies column updates and returns the stored profile
func (s *Store) UpdateProfile(ctx context.Context, id string, updates map[string]any) (*models.Profile, error) {
	if len(updates) > 0 {
		err := s.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Updates(updates).Error
		if err != nil {
			if isUniqueViolation(err) {
				return nil, lifecycle.Conflict("a profile with this email already exists")
			}
			return nil, lifecycle.CollaboratorError("update profile", err)
		}
	}
	return s.GetProfile(ctx, id)
}

// ListProfiles returns profiles ordered by name, optionally of one role
func (s *Store) ListProfiles(ctx context.Context, role models.Role) ([]models.Profile, error) {
	query := s.db.WithContext(ctx).Order("full_name ASC")
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var profiles []models.Profile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, lifecycle.CollaboratorError("list profiles", err)
	}
	return profiles, nil
}

// ListDeviceTypes returns the device type catalogue ordered by category and name
func (s *Store) ListDeviceTypes(ctx context.Context) ([]models.DeviceType, error) {
	var deviceTypes []models.DeviceType
	if err := s.db.WithContext(ctx).Order("category ASC").Order("name ASC").Find(&deviceTypes).Error; err != nil {
		return nil, lifecycle.CollaboratorError("list device types", err)
	}
	return deviceTypes, nil
}

// GetDeviceType loads one device type
func (s *Store) GetDeviceType(ctx context.Context, id string) (*models.DeviceType, error) {
	var deviceType models.DeviceType
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&deviceType).Error; err != nil {
		return nil, translate(err, "device type", "load device type")
	}
	return &deviceType, nil
}

func translate(err error, what, operation string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return lifecycle.NotFound(what)
	}
	return lifecycle.CollaboratorError(operation, err)
}

// isUniqueViolation works with both PostgreSQL and SQLite error texts
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}
