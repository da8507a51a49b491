package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/kendall-kelly/repair-shop-api/lifecycle"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/repository"
	"github.com/kendall-kelly/repair-shop-api/utils"
)

// ImageService handles all image-related operations including upload, retrieval, and deletion
type ImageService interface {
	// UploadImage validates and stores an image file under prefix, returns the storage key
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error)

	// GetImageURL generates a URL for accessing an uploaded image
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

// StorageImageService implements ImageService on top of S3 or local storage
type StorageImageService struct {
	storage S3Interface
}

var imageServiceInstance ImageService

// InitImageService initializes the image service with a storage backend
func InitImageService(storage S3Interface) ImageService {
	imageServiceInstance = &StorageImageService{
		storage: storage,
	}
	return imageServiceInstance
}

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// UploadImage validates and uploads an image file
func (s *StorageImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}

	key, err := s.storage.UploadFile(ctx, fileHeader, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return key, nil
}

// GetImageURL generates a URL for accessing an image
func (s *StorageImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	url, err := s.storage.GetPresignedURL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}

	return url, nil
}

// DeleteImage deletes an image from storage
func (s *StorageImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}

	if err := s.storage.DeleteFile(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	return nil
}

// RepairImageService attaches device photos to repair requests
type RepairImageService struct {
	repo   repository.Repository
	images ImageService
}

// NewRepairImageService creates a photo service storing files through images
func NewRepairImageService(repo repository.Repository, images ImageService) *RepairImageService {
	return &RepairImageService{repo: repo, images: images}
}

// AttachImage uploads a photo for a request. Only the customer and the
// assigned technician may add photos.
func (s *RepairImageService) AttachImage(ctx context.Context, actor lifecycle.Actor, requestID string, fileHeader *multipart.FileHeader, description *string) (*models.RepairImage, error) {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !canSend(actor, request) {
		return nil, lifecycle.Unauthorized("you do not have permission to add photos to this repair request")
	}

	key, err := s.images.UploadImage(ctx, fileHeader, "repair-requests/"+request.ID)
	if err != nil {
		return nil, err
	}

	image := models.RepairImage{
		RepairRequestID: request.ID,
		UploadedBy:      actor.ID,
		StorageKey:      key,
		Description:     trimmedOrNil(description),
	}
	if err := s.repo.InsertImage(ctx, &image); err != nil {
		if deleteErr := s.images.DeleteImage(ctx, key); deleteErr != nil {
			return nil, fmt.Errorf("%w (cleanup failed: %v)", err, deleteErr)
		}
		return nil, err
	}

	image.ImageURL, err = s.images.GetImageURL(ctx, key)
	if err != nil {
		return nil, lifecycle.CollaboratorError("generate image URL", err)
	}
	return &image, nil
}

// ListImages returns the photos of a request the actor can view, with URLs
func (s *RepairImageService) ListImages(ctx context.Context, actor lifecycle.Actor, requestID string) ([]models.RepairImage, error) {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !canRead(actor, request) {
		return nil, lifecycle.Unauthorized("you do not have permission to view photos of this repair request")
	}

	images, err := s.repo.FetchImages(ctx, requestID)
	if err != nil {
		return nil, err
	}
	for i := range images {
		images[i].ImageURL, err = s.images.GetImageURL(ctx, images[i].StorageKey)
		if err != nil {
			return nil, lifecycle.CollaboratorError("generate image URL", err)
		}
	}
	return images, nil
}

var repairImageServiceInstance *RepairImageService

// InitRepairImageService initializes the global photo service
func InitRepairImageService(repo repository.Repository, images ImageService) *RepairImageService {
	repairImageServiceInstance = NewRepairImageService(repo, images)
	return repairImageServiceInstance
}

// GetRepairImageService returns the initialized photo service instance
func GetRepairImageService() *RepairImageService {
	return repairImageServiceInstance
}
