package services

import (
	"context"
	"strings"

	"github.com/kendall-kelly/repair-shop-api/lifecycle"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/repository"
)

// ProfileUpdate holds the self-service profile fields. Nil fields are left unchanged.
type ProfileUpdate struct {
	FullName  *string
	Phone     *string
	Address   *string
	AvatarURL *string
}

// ProfileService manages the profiles that identity provider subjects map to
type ProfileService interface {
	CreateProfile(ctx context.Context, auth0ID string, info *Auth0UserInfo, role models.Role) (*models.Profile, error)
	GetProfile(ctx context.Context, auth0ID string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, auth0ID string, update ProfileUpdate) (*models.Profile, error)
	ListProfiles(ctx context.Context, actor lifecycle.Actor, role models.Role) ([]models.Profile, error)
}

// RepairProfileService implements ProfileService on a repository
type RepairProfileService struct {
	repo repository.Repository
}

var profileServiceInstance ProfileService

// NewRepairProfileService creates a profile service
func NewRepairProfileService(repo repository.Repository) *RepairProfileService {
	return &RepairProfileService{repo: repo}
}

// InitProfileService initializes the global profile service
func InitProfileService(repo repository.Repository) ProfileService {
	profileServiceInstance = NewRepairProfileService(repo)
	return profileServiceInstance
}

// GetProfileService returns the initialized profile service instance
func GetProfileService() ProfileService {
	return profileServiceInstance
}

// SetProfileService sets the profile service instance (primarily for testing)
func SetProfileService(service ProfileService) {
	profileServiceInstance = service
}

// CreateProfile creates the profile of a newly signed-in subject. An empty
// role means customer.
func (s *RepairProfileService) CreateProfile(ctx context.Context, auth0ID string, info *Auth0UserInfo, role models.Role) (*models.Profile, error) {
	if role == "" {
		role = models.RoleCustomer
	}
	switch {
	case auth0ID == "":
		return nil, lifecycle.ValidationError("subject is required")
	case info == nil || strings.TrimSpace(info.Email) == "":
		return nil, lifecycle.ValidationError("email not provided by the identity provider")
	case strings.TrimSpace(info.Name) == "":
		return nil, lifecycle.ValidationError("name not provided by the identity provider")
	case !role.IsValid():
		return nil, lifecycle.ValidationError("unknown role %q", role)
	}

	profile := models.Profile{
		Auth0ID:  auth0ID,
		FullName: strings.TrimSpace(info.Name),
		Email:    strings.TrimSpace(info.Email),
		Role:     role,
	}
	if info.Picture != "" {
		profile.AvatarURL = &info.Picture
	}
	if err := s.repo.CreateProfile(ctx, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfile returns the profile of a subject
func (s *RepairProfileService) GetProfile(ctx context.Context, auth0ID string) (*models.Profile, error) {
	return s.repo.GetProfileByAuth0ID(ctx, auth0ID)
}

// UpdateProfile applies a self-service update. Role and email are not editable here.
func (s *RepairProfileService) UpdateProfile(ctx context.Context, auth0ID string, update ProfileUpdate) (*models.Profile, error) {
	profile, err := s.repo.GetProfileByAuth0ID(ctx, auth0ID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if update.FullName != nil {
		name := strings.TrimSpace(*update.FullName)
		if name == "" {
			return nil, lifecycle.ValidationError("full_name cannot be empty")
		}
		updates["full_name"] = name
	}
	if update.Phone != nil {
		updates["phone"] = trimmedOrNil(update.Phone)
	}
	if update.Address != nil {
		updates["address"] = trimmedOrNil(update.Address)
	}
	if update.AvatarURL != nil {
		updates["avatar_url"] = trimmedOrNil(update.AvatarURL)
	}

	return s.repo.UpdateProfile(ctx, profile.ID, updates)
}

// ListProfiles lists profiles for admins, optionally of one role
func (s *RepairProfileService) ListProfiles(ctx context.Context, actor lifecycle.Actor, role models.Role) ([]models.Profile, error) {
	if !actor.Role.IsAdmin() {
		return nil, lifecycle.Unauthorized("only admins can list profiles")
	}
	if role != "" && !role.IsValid() {
		return nil, lifecycle.ValidationError("unknown role %q", role)
	}
	return s.repo.ListProfiles(ctx, role)
}
