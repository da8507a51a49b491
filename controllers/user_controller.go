package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/repair-shop-api/config"
	"github.com/kendall-kelly/repair-shop-api/lifecycle"
	"github.com/kendall-kelly/repair-shop-api/middleware"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/services"
)

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

// CreateUser handles POST /api/v1/users - creates the caller's profile
// With Auth0 the name and email come from the /userinfo endpoint; locally
// issued tokens carry them as claims.
func CreateUser(c *gin.Context) {
	// Get the Auth0 user ID from the validated JWT
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user ID from token",
			},
		})
		return
	}

	// Get role from custom claims (if present)
	var role models.Role
	customClaims, claimsErr := middleware.GetCustomClaims(c)
	if claimsErr == nil {
		role = models.Role(customClaims.Role)
	}

	cfg := config.GetConfig()
	var userInfo *services.Auth0UserInfo
	if cfg.Auth0Domain == "" && claimsErr == nil {
		userInfo = &services.Auth0UserInfo{Sub: auth0ID, Email: customClaims.Email, Name: customClaims.Name}
	} else {
		// Get the access token to call Auth0's /userinfo endpoint
		accessToken, err := middleware.GetAccessToken(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_TOKEN",
					"message": "Access token not found",
				},
			})
			return
		}

		// Fetch user info from Auth0
		userInfo, err = services.NewAuth0Service(cfg).GetUserInfo(c.Request.Context(), accessToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "AUTH0_ERROR",
					"message": "Failed to fetch user information from Auth0",
				},
			})
			return
		}
	}

	profile, err := services.GetProfileService().CreateProfile(c.Request.Context(), auth0ID, userInfo, role)
	if err != nil {
		if errors.Is(err, lifecycle.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_EXISTS",
					"message": "A user with this Auth0 ID or email already exists",
				},
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    profile,
	})
}

// GetMyProfile handles GET /api/v1/users/me - gets current user's profile
func GetMyProfile(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profile,
	})
}

// UpdateMyProfile handles PUT /api/v1/users/me - updates current user's profile
// Role and email cannot be changed here.
func UpdateMyProfile(c *gin.Context) {
	profile, ok := currentProfile(c)
	if !ok {
		return
	}

	// Parse request body
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	updated, err := services.GetProfileService().UpdateProfile(c.Request.Context(), profile.Auth0ID, services.ProfileUpdate{
		FullName:  req.FullName,
		Phone:     req.Phone,
		Address:   req.Address,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updated,
	})
}

// ListUsers handles GET /api/v1/users?role= - lists profiles (admins only)
func ListUsers(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	profiles, err := services.GetProfileService().ListProfiles(c.Request.Context(), actor, models.Role(c.Query("role")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    profiles,
	})
}
