package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/repair-shop-api/lifecycle"
	"github.com/kendall-kelly/repair-shop-api/middleware"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/services"
)

// currentProfile resolves the token subject to its stored profile. It writes
// the error response and returns false when the caller has no profile yet.
func currentProfile(c *gin.Context) (*models.Profile, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil, false
	}

	profile, err := services.GetProfileService().GetProfile(c.Request.Context(), auth0ID)
	if err != nil {
		if errors.Is(err, lifecycle.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "User profile not found. Please create a profile first.",
				},
			})
			return nil, false
		}
		respondError(c, err)
		return nil, false
	}

	return profile, true
}

// currentActor is currentProfile reduced to what the lifecycle rules need
func currentActor(c *gin.Context) (lifecycle.Actor, bool) {
	profile, ok := currentProfile(c)
	if !ok {
		return lifecycle.Actor{}, false
	}
	return lifecycle.Actor{ID: profile.ID, Role: profile.Role}, true
}
