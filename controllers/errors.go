package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/repair-shop-api/lifecycle"
	"github.com/kendall-kelly/repair-shop-api/logging"
)

// statusFor maps a lifecycle error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, lifecycle.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, lifecycle.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, lifecycle.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError writes err in the API error envelope. Store failures are
// logged with their cause and answered with a generic message.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logging.GetLogger().Error(err, "request failed", "path", c.FullPath())
	}

	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    lifecycle.Code(err),
			"message": lifecycle.Message(err),
		},
	})
}

// respondBadRequest reports a body or query that could not be bound
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}
