package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/repair-shop-api/services"
)

// CreateReviewRequest represents the request body for reviewing a completed repair
type CreateReviewRequest struct {
	Rating  int     `json:"rating" binding:"required"`
	Comment *string `json:"comment"`
}

// CreateReview handles POST /api/v1/repair-requests/:id/review (owner customer only)
func CreateReview(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	review, err := services.GetReviewService().CreateReview(c.Request.Context(), actor, c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    review,
	})
}

// ListTechnicianReviews handles GET /api/v1/technicians/:id/reviews
func ListTechnicianReviews(c *gin.Context) {
	if _, ok := currentActor(c); !ok {
		return
	}

	reviews, err := services.GetReviewService().ListTechnicianReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    reviews,
	})
}
