package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/repair-shop-api/lifecycle"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/services"
	"github.com/kendall-kelly/repair-shop-api/utils"
)

// CreateRepairRequestRequest represents the request body for submitting a repair request
type CreateRepairRequestRequest struct {
	DeviceTypeID       string  `json:"device_type_id" binding:"required"`
	DeviceBrand        string  `json:"device_brand" binding:"required"`
	DeviceModel        *string `json:"device_model"`
	ProblemDescription string  `json:"problem_description" binding:"required"`
	Priority           string  `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	PickupAddress      *string `json:"pickup_address"`
}

// TransitionRequest represents the request body for moving a repair request to a new status
type TransitionRequest struct {
	Status        string   `json:"status" binding:"required"`
	TechnicianID  *string  `json:"technician_id"`
	EstimatedCost *float64 `json:"estimated_cost"`
	FinalCost     *float64 `json:"final_cost"`
	Notes         *string  `json:"notes"`
}

// AssignRequest represents the request body for assigning a technician
type AssignRequest struct {
	TechnicianID string `json:"technician_id" binding:"required"`
}

// NotesRequest represents the request body for updating technician notes
type NotesRequest struct {
	Notes *string `json:"notes" binding:"required"`
}

// CreateRepairRequest handles POST /api/v1/repair-requests - submits a repair request (customers only)
func CreateRepairRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req CreateRepairRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	request, err := services.GetLifecycleService().Create(c.Request.Context(), actor, services.CreateRequestInput{
		DeviceTypeID:       req.DeviceTypeID,
		DeviceBrand:        req.DeviceBrand,
		DeviceModel:        req.DeviceModel,
		ProblemDescription: req.ProblemDescription,
		Priority:           models.Priority(req.Priority),
		PickupAddress:      req.PickupAddress,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    request,
	})
}

// ListRepairRequests handles GET /api/v1/repair-requests - lists the requests the caller can see
// Query parameters: status, page, limit
func ListRepairRequests(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	page, limit := utils.ParsePagination(c.Query("page"), c.Query("limit"))
	requests, total, err := services.GetLifecycleService().ListForRole(c.Request.Context(), actor, services.ListOptions{
		Status: models.RepairStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       requests,
		"pagination": utils.NewPagination(page, limit, total),
	})
}

// GetRepairRequest handles GET /api/v1/repair-requests/:id
// The response lists the statuses the caller may move the request to.
func GetRepairRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	request, err := services.GetLifecycleService().Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"data":                  request,
		"available_transitions": lifecycle.AvailableTransitions(actor, request),
	})
}

// GetRepairRequestHistory handles GET /api/v1/repair-requests/:id/history
func GetRepairRequestHistory(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	history, err := services.GetLifecycleService().History(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    history,
	})
}

// TransitionRepairRequest handles POST /api/v1/repair-requests/:id/transitions
func TransitionRepairRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	request, err := services.GetLifecycleService().Transition(c.Request.Context(), actor, c.Param("id"), models.RepairStatus(req.Status), lifecycle.Fields{
		TechnicianID:  req.TechnicianID,
		EstimatedCost: req.EstimatedCost,
		FinalCost:     req.FinalCost,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    request,
	})
}

// AssignRepairRequest handles PUT /api/v1/repair-requests/:id/assign (admins only)
func AssignRepairRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	request, err := services.GetLifecycleService().Assign(c.Request.Context(), actor, c.Param("id"), req.TechnicianID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    request,
	})
}

// UpdateRepairNotes handles PUT /api/v1/repair-requests/:id/notes (assigned technician only)
func UpdateRepairNotes(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	request, err := services.GetLifecycleService().UpdateNotes(c.Request.Context(), actor, c.Param("id"), *req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    request,
	})
}

// TrackRepairRequest handles GET /api/v1/repair-requests/track/:code
// The code may be a tracking code or a request id.
func TrackRepairRequest(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	request, err := services.GetLifecycleService().Track(c.Request.Context(), actor, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    request,
	})
}

// GetRepairStats handles GET /api/v1/repair-requests/stats - dashboard counters for the caller's requests
func GetRepairStats(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	stats, err := services.GetLifecycleService().Stats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// GetAnalytics handles GET /api/v1/analytics (admins only)
func GetAnalytics(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	analytics, err := services.GetLifecycleService().Analytics(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    analytics,
	})
}
