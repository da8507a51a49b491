package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/repair-shop-api/services"
)

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Message       string  `json:"message" binding:"required"`
	AttachmentURL *string `json:"attachment_url"`
}

// SendMessage handles POST /api/v1/repair-requests/:id/messages - sends a message on a repair request
func SendMessage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	message, err := services.GetChatService().SendMessage(c.Request.Context(), actor, c.Param("id"), req.Message, req.AttachmentURL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.PureJSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// GetMessages handles GET /api/v1/repair-requests/:id/messages - the conversation in send order
func GetMessages(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	messages, err := services.GetChatService().ListMessages(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.PureJSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// StreamMessages handles GET /api/v1/repair-requests/:id/messages/stream
// Each new message is sent as a server-sent "message" event until the client disconnects.
func StreamMessages(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	messages, err := services.GetChatService().Subscribe(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		message, open := <-messages
		if !open {
			return false
		}
		c.SSEvent("message", message)
		return true
	})
}
