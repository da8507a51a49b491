package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/repair-shop-api/services"
	"github.com/kendall-kelly/repair-shop-api/utils"
)

// GetUploadedImage handles GET /api/v1/uploads/:filename - serves locally stored device photos
func GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")

	// Validate filename is not empty
	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Filename is required",
			},
		})
		return
	}

	// Security: Prevent directory traversal attacks
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILENAME",
				"message": "Invalid filename",
			},
		})
		return
	}

	if !utils.IsAllowedImage(filename) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "Only PNG and JPEG files are supported",
			},
		})
		return
	}

	// Construct full file path
	filePath := filepath.Join(utils.UploadDir, filename)

	// Check if file exists
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_NOT_FOUND",
				"message": "Image not found",
			},
		})
		return
	}

	// Serve the file with appropriate headers
	c.Header("Content-Type", utils.ContentType(filename))
	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}

// UploadRepairImage handles POST /api/v1/repair-requests/:id/images
// Expects a multipart form with an "image" file and an optional "description".
func UploadRepairImage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "An image file is required",
			},
		})
		return
	}

	var description *string
	if value, present := c.GetPostForm("description"); present {
		description = &value
	}

	image, err := services.GetRepairImageService().AttachImage(c.Request.Context(), actor, c.Param("id"), fileHeader, description)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    image,
	})
}

// ListRepairImages handles GET /api/v1/repair-requests/:id/images
func ListRepairImages(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	images, err := services.GetRepairImageService().ListImages(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    images,
	})
}
