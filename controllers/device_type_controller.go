package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/repair-shop-api/config"
	"github.com/kendall-kelly/repair-shop-api/repository"
)

// ListDeviceTypes handles GET /api/v1/device-types - the catalogue customers pick from
func ListDeviceTypes(c *gin.Context) {
	deviceTypes, err := repository.NewStore(config.GetDB()).ListDeviceTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    deviceTypes,
	})
}
