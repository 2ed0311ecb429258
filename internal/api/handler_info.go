package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"calibration-backend/internal/store"
)

// Version is the reported backend version.
const Version = "0.1.0"

// GetInfo returns static backend metadata, including the recognized
// calibration step types in their fixed domain order.
func (h *Handler) GetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":    Version,
		"step_types": store.StepTypes,
	})
}
