package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"calibration-backend/internal/store"
)

type createSessionRequest struct {
	FilamentID     *int       `json:"filament_id" binding:"required"`
	Status         string     `json:"status" binding:"omitempty,oneof=planned in_progress complete archived"`
	PrinterName    *string    `json:"printer_name" binding:"omitempty,max=256"`
	NozzleDiameter *float64   `json:"nozzle_diameter" binding:"omitempty,gt=0"`
	Notes          *string    `json:"notes" binding:"omitempty,max=1024"`
	StartedAt      *time.Time `json:"started_at"`
}

// CreateSession handles POST /calibration/session.
func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.store.CreateSession(c.Request.Context(), store.SessionParams{
		FilamentID:     *req.FilamentID,
		Status:         req.Status,
		PrinterName:    req.PrinterName,
		NozzleDiameter: req.NozzleDiameter,
		Notes:          req.Notes,
		StartedAt:      req.StartedAt,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, newSessionResponse(item))
}

// FindSessions handles GET /calibration/session. The pre-pagination match
// count is returned in the X-Total-Count header.
func (h *Handler) FindSessions(c *gin.Context) {
	var filter store.SessionFilter

	if raw := c.Query("filament_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filament_id"})
			return
		}
		filter.FilamentID = &id
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = &limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
			return
		}
		filter.Offset = offset
	}

	items, totalCount, err := h.store.ListSessions(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]SessionResponse, 0, len(items))
	for i := range items {
		responses = append(responses, newSessionResponse(&items[i]))
	}

	c.Header("X-Total-Count", strconv.FormatInt(totalCount, 10))
	c.JSON(http.StatusOK, responses)
}

// GetSession handles GET /calibration/session/:session_id.
func (h *Handler) GetSession(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	item, err := h.store.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(item))
}

type updateSessionRequest struct {
	Status         *string    `json:"status" binding:"omitempty,oneof=planned in_progress complete archived"`
	PrinterName    *string    `json:"printer_name" binding:"omitempty,max=256"`
	NozzleDiameter *float64   `json:"nozzle_diameter" binding:"omitempty,gt=0"`
	Notes          *string    `json:"notes" binding:"omitempty,max=1024"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// UpdateSession handles PATCH /calibration/session/:session_id. Only the
// fields present in the body are touched; an explicit null clears a
// nullable field.
func (h *Handler) UpdateSession(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	var req updateSessionRequest
	present, err := bindPatch(c, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := make(map[string]any)
	if _, ok := present["status"]; ok {
		if req.Status == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status may not be null"})
			return
		}
		patch["status"] = *req.Status
	}
	if _, ok := present["printer_name"]; ok {
		patch["printer_name"] = req.PrinterName
	}
	if _, ok := present["nozzle_diameter"]; ok {
		patch["nozzle_diameter"] = req.NozzleDiameter
	}
	if _, ok := present["notes"]; ok {
		patch["notes"] = req.Notes
	}
	if _, ok := present["started_at"]; ok {
		patch["started_at"] = req.StartedAt
	}
	if _, ok := present["completed_at"]; ok {
		patch["completed_at"] = req.CompletedAt
	}

	item, err := h.store.UpdateSession(c.Request.Context(), sessionID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	// Notify subscribers once a session they follow is marked complete.
	if h.workers != nil && item.Status == store.StatusComplete {
		if s, ok := patch["status"]; ok && s == store.StatusComplete {
			h.workers.Dispatch(item.ID)
		}
	}

	c.JSON(http.StatusOK, newSessionResponse(item))
}

// DeleteSession handles DELETE /calibration/session/:session_id. The
// storage layer cascades removal of all owned step results.
func (h *Handler) DeleteSession(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	if err := h.store.DeleteSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Success!"})
}
