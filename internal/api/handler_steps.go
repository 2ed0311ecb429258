package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"calibration-backend/internal/store"
)

type createStepRequest struct {
	StepType       string         `json:"step_type" binding:"required,oneof=temperature volumetric_speed pressure_advance flow_rate retraction tolerance cornering input_shaping vfa"`
	Inputs         map[string]any `json:"inputs"`
	Outputs        map[string]any `json:"outputs"`
	SelectedValues map[string]any `json:"selected_values"`
	Notes          *string        `json:"notes" binding:"omitempty,max=1024"`
	Confidence     *string        `json:"confidence" binding:"omitempty,max=32"`
	RecordedAt     *time.Time     `json:"recorded_at"`
}

// CreateStep handles POST /calibration/session/:session_id/step.
func (h *Handler) CreateStep(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	var req createStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := store.StepParams{
		StepType:   req.StepType,
		Notes:      req.Notes,
		Confidence: req.Confidence,
		RecordedAt: req.RecordedAt,
	}
	if params.Inputs, err = encodeObject(req.Inputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if params.Outputs, err = encodeObject(req.Outputs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if params.SelectedValues, err = encodeObject(req.SelectedValues); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.store.CreateStep(c.Request.Context(), sessionID, params)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, newStepResponse(item))
}

// GetStep handles GET /calibration/step/:step_id.
func (h *Handler) GetStep(c *gin.Context) {
	stepID, err := strconv.Atoi(c.Param("step_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step ID"})
		return
	}

	item, err := h.store.GetStep(c.Request.Context(), stepID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, newStepResponse(item))
}

type updateStepRequest struct {
	StepType       *string        `json:"step_type" binding:"omitempty,oneof=temperature volumetric_speed pressure_advance flow_rate retraction tolerance cornering input_shaping vfa"`
	Inputs         map[string]any `json:"inputs"`
	Outputs        map[string]any `json:"outputs"`
	SelectedValues map[string]any `json:"selected_values"`
	Notes          *string        `json:"notes" binding:"omitempty,max=1024"`
	Confidence     *string        `json:"confidence" binding:"omitempty,max=32"`
	RecordedAt     *time.Time     `json:"recorded_at"`
}

// UpdateStep handles PATCH /calibration/step/:step_id with the same partial
// semantics as session updates. Supplied JSON object fields are
// re-serialized to text before storage.
func (h *Handler) UpdateStep(c *gin.Context) {
	stepID, err := strconv.Atoi(c.Param("step_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step ID"})
		return
	}

	var req updateStepRequest
	present, err := bindPatch(c, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := make(map[string]any)
	if _, ok := present["step_type"]; ok {
		if req.StepType == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "step_type may not be null"})
			return
		}
		patch["step_type"] = *req.StepType
	}
	objects := map[string]map[string]any{
		"inputs":          req.Inputs,
		"outputs":         req.Outputs,
		"selected_values": req.SelectedValues,
	}
	for field, obj := range objects {
		if _, ok := present[field]; !ok {
			continue
		}
		encoded, err := encodeObject(obj)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patch[field] = encoded
	}
	if _, ok := present["notes"]; ok {
		patch["notes"] = req.Notes
	}
	if _, ok := present["confidence"]; ok {
		patch["confidence"] = req.Confidence
	}
	if _, ok := present["recorded_at"]; ok {
		if req.RecordedAt == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recorded_at may not be null"})
			return
		}
		patch["recorded_at"] = req.RecordedAt
	}

	item, err := h.store.UpdateStep(c.Request.Context(), stepID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, newStepResponse(item))
}

// DeleteStep handles DELETE /calibration/step/:step_id.
func (h *Handler) DeleteStep(c *gin.Context) {
	stepID, err := strconv.Atoi(c.Param("step_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step ID"})
		return
	}

	if err := h.store.DeleteStep(c.Request.Context(), stepID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Success!"})
}
