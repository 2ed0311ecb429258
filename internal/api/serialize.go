package api

import (
	"encoding/json"
	"log"
	"time"

	"calibration-backend/internal/model"
)

// SessionResponse represents the API response for a calibration session.
// Optional fields without a value are omitted rather than emitted as null.
type SessionResponse struct {
	ID             int            `json:"id"`
	Registered     time.Time      `json:"registered"`
	FilamentID     int            `json:"filament_id"`
	Status         string         `json:"status"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	PrinterName    *string        `json:"printer_name,omitempty"`
	NozzleDiameter *float64       `json:"nozzle_diameter,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	Steps          []StepResponse `json:"steps"`
}

// StepResponse represents the API response for a single step result. The
// three JSON object fields are deserialized from their stored text form.
type StepResponse struct {
	ID             int            `json:"id"`
	SessionID      int            `json:"session_id"`
	StepType       string         `json:"step_type"`
	Inputs         map[string]any `json:"inputs,omitempty"`
	Outputs        map[string]any `json:"outputs,omitempty"`
	SelectedValues map[string]any `json:"selected_values,omitempty"`
	Notes          *string        `json:"notes,omitempty"`
	Confidence     *string        `json:"confidence,omitempty"`
	RecordedAt     time.Time      `json:"recorded_at"`
}

func newSessionResponse(item *model.CalibrationSession) SessionResponse {
	steps := make([]StepResponse, 0, len(item.Steps))
	for i := range item.Steps {
		steps = append(steps, newStepResponse(&item.Steps[i]))
	}
	return SessionResponse{
		ID:             item.ID,
		Registered:     item.Registered.UTC(),
		FilamentID:     item.FilamentID,
		Status:         item.Status,
		StartedAt:      utcOrNil(item.StartedAt),
		CompletedAt:    utcOrNil(item.CompletedAt),
		PrinterName:    item.PrinterName,
		NozzleDiameter: item.NozzleDiameter,
		Notes:          item.Notes,
		Steps:          steps,
	}
}

func newStepResponse(item *model.CalibrationStepResult) StepResponse {
	return StepResponse{
		ID:             item.ID,
		SessionID:      item.SessionID,
		StepType:       item.StepType,
		Inputs:         decodeObject(item.Inputs),
		Outputs:        decodeObject(item.Outputs),
		SelectedValues: decodeObject(item.SelectedValues),
		Notes:          item.Notes,
		Confidence:     item.Confidence,
		RecordedAt:     item.RecordedAt.UTC(),
	}
}

func utcOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// decodeObject turns stored JSON text back into a structured object.
// NULL stays absent.
func decodeObject(s *string) map[string]any {
	if s == nil {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(*s), &obj); err != nil {
		log.Printf("Warning: could not decode stored JSON blob: %v", err)
		return nil
	}
	return obj
}

// encodeObject serializes a caller-supplied JSON object for storage.
// Absent objects are stored as NULL, not as an empty object.
func encodeObject(obj map[string]any) (*string, error) {
	if obj == nil {
		return nil, nil
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}
