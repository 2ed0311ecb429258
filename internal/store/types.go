package store

import "time"

// Session status labels. The store accepts any of these in any order;
// no transition rules are enforced.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
	StatusArchived   = "archived"
)

// StepTypes lists the recognized calibration steps in their fixed domain
// order (temperature tower first, VFA last).
var StepTypes = []string{
	"temperature",
	"volumetric_speed",
	"pressure_advance",
	"flow_rate",
	"retraction",
	"tolerance",
	"cornering",
	"input_shaping",
	"vfa",
}

// SessionParams carries the fields a caller may supply when creating a
// session. Optional fields are pointers; nil means not supplied.
type SessionParams struct {
	FilamentID     int
	Status         string
	PrinterName    *string
	NozzleDiameter *float64
	Notes          *string
	StartedAt      *time.Time
}

// StepParams carries the fields for creating a step result. The three JSON
// object fields arrive already serialized to text.
type StepParams struct {
	StepType       string
	Inputs         *string
	Outputs        *string
	SelectedValues *string
	Notes          *string
	Confidence     *string
	RecordedAt     *time.Time
}

// SessionFilter narrows and paginates ListSessions. Offset is applied
// before Limit; a nil Limit returns everything past the offset.
type SessionFilter struct {
	FilamentID *int
	Limit      *int
	Offset     int
}
